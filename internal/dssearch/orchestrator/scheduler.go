package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	taskspb "cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
)

// CleanupScheduler re-enqueues the cache's expired-entry sweep as a Cloud
// Task, an alternate to the in-process time.Ticker (DESIGN.md open
// question #2), grounded on internal/webhooks/cloud_dispatcher.go's
// queue-path + CreateTaskRequest idiom.
type CleanupScheduler struct {
	client    *cloudtasks.Client
	queuePath string
	targetURL string
	logger    *log.Logger
}

// NewCleanupScheduler builds a scheduler targeting the given Cloud Tasks
// queue. targetURL is the orchestrator's own /api/admin/cache/cleanup
// endpoint, which re-arms the next task on completion.
func NewCleanupScheduler(projectID, locationID, queueID, targetURL string) (*CleanupScheduler, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := cloudtasks.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("cloudtasks.NewClient: %w", err)
	}

	return &CleanupScheduler{
		client:    client,
		queuePath: fmt.Sprintf("projects/%s/locations/%s/queues/%s", projectID, locationID, queueID),
		targetURL: targetURL,
		logger:    log.New(log.Writer(), "[DSSEARCH-CLOUDTASKS] ", log.LstdFlags),
	}, nil
}

// ScheduleCleanup enqueues one HTTP task to fire after delay.
func (s *CleanupScheduler) ScheduleCleanup(delay time.Duration) {
	req := &taskspb.CreateTaskRequest{
		Parent: s.queuePath,
		Task: &taskspb.Task{
			MessageType: &taskspb.Task_HttpRequest{
				HttpRequest: &taskspb.HttpRequest{
					HttpMethod: taskspb.HttpMethod_POST,
					Url:        s.targetURL,
				},
			},
		},
	}

	go func() {
		if delay > 0 {
			time.Sleep(delay)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := s.client.CreateTask(ctx, req); err != nil {
			s.logger.Printf("❌ cleanup task enqueue failed: %v", err)
		}
	}()
}

// Close shuts down the Cloud Tasks client.
func (s *CleanupScheduler) Close() error {
	return s.client.Close()
}
