package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/pubsub"
)

// pubsubPublisher fans search-outcome log entries out to a Cloud Pub/Sub
// topic, grounded on internal/events/pubsub_bus.go's topic-exists-or-create
// + non-blocking-publish idiom, narrowed to DS-Search's single outcome
// stream (spec.md §4.9's admin/analytics surface).
type pubsubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	logger *log.Logger
}

// NewPubSubPublisher connects to projectID/topicID, creating the topic if
// it does not already exist.
func NewPubSubPublisher(projectID, topicID string) (*pubsubPublisher, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub.NewClient: %w", err)
	}

	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("topic.Exists: %w", err)
	}
	if !exists {
		topic, err = client.CreateTopic(ctx, topicID)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("CreateTopic: %w", err)
		}
	}

	return &pubsubPublisher{
		client: client,
		topic:  topic,
		logger: log.New(log.Writer(), "[DSSEARCH-PUBSUB] ", log.LstdFlags),
	}, nil
}

// Publish sends one outcome-log payload. Non-blocking: the publish result
// is awaited in a background goroutine so Ask's hot path never stalls on
// Pub/Sub latency.
func (p *pubsubPublisher) Publish(ctx context.Context, payload []byte) {
	result := p.topic.Publish(ctx, &pubsub.Message{Data: payload})
	go func() {
		if _, err := result.Get(context.Background()); err != nil {
			p.logger.Printf("❌ outcome publish failed: %v", err)
		}
	}()
}

// Close shuts down the Pub/Sub client.
func (p *pubsubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
