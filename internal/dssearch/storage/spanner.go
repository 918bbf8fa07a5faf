package storage

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"

	"github.com/dssahayak/search/internal/dssearch/model"
)

// SpannerLogStore persists search-outcome log entries to a SearchLog
// table, an alternate backend to the orchestrator's bounded in-process
// ring (selected when StorageConfig.Spanner is configured), grounded on
// internal/reputation/spanner.go's client-wrap + Mutation-insert idiom.
type SpannerLogStore struct {
	client *spanner.Client
}

// NewSpannerLogStore opens a Spanner client for project/instance/database.
func NewSpannerLogStore(ctx context.Context, project, instance, database string) (*SpannerLogStore, error) {
	dbPath := fmt.Sprintf("projects/%s/instances/%s/databases/%s", project, instance, database)
	client, err := spanner.NewClient(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("spanner.NewClient: %w", err)
	}
	return &SpannerLogStore{client: client}, nil
}

// Append inserts one outcome entry into the SearchLog table, satisfying
// the orchestrator package's LogStore interface.
func (s *SpannerLogStore) Append(ctx context.Context, entry model.SearchLogEntry) error {
	_, err := s.client.Apply(ctx, []*spanner.Mutation{
		spanner.Insert("SearchLog",
			[]string{"Query", "UserIDHash", "Timestamp", "Intent", "Score", "Action", "Source", "ResultCount", "DurationMs"},
			[]interface{}{
				entry.Query,
				entry.UserIDHash,
				entry.Timestamp,
				string(entry.Intent),
				entry.Score,
				entry.Action,
				string(entry.Source),
				int64(entry.ResultCount),
				entry.DurationMs,
			},
		),
	})
	return err
}

// Close closes the underlying Spanner client.
func (s *SpannerLogStore) Close() error {
	s.client.Close()
	return nil
}
