package storage

import (
	"context"
	"fmt"
	"os"

	supabase "github.com/supabase-community/supabase-go"
)

// IndexClient wraps the Supabase client around the internal job/scheme
// index (the `listings` table), used by the Policy Engine to weigh how
// well a query is already covered before authorising external search
// (CountMatches). InsertListing and SearchListings have no caller in
// this module. Adapted from
// internal/database.SupabaseClient's narrow From/Select/Eq idiom.
type IndexClient struct {
	client *supabase.Client
}

// NewIndexClient builds a client from SUPABASE_URL/SUPABASE_SERVICE_KEY.
func NewIndexClient() (*IndexClient, error) {
	url := os.Getenv("SUPABASE_URL")
	key := os.Getenv("SUPABASE_SERVICE_KEY")
	if url == "" || key == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY must be set")
	}
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &IndexClient{client: client}, nil
}

// ListingRow is one row of the internal listings table. Nothing in this
// module writes rows to it; InsertListing is the only write path.
type ListingRow struct {
	ID          string  `json:"id,omitempty"`
	Query       string  `json:"query"`
	Title       string  `json:"title"`
	SourceURL   string  `json:"source_url"`
	QueryType   string  `json:"query_type"`
	State       string  `json:"state,omitempty"`
	LastDate    string  `json:"last_date,omitempty"`
	Confidence  float64 `json:"confidence"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// CountMatches reports how many listings already match a query's text,
// satisfying the policy package's InternalIndex interface.
func (ic *IndexClient) CountMatches(ctx context.Context, query string) (int, error) {
	var rows []ListingRow
	_, err := ic.client.From("listings").
		Select("id", "exact", false).
		Eq("query", query).
		ExecuteTo(&rows)
	if err != nil {
		return 0, fmt.Errorf("count listing matches: %w", err)
	}
	return len(rows), nil
}

// InsertListing records a validated Facts extraction in the internal index.
func (ic *IndexClient) InsertListing(ctx context.Context, row ListingRow) error {
	var result []ListingRow
	_, err := ic.client.From("listings").
		Insert(row, false, "", "", "").
		ExecuteTo(&result)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

// SearchListings retrieves listings matching a query type, newest first.
func (ic *IndexClient) SearchListings(ctx context.Context, queryType string, limit int) ([]ListingRow, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []ListingRow
	_, err := ic.client.From("listings").
		Select("*", "", false).
		Eq("query_type", queryType).
		Order("created_at", nil).
		Limit(limit, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}
	return rows, nil
}
