package store

import (
	"context"
	"fmt"
	"strings"

	"milos55/reklamiworker/internal/ad"
)

// ConflictPolicy decides what a save does with a link that is already stored
type ConflictPolicy string

const (
	// DoNothing keeps the first stored version of an ad
	DoNothing ConflictPolicy = "nothing"
	// Update refreshes the mutable columns of the stored ad
	Update ConflictPolicy = "update"
)

// ParseConflictPolicy parses "nothing" or "update"
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch p := ConflictPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case DoNothing, Update:
		return p, nil
	}
	return "", fmt.Errorf("unknown conflict policy %q", s)
}

// BatchResult reports what happened to each ad of a batch
type BatchResult struct {
	// Inserted holds the ads whose link was new
	Inserted []*ad.Ad
	// Updated counts existing rows refreshed under the Update policy
	Updated int
	// Unchanged counts existing rows left alone under the DoNothing policy
	Unchanged int
	// Failed holds the ads the sink rejected; the rest of the batch is unaffected
	Failed []*ad.Ad
}

// Persisted is the number of ads written by this batch
func (r BatchResult) Persisted() int {
	return len(r.Inserted) + r.Updated
}

// Store is the persistence sink, keyed by ad link
type Store interface {
	// SaveBatch upserts ads. A returned error means the sink itself is unavailable.
	SaveBatch(ctx context.Context, ads []*ad.Ad) (BatchResult, error)

	// Links pages through stored links in insertion order
	Links(ctx context.Context, offset, limit int) ([]string, error)

	// DeleteLinks removes the ads with the given links and returns how many were deleted
	DeleteLinks(ctx context.Context, links []string) (int, error)

	// Close releases the sink
	Close()
}

// Stored returns the ads of batch that are in storage after the save,
// whether written now or already present
func (r BatchResult) Stored(batch []*ad.Ad) []*ad.Ad {
	if len(r.Failed) == 0 {
		return batch
	}
	failed := make(map[*ad.Ad]struct{}, len(r.Failed))
	for _, a := range r.Failed {
		failed[a] = struct{}{}
	}
	var out []*ad.Ad
	for _, a := range batch {
		if _, ok := failed[a]; !ok {
			out = append(out, a)
		}
	}
	return out
}
