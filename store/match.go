package store

import (
	"context"
	"time"
)

// Match is a scored (lost, found) pair, unique per pair. Re-scoring
// replaces the row atomically; a dismissed match stays dismissed through
// later re-scores so "not a match" feedback is never undone by the
// ranker.
type Match struct {
	ID            string
	LostID        string
	FoundID       string
	Score         float64
	AutoSuggested bool
	Dismissed     bool
	CreatedTs     int64
}

type FindMatch struct {
	ID               *string
	LostID           *string
	FoundID          *string
	MinScore         *float64
	IncludeDismissed bool
	Limit            *int
}

func (s *Store) UpsertMatch(ctx context.Context, upsert *Match) (*Match, error) {
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = time.Now().Unix()
	}
	return s.driver.UpsertMatch(ctx, upsert)
}

func (s *Store) ListMatches(ctx context.Context, find *FindMatch) ([]*Match, error) {
	return s.driver.ListMatches(ctx, find)
}

func (s *Store) DismissMatch(ctx context.Context, id string) error {
	if err := s.driver.DismissMatch(ctx, id); err != nil {
		return err
	}
	s.statsCache.Delete(statsCacheKey)
	return nil
}

// DeleteMatch removes a pair's row after a re-score drops it below the
// storage threshold. Dismissed rows are never deleted; see the ranker.
func (s *Store) DeleteMatch(ctx context.Context, id string) error {
	return s.driver.DeleteMatch(ctx, id)
}
