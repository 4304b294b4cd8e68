package store

import (
	"context"
	"strconv"

	"github.com/JaCARYK/beartracks/internal/errs"
)

// Location is static reference data seeded at migration time; the core
// only reads it.
type Location struct {
	ID       int32
	Name     string
	Building string
	Floor    string
}

const locationsCacheKey = "locations"

func (s *Store) ListLocations(ctx context.Context) ([]*Location, error) {
	if cached, ok := s.locationCache.Get(locationsCacheKey); ok {
		return cached.([]*Location), nil
	}
	locations, err := s.driver.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	s.locationCache.Set(locationsCacheKey, locations)
	return locations, nil
}

func (s *Store) GetLocation(ctx context.Context, id int32) (*Location, error) {
	locations, err := s.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	for _, location := range locations {
		if location.ID == id {
			return location, nil
		}
	}
	return nil, &errs.NotFoundError{Kind: "location", ID: strconv.Itoa(int(id))}
}
