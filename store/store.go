package store

import (
	"context"
	"time"

	"github.com/JaCARYK/beartracks/internal/profile"
	"github.com/JaCARYK/beartracks/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// Caches
	locationCache *cache.Cache // locations are read-only reference data
	statsCache    *cache.Cache // dashboard aggregates, invalidated on writes
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	cacheConfig := cache.Config{
		DefaultTTL:      10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
		MaxItems:        100,
	}
	statsConfig := cache.Config{
		DefaultTTL:      30 * time.Second,
		CleanupInterval: time.Minute,
		MaxItems:        4,
	}

	return &Store{
		driver:        driver,
		profile:       profile,
		locationCache: cache.New(cacheConfig),
		statsCache:    cache.New(statsConfig),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	s.locationCache.Close()
	s.statsCache.Close()
	return s.driver.Close()
}
