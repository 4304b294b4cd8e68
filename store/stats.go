package store

import "context"

const statsCacheKey = "stats"

// Stats are the aggregate counts the dashboard shows.
type Stats struct {
	TotalItems     int `json:"total_items"`
	AvailableItems int `json:"available_items"`
	OnHoldItems    int `json:"on_hold_items"`
	ClaimedItems   int `json:"claimed_items"`
	PendingClaims  int `json:"pending_claims"`
	ItemsReunited  int `json:"items_reunited"`
	OpenLostItems  int `json:"open_lost_items"`
}

func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	if cached, ok := s.statsCache.Get(statsCacheKey); ok {
		return cached.(*Stats), nil
	}
	stats, err := s.driver.Stats(ctx)
	if err != nil {
		return nil, err
	}
	s.statsCache.Set(statsCacheKey, stats)
	return stats, nil
}
