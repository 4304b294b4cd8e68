package store

import (
	"context"
	"time"

	"github.com/JaCARYK/beartracks/internal/errs"
)

// Item status lifecycle. Transitions to on_hold/claimed only happen
// through the claim workflow; donated and disposed are explicit office
// actions.
const (
	ItemStatusAvailable = "available"
	ItemStatusOnHold    = "on_hold"
	ItemStatusClaimed   = "claimed"
	ItemStatusDonated   = "donated"
	ItemStatusDisposed  = "disposed"
)

// Item categories form a closed enumeration shared by lost and found
// reports.
var Categories = []string{
	"electronics", "clothing", "accessories", "books", "keys", "bottles", "jewelry", "other",
}

func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

func IsValidItemStatus(status string) bool {
	switch status {
	case ItemStatusAvailable, ItemStatusOnHold, ItemStatusClaimed, ItemStatusDonated, ItemStatusDisposed:
		return true
	}
	return false
}

type FoundItem struct {
	ID             string
	Title          string
	Description    string
	Category       string
	LocationID     int32
	ReporterID     string
	Status         string
	TextEmbedding  []float32
	EmbeddingModel string
	Photos         []*Photo
	FoundTs        int64
	CreatedTs      int64
}

type FindFoundItem struct {
	ID          *string
	Status      *string
	Category    *string
	LocationID  *int32
	FoundAfter  *int64
	FoundBefore *int64
	Limit       *int
	Offset      *int
	WithPhotos  bool
}

// UpdateFoundItemStatus is a conditional status update: the change only
// applies when the item is currently in one of ExpectedStatus. Zero rows
// affected means the caller lost a race or requested an illegal change.
type UpdateFoundItemStatus struct {
	ID             string
	Status         string
	ExpectedStatus []string
}

func (s *Store) CreateFoundItem(ctx context.Context, create *FoundItem) (*FoundItem, error) {
	if create.Title == "" {
		return nil, errs.Validationf("title", "required")
	}
	if !IsValidCategory(create.Category) {
		return nil, errs.Validationf("category", "unknown category %q", create.Category)
	}
	if create.Status == "" {
		create.Status = ItemStatusAvailable
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	item, err := s.driver.CreateFoundItem(ctx, create)
	if err != nil {
		return nil, err
	}
	s.statsCache.Delete(statsCacheKey)
	return item, nil
}

func (s *Store) ListFoundItems(ctx context.Context, find *FindFoundItem) ([]*FoundItem, error) {
	if find.Limit == nil {
		defaultLimit := 100
		find.Limit = &defaultLimit
	}
	return s.driver.ListFoundItems(ctx, find)
}

func (s *Store) GetFoundItem(ctx context.Context, id string) (*FoundItem, error) {
	items, err := s.driver.ListFoundItems(ctx, &FindFoundItem{ID: &id, WithPhotos: true})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &errs.NotFoundError{Kind: "found item", ID: id}
	}
	return items[0], nil
}

func (s *Store) UpdateFoundItemStatus(ctx context.Context, update *UpdateFoundItemStatus) (*FoundItem, error) {
	if !IsValidItemStatus(update.Status) {
		return nil, errs.Validationf("status", "unknown status %q", update.Status)
	}
	item, err := s.driver.UpdateFoundItemStatus(ctx, update)
	if err != nil {
		return nil, err
	}
	s.statsCache.Delete(statsCacheKey)
	return item, nil
}
