package store

import (
	"context"
	"time"

	"github.com/JaCARYK/beartracks/internal/errs"
)

type LostItem struct {
	ID             string
	ReporterID     string
	Title          string
	Description    string
	Category       string
	LocationID     int32
	PhotoURL       string
	TextEmbedding  []float32
	ImageEmbedding []float32
	PhotoHash      uint64
	HasPhotoHash   bool
	EmbeddingModel string
	Resolved       bool
	LastSeenTs     int64
	CreatedTs      int64
}

type FindLostItem struct {
	ID         *string
	Resolved   *bool
	Category   *string
	SeenAfter  *int64
	SeenBefore *int64
	Limit      *int
	Offset     *int
}

// UpdateLostItem replaces the editable fields of a report. Embeddings are
// recomputed by the caller and stored alongside, so a partial update can
// never leave stale vectors next to new text.
type UpdateLostItem struct {
	ID             string
	Title          *string
	Description    *string
	Category       *string
	TextEmbedding  []float32
	ImageEmbedding []float32
	EmbeddingModel *string
	Resolved       *bool
}

func (s *Store) CreateLostItem(ctx context.Context, create *LostItem) (*LostItem, error) {
	if create.Title == "" {
		return nil, errs.Validationf("title", "required")
	}
	if !IsValidCategory(create.Category) {
		return nil, errs.Validationf("category", "unknown category %q", create.Category)
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	item, err := s.driver.CreateLostItem(ctx, create)
	if err != nil {
		return nil, err
	}
	s.statsCache.Delete(statsCacheKey)
	return item, nil
}

func (s *Store) ListLostItems(ctx context.Context, find *FindLostItem) ([]*LostItem, error) {
	if find.Limit == nil {
		defaultLimit := 100
		find.Limit = &defaultLimit
	}
	return s.driver.ListLostItems(ctx, find)
}

func (s *Store) GetLostItem(ctx context.Context, id string) (*LostItem, error) {
	items, err := s.driver.ListLostItems(ctx, &FindLostItem{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &errs.NotFoundError{Kind: "lost item", ID: id}
	}
	return items[0], nil
}

func (s *Store) UpdateLostItem(ctx context.Context, update *UpdateLostItem) (*LostItem, error) {
	item, err := s.driver.UpdateLostItem(ctx, update)
	if err != nil {
		return nil, err
	}
	if update.Resolved != nil {
		s.statsCache.Delete(statsCacheKey)
	}
	return item, nil
}

// ResolveLostItemsMatchedTo marks every lost report with an active
// (non-dismissed) match against the found item as resolved. Called when a
// claim pickup completes.
func (s *Store) ResolveLostItemsMatchedTo(ctx context.Context, foundID string) (int, error) {
	n, err := s.driver.ResolveLostItemsMatchedTo(ctx, foundID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.statsCache.Delete(statsCacheKey)
	}
	return n, nil
}
