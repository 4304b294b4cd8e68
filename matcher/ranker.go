package matcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaCARYK/beartracks/internal/metrics"
	"github.com/JaCARYK/beartracks/store"
)

// candidateScanLimit bounds one scan. The time window already trims the
// candidate set; a campus office that overflows this needs a smarter
// index, not a bigger limit.
const candidateScanLimit = 500

// Suggestion is a match above the auto-suggest threshold, carried to the
// notification path together with both reports.
type Suggestion struct {
	Match *store.Match
	Lost  *store.LostItem
	Found *store.FoundItem
}

// Ranker scans candidates for a new or edited report, scores every pair
// and maintains the match rows.
type Ranker struct {
	store   *store.Store
	weights Weights
	metrics *metrics.Exporter
}

func NewRanker(s *store.Store, weights Weights, exporter *metrics.Exporter) *Ranker {
	return &Ranker{store: s, weights: weights, metrics: exporter}
}

// OnLostItemCreated scores the lost report against every available found
// item inside the time window and returns the suggestions that cleared
// the auto-suggest threshold.
func (r *Ranker) OnLostItemCreated(ctx context.Context, lost *store.LostItem) ([]*Suggestion, error) {
	suggestions, _, err := r.scanForLost(ctx, lost)
	return suggestions, err
}

// scanForLost runs the candidate scan and reports which found ids ended
// up with a stored row, so a re-score can prune pairs that fell below
// the threshold.
func (r *Ranker) scanForLost(ctx context.Context, lost *store.LostItem) ([]*Suggestion, map[string]bool, error) {
	start := time.Now()
	defer func() { r.metrics.ObserveScan(time.Since(start)) }()

	status := store.ItemStatusAvailable
	limit := candidateScanLimit
	find := &store.FindFoundItem{Status: &status, Limit: &limit, WithPhotos: true}
	if r.weights.TimeWindowDays > 0 {
		after := lost.LastSeenTs - int64(r.weights.TimeWindowDays)*secondsPerDay
		before := lost.LastSeenTs + int64(r.weights.TimeWindowDays)*secondsPerDay
		find.FoundAfter = &after
		find.FoundBefore = &before
	}
	candidates, err := r.store.ListFoundItems(ctx, find)
	if err != nil {
		return nil, nil, err
	}

	suggestions := []*Suggestion{}
	stored := map[string]bool{}
	for _, found := range candidates {
		suggestion, kept, err := r.scorePair(ctx, lost, found)
		if err != nil {
			return nil, nil, err
		}
		if kept {
			stored[found.ID] = true
		}
		if suggestion != nil {
			suggestions = append(suggestions, suggestion)
		}
	}
	r.metrics.MatchesComputed(len(candidates))
	slog.Debug("lost item scan complete",
		slog.String("lost", lost.ID),
		slog.Int("candidates", len(candidates)),
		slog.Int("suggestions", len(suggestions)))
	return suggestions, stored, nil
}

// OnFoundItemCreated is the mirror scan over open lost reports.
func (r *Ranker) OnFoundItemCreated(ctx context.Context, found *store.FoundItem) ([]*Suggestion, error) {
	start := time.Now()
	defer func() { r.metrics.ObserveScan(time.Since(start)) }()

	resolved := false
	limit := candidateScanLimit
	find := &store.FindLostItem{Resolved: &resolved, Limit: &limit}
	if r.weights.TimeWindowDays > 0 {
		after := found.FoundTs - int64(r.weights.TimeWindowDays)*secondsPerDay
		before := found.FoundTs + int64(r.weights.TimeWindowDays)*secondsPerDay
		find.SeenAfter = &after
		find.SeenBefore = &before
	}
	candidates, err := r.store.ListLostItems(ctx, find)
	if err != nil {
		return nil, err
	}

	suggestions := []*Suggestion{}
	for _, lost := range candidates {
		suggestion, _, err := r.scorePair(ctx, lost, found)
		if err != nil {
			return nil, err
		}
		if suggestion != nil {
			suggestions = append(suggestions, suggestion)
		}
	}
	r.metrics.MatchesComputed(len(candidates))
	slog.Debug("found item scan complete",
		slog.String("found", found.ID),
		slog.Int("candidates", len(candidates)),
		slog.Int("suggestions", len(suggestions)))
	return suggestions, nil
}

// RescoreLost re-runs the scan after an edit. Upserts replace the
// existing rows per pair, and rows whose recomputed score no longer
// clears the store threshold are deleted so a stale high score never
// outlives the edit. A dismissed pair keeps its dismissal through the
// rewrite.
func (r *Ranker) RescoreLost(ctx context.Context, lost *store.LostItem) ([]*Suggestion, error) {
	previous, err := r.store.ListMatches(ctx, &store.FindMatch{LostID: &lost.ID, IncludeDismissed: true})
	if err != nil {
		return nil, err
	}

	suggestions, stored, err := r.scanForLost(ctx, lost)
	if err != nil {
		return nil, err
	}

	for _, match := range previous {
		if stored[match.FoundID] || match.Dismissed {
			continue
		}
		if err := r.store.DeleteMatch(ctx, match.ID); err != nil {
			return nil, err
		}
	}
	return suggestions, nil
}

// scorePair scores one pair, persists the match when it clears the store
// threshold and returns a suggestion when it clears the suggest
// threshold. The second return reports whether a row was stored.
func (r *Ranker) scorePair(ctx context.Context, lost *store.LostItem, found *store.FoundItem) (*Suggestion, bool, error) {
	score := r.bestScore(lost, found)
	if score < r.weights.StoreThreshold {
		return nil, false, nil
	}

	match, err := r.store.UpsertMatch(ctx, &store.Match{
		ID:            uuid.NewString(),
		LostID:        lost.ID,
		FoundID:       found.ID,
		Score:         score,
		AutoSuggested: score >= r.weights.SuggestThreshold,
	})
	if err != nil {
		return nil, false, err
	}
	if match.Dismissed || score < r.weights.SuggestThreshold {
		return nil, true, nil
	}
	r.metrics.MatchSuggested()
	return &Suggestion{Match: match, Lost: lost, Found: found}, true, nil
}

// bestScore takes the maximum over the found item's photos so one good
// photo is enough for a visual hit.
func (r *Ranker) bestScore(lost *store.LostItem, found *store.FoundItem) float64 {
	lostSignals := Signals{
		Title:          lost.Title,
		Description:    lost.Description,
		Category:       lost.Category,
		LocationID:     lost.LocationID,
		Ts:             lost.LastSeenTs,
		TextEmbedding:  lost.TextEmbedding,
		ImageEmbedding: lost.ImageEmbedding,
		Phash:          lost.PhotoHash,
		HasPhash:       lost.HasPhotoHash,
	}
	foundSignals := Signals{
		Title:         found.Title,
		Description:   found.Description,
		Category:      found.Category,
		LocationID:    found.LocationID,
		Ts:            found.FoundTs,
		TextEmbedding: found.TextEmbedding,
	}

	if len(found.Photos) == 0 {
		return Score(lostSignals, foundSignals, r.weights)
	}
	best := 0.0
	for _, photo := range found.Photos {
		foundSignals.ImageEmbedding = photo.ImageEmbedding
		foundSignals.Phash = photo.Phash
		foundSignals.HasPhash = photo.HasPhash
		if score := Score(lostSignals, foundSignals, r.weights); score > best {
			best = score
		}
	}
	return best
}
