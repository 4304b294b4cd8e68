package matcher

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/JaCARYK/beartracks/internal/metrics"
	"github.com/JaCARYK/beartracks/internal/profile"
	"github.com/JaCARYK/beartracks/store"
	"github.com/JaCARYK/beartracks/store/db/sqlite"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	st := store.New(driver, p)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })
	return st
}

func testRanker(t *testing.T) (*Ranker, *store.Store) {
	st := testStore(t)
	return NewRanker(st, defaultWeights(), metrics.New()), st
}

func testUser(t *testing.T, st *store.Store) string {
	t.Helper()
	user, err := st.GetOrCreateUser(context.Background(), &store.User{
		ID:    uuid.NewString(),
		Email: uuid.NewString() + "@ucla.edu",
		Name:  "Test User",
	})
	require.NoError(t, err)
	return user.ID
}

func createLost(t *testing.T, st *store.Store, title string, embedding []float32, ts int64) *store.LostItem {
	t.Helper()
	lost, err := st.CreateLostItem(context.Background(), &store.LostItem{
		ID:            uuid.NewString(),
		ReporterID:    testUser(t, st),
		Title:         title,
		Category:      "bottles",
		LocationID:    1,
		TextEmbedding: embedding,
		LastSeenTs:    ts,
	})
	require.NoError(t, err)
	return lost
}

func createFound(t *testing.T, st *store.Store, title string, embedding []float32, ts int64) *store.FoundItem {
	t.Helper()
	found, err := st.CreateFoundItem(context.Background(), &store.FoundItem{
		ID:            uuid.NewString(),
		Title:         title,
		Category:      "bottles",
		LocationID:    1,
		ReporterID:    testUser(t, st),
		TextEmbedding: embedding,
		FoundTs:       ts,
	})
	require.NoError(t, err)
	return found
}

func TestRankerSuggestsMatch(t *testing.T) {
	ranker, st := testRanker(t)
	ctx := context.Background()

	bottle := []float32{0.6, 0.8}
	calculator := []float32{-0.8, 0.6}
	lost := createLost(t, st, "blue hydro flask", bottle, 1000)
	match := createFound(t, st, "blue water bottle", bottle, 2000)
	createFound(t, st, "graphing calculator", calculator, 1000+5*secondsPerDay)

	suggestions, err := ranker.OnLostItemCreated(ctx, lost)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	require.Equal(t, match.ID, suggestions[0].Found.ID)
	require.True(t, suggestions[0].Match.AutoSuggested)

	matches, err := st.ListMatches(ctx, &store.FindMatch{LostID: &lost.ID})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.GreaterOrEqual(t, matches[0].Score, ranker.weights.SuggestThreshold)
}

func TestRankerFoundItemScan(t *testing.T) {
	ranker, st := testRanker(t)
	ctx := context.Background()

	bottle := []float32{0.6, 0.8}
	lost := createLost(t, st, "blue hydro flask", bottle, 1000)
	found := createFound(t, st, "blue water bottle", bottle, 2000)

	suggestions, err := ranker.OnFoundItemCreated(ctx, found)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	require.Equal(t, lost.ID, suggestions[0].Lost.ID)
}

func TestRankerRescoreReplacesNotDuplicates(t *testing.T) {
	ranker, st := testRanker(t)
	ctx := context.Background()

	bottle := []float32{0.6, 0.8}
	lost := createLost(t, st, "blue hydro flask", bottle, 1000)
	createFound(t, st, "blue water bottle", bottle, 2000)

	_, err := ranker.OnLostItemCreated(ctx, lost)
	require.NoError(t, err)
	_, err = ranker.RescoreLost(ctx, lost)
	require.NoError(t, err)

	matches, err := st.ListMatches(ctx, &store.FindMatch{LostID: &lost.ID})
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestRankerRescoreDropsStaleMatch(t *testing.T) {
	ranker, st := testRanker(t)
	ctx := context.Background()

	bottle := []float32{0.6, 0.8}
	lost := createLost(t, st, "blue hydro flask", bottle, 1000)
	createFound(t, st, "blue water bottle", bottle, 1000+5*secondsPerDay)

	_, err := ranker.OnLostItemCreated(ctx, lost)
	require.NoError(t, err)
	matches, err := st.ListMatches(ctx, &store.FindMatch{LostID: &lost.ID})
	require.NoError(t, err)
	require.Len(t, matches, 1)

	// The report is rewritten to describe a different item. The pair no
	// longer clears the store threshold, so its old high-score row must
	// not survive the re-score.
	lost.Title = "graphing calculator"
	lost.TextEmbedding = []float32{-0.8, 0.6}
	suggestions, err := ranker.RescoreLost(ctx, lost)
	require.NoError(t, err)
	require.Empty(t, suggestions)

	matches, err = st.ListMatches(ctx, &store.FindMatch{LostID: &lost.ID, IncludeDismissed: true})
	require.NoError(t, err)
	require.Empty(t, matches, "stale match row survived the edit")
}

func TestRankerDismissedStaysDismissed(t *testing.T) {
	ranker, st := testRanker(t)
	ctx := context.Background()

	bottle := []float32{0.6, 0.8}
	lost := createLost(t, st, "blue hydro flask", bottle, 1000)
	createFound(t, st, "blue water bottle", bottle, 2000)

	suggestions, err := ranker.OnLostItemCreated(ctx, lost)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	require.NoError(t, st.DismissMatch(ctx, suggestions[0].Match.ID))

	// Re-scoring must neither resurrect the match nor re-suggest it.
	suggestions, err = ranker.RescoreLost(ctx, lost)
	require.NoError(t, err)
	require.Empty(t, suggestions)

	matches, err := st.ListMatches(ctx, &store.FindMatch{LostID: &lost.ID})
	require.NoError(t, err)
	require.Empty(t, matches)

	all, err := st.ListMatches(ctx, &store.FindMatch{LostID: &lost.ID, IncludeDismissed: true})
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.True(t, all[0].Dismissed)
}

func TestRankerTimeWindowBoundsScan(t *testing.T) {
	ranker, st := testRanker(t)
	ctx := context.Background()

	bottle := []float32{0.6, 0.8}
	lost := createLost(t, st, "blue hydro flask", bottle, 100*secondsPerDay)
	createFound(t, st, "blue water bottle", bottle, 10*secondsPerDay) // months before

	suggestions, err := ranker.OnLostItemCreated(ctx, lost)
	require.NoError(t, err)
	require.Empty(t, suggestions)

	matches, err := st.ListMatches(ctx, &store.FindMatch{LostID: &lost.ID, IncludeDismissed: true})
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestRankerBelowStoreThresholdNotPersisted(t *testing.T) {
	ranker, st := testRanker(t)
	ctx := context.Background()

	lost := createLost(t, st, "blue hydro flask", []float32{1, 0}, 1000)
	createFound(t, st, "graphing calculator", []float32{0, 1}, 1000+2*secondsPerDay)

	suggestions, err := ranker.OnLostItemCreated(ctx, lost)
	require.NoError(t, err)
	require.Empty(t, suggestions)

	matches, err := st.ListMatches(ctx, &store.FindMatch{LostID: &lost.ID, IncludeDismissed: true})
	require.NoError(t, err)
	require.Empty(t, matches)
}
