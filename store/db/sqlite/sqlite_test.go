package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/JaCARYK/beartracks/internal/errs"
	"github.com/JaCARYK/beartracks/internal/profile"
	"github.com/JaCARYK/beartracks/store"
)

func testDriver(t *testing.T) store.Driver {
	t.Helper()
	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	}
	driver, err := NewDB(p)
	require.NoError(t, err)
	require.NoError(t, driver.Migrate(context.Background()))
	t.Cleanup(func() { driver.Close() })
	return driver
}

func seedUser(t *testing.T, driver store.Driver) string {
	t.Helper()
	user, err := driver.GetOrCreateUser(context.Background(), &store.User{
		ID:        uuid.NewString(),
		Email:     uuid.NewString() + "@ucla.edu",
		Name:      "Test User",
		Role:      store.RoleStudent,
		CreatedTs: 1,
	})
	require.NoError(t, err)
	return user.ID
}

func seedFound(t *testing.T, driver store.Driver, title string, foundTs int64) *store.FoundItem {
	t.Helper()
	item, err := driver.CreateFoundItem(context.Background(), &store.FoundItem{
		ID:         uuid.NewString(),
		Title:      title,
		Category:   "bottles",
		LocationID: 1,
		ReporterID: seedUser(t, driver),
		Status:     store.ItemStatusAvailable,
		FoundTs:    foundTs,
		CreatedTs:  foundTs,
	})
	require.NoError(t, err)
	return item
}

func seedLost(t *testing.T, driver store.Driver, title string, lastSeenTs int64) *store.LostItem {
	t.Helper()
	item, err := driver.CreateLostItem(context.Background(), &store.LostItem{
		ID:         uuid.NewString(),
		ReporterID: seedUser(t, driver),
		Title:      title,
		Category:   "bottles",
		LocationID: 1,
		LastSeenTs: lastSeenTs,
		CreatedTs:  lastSeenTs,
	})
	require.NoError(t, err)
	return item
}

func TestMigrateIdempotent(t *testing.T) {
	driver := testDriver(t)
	ctx := context.Background()

	initialized, err := driver.IsInitialized(ctx)
	require.NoError(t, err)
	require.True(t, initialized)

	// A second migrate must not duplicate the seeded locations.
	require.NoError(t, driver.Migrate(ctx))
	locations, err := driver.ListLocations(ctx)
	require.NoError(t, err)
	require.Len(t, locations, 8)
}

func TestEmbeddingRoundTrip(t *testing.T) {
	driver := testDriver(t)
	ctx := context.Background()

	vector := []float32{0.25, -1.5, 3.125, 0}
	created, err := driver.CreateFoundItem(ctx, &store.FoundItem{
		ID:            uuid.NewString(),
		Title:         "bottle",
		Category:      "bottles",
		LocationID:    1,
		ReporterID:    seedUser(t, driver),
		Status:        store.ItemStatusAvailable,
		TextEmbedding: vector,
		FoundTs:       100,
		CreatedTs:     100,
	})
	require.NoError(t, err)

	items, err := driver.ListFoundItems(ctx, &store.FindFoundItem{ID: &created.ID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, vector, items[0].TextEmbedding)
}

func TestPhotoRoundTripKeepsOrderAndPhash(t *testing.T) {
	driver := testDriver(t)
	ctx := context.Background()

	// High bit set exercises the signed BIGINT storage; a zero hash is a
	// legitimate value (uniform photo) and must stay distinguishable from
	// a photo that never hashed.
	hashes := []uint64{0xFFFF000011112222, 0}
	item := &store.FoundItem{
		ID:         uuid.NewString(),
		Title:      "bottle",
		Category:   "bottles",
		LocationID: 1,
		ReporterID: seedUser(t, driver),
		Status:     store.ItemStatusAvailable,
		FoundTs:    100,
		CreatedTs:  100,
	}
	for i, hash := range hashes {
		item.Photos = append(item.Photos, &store.Photo{
			ID:        uuid.NewString(),
			Filename:  uuid.NewString() + ".jpg",
			Position:  i,
			Phash:     hash,
			HasPhash:  true,
			CreatedTs: 100,
		})
	}
	item.Photos = append(item.Photos, &store.Photo{
		ID:        uuid.NewString(),
		Filename:  uuid.NewString() + ".bin",
		Position:  2,
		CreatedTs: 100,
	})
	_, err := driver.CreateFoundItem(ctx, item)
	require.NoError(t, err)

	items, err := driver.ListFoundItems(ctx, &store.FindFoundItem{ID: &item.ID, WithPhotos: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Len(t, items[0].Photos, 3)
	for i, photo := range items[0].Photos[:2] {
		require.Equal(t, i, photo.Position)
		require.Equal(t, hashes[i], photo.Phash)
		require.True(t, photo.HasPhash)
	}
	require.False(t, items[0].Photos[2].HasPhash, "unhashed photo must not look hashed")
}

func TestUpdateFoundItemStatusConditional(t *testing.T) {
	driver := testDriver(t)
	ctx := context.Background()
	item := seedFound(t, driver, "bottle", 100)

	updated, err := driver.UpdateFoundItemStatus(ctx, &store.UpdateFoundItemStatus{
		ID:             item.ID,
		Status:         store.ItemStatusDonated,
		ExpectedStatus: []string{store.ItemStatusAvailable},
	})
	require.NoError(t, err)
	require.Equal(t, store.ItemStatusDonated, updated.Status)

	// The same conditional update now fails with the current status.
	_, err = driver.UpdateFoundItemStatus(ctx, &store.UpdateFoundItemStatus{
		ID:             item.ID,
		Status:         store.ItemStatusDisposed,
		ExpectedStatus: []string{store.ItemStatusAvailable},
	})
	var conflict *errs.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, store.ItemStatusDonated, conflict.CurrentStatus)

	_, err = driver.UpdateFoundItemStatus(ctx, &store.UpdateFoundItemStatus{
		ID:     uuid.NewString(),
		Status: store.ItemStatusDonated,
	})
	require.True(t, errs.IsNotFound(err))
}

func TestUpsertMatchReplacesAndKeepsDismissal(t *testing.T) {
	driver := testDriver(t)
	ctx := context.Background()
	lost := seedLost(t, driver, "bottle", 100)
	found := seedFound(t, driver, "bottle", 200)

	first, err := driver.UpsertMatch(ctx, &store.Match{
		ID: uuid.NewString(), LostID: lost.ID, FoundID: found.ID,
		Score: 0.6, AutoSuggested: true, CreatedTs: 1,
	})
	require.NoError(t, err)
	require.NoError(t, driver.DismissMatch(ctx, first.ID))

	second, err := driver.UpsertMatch(ctx, &store.Match{
		ID: uuid.NewString(), LostID: lost.ID, FoundID: found.ID,
		Score: 0.8, AutoSuggested: true, CreatedTs: 2,
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID, "upsert must keep the original row")
	require.InDelta(t, 0.8, second.Score, 1e-9)
	require.True(t, second.Dismissed, "dismissal must survive re-scoring")

	matches, err := driver.ListMatches(ctx, &store.FindMatch{LostID: &lost.ID, IncludeDismissed: true})
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestListMatchesOrdering(t *testing.T) {
	driver := testDriver(t)
	ctx := context.Background()
	lost := seedLost(t, driver, "bottle", 1000)

	// Same score, different time proximity: closer found_ts wins the tie.
	near := seedFound(t, driver, "near", 1100)
	far := seedFound(t, driver, "far", 9000)
	best := seedFound(t, driver, "best", 5000)

	for _, m := range []*store.Match{
		{ID: uuid.NewString(), LostID: lost.ID, FoundID: far.ID, Score: 0.5, CreatedTs: 1},
		{ID: uuid.NewString(), LostID: lost.ID, FoundID: near.ID, Score: 0.5, CreatedTs: 1},
		{ID: uuid.NewString(), LostID: lost.ID, FoundID: best.ID, Score: 0.9, CreatedTs: 1},
	} {
		_, err := driver.UpsertMatch(ctx, m)
		require.NoError(t, err)
	}

	matches, err := driver.ListMatches(ctx, &store.FindMatch{LostID: &lost.ID})
	require.NoError(t, err)
	require.Len(t, matches, 3)
	require.Equal(t, best.ID, matches[0].FoundID)
	require.Equal(t, near.ID, matches[1].FoundID)
	require.Equal(t, far.ID, matches[2].FoundID)
}

func TestListActiveHoldCodes(t *testing.T) {
	driver := testDriver(t)
	ctx := context.Background()

	first := seedFound(t, driver, "first", 100)
	second := seedFound(t, driver, "second", 100)

	claimA, err := driver.CreateClaim(ctx, &store.Claim{
		ID: uuid.NewString(), FoundID: first.ID, ClaimantID: seedUser(t, driver),
		Status: store.ClaimStatusRequested, HoldCode: "AAAAAA", RequestedTs: 1,
	})
	require.NoError(t, err)
	_, err = driver.CreateClaim(ctx, &store.Claim{
		ID: uuid.NewString(), FoundID: second.ID, ClaimantID: seedUser(t, driver),
		Status: store.ClaimStatusRequested, HoldCode: "BBBBBB", RequestedTs: 1,
	})
	require.NoError(t, err)

	codes, err := driver.ListActiveHoldCodes(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"AAAAAA", "BBBBBB"}, codes)

	// Rejection frees the code.
	_, err = driver.TransitionClaim(ctx, &store.ClaimTransition{
		ID:            claimA.ID,
		From:          store.ActiveClaimStatuses,
		To:            store.ClaimStatusRejected,
		ItemStatus:    store.ItemStatusAvailable,
		ClearHoldCode: true,
	})
	require.NoError(t, err)

	codes, err = driver.ListActiveHoldCodes(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"BBBBBB"}, codes)
}

func TestResolveLostItemsMatchedTo(t *testing.T) {
	driver := testDriver(t)
	ctx := context.Background()

	lostMatched := seedLost(t, driver, "matched", 100)
	lostDismissed := seedLost(t, driver, "dismissed", 100)
	found := seedFound(t, driver, "bottle", 200)

	_, err := driver.UpsertMatch(ctx, &store.Match{
		ID: uuid.NewString(), LostID: lostMatched.ID, FoundID: found.ID, Score: 0.8, CreatedTs: 1,
	})
	require.NoError(t, err)
	dismissed, err := driver.UpsertMatch(ctx, &store.Match{
		ID: uuid.NewString(), LostID: lostDismissed.ID, FoundID: found.ID, Score: 0.8, CreatedTs: 1,
	})
	require.NoError(t, err)
	require.NoError(t, driver.DismissMatch(ctx, dismissed.ID))

	n, err := driver.ResolveLostItemsMatchedTo(ctx, found.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	items, err := driver.ListLostItems(ctx, &store.FindLostItem{ID: &lostMatched.ID})
	require.NoError(t, err)
	require.True(t, items[0].Resolved)

	items, err = driver.ListLostItems(ctx, &store.FindLostItem{ID: &lostDismissed.ID})
	require.NoError(t, err)
	require.False(t, items[0].Resolved, "dismissed matches do not resolve reports")
}
