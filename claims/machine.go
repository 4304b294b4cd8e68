// Package claims implements the claim workflow for found items. A claim
// moves requested -> verified -> picked_up, with rejection possible from
// requested or verified. Every transition is a conditional store update,
// so concurrent requests for the same item resolve to exactly one
// winner.
package claims

import (
	"context"
	"crypto/rand"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/JaCARYK/beartracks/internal/errs"
	"github.com/JaCARYK/beartracks/internal/metrics"
	"github.com/JaCARYK/beartracks/store"
)

// holdCodeAlphabet avoids lowercase and punctuation so codes survive
// being read over a counter or written on a sticky note.
const holdCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const holdCodeMaxAttempts = 10

// Machine drives claim transitions against the store.
type Machine struct {
	store   *store.Store
	metrics *metrics.Exporter
	codeLen int
}

func NewMachine(s *store.Store, exporter *metrics.Exporter, codeLength int) *Machine {
	return &Machine{store: s, metrics: exporter, codeLen: codeLength}
}

// Request opens a claim on an available item. The item goes on hold and
// the claimant receives a hold code to present at the office. A second
// concurrent request loses with a ConflictError carrying the current
// item status.
func (m *Machine) Request(ctx context.Context, foundID, claimantID string) (*store.Claim, error) {
	code, err := m.generateHoldCode(ctx)
	if err != nil {
		return nil, err
	}

	claim, err := m.store.CreateClaim(ctx, &store.Claim{
		ID:         uuid.NewString(),
		FoundID:    foundID,
		ClaimantID: claimantID,
		HoldCode:   code,
	})
	if err != nil {
		if errs.IsConflict(err) {
			m.metrics.ClaimConflict()
			slog.Info("claim request lost race", slog.String("found", foundID))
		}
		return nil, err
	}
	slog.Info("claim requested", slog.String("claim", claim.ID), slog.String("found", foundID))
	return claim, nil
}

// Verify marks a requested claim as verified by an office member. Any
// other source state, including an already verified claim, fails with
// InvalidTransitionError.
func (m *Machine) Verify(ctx context.Context, claimID, verifierID string) (*store.Claim, error) {
	return m.store.TransitionClaim(ctx, &store.ClaimTransition{
		ID:            claimID,
		From:          []string{store.ClaimStatusRequested},
		To:            store.ClaimStatusVerified,
		VerifierID:    verifierID,
		SetVerifiedTs: true,
	})
}

// Reject closes a requested or verified claim and returns the item to
// circulation. The hold code is invalidated so it can be reissued.
func (m *Machine) Reject(ctx context.Context, claimID string) (*store.Claim, error) {
	claim, err := m.store.TransitionClaim(ctx, &store.ClaimTransition{
		ID:            claimID,
		From:          store.ActiveClaimStatuses,
		To:            store.ClaimStatusRejected,
		ItemStatus:    store.ItemStatusAvailable,
		ClearHoldCode: true,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("claim rejected", slog.String("claim", claim.ID), slog.String("found", claim.FoundID))
	return claim, nil
}

// ConfirmPickup completes a verified claim. The item becomes claimed and
// every open lost report matched to it is resolved.
func (m *Machine) ConfirmPickup(ctx context.Context, claimID string) (*store.Claim, error) {
	claim, err := m.store.TransitionClaim(ctx, &store.ClaimTransition{
		ID:            claimID,
		From:          []string{store.ClaimStatusVerified},
		To:            store.ClaimStatusPickedUp,
		ItemStatus:    store.ItemStatusClaimed,
		ClearHoldCode: true,
	})
	if err != nil {
		return nil, err
	}
	resolved, err := m.store.ResolveLostItemsMatchedTo(ctx, claim.FoundID)
	if err != nil {
		// The pickup already committed; a failed resolve only delays
		// cleanup of open lost reports.
		slog.Error("failed to resolve matched lost items",
			slog.String("found", claim.FoundID), slog.String("error", err.Error()))
	} else if resolved > 0 {
		slog.Info("resolved lost reports on pickup",
			slog.String("found", claim.FoundID), slog.Int("count", resolved))
	}
	return claim, nil
}

// generateHoldCode draws random codes until one does not collide with an
// active claim. The partial unique index on active hold codes backstops
// this check against concurrent generation.
func (m *Machine) generateHoldCode(ctx context.Context) (string, error) {
	active, err := m.store.ListActiveHoldCodes(ctx)
	if err != nil {
		return "", err
	}
	taken := make(map[string]struct{}, len(active))
	for _, code := range active {
		taken[code] = struct{}{}
	}

	for attempt := 0; attempt < holdCodeMaxAttempts; attempt++ {
		code, err := randomCode(m.codeLen)
		if err != nil {
			return "", err
		}
		if _, exists := taken[code]; !exists {
			return code, nil
		}
	}
	return "", errors.Errorf("failed to generate unique hold code after %d attempts", holdCodeMaxAttempts)
}

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to read random bytes")
	}
	for i, b := range buf {
		buf[i] = holdCodeAlphabet[int(b)%len(holdCodeAlphabet)]
	}
	return string(buf), nil
}
