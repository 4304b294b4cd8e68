package store

import (
	"context"
	"time"

	"github.com/JaCARYK/beartracks/internal/errs"
)

const (
	ClaimStatusRequested = "requested"
	ClaimStatusVerified  = "verified"
	ClaimStatusRejected  = "rejected"
	ClaimStatusPickedUp  = "picked_up"
)

// ActiveClaimStatuses are the states that hold an item. The schema keeps
// a partial unique index on (found_id) over these states, so the
// one-active-claim-per-item invariant holds even against concurrent
// writers.
var ActiveClaimStatuses = []string{ClaimStatusRequested, ClaimStatusVerified}

type Claim struct {
	ID          string
	FoundID     string
	ClaimantID  string
	Status      string
	HoldCode    string
	VerifierID  string
	RequestedTs int64
	VerifiedTs  int64
}

type FindClaim struct {
	ID      *string
	FoundID *string
	Status  *string
	Limit   *int
	Offset  *int
}

// ClaimTransition is a compare-and-set on claim status, applied together
// with the owning item's status change in one transaction. From lists the
// states the transition is legal in; anything else fails with
// InvalidTransitionError carrying the current state.
type ClaimTransition struct {
	ID            string
	From          []string
	To            string
	ItemStatus    string // new found-item status, empty to leave unchanged
	VerifierID    string
	SetVerifiedTs bool
	ClearHoldCode bool
}

// CreateClaim atomically creates the claim and flips the item to on_hold.
// It fails with ConflictError when the item already has an active claim
// (or is otherwise not available), and with NotFoundError for an unknown
// item. The conditional item update and the insert ride one transaction.
func (s *Store) CreateClaim(ctx context.Context, create *Claim) (*Claim, error) {
	if create.RequestedTs == 0 {
		create.RequestedTs = time.Now().Unix()
	}
	if create.Status == "" {
		create.Status = ClaimStatusRequested
	}
	claim, err := s.driver.CreateClaim(ctx, create)
	if err != nil {
		return nil, err
	}
	s.statsCache.Delete(statsCacheKey)
	return claim, nil
}

func (s *Store) TransitionClaim(ctx context.Context, transition *ClaimTransition) (*Claim, error) {
	claim, err := s.driver.TransitionClaim(ctx, transition)
	if err != nil {
		return nil, err
	}
	s.statsCache.Delete(statsCacheKey)
	return claim, nil
}

func (s *Store) ListClaims(ctx context.Context, find *FindClaim) ([]*Claim, error) {
	if find.Limit == nil {
		defaultLimit := 100
		find.Limit = &defaultLimit
	}
	return s.driver.ListClaims(ctx, find)
}

func (s *Store) GetClaim(ctx context.Context, id string) (*Claim, error) {
	claims, err := s.driver.ListClaims(ctx, &FindClaim{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(claims) == 0 {
		return nil, &errs.NotFoundError{Kind: "claim", ID: id}
	}
	return claims[0], nil
}

// ListActiveHoldCodes returns the hold codes of requested/verified
// claims, for collision avoidance when generating new codes.
func (s *Store) ListActiveHoldCodes(ctx context.Context) ([]string, error) {
	return s.driver.ListActiveHoldCodes(ctx)
}
