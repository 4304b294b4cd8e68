package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/JaCARYK/beartracks/internal/errs"
	"github.com/JaCARYK/beartracks/store"
)

// CreateClaim performs the conditional item-hold and the claim insert in
// one transaction. The UPDATE only matches an available item, so two
// concurrent requests serialize on the row and exactly one wins; the
// loser reads the current status for its ConflictError.
func (d *DB) CreateClaim(ctx context.Context, create *store.Claim) (*store.Claim, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin tx")
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"UPDATE items_found SET status = $1 WHERE id = $2 AND status = $3",
		store.ItemStatusOnHold, create.FoundID, store.ItemStatusAvailable,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hold item")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get rows affected")
	}
	if n == 0 {
		var current string
		err := tx.QueryRowContext(ctx, "SELECT status FROM items_found WHERE id = $1", create.FoundID).Scan(&current)
		if err == sql.ErrNoRows {
			return nil, &errs.NotFoundError{Kind: "found item", ID: create.FoundID}
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read item status")
		}
		return nil, &errs.ConflictError{ItemID: create.FoundID, CurrentStatus: current}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO claims (id, found_id, claimant_id, status, hold_code, requested_ts)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		create.ID, create.FoundID, create.ClaimantID, create.Status, create.HoldCode, create.RequestedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert claim")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit claim")
	}
	return create, nil
}

// TransitionClaim is a compare-and-set on claim status plus the item
// status change, in one transaction. Zero rows affected means the claim
// is not in a legal source state; the current state rides the error.
func (d *DB) TransitionClaim(ctx context.Context, transition *store.ClaimTransition) (*store.Claim, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin tx")
	}
	defer tx.Rollback()

	set, args := []string{"status = $1"}, []any{transition.To}
	if transition.VerifierID != "" {
		set, args = append(set, "verifier_id = "+placeholder(len(args)+1)), append(args, transition.VerifierID)
	}
	if transition.SetVerifiedTs {
		set = append(set, "verified_ts = EXTRACT(EPOCH FROM NOW())::BIGINT")
	}
	if transition.ClearHoldCode {
		set = append(set, "hold_code = ''")
	}

	args = append(args, transition.ID)
	query := "UPDATE claims SET " + strings.Join(set, ", ") + " WHERE id = " + placeholder(len(args)) +
		" AND status IN (" + placeholdersFrom(len(args)+1, len(transition.From)) + ")"
	for _, from := range transition.From {
		args = append(args, from)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to transition claim")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get rows affected")
	}
	if n == 0 {
		var current string
		err := tx.QueryRowContext(ctx, "SELECT status FROM claims WHERE id = $1", transition.ID).Scan(&current)
		if err == sql.ErrNoRows {
			return nil, &errs.NotFoundError{Kind: "claim", ID: transition.ID}
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read claim status")
		}
		return nil, &errs.InvalidTransitionError{ClaimID: transition.ID, From: current, Action: transition.To}
	}

	claim := &store.Claim{}
	if err := tx.QueryRowContext(ctx,
		"SELECT id, found_id, claimant_id, status, hold_code, verifier_id, requested_ts, verified_ts FROM claims WHERE id = $1",
		transition.ID,
	).Scan(&claim.ID, &claim.FoundID, &claim.ClaimantID, &claim.Status, &claim.HoldCode, &claim.VerifierID, &claim.RequestedTs, &claim.VerifiedTs); err != nil {
		return nil, errors.Wrap(err, "failed to read claim")
	}

	if transition.ItemStatus != "" {
		if _, err := tx.ExecContext(ctx,
			"UPDATE items_found SET status = $1 WHERE id = $2",
			transition.ItemStatus, claim.FoundID,
		); err != nil {
			return nil, errors.Wrap(err, "failed to update item status")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit transition")
	}
	return claim, nil
}

func (d *DB) ListClaims(ctx context.Context, find *store.FindClaim) ([]*store.Claim, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.FoundID != nil {
		where, args = append(where, "found_id = "+placeholder(len(args)+1)), append(args, *find.FoundID)
	}
	if find.Status != nil {
		where, args = append(where, "status = "+placeholder(len(args)+1)), append(args, *find.Status)
	}

	query := `SELECT id, found_id, claimant_id, status, hold_code, verifier_id, requested_ts, verified_ts
		FROM claims WHERE ` + strings.Join(where, " AND ") + ` ORDER BY requested_ts DESC, id`
	if find.Limit != nil {
		query += " LIMIT " + strconv.Itoa(*find.Limit)
		if find.Offset != nil {
			query += " OFFSET " + strconv.Itoa(*find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list claims")
	}
	defer rows.Close()

	claims := []*store.Claim{}
	for rows.Next() {
		claim := &store.Claim{}
		if err := rows.Scan(&claim.ID, &claim.FoundID, &claim.ClaimantID, &claim.Status, &claim.HoldCode, &claim.VerifierID, &claim.RequestedTs, &claim.VerifiedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan claim")
		}
		claims = append(claims, claim)
	}
	return claims, rows.Err()
}

func (d *DB) ListActiveHoldCodes(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT hold_code FROM claims WHERE status IN ($1, $2) AND hold_code != ''",
		store.ClaimStatusRequested, store.ClaimStatusVerified,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list hold codes")
	}
	defer rows.Close()

	codes := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}
