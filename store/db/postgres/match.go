package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/JaCARYK/beartracks/internal/errs"
	"github.com/JaCARYK/beartracks/store"
)

// UpsertMatch replaces the score for an existing (lost, found) pair
// instead of duplicating it. The dismissed flag survives re-scoring on
// purpose: "not a match" feedback outlives any recompute.
func (d *DB) UpsertMatch(ctx context.Context, upsert *store.Match) (*store.Match, error) {
	stmt := `INSERT INTO matches (id, lost_id, found_id, score, auto_suggested, dismissed, created_ts)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		ON CONFLICT (lost_id, found_id) DO UPDATE SET
			score = EXCLUDED.score,
			auto_suggested = EXCLUDED.auto_suggested,
			created_ts = EXCLUDED.created_ts
		RETURNING id, lost_id, found_id, score, auto_suggested, dismissed, created_ts`

	match := &store.Match{}
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.ID, upsert.LostID, upsert.FoundID, upsert.Score,
		upsert.AutoSuggested, upsert.CreatedTs,
	).Scan(&match.ID, &match.LostID, &match.FoundID, &match.Score, &match.AutoSuggested, &match.Dismissed, &match.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to upsert match")
	}
	return match, nil
}

func (d *DB) ListMatches(ctx context.Context, find *store.FindMatch) ([]*store.Match, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "m.id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.LostID != nil {
		where, args = append(where, "m.lost_id = "+placeholder(len(args)+1)), append(args, *find.LostID)
	}
	if find.FoundID != nil {
		where, args = append(where, "m.found_id = "+placeholder(len(args)+1)), append(args, *find.FoundID)
	}
	if find.MinScore != nil {
		where, args = append(where, "m.score >= "+placeholder(len(args)+1)), append(args, *find.MinScore)
	}
	if !find.IncludeDismissed {
		where = append(where, "m.dismissed = FALSE")
	}

	query := `SELECT m.id, m.lost_id, m.found_id, m.score, m.auto_suggested, m.dismissed, m.created_ts
		FROM matches m
		JOIN items_lost l ON l.id = m.lost_id
		JOIN items_found f ON f.id = m.found_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY m.score DESC, ABS(f.found_ts - l.last_seen_ts) ASC, m.found_id ASC`
	if find.Limit != nil {
		query += " LIMIT " + strconv.Itoa(*find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list matches")
	}
	defer rows.Close()

	matches := []*store.Match{}
	for rows.Next() {
		match := &store.Match{}
		if err := rows.Scan(&match.ID, &match.LostID, &match.FoundID, &match.Score, &match.AutoSuggested, &match.Dismissed, &match.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan match")
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func (d *DB) DismissMatch(ctx context.Context, id string) error {
	result, err := d.db.ExecContext(ctx, "UPDATE matches SET dismissed = TRUE WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "failed to dismiss match")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &errs.NotFoundError{Kind: "match", ID: id}
	}
	return nil
}

func (d *DB) DeleteMatch(ctx context.Context, id string) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM matches WHERE id = $1", id); err != nil {
		return errors.Wrap(err, "failed to delete match")
	}
	return nil
}
