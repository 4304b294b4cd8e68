package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/JaCARYK/beartracks/internal/errs"
	"github.com/JaCARYK/beartracks/store"
)

// UpsertMatch replaces the score for an existing (lost, found) pair
// instead of duplicating it. The dismissed flag survives re-scoring on
// purpose: "not a match" feedback outlives any recompute.
func (d *DB) UpsertMatch(ctx context.Context, upsert *store.Match) (*store.Match, error) {
	stmt := `INSERT INTO matches (id, lost_id, found_id, score, auto_suggested, dismissed, created_ts)
		VALUES (?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT (lost_id, found_id) DO UPDATE SET
			score = excluded.score,
			auto_suggested = excluded.auto_suggested,
			created_ts = excluded.created_ts
		RETURNING id, lost_id, found_id, score, auto_suggested, dismissed, created_ts`

	match := &store.Match{}
	var autoSuggested, dismissed int
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.ID, upsert.LostID, upsert.FoundID, upsert.Score,
		boolToInt(upsert.AutoSuggested), upsert.CreatedTs,
	).Scan(&match.ID, &match.LostID, &match.FoundID, &match.Score, &autoSuggested, &dismissed, &match.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to upsert match")
	}
	match.AutoSuggested = autoSuggested != 0
	match.Dismissed = dismissed != 0
	return match, nil
}

// ListMatches orders by score descending, breaking ties by closer time
// proximity between found and last-seen timestamps, then by found id for
// determinism.
func (d *DB) ListMatches(ctx context.Context, find *store.FindMatch) ([]*store.Match, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "m.id = ?"), append(args, *find.ID)
	}
	if find.LostID != nil {
		where, args = append(where, "m.lost_id = ?"), append(args, *find.LostID)
	}
	if find.FoundID != nil {
		where, args = append(where, "m.found_id = ?"), append(args, *find.FoundID)
	}
	if find.MinScore != nil {
		where, args = append(where, "m.score >= ?"), append(args, *find.MinScore)
	}
	if !find.IncludeDismissed {
		where = append(where, "m.dismissed = 0")
	}

	query := `SELECT m.id, m.lost_id, m.found_id, m.score, m.auto_suggested, m.dismissed, m.created_ts
		FROM matches m
		JOIN items_lost l ON l.id = m.lost_id
		JOIN items_found f ON f.id = m.found_id
		WHERE ` + joinAnd(where) + `
		ORDER BY m.score DESC, ABS(f.found_ts - l.last_seen_ts) ASC, m.found_id ASC`
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list matches")
	}
	defer rows.Close()

	matches := []*store.Match{}
	for rows.Next() {
		match := &store.Match{}
		var autoSuggested, dismissed int
		if err := rows.Scan(&match.ID, &match.LostID, &match.FoundID, &match.Score, &autoSuggested, &dismissed, &match.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan match")
		}
		match.AutoSuggested = autoSuggested != 0
		match.Dismissed = dismissed != 0
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func (d *DB) DismissMatch(ctx context.Context, id string) error {
	result, err := d.db.ExecContext(ctx, "UPDATE matches SET dismissed = 1 WHERE id = ?", id)
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
	if _, err := d.db.ExecContext(ctx, "DELETE FROM matches WHERE id = ?", id); err != nil {
		return errors.Wrap(err, "failed to delete match")
	}
	return nil
}
