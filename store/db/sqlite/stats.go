package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/JaCARYK/beartracks/store"
)

func (d *DB) Stats(ctx context.Context) (*store.Stats, error) {
	stats := &store.Stats{}
	err := d.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM items_found),
		(SELECT COUNT(*) FROM items_found WHERE status = 'available'),
		(SELECT COUNT(*) FROM items_found WHERE status = 'on_hold'),
		(SELECT COUNT(*) FROM items_found WHERE status = 'claimed'),
		(SELECT COUNT(*) FROM claims WHERE status = 'requested'),
		(SELECT COUNT(*) FROM claims WHERE status = 'picked_up'),
		(SELECT COUNT(*) FROM items_lost WHERE resolved = 0)`,
	).Scan(
		&stats.TotalItems, &stats.AvailableItems, &stats.OnHoldItems,
		&stats.ClaimedItems, &stats.PendingClaims, &stats.ItemsReunited,
		&stats.OpenLostItems,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to collect stats")
	}
	return stats, nil
}
