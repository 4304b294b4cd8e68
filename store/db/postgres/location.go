package postgres

import (
	"context"

	"github.com/pkg/errors"

	"github.com/JaCARYK/beartracks/store"
)

func (d *DB) ListLocations(ctx context.Context) ([]*store.Location, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT id, name, building, floor FROM locations ORDER BY building, name")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list locations")
	}
	defer rows.Close()

	locations := []*store.Location{}
	for rows.Next() {
		location := &store.Location{}
		if err := rows.Scan(&location.ID, &location.Name, &location.Building, &location.Floor); err != nil {
			return nil, errors.Wrap(err, "failed to scan location")
		}
		locations = append(locations, location)
	}
	return locations, rows.Err()
}
