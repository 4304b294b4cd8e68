package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/JaCARYK/beartracks/store"
)

func (d *DB) CreateLostItem(ctx context.Context, create *store.LostItem) (*store.LostItem, error) {
	var photoHash any
	if create.HasPhotoHash {
		photoHash = phashToInt64(create.PhotoHash)
	}
	if _, err := d.db.ExecContext(ctx,
		`INSERT INTO items_lost (id, reporter_id, title, description, category, last_seen_location_id, last_seen_ts, photo_url, text_embedding, img_embedding, photo_hash, embedding_model, resolved, created_ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		create.ID, create.ReporterID, create.Title, create.Description, create.Category,
		create.LocationID, create.LastSeenTs, create.PhotoURL,
		vectorToBlob(create.TextEmbedding), vectorToBlob(create.ImageEmbedding),
		photoHash, create.EmbeddingModel, create.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert lost item")
	}
	return create, nil
}

func (d *DB) ListLostItems(ctx context.Context, find *store.FindLostItem) ([]*store.LostItem, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.Resolved != nil {
		where, args = append(where, "resolved = ?"), append(args, boolToInt(*find.Resolved))
	}
	if find.Category != nil {
		where, args = append(where, "category = ?"), append(args, *find.Category)
	}
	if find.SeenAfter != nil {
		where, args = append(where, "last_seen_ts >= ?"), append(args, *find.SeenAfter)
	}
	if find.SeenBefore != nil {
		where, args = append(where, "last_seen_ts <= ?"), append(args, *find.SeenBefore)
	}

	query := `SELECT id, reporter_id, title, description, category, last_seen_location_id, last_seen_ts, photo_url, text_embedding, img_embedding, photo_hash, embedding_model, resolved, created_ts
		FROM items_lost WHERE ` + joinAnd(where) + ` ORDER BY last_seen_ts DESC, id`
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
		if find.Offset != nil {
			query += " OFFSET ?"
			args = append(args, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list lost items")
	}
	defer rows.Close()

	items := []*store.LostItem{}
	for rows.Next() {
		item := &store.LostItem{}
		var textEmbedding, imageEmbedding []byte
		var photoHash sql.NullInt64
		var resolved int
		if err := rows.Scan(
			&item.ID, &item.ReporterID, &item.Title, &item.Description, &item.Category,
			&item.LocationID, &item.LastSeenTs, &item.PhotoURL,
			&textEmbedding, &imageEmbedding, &photoHash, &item.EmbeddingModel,
			&resolved, &item.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan lost item")
		}
		item.Resolved = resolved != 0
		if photoHash.Valid {
			item.PhotoHash = int64ToPhash(photoHash.Int64)
			item.HasPhotoHash = true
		}
		if item.TextEmbedding, err = blobToVector(textEmbedding); err != nil {
			return nil, err
		}
		if item.ImageEmbedding, err = blobToVector(imageEmbedding); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (d *DB) UpdateLostItem(ctx context.Context, update *store.UpdateLostItem) (*store.LostItem, error) {
	set, args := []string{}, []any{}
	if update.Title != nil {
		set, args = append(set, "title = ?"), append(args, *update.Title)
	}
	if update.Description != nil {
		set, args = append(set, "description = ?"), append(args, *update.Description)
	}
	if update.Category != nil {
		set, args = append(set, "category = ?"), append(args, *update.Category)
	}
	if update.TextEmbedding != nil {
		set, args = append(set, "text_embedding = ?"), append(args, vectorToBlob(update.TextEmbedding))
	}
	if update.ImageEmbedding != nil {
		set, args = append(set, "img_embedding = ?"), append(args, vectorToBlob(update.ImageEmbedding))
	}
	if update.EmbeddingModel != nil {
		set, args = append(set, "embedding_model = ?"), append(args, *update.EmbeddingModel)
	}
	if update.Resolved != nil {
		set, args = append(set, "resolved = ?"), append(args, boolToInt(*update.Resolved))
	}
	if len(set) == 0 {
		return nil, errors.New("nothing to update")
	}

	args = append(args, update.ID)
	if _, err := d.db.ExecContext(ctx, "UPDATE items_lost SET "+joinComma(set)+" WHERE id = ?", args...); err != nil {
		return nil, errors.Wrap(err, "failed to update lost item")
	}

	items, err := d.ListLostItems(ctx, &store.FindLostItem{ID: &update.ID})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.Errorf("lost item %s not found after update", update.ID)
	}
	return items[0], nil
}

func (d *DB) ResolveLostItemsMatchedTo(ctx context.Context, foundID string) (int, error) {
	result, err := d.db.ExecContext(ctx,
		`UPDATE items_lost SET resolved = 1
		 WHERE resolved = 0
		   AND id IN (SELECT lost_id FROM matches WHERE found_id = ? AND dismissed = 0)`,
		foundID,
	)
	if err != nil {
		return 0, errors.Wrap(err, "failed to resolve matched lost items")
	}
	n, err := result.RowsAffected()
	return int(n), err
}
