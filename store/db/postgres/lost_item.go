package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

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
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, FALSE, $13)`,
		create.ID, create.ReporterID, create.Title, create.Description, create.Category,
		create.LocationID, create.LastSeenTs, create.PhotoURL,
		vectorParam(create.TextEmbedding), vectorParam(create.ImageEmbedding),
		photoHash, create.EmbeddingModel, create.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert lost item")
	}
	return create, nil
}

func (d *DB) ListLostItems(ctx context.Context, find *store.FindLostItem) ([]*store.LostItem, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.Resolved != nil {
		where, args = append(where, "resolved = "+placeholder(len(args)+1)), append(args, *find.Resolved)
	}
	if find.Category != nil {
		where, args = append(where, "category = "+placeholder(len(args)+1)), append(args, *find.Category)
	}
	if find.SeenAfter != nil {
		where, args = append(where, "last_seen_ts >= "+placeholder(len(args)+1)), append(args, *find.SeenAfter)
	}
	if find.SeenBefore != nil {
		where, args = append(where, "last_seen_ts <= "+placeholder(len(args)+1)), append(args, *find.SeenBefore)
	}

	query := `SELECT id, reporter_id, title, description, category, last_seen_location_id, last_seen_ts, photo_url, text_embedding, img_embedding, photo_hash, embedding_model, resolved, created_ts
		FROM items_lost WHERE ` + strings.Join(where, " AND ") + ` ORDER BY last_seen_ts DESC, id`
	if find.Limit != nil {
		query += " LIMIT " + strconv.Itoa(*find.Limit)
		if find.Offset != nil {
			query += " OFFSET " + strconv.Itoa(*find.Offset)
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
		var textEmbedding, imageEmbedding nullVector
		var photoHash sql.NullInt64
		if err := rows.Scan(
			&item.ID, &item.ReporterID, &item.Title, &item.Description, &item.Category,
			&item.LocationID, &item.LastSeenTs, &item.PhotoURL,
			&textEmbedding, &imageEmbedding, &photoHash, &item.EmbeddingModel,
			&item.Resolved, &item.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan lost item")
		}
		if photoHash.Valid {
			item.PhotoHash = int64ToPhash(photoHash.Int64)
			item.HasPhotoHash = true
		}
		item.TextEmbedding = textEmbedding.Slice()
		item.ImageEmbedding = imageEmbedding.Slice()
		items = append(items, item)
	}
	return items, rows.Err()
}

func (d *DB) UpdateLostItem(ctx context.Context, update *store.UpdateLostItem) (*store.LostItem, error) {
	set, args := []string{}, []any{}
	if update.Title != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *update.Title)
	}
	if update.Description != nil {
		set, args = append(set, "description = "+placeholder(len(args)+1)), append(args, *update.Description)
	}
	if update.Category != nil {
		set, args = append(set, "category = "+placeholder(len(args)+1)), append(args, *update.Category)
	}
	if update.TextEmbedding != nil {
		set, args = append(set, "text_embedding = "+placeholder(len(args)+1)), append(args, vectorParam(update.TextEmbedding))
	}
	if update.ImageEmbedding != nil {
		set, args = append(set, "img_embedding = "+placeholder(len(args)+1)), append(args, vectorParam(update.ImageEmbedding))
	}
	if update.EmbeddingModel != nil {
		set, args = append(set, "embedding_model = "+placeholder(len(args)+1)), append(args, *update.EmbeddingModel)
	}
	if update.Resolved != nil {
		set, args = append(set, "resolved = "+placeholder(len(args)+1)), append(args, *update.Resolved)
	}
	if len(set) == 0 {
		return nil, errors.New("nothing to update")
	}

	args = append(args, update.ID)
	if _, err := d.db.ExecContext(ctx,
		"UPDATE items_lost SET "+strings.Join(set, ", ")+" WHERE id = "+placeholder(len(args)),
		args...,
	); err != nil {
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
		`UPDATE items_lost SET resolved = TRUE
		 WHERE resolved = FALSE
		   AND id IN (SELECT lost_id FROM matches WHERE found_id = $1 AND dismissed = FALSE)`,
		foundID,
	)
	if err != nil {
		return 0, errors.Wrap(err, "failed to resolve matched lost items")
	}
	n, err := result.RowsAffected()
	return int(n), err
}
