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

// CreateFoundItem inserts the item with its photos in one transaction so
// a cancelled request never leaves a partial item behind.
func (d *DB) CreateFoundItem(ctx context.Context, create *store.FoundItem) (*store.FoundItem, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO items_found (id, title, description, category, location_id, reporter_id, status, text_embedding, embedding_model, found_ts, created_ts)
		 VALUES (`+placeholders(11)+`)`,
		create.ID, create.Title, create.Description, create.Category, create.LocationID,
		create.ReporterID, create.Status, vectorParam(create.TextEmbedding), create.EmbeddingModel,
		create.FoundTs, create.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert found item")
	}

	for _, photo := range create.Photos {
		var hash any
		if photo.HasPhash {
			hash = phashToInt64(photo.Phash)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO item_photos (id, item_id, filename, position, phash, img_embedding, created_ts)
			 VALUES (`+placeholders(7)+`)`,
			photo.ID, create.ID, photo.Filename, photo.Position,
			hash, vectorParam(photo.ImageEmbedding), photo.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to insert photo")
		}
		photo.ItemID = create.ID
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit found item")
	}
	return create, nil
}

func (d *DB) ListFoundItems(ctx context.Context, find *store.FindFoundItem) ([]*store.FoundItem, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.Status != nil {
		where, args = append(where, "status = "+placeholder(len(args)+1)), append(args, *find.Status)
	}
	if find.Category != nil {
		where, args = append(where, "category = "+placeholder(len(args)+1)), append(args, *find.Category)
	}
	if find.LocationID != nil {
		where, args = append(where, "location_id = "+placeholder(len(args)+1)), append(args, *find.LocationID)
	}
	if find.FoundAfter != nil {
		where, args = append(where, "found_ts >= "+placeholder(len(args)+1)), append(args, *find.FoundAfter)
	}
	if find.FoundBefore != nil {
		where, args = append(where, "found_ts <= "+placeholder(len(args)+1)), append(args, *find.FoundBefore)
	}

	query := `SELECT id, title, description, category, location_id, reporter_id, status, text_embedding, embedding_model, found_ts, created_ts
		FROM items_found WHERE ` + strings.Join(where, " AND ") + ` ORDER BY found_ts DESC, id`
	if find.Limit != nil {
		query += " LIMIT " + strconv.Itoa(*find.Limit)
		if find.Offset != nil {
			query += " OFFSET " + strconv.Itoa(*find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list found items")
	}
	defer rows.Close()

	items := []*store.FoundItem{}
	for rows.Next() {
		item := &store.FoundItem{}
		var embedding nullVector
		if err := rows.Scan(
			&item.ID, &item.Title, &item.Description, &item.Category, &item.LocationID,
			&item.ReporterID, &item.Status, &embedding, &item.EmbeddingModel,
			&item.FoundTs, &item.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan found item")
		}
		item.TextEmbedding = embedding.Slice()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if find.WithPhotos && len(items) > 0 {
		if err := d.attachPhotos(ctx, items); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (d *DB) attachPhotos(ctx context.Context, items []*store.FoundItem) error {
	ids := make([]any, len(items))
	byID := make(map[string]*store.FoundItem, len(items))
	for i, item := range items {
		ids[i] = item.ID
		byID[item.ID] = item
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, item_id, filename, position, phash, img_embedding, created_ts
		 FROM item_photos WHERE item_id IN (`+placeholders(len(ids))+`) ORDER BY item_id, position`,
		ids...,
	)
	if err != nil {
		return errors.Wrap(err, "failed to list photos")
	}
	defer rows.Close()

	for rows.Next() {
		photo := &store.Photo{}
		var phash sql.NullInt64
		var embedding nullVector
		if err := rows.Scan(&photo.ID, &photo.ItemID, &photo.Filename, &photo.Position, &phash, &embedding, &photo.CreatedTs); err != nil {
			return errors.Wrap(err, "failed to scan photo")
		}
		if phash.Valid {
			photo.Phash = int64ToPhash(phash.Int64)
			photo.HasPhash = true
		}
		photo.ImageEmbedding = embedding.Slice()
		if item, ok := byID[photo.ItemID]; ok {
			item.Photos = append(item.Photos, photo)
		}
	}
	return rows.Err()
}

func (d *DB) UpdateFoundItemStatus(ctx context.Context, update *store.UpdateFoundItemStatus) (*store.FoundItem, error) {
	args := []any{update.Status, update.ID}
	query := "UPDATE items_found SET status = $1 WHERE id = $2"
	if len(update.ExpectedStatus) > 0 {
		query += " AND status IN (" + placeholdersFrom(3, len(update.ExpectedStatus)) + ")"
		for _, s := range update.ExpectedStatus {
			args = append(args, s)
		}
	}

	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update item status")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get rows affected")
	}
	if n == 0 {
		var current string
		err := d.db.QueryRowContext(ctx, "SELECT status FROM items_found WHERE id = $1", update.ID).Scan(&current)
		if err == sql.ErrNoRows {
			return nil, &errs.NotFoundError{Kind: "found item", ID: update.ID}
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read item status")
		}
		return nil, &errs.ConflictError{ItemID: update.ID, CurrentStatus: current}
	}

	items, err := d.ListFoundItems(ctx, &store.FindFoundItem{ID: &update.ID, WithPhotos: true})
	if err != nil {
		return nil, err
	}
	return items[0], nil
}
