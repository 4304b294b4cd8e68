package sqlite

import (
	"context"

	"github.com/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'student',
	password_hash TEXT NOT NULL DEFAULT '',
	created_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS locations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	building TEXT NOT NULL,
	floor TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS items_found (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	location_id INTEGER NOT NULL REFERENCES locations(id),
	reporter_id TEXT NOT NULL REFERENCES users(id),
	status TEXT NOT NULL DEFAULT 'available',
	text_embedding BLOB,
	embedding_model TEXT NOT NULL DEFAULT '',
	found_ts BIGINT NOT NULL,
	created_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_found_status ON items_found(status);
CREATE INDEX IF NOT EXISTS idx_items_found_category ON items_found(category);
CREATE INDEX IF NOT EXISTS idx_items_found_location ON items_found(location_id);
CREATE INDEX IF NOT EXISTS idx_items_found_found_ts ON items_found(found_ts);

CREATE TABLE IF NOT EXISTS item_photos (
	id TEXT PRIMARY KEY,
	item_id TEXT NOT NULL REFERENCES items_found(id) ON DELETE CASCADE,
	filename TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	phash BIGINT,
	img_embedding BLOB,
	created_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_item_photos_item ON item_photos(item_id);

CREATE TABLE IF NOT EXISTS items_lost (
	id TEXT PRIMARY KEY,
	reporter_id TEXT NOT NULL REFERENCES users(id),
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	last_seen_location_id INTEGER NOT NULL REFERENCES locations(id),
	last_seen_ts BIGINT NOT NULL,
	photo_url TEXT NOT NULL DEFAULT '',
	text_embedding BLOB,
	img_embedding BLOB,
	photo_hash BIGINT,
	embedding_model TEXT NOT NULL DEFAULT '',
	resolved INTEGER NOT NULL DEFAULT 0,
	created_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_lost_resolved ON items_lost(resolved);
CREATE INDEX IF NOT EXISTS idx_items_lost_last_seen_ts ON items_lost(last_seen_ts);

CREATE TABLE IF NOT EXISTS matches (
	id TEXT PRIMARY KEY,
	lost_id TEXT NOT NULL REFERENCES items_lost(id),
	found_id TEXT NOT NULL REFERENCES items_found(id),
	score REAL NOT NULL,
	auto_suggested INTEGER NOT NULL DEFAULT 1,
	dismissed INTEGER NOT NULL DEFAULT 0,
	created_ts BIGINT NOT NULL,
	UNIQUE(lost_id, found_id)
);
CREATE INDEX IF NOT EXISTS idx_matches_lost ON matches(lost_id);
CREATE INDEX IF NOT EXISTS idx_matches_found ON matches(found_id);

CREATE TABLE IF NOT EXISTS claims (
	id TEXT PRIMARY KEY,
	found_id TEXT NOT NULL REFERENCES items_found(id),
	claimant_id TEXT NOT NULL REFERENCES users(id),
	status TEXT NOT NULL DEFAULT 'requested',
	hold_code TEXT NOT NULL DEFAULT '',
	verifier_id TEXT NOT NULL DEFAULT '',
	requested_ts BIGINT NOT NULL,
	verified_ts BIGINT NOT NULL DEFAULT 0
);
-- At most one active claim per item, enforced by the database itself so
-- a racing second request can never slip through.
CREATE UNIQUE INDEX IF NOT EXISTS idx_claims_active_item
	ON claims(found_id) WHERE status IN ('requested', 'verified');
-- Hold codes are unique among currently active claims only.
CREATE UNIQUE INDEX IF NOT EXISTS idx_claims_active_code
	ON claims(hold_code) WHERE status IN ('requested', 'verified');
`

// seedLocations installs the campus reference data on first run.
var seedLocations = []struct {
	name     string
	building string
	floor    string
}{
	{"Kerckhoff Hall — Information Desk", "Kerckhoff Hall", "1"},
	{"Powell Library — Front Desk", "Powell Library", "1"},
	{"Ackerman Union — Lost & Found Office", "Ackerman Union", "A"},
	{"Royce Hall — West Entrance", "Royce Hall", "1"},
	{"Wooden Center — Equipment Desk", "Wooden Center", "1"},
	{"Boelter Hall — 3rd Floor Lounge", "Boelter Hall", "3"},
	{"Moore Hall — Main Office", "Moore Hall", "1"},
	{"De Neve Commons — Front Desk", "De Neve Commons", "1"},
}

func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}

	var count int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM locations").Scan(&count); err != nil {
		return errors.Wrap(err, "failed to count locations")
	}
	if count == 0 {
		for _, loc := range seedLocations {
			if _, err := d.db.ExecContext(ctx,
				"INSERT INTO locations (name, building, floor) VALUES (?, ?, ?)",
				loc.name, loc.building, loc.floor,
			); err != nil {
				return errors.Wrap(err, "failed to seed locations")
			}
		}
	}
	return nil
}
