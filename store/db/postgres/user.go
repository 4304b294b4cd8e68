package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/JaCARYK/beartracks/store"
)

func (d *DB) GetOrCreateUser(ctx context.Context, user *store.User) (*store.User, error) {
	stmt := `INSERT INTO users (id, email, name, role, password_hash, created_ts)
		VALUES (` + placeholders(6) + `)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, email, name, role, password_hash, created_ts`
	created := &store.User{}
	if err := d.db.QueryRowContext(ctx, stmt,
		user.ID, user.Email, user.Name, user.Role, user.PasswordHash, user.CreatedTs,
	).Scan(&created.ID, &created.Email, &created.Name, &created.Role, &created.PasswordHash, &created.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to create user")
	}
	return created, nil
}

func (d *DB) GetUser(ctx context.Context, find *store.FindUser) (*store.User, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.Email != nil {
		where, args = append(where, "email = "+placeholder(len(args)+1)), append(args, *find.Email)
	}

	user := &store.User{}
	err := d.db.QueryRowContext(ctx,
		"SELECT id, email, name, role, password_hash, created_ts FROM users WHERE "+strings.Join(where, " AND "),
		args...,
	).Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.PasswordHash, &user.CreatedTs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}
	return user, nil
}

func (d *DB) UpdateUserPassword(ctx context.Context, id string, passwordHash string) error {
	if _, err := d.db.ExecContext(ctx,
		"UPDATE users SET password_hash = $1 WHERE id = $2", passwordHash, id,
	); err != nil {
		return errors.Wrap(err, "failed to update user password")
	}
	return nil
}
