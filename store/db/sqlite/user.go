package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/JaCARYK/beartracks/store"
)

func (d *DB) GetOrCreateUser(ctx context.Context, user *store.User) (*store.User, error) {
	existing, err := d.GetUser(ctx, &store.FindUser{Email: &user.Email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	stmt := `INSERT INTO users (id, email, name, role, password_hash, created_ts)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (email) DO UPDATE SET email = excluded.email
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
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.Email != nil {
		where, args = append(where, "email = ?"), append(args, *find.Email)
	}

	user := &store.User{}
	err := d.db.QueryRowContext(ctx,
		"SELECT id, email, name, role, password_hash, created_ts FROM users WHERE "+joinAnd(where),
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
		"UPDATE users SET password_hash = ? WHERE id = ?", passwordHash, id,
	); err != nil {
		return errors.Wrap(err, "failed to update user password")
	}
	return nil
}
