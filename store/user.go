package store

import (
	"context"
	"strings"
	"time"

	"github.com/JaCARYK/beartracks/internal/errs"
)

const (
	RoleStudent = "student"
	RoleOffice  = "office"
	RoleAdmin   = "admin"
)

type User struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash string
	CreatedTs    int64
}

type FindUser struct {
	ID    *string
	Email *string
}

// GetOrCreateUser returns the user with the given email, creating it on
// first contact. Reporters and claimants identify themselves by name and
// email only, mirroring the intake forms.
func (s *Store) GetOrCreateUser(ctx context.Context, user *User) (*User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" || !strings.Contains(user.Email, "@") {
		return nil, errs.Validationf("email", "malformed address %q", user.Email)
	}
	if user.Role == "" {
		user.Role = RoleStudent
	}
	if user.CreatedTs == 0 {
		user.CreatedTs = time.Now().Unix()
	}
	return s.driver.GetOrCreateUser(ctx, user)
}

func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	return s.driver.GetUser(ctx, find)
}

func (s *Store) UpdateUserPassword(ctx context.Context, id string, passwordHash string) error {
	return s.driver.UpdateUserPassword(ctx, id, passwordHash)
}
