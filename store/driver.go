package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver. It contains all methods that
// store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	Migrate(ctx context.Context) error
	IsInitialized(ctx context.Context) (bool, error)

	GetOrCreateUser(ctx context.Context, user *User) (*User, error)
	GetUser(ctx context.Context, find *FindUser) (*User, error)
	UpdateUserPassword(ctx context.Context, id string, passwordHash string) error

	ListLocations(ctx context.Context) ([]*Location, error)

	CreateFoundItem(ctx context.Context, create *FoundItem) (*FoundItem, error)
	ListFoundItems(ctx context.Context, find *FindFoundItem) ([]*FoundItem, error)
	UpdateFoundItemStatus(ctx context.Context, update *UpdateFoundItemStatus) (*FoundItem, error)

	CreateLostItem(ctx context.Context, create *LostItem) (*LostItem, error)
	ListLostItems(ctx context.Context, find *FindLostItem) ([]*LostItem, error)
	UpdateLostItem(ctx context.Context, update *UpdateLostItem) (*LostItem, error)
	ResolveLostItemsMatchedTo(ctx context.Context, foundID string) (int, error)

	UpsertMatch(ctx context.Context, upsert *Match) (*Match, error)
	ListMatches(ctx context.Context, find *FindMatch) ([]*Match, error)
	DismissMatch(ctx context.Context, id string) error
	DeleteMatch(ctx context.Context, id string) error

	CreateClaim(ctx context.Context, create *Claim) (*Claim, error)
	TransitionClaim(ctx context.Context, transition *ClaimTransition) (*Claim, error)
	ListClaims(ctx context.Context, find *FindClaim) ([]*Claim, error)
	ListActiveHoldCodes(ctx context.Context) ([]string, error)

	Stats(ctx context.Context) (*Stats, error)
}
