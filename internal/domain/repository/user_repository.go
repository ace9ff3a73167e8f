package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/vidtube-accounts/internal/domain/entity"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateEmail    = errors.New("duplicate email")
)

// UserRepository defines the persistence operations for user accounts.
// Create and Update return ErrDuplicateUsername or ErrDuplicateEmail on a
// uniqueness violation; lookups return ErrNotFound.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// FindByIdentity matches a user by username or email; empty arguments are ignored.
	FindByIdentity(ctx context.Context, username, email string) (*entity.User, error)
	// Update persists profile columns only (username, email, display name, images).
	Update(ctx context.Context, u *entity.User) error
	UpdatePassword(ctx context.Context, id, hash string) error

	// SetRefreshToken overwrites the stored refresh token; an empty token unsets it.
	SetRefreshToken(ctx context.Context, id, token string) error
	// SwapRefreshToken replaces the stored token only if it still equals old.
	SwapRefreshToken(ctx context.Context, id, old, token string) (bool, error)
}
