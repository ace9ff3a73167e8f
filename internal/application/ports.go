package application

import (
	"context"
	"io"
	"time"

	"github.com/oksasatya/vidtube-accounts/internal/domain/entity"
	"github.com/oksasatya/vidtube-accounts/pkg/helpers"
)

// PasswordHasher is the one-way, salted hashing capability used for secrets.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) bool
}

// TokenSigner signs and verifies access and refresh tokens.
type TokenSigner interface {
	GenerateAccessToken(userID string) (string, time.Time, error)
	GenerateRefreshToken(userID string) (string, time.Time, error)
	ParseAccessToken(token string) (*helpers.Claims, error)
	ParseRefreshToken(token string) (*helpers.Claims, error)
}

// BlobStore stores an object and returns the URL it is reachable at.
type BlobStore interface {
	Store(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// JobPublisher enqueues background jobs.
type JobPublisher interface {
	PublishJSON(ctx context.Context, kind string, body any) error
}

// UserIndexer keeps the user search index in sync.
type UserIndexer interface {
	IndexUser(ctx context.Context, u *entity.User) error
	SearchUsers(ctx context.Context, q string, size int) ([]entity.UserDocument, error)
}

// Upload is an image received by the transport, not yet stored.
type Upload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}
