package application

import (
	"context"
	"errors"

	"github.com/oksasatya/vidtube-accounts/internal/domain/apperror"
	"github.com/oksasatya/vidtube-accounts/internal/domain/entity"
	repo "github.com/oksasatya/vidtube-accounts/internal/domain/repository"
)

// CredentialStore owns user identity records and their hashed secrets.
// Plaintext secrets never reach the repository.
type CredentialStore struct {
	Repo   repo.UserRepository
	Hasher PasswordHasher
}

func NewCredentialStore(r repo.UserRepository, h PasswordHasher) *CredentialStore {
	return &CredentialStore{Repo: r, Hasher: h}
}

type NewCredential struct {
	Username      string
	Email         string
	DisplayName   string
	Password      string
	AvatarURL     string
	CoverImageURL string
}

// Create hashes the secret once and persists the user. A uniqueness violation
// is reported as a Conflict naming the colliding field, whether caught by the
// lookup or by the unique constraints on insert.
func (s *CredentialStore) Create(ctx context.Context, in NewCredential) (*entity.User, error) {
	existing, err := s.FindByIdentity(ctx, in.Username, in.Email)
	switch {
	case err == nil:
		return nil, ConflictFor(existing, in.Username)
	case apperror.KindOf(err) != apperror.KindNotFound:
		return nil, err
	}
	return s.Insert(ctx, in)
}

// Insert persists without the lookup, for callers that already did it.
// Uniqueness is still enforced by the constraints on insert.
func (s *CredentialStore) Insert(ctx context.Context, in NewCredential) (*entity.User, error) {
	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, apperror.Dependency("failed to hash password", err)
	}
	u := &entity.User{
		Username:      normalizeUsername(in.Username),
		Email:         normalizeEmail(in.Email),
		DisplayName:   in.DisplayName,
		Password:      hash,
		AvatarURL:     in.AvatarURL,
		CoverImageURL: in.CoverImageURL,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, mapWriteErr(err)
	}
	return u, nil
}

// FindByIdentity looks a user up by username or email.
func (s *CredentialStore) FindByIdentity(ctx context.Context, username, email string) (*entity.User, error) {
	username, email = normalizeUsername(username), normalizeEmail(email)
	if username == "" && email == "" {
		return nil, apperror.Validation("username", "username or email is required")
	}
	u, err := s.Repo.FindByIdentity(ctx, username, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperror.Dependency("failed to look up user", err)
	}
	return u, nil
}

// ConflictFor reports which field of the candidate identity collides with existing.
func ConflictFor(existing *entity.User, username string) error {
	if existing.Username == normalizeUsername(username) {
		return apperror.Conflict("username", "username already exists")
	}
	return apperror.Conflict("email", "email already exists")
}

func (s *CredentialStore) VerifySecret(u *entity.User, candidate string) bool {
	if u == nil || u.Password == "" {
		return false
	}
	return s.Hasher.Compare(u.Password, candidate)
}

func (s *CredentialStore) SetSecret(ctx context.Context, u *entity.User, secret string) error {
	hash, err := s.Hasher.Hash(secret)
	if err != nil {
		return apperror.Dependency("failed to hash password", err)
	}
	if err := s.Repo.UpdatePassword(ctx, u.ID, hash); err != nil {
		return mapWriteErr(err)
	}
	u.Password = hash
	return nil
}
