package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/vidtube-accounts/internal/domain/entity"
	"github.com/oksasatya/vidtube-accounts/internal/domain/repository"
)

const userColumns = `id::text, username, email, display_name, password_hash, avatar_url,
	cover_image_url, COALESCE(refresh_token, ''), created_at, updated_at`

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (username, email, display_name, password_hash, avatar_url, cover_image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, created_at, updated_at
	`, u.Username, u.Email, u.DisplayName, u.Password, u.AvatarURL, u.CoverImageURL)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapUserErr(err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByIdentity prefers a username match when both arguments match different rows.
func (r *UserRepository) FindByIdentity(ctx context.Context, username, email string) (*entity.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)
		ORDER BY (username = $1) DESC
		LIMIT 1
	`, username, email)
	return scanUser(row)
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	err := r.db.QueryRow(ctx, `
		UPDATE users
		SET username = $1, email = $2, display_name = $3, avatar_url = $4, cover_image_url = $5, updated_at = now()
		WHERE id = $6
		RETURNING updated_at
	`, u.Username, u.Email, u.DisplayName, u.AvatarURL, u.CoverImageURL, u.ID).Scan(&u.UpdatedAt)
	if err != nil {
		return mapUserErr(err)
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
}

func (r *UserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	return r.exec(ctx, `UPDATE users SET refresh_token = $2 WHERE id = $1`, id, nullable(token))
}

// SwapRefreshToken is a single conditional UPDATE; a NULL stored token never matches.
func (r *UserRepository) SwapRefreshToken(ctx context.Context, id, old, token string) (bool, error) {
	res, err := r.db.Exec(ctx, `
		UPDATE users SET refresh_token = $3
		WHERE id = $1 AND refresh_token = $2
	`, id, old, token)
	if err != nil {
		if err = mapUserErr(err); errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

func (r *UserRepository) exec(ctx context.Context, sql string, args ...any) error {
	res, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return mapUserErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.DisplayName, &u.Password, &u.AvatarURL,
		&u.CoverImageURL, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapUserErr(err)
	}
	return u, nil
}

// mapUserErr translates driver errors into repository sentinels.
func mapUserErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	switch code, constraint := pgCode(err); code {
	case codeUniqueViolation:
		switch constraint {
		case "users_username_key":
			return repository.ErrDuplicateUsername
		case "users_email_key":
			return repository.ErrDuplicateEmail
		}
	case codeInvalidText:
		// malformed uuid
		return repository.ErrNotFound
	}
	return fmt.Errorf("users: %w", err)
}

var _ repository.UserRepository = (*UserRepository)(nil)
