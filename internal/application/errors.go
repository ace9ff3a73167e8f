package application

import (
	"errors"
	"strings"

	"github.com/oksasatya/vidtube-accounts/internal/domain/apperror"
	repo "github.com/oksasatya/vidtube-accounts/internal/domain/repository"
)

var (
	ErrInvalidCredentials  = apperror.Unauthorized("invalid user credentials")
	ErrUserNotFound        = apperror.NotFound("user does not exist")
	ErrChannelNotFound     = apperror.NotFound("channel does not exist")
	ErrUnauthorizedRequest = apperror.Unauthorized("unauthorized request")
	ErrInvalidRefreshToken = apperror.Unauthorized("invalid refresh token")

	// Token verification outcomes. A refresh token that is validly signed but
	// no longer stored yields ErrTokenInvalid, same as a forged one.
	ErrTokenExpired = apperror.Unauthorized("token expired")
	ErrTokenInvalid = apperror.Unauthorized("invalid token")
)

func normalizeUsername(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
func normalizeEmail(s string) string    { return strings.ToLower(strings.TrimSpace(s)) }

// mapWriteErr converts repository write failures into application errors.
func mapWriteErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrDuplicateUsername):
		return apperror.Conflict("username", "username already exists")
	case errors.Is(err, repo.ErrDuplicateEmail):
		return apperror.Conflict("email", "email already exists")
	case errors.Is(err, repo.ErrNotFound):
		return ErrUserNotFound
	default:
		return apperror.Dependency("failed to persist user", err)
	}
}
