package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vidtube-accounts/internal/domain/apperror"
	"github.com/oksasatya/vidtube-accounts/internal/domain/entity"
	repo "github.com/oksasatya/vidtube-accounts/internal/domain/repository"
	"github.com/oksasatya/vidtube-accounts/pkg/helpers"
	"github.com/oksasatya/vidtube-accounts/pkg/metrics"
)

// TokenService issues stateless access tokens and server-tracked refresh
// tokens. Each user has at most one stored refresh token; Rotate and
// RotateFrom are the only places that replace it.
type TokenService struct {
	Repo    repo.UserRepository
	Signer  TokenSigner
	Logger  *logrus.Logger
	Metrics metrics.Recorder
}

func NewTokenService(r repo.UserRepository, signer TokenSigner, logger *logrus.Logger, rec metrics.Recorder) *TokenService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &TokenService{Repo: r, Signer: signer, Logger: logger, Metrics: rec}
}

func (s *TokenService) IssueAccess(u *entity.User) (string, time.Time, error) {
	tok, exp, err := s.Signer.GenerateAccessToken(u.ID)
	if err != nil {
		return "", time.Time{}, apperror.Dependency("failed to generate access token", err)
	}
	return tok, exp, nil
}

// VerifyAccess checks signature and expiry only.
func (s *TokenService) VerifyAccess(token string) (string, error) {
	claims, err := s.Signer.ParseAccessToken(token)
	if err != nil {
		return "", tokenError(err)
	}
	return claims.UserID, nil
}

// VerifyRefresh checks signature, expiry and that token is the one currently
// stored for its user.
func (s *TokenService) VerifyRefresh(ctx context.Context, token string) (string, error) {
	claims, err := s.Signer.ParseRefreshToken(token)
	if err != nil {
		return "", tokenError(err)
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrTokenInvalid
		}
		return "", apperror.Dependency("failed to load session", err)
	}
	if u.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(u.RefreshToken), []byte(token)) != 1 {
		return "", ErrTokenInvalid
	}
	return u.ID, nil
}

// Rotate issues a new pair and unconditionally overwrites the stored refresh token.
func (s *TokenService) Rotate(ctx context.Context, u *entity.User) (TokenPair, error) {
	pair, err := s.issuePair(u)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.Repo.SetRefreshToken(ctx, u.ID, pair.RefreshToken); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("store refresh token failed")
		}
		return TokenPair{}, mapWriteErr(err)
	}
	u.RefreshToken = pair.RefreshToken
	s.Metrics.RecordTokenRotation("login")
	return pair, nil
}

// RotateFrom replaces the stored refresh token only if it still equals
// presented. Of two concurrent calls presenting the same token, one wins and
// the other gets ErrTokenInvalid.
func (s *TokenService) RotateFrom(ctx context.Context, userID, presented string) (TokenPair, error) {
	pair, err := s.issuePair(&entity.User{ID: userID})
	if err != nil {
		return TokenPair{}, err
	}
	swapped, err := s.Repo.SwapRefreshToken(ctx, userID, presented, pair.RefreshToken)
	if err != nil {
		return TokenPair{}, mapWriteErr(err)
	}
	if !swapped {
		return TokenPair{}, ErrTokenInvalid
	}
	s.Metrics.RecordTokenRotation("refresh")
	return pair, nil
}

// Revoke unsets the stored refresh token.
func (s *TokenService) Revoke(ctx context.Context, userID string) error {
	if err := s.Repo.SetRefreshToken(ctx, userID, ""); err != nil {
		return mapWriteErr(err)
	}
	s.Metrics.RecordTokenRotation("revoke")
	return nil
}

func (s *TokenService) issuePair(u *entity.User) (TokenPair, error) {
	access, aexp, err := s.IssueAccess(u)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.Signer.GenerateRefreshToken(u.ID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		}
		return TokenPair{}, apperror.Dependency("failed to generate refresh token", err)
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func tokenError(err error) error {
	if errors.Is(err, helpers.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return ErrTokenInvalid
}
