package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vidtube-accounts/internal/domain/apperror"
	"github.com/oksasatya/vidtube-accounts/internal/domain/entity"
	repo "github.com/oksasatya/vidtube-accounts/internal/domain/repository"
	"github.com/oksasatya/vidtube-accounts/pkg/helpers"
	"github.com/oksasatya/vidtube-accounts/pkg/mailer"
	"github.com/oksasatya/vidtube-accounts/pkg/mailer/templates"
	"github.com/oksasatya/vidtube-accounts/pkg/metrics"
)

// maxSecretBytes is the longest secret bcrypt accepts.
const maxSecretBytes = 72

// Service is the session controller: it composes the credential store, the
// token service and the blob store into the account operations.
type Service struct {
	Credentials *CredentialStore
	Tokens      *TokenService
	Repo        repo.UserRepository
	Blobs       BlobStore
	Publisher   JobPublisher // optional
	Indexer     UserIndexer  // optional
	Logger      *logrus.Logger
	Metrics     metrics.Recorder
	Brand       templates.Brand
	MailEnabled bool
}

type ServiceDeps struct {
	Credentials *CredentialStore
	Tokens      *TokenService
	Repo        repo.UserRepository
	Blobs       BlobStore
	Publisher   JobPublisher
	Indexer     UserIndexer
	Logger      *logrus.Logger
	Metrics     metrics.Recorder
	Brand       templates.Brand
	MailEnabled bool
}

func NewService(d ServiceDeps) *Service {
	rec := d.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Service{
		Credentials: d.Credentials,
		Tokens:      d.Tokens,
		Repo:        d.Repo,
		Blobs:       d.Blobs,
		Publisher:   d.Publisher,
		Indexer:     d.Indexer,
		Logger:      d.Logger,
		Metrics:     rec,
		Brand:       d.Brand,
		MailEnabled: d.MailEnabled,
	}
}

type RegisterInput struct {
	Username    string
	Email       string
	DisplayName string
	Password    string
	Avatar      *Upload
	CoverImage  *Upload
}

// Register creates an account. The avatar is required; a cover image that
// fails to store is dropped and the account is created without one.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	username := normalizeUsername(in.Username)
	email := normalizeEmail(in.Email)
	displayName := helpers.StripMarkup(in.DisplayName)

	for _, f := range []struct{ name, value string }{
		{"username", username},
		{"email", email},
		{"displayName", displayName},
		{"password", strings.TrimSpace(in.Password)},
	} {
		if f.value == "" {
			s.Metrics.RecordAuthEvent("register", metrics.OutcomeFailure)
			return nil, apperror.Validation(f.name, "all fields are required")
		}
	}
	if err := checkSecretLength("password", in.Password); err != nil {
		return nil, err
	}

	existing, err := s.Credentials.FindByIdentity(ctx, username, email)
	switch {
	case err == nil:
		s.Metrics.RecordAuthEvent("register", metrics.OutcomeFailure)
		return nil, ConflictFor(existing, username)
	case apperror.KindOf(err) != apperror.KindNotFound:
		return nil, err
	}

	if in.Avatar == nil || in.Avatar.Reader == nil {
		return nil, apperror.Validation("avatar", "avatar file is required")
	}
	owner := uuid.NewString()
	avatarURL, err := s.storeImage(ctx, "avatar", owner, in.Avatar, helpers.AvatarSpec)
	if err != nil {
		return nil, err
	}

	coverURL := ""
	if in.CoverImage != nil && in.CoverImage.Reader != nil {
		coverURL, err = s.storeImage(ctx, "coverImage", owner, in.CoverImage, helpers.CoverSpec)
		if err != nil {
			if apperror.KindOf(err) == apperror.KindValidation {
				return nil, err
			}
			helpers.LogError(s.Logger, "cover image upload failed, continuing without it", err, logrus.Fields{"username": username})
			coverURL = ""
		}
	}

	u, err := s.Credentials.Insert(ctx, NewCredential{
		Username:      username,
		Email:         email,
		DisplayName:   displayName,
		Password:      in.Password,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	})
	if err != nil {
		s.Metrics.RecordAuthEvent("register", metrics.OutcomeFailure)
		return nil, err
	}

	s.Metrics.RecordAuthEvent("register", metrics.OutcomeSuccess)
	helpers.LogInfo(s.Logger, "user registered", logrus.Fields{"user_id": u.ID, "username": u.Username})
	s.index(ctx, u)
	s.notify(ctx, mailer.KindWelcome, u, templates.NewWelcomeData(s.Brand, u.DisplayName, u.Username, u.Email), templates.Welcome)
	return u, nil
}

type LoginInput struct {
	Username string
	Email    string
	Password string
}

// Login verifies credentials and rotates the session. On a wrong password no
// token is issued and the stored refresh token is left as it was.
func (s *Service) Login(ctx context.Context, in LoginInput) (*entity.User, TokenPair, error) {
	if strings.TrimSpace(in.Username) == "" && strings.TrimSpace(in.Email) == "" {
		return nil, TokenPair{}, apperror.Validation("username", "username or email is required")
	}
	if in.Password == "" {
		return nil, TokenPair{}, apperror.Validation("password", "password is required")
	}

	u, err := s.Credentials.FindByIdentity(ctx, in.Username, in.Email)
	if err != nil {
		s.Metrics.RecordAuthEvent("login", metrics.OutcomeFailure)
		return nil, TokenPair{}, err
	}
	if !s.Credentials.VerifySecret(u, in.Password) {
		s.Metrics.RecordAuthEvent("login", metrics.OutcomeFailure)
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.Tokens.Rotate(ctx, u)
	if err != nil {
		s.Metrics.RecordAuthEvent("login", metrics.OutcomeFailure)
		return nil, TokenPair{}, err
	}
	s.Metrics.RecordAuthEvent("login", metrics.OutcomeSuccess)
	helpers.LogInfo(s.Logger, "user logged in", logrus.Fields{"user_id": u.ID})
	return u, pair, nil
}

func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.Tokens.Revoke(ctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUnauthorizedRequest
		}
		return err
	}
	s.Metrics.RecordAuthEvent("logout", metrics.OutcomeSuccess)
	return nil
}

// Refresh exchanges a stored refresh token for a new pair. Every token
// failure surfaces as the same Unauthorized error.
func (s *Service) Refresh(ctx context.Context, token string) (TokenPair, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		s.Metrics.RecordAuthEvent("refresh", metrics.OutcomeFailure)
		return TokenPair{}, ErrUnauthorizedRequest
	}

	userID, err := s.Tokens.VerifyRefresh(ctx, token)
	if err == nil {
		var pair TokenPair
		pair, err = s.Tokens.RotateFrom(ctx, userID, token)
		if err == nil {
			s.Metrics.RecordAuthEvent("refresh", metrics.OutcomeSuccess)
			return pair, nil
		}
	}

	s.Metrics.RecordAuthEvent("refresh", metrics.OutcomeFailure)
	if apperror.KindOf(err) == apperror.KindUnauthorized {
		return TokenPair{}, ErrInvalidRefreshToken
	}
	return TokenPair{}, err
}

func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" {
		return apperror.Validation("oldPassword", "old password is required")
	}
	if strings.TrimSpace(newPassword) == "" {
		return apperror.Validation("newPassword", "new password is required")
	}
	if err := checkSecretLength("newPassword", newPassword); err != nil {
		return err
	}

	u, err := s.loadCaller(ctx, userID)
	if err != nil {
		return err
	}
	if !s.Credentials.VerifySecret(u, oldPassword) {
		s.Metrics.RecordAuthEvent("change_password", metrics.OutcomeFailure)
		return apperror.Unauthorized("invalid old password")
	}
	if err := s.Credentials.SetSecret(ctx, u, newPassword); err != nil {
		s.Metrics.RecordAuthEvent("change_password", metrics.OutcomeFailure)
		return err
	}

	s.Metrics.RecordAuthEvent("change_password", metrics.OutcomeSuccess)
	s.notify(ctx, mailer.KindPasswordChanged, u,
		templates.NewPasswordChangedData(s.Brand, u.DisplayName, u.Username, u.Email, templates.WithTime(time.Now())),
		templates.PasswordChanged)
	return nil
}

func (s *Service) CurrentUser(ctx context.Context, userID string) (*entity.User, error) {
	return s.loadCaller(ctx, userID)
}

type UpdateDetailsInput struct {
	Username    string
	DisplayName string
	Email       string
}

func (s *Service) UpdateDetails(ctx context.Context, userID string, in UpdateDetailsInput) (*entity.User, error) {
	username := normalizeUsername(in.Username)
	email := normalizeEmail(in.Email)
	displayName := helpers.StripMarkup(in.DisplayName)
	for _, f := range []struct{ name, value string }{
		{"username", username},
		{"displayName", displayName},
		{"email", email},
	} {
		if f.value == "" {
			return nil, apperror.Validation(f.name, "all fields are required")
		}
	}

	u, err := s.loadCaller(ctx, userID)
	if err != nil {
		return nil, err
	}

	changes := map[string]string{}
	if u.Username != username {
		changes["username"] = username
	}
	if u.Email != email {
		changes["email"] = email
	}
	if u.DisplayName != displayName {
		changes["displayName"] = displayName
	}

	u.Username, u.Email, u.DisplayName = username, email, displayName
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, mapWriteErr(err)
	}

	s.index(ctx, u)
	if len(changes) > 0 {
		s.notify(ctx, mailer.KindProfileUpdated, u,
			templates.NewProfileUpdatedData(s.Brand, u.DisplayName, u.Username, u.Email, changes, templates.WithTime(time.Now())),
			templates.ProfileUpdated)
	}
	return u, nil
}

// UpdateAvatar stores a new avatar and points the user at it. The previous
// object is left in the blob store.
func (s *Service) UpdateAvatar(ctx context.Context, userID string, up *Upload) (*entity.User, error) {
	return s.replaceImage(ctx, userID, "avatar", up, helpers.AvatarSpec, func(u *entity.User, url string) { u.AvatarURL = url })
}

func (s *Service) UpdateCoverImage(ctx context.Context, userID string, up *Upload) (*entity.User, error) {
	return s.replaceImage(ctx, userID, "coverImage", up, helpers.CoverSpec, func(u *entity.User, url string) { u.CoverImageURL = url })
}

// SearchUsers queries the user index. Without an index it finds nothing.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]entity.UserDocument, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperror.Validation("q", "search query is required")
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	if s.Indexer == nil {
		return []entity.UserDocument{}, nil
	}
	docs, err := s.Indexer.SearchUsers(ctx, q, size)
	if err != nil {
		return nil, apperror.Dependency("search failed", err)
	}
	if docs == nil {
		docs = []entity.UserDocument{}
	}
	return docs, nil
}

func (s *Service) replaceImage(ctx context.Context, userID, field string, up *Upload, shape helpers.ImageSpec, set func(*entity.User, string)) (*entity.User, error) {
	if up == nil || up.Reader == nil {
		return nil, apperror.Validation(field, field+" file is missing")
	}
	u, err := s.loadCaller(ctx, userID)
	if err != nil {
		return nil, err
	}
	url, err := s.storeImage(ctx, field, u.ID, up, shape)
	if err != nil {
		return nil, err
	}
	set(u, url)
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, mapWriteErr(err)
	}
	s.index(ctx, u)
	return u, nil
}

// storeImage normalizes an upload and writes it to the blob store.
func (s *Service) storeImage(ctx context.Context, field, owner string, up *Upload, shape helpers.ImageSpec) (string, error) {
	start := time.Now()
	img, err := helpers.NormalizeImage(up.Reader, shape)
	if err != nil {
		s.Metrics.RecordUpload(field, time.Since(start), err)
		if errors.Is(err, helpers.ErrUnsupportedImage) {
			return "", apperror.Validation(field, field+" must be a valid image")
		}
		return "", apperror.Dependency("error while processing "+field, err)
	}

	objectPath := fmt.Sprintf("%s/%s/%s.jpg", strings.ToLower(field), owner, uuid.NewString())
	url, err := s.Blobs.Store(ctx, objectPath, helpers.NormalizedImageType, img)
	if err == nil && url == "" {
		err = errors.New("blob store returned empty url")
	}
	s.Metrics.RecordUpload(field, time.Since(start), err)
	if err != nil {
		helpers.LogError(s.Logger, "upload failed", err, logrus.Fields{"field": field, "object": objectPath})
		return "", apperror.Dependency("error while uploading "+field, err)
	}
	return url, nil
}

// loadCaller resolves the authenticated user. A token for a user that no
// longer exists is treated as unauthenticated.
func (s *Service) loadCaller(ctx context.Context, userID string) (*entity.User, error) {
	if userID == "" {
		return nil, ErrUnauthorizedRequest
	}
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnauthorizedRequest
		}
		return nil, apperror.Dependency("failed to load user", err)
	}
	return u, nil
}

func (s *Service) index(ctx context.Context, u *entity.User) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.IndexUser(ctx, u); err != nil {
		helpers.LogError(s.Logger, "index user failed", err, logrus.Fields{"user_id": u.ID})
	}
}

func (s *Service) notify(ctx context.Context, kind string, u *entity.User, data map[string]any, template string) {
	if !s.MailEnabled || s.Publisher == nil || u.Email == "" {
		return
	}
	job := mailer.EmailJob{To: u.Email, Template: template, Data: data}
	if err := s.Publisher.PublishJSON(ctx, kind, job); err != nil {
		helpers.LogError(s.Logger, "enqueue email failed", err, logrus.Fields{"user_id": u.ID, "kind": kind})
	}
}

func checkSecretLength(field, secret string) error {
	if len(secret) > maxSecretBytes {
		return apperror.Validation(field, fmt.Sprintf("%s must be at most %d bytes", field, maxSecretBytes))
	}
	return nil
}
