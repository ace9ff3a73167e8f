package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vidtube-accounts/internal/application"
	"github.com/oksasatya/vidtube-accounts/internal/domain/entity"
	"github.com/oksasatya/vidtube-accounts/internal/interface/middleware"
	"github.com/oksasatya/vidtube-accounts/pkg/helpers"
	"github.com/oksasatya/vidtube-accounts/pkg/response"
	"github.com/oksasatya/vidtube-accounts/pkg/validation"
)

// AccountService is the session controller as seen by the transport.
type AccountService interface {
	Register(ctx context.Context, in application.RegisterInput) (*entity.User, error)
	Login(ctx context.Context, in application.LoginInput) (*entity.User, application.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, token string) (application.TokenPair, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	CurrentUser(ctx context.Context, userID string) (*entity.User, error)
	UpdateDetails(ctx context.Context, userID string, in application.UpdateDetailsInput) (*entity.User, error)
	UpdateAvatar(ctx context.Context, userID string, up *application.Upload) (*entity.User, error)
	UpdateCoverImage(ctx context.Context, userID string, up *application.Upload) (*entity.User, error)
	SearchUsers(ctx context.Context, q string, size int) ([]entity.UserDocument, error)
}

type UserHandler struct {
	Svc            AccountService
	Logger         *logrus.Logger
	Cookies        *helpers.Manager
	MaxUploadBytes int64
}

func NewUserHandler(svc AccountService, logger *logrus.Logger, cookies *helpers.Manager, maxUploadBytes int64) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, Cookies: cookies, MaxUploadBytes: maxUploadBytes}
}

// userView is the public shape of a user. The password hash and refresh
// token have no field here.
type userView struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"displayName"`
	AvatarURL     string    `json:"avatarUrl"`
	CoverImageURL string    `json:"coverImageUrl"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toView(u *entity.User) userView {
	return userView{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

type registerForm struct {
	Username    string `form:"username" json:"username" binding:"omitempty,uname"`
	Email       string `form:"email" json:"email" binding:"omitempty,email"`
	DisplayName string `form:"displayName" json:"displayName" binding:"max=100"`
	Password    string `form:"password" json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateDetailsRequest struct {
	Username    string `json:"username" binding:"omitempty,uname"`
	DisplayName string `json:"displayName" binding:"max=100"`
	Email       string `json:"email" binding:"omitempty,email"`
}

type sessionView struct {
	User         *userView `json:"user,omitempty"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
}

func (h *UserHandler) Register(c *gin.Context) {
	h.limitBody(c)
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		h.bindError(c, err)
		return
	}

	avatar, closeAvatar, err := openUpload(c, "avatar")
	if err != nil {
		h.bindError(c, err)
		return
	}
	defer closeAvatar()
	cover, closeCover, err := openUpload(c, "coverImage")
	if err != nil {
		h.bindError(c, err)
		return
	}
	defer closeCover()

	u, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Username:    form.Username,
		Email:       form.Email,
		DisplayName: form.DisplayName,
		Password:    form.Password,
		Avatar:      avatar,
		CoverImage:  cover,
	})
	if err != nil {
		response.FromError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toView(u), "user registered successfully", nil)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	u, pair, err := h.Svc.Login(c.Request.Context(), application.LoginInput{Username: req.Username, Email: req.Email, Password: req.Password})
	if err != nil {
		response.FromError(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	view := toView(u)
	response.Success(c, http.StatusOK, sessionView{User: &view, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
		"user logged in successfully", expiryMeta(pair))
}

func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.Svc.Logout(c.Request.Context(), middleware.UserID(c)); err != nil {
		response.FromError(c, h.Logger, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{}, "user logged out", nil)
}

// Refresh reads the refresh token from its cookie, or from the JSON body
// when the cookie is absent.
func (h *UserHandler) Refresh(c *gin.Context) {
	token, _ := c.Cookie(helpers.RefreshCookie)
	if token == "" && c.Request.ContentLength != 0 {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.RefreshToken
		}
	}

	pair, err := h.Svc.Refresh(c.Request.Context(), token)
	if err != nil {
		response.FromError(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, sessionView{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
		"access token refreshed", expiryMeta(pair))
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), middleware.UserID(c), req.OldPassword, req.NewPassword); err != nil {
		response.FromError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{}, "password changed successfully", nil)
}

func (h *UserHandler) CurrentUser(c *gin.Context) {
	u, err := h.Svc.CurrentUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.FromError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toView(u), "current user fetched successfully", nil)
}

func (h *UserHandler) UpdateDetails(c *gin.Context) {
	var req updateDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	u, err := h.Svc.UpdateDetails(c.Request.Context(), middleware.UserID(c), application.UpdateDetailsInput{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Email:       req.Email,
	})
	if err != nil {
		response.FromError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toView(u), "account details updated successfully", nil)
}

func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	h.updateImage(c, "avatar", h.Svc.UpdateAvatar, "avatar updated successfully")
}

func (h *UserHandler) UpdateCoverImage(c *gin.Context) {
	h.updateImage(c, "coverImage", h.Svc.UpdateCoverImage, "cover image updated successfully")
}

func (h *UserHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	docs, err := h.Svc.SearchUsers(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		response.FromError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, docs, "users fetched successfully", gin.H{"count": len(docs)})
}

type imageUpdater func(ctx context.Context, userID string, up *application.Upload) (*entity.User, error)

func (h *UserHandler) updateImage(c *gin.Context, field string, update imageUpdater, message string) {
	h.limitBody(c)
	up, closeUpload, err := openUpload(c, field)
	if err != nil {
		h.bindError(c, err)
		return
	}
	defer closeUpload()

	u, err := update(c.Request.Context(), middleware.UserID(c), up)
	if err != nil {
		response.FromError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toView(u), message, nil)
}

func (h *UserHandler) limitBody(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}
}

func (h *UserHandler) bindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
		response.Error[any](c, http.StatusRequestEntityTooLarge, "upload too large", nil)
		return
	}
	response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}

// openUpload returns the named multipart file, or nil when it was not sent.
// The returned func closes the file and is always safe to call.
func openUpload(c *gin.Context, field string) (*application.Upload, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &application.Upload{
		Reader:      f,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
	}, func() { _ = f.Close() }, nil
}

func expiryMeta(pair application.TokenPair) gin.H {
	return gin.H{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry}
}
