package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/vidtube-accounts/internal/application"
	"github.com/oksasatya/vidtube-accounts/pkg/helpers"
	"github.com/oksasatya/vidtube-accounts/pkg/response"
)

const CtxUserIDKey = "userID"

// AccessVerifier resolves an access token to the user it was issued for.
type AccessVerifier interface {
	VerifyAccess(token string) (string, error)
}

// Auth accepts the access token from the access_token cookie or an
// Authorization bearer header and puts the user id in the context.
// Verification is stateless; nothing is looked up per request.
func Auth(v AccessVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := AccessToken(c)
		if token == "" {
			response.Error[any](c, http.StatusUnauthorized, "unauthorized request", nil)
			c.Abort()
			return
		}
		userID, err := v.VerifyAccess(token)
		if err != nil || userID == "" {
			msg := "invalid access token"
			if errors.Is(err, application.ErrTokenExpired) {
				msg = "access token expired"
			}
			response.Error[any](c, http.StatusUnauthorized, msg, nil)
			c.Abort()
			return
		}
		c.Set(CtxUserIDKey, userID)
		c.Next()
	}
}

// AccessToken returns the bearer token, preferring the cookie.
func AccessToken(c *gin.Context) string {
	if tok, err := c.Cookie(helpers.AccessCookie); err == nil && strings.TrimSpace(tok) != "" {
		return strings.TrimSpace(tok)
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// UserID returns the authenticated user id set by Auth.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}
