package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/vidtube-accounts/internal/interface/http"
	"github.com/oksasatya/vidtube-accounts/internal/interface/middleware"
)

// UserModule registers the account routes under /users.
// Public: register, login, refresh-token
// Protected: everything else, authenticated by access token
type UserModule struct {
	Users    *handlers.UserHandler
	Channels *handlers.ChannelHandler
	Verifier middleware.AccessVerifier
	Limits   Limits
}

func NewUserModule(u *handlers.UserHandler, ch *handlers.ChannelHandler, v middleware.AccessVerifier, limits Limits) *UserModule {
	return &UserModule{Users: u, Channels: ch, Verifier: v, Limits: limits}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/v1/users")

	users.POST("/register", m.Limits.PerMinute(10, middleware.KeyByIPAndPath()), m.Users.Register)
	users.POST("/login", m.Limits.PerMinute(10, middleware.KeyByIPAndPath()), m.Users.Login)
	users.POST("/refresh-token", m.Limits.PerMinute(60, middleware.KeyByIPAndPath()), m.Users.Refresh)

	auth := users.Group("/")
	auth.Use(middleware.Auth(m.Verifier))
	auth.Use(
		m.Limits.PerMinute(300, middleware.KeyByIP()),
		m.Limits.PerMinute(120, middleware.KeyByUserID()),
	)
	{
		auth.POST("/logout", m.Users.Logout)
		auth.PATCH("/change-password", m.Users.ChangePassword)
		auth.GET("/current-user", m.Users.CurrentUser)
		auth.PATCH("/update-details", m.Users.UpdateDetails)
		auth.PATCH("/update-avatar", m.Users.UpdateAvatar)
		auth.PATCH("/update-coverimage", m.Users.UpdateCoverImage)
		auth.GET("/channel/:username", m.Channels.Profile)
		auth.GET("/history", m.Channels.WatchHistory)
		auth.GET("/search", m.Users.Search)
	}
}
