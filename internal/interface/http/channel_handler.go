package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vidtube-accounts/internal/domain/entity"
	"github.com/oksasatya/vidtube-accounts/internal/interface/middleware"
	"github.com/oksasatya/vidtube-accounts/pkg/response"
)

// ChannelQueries is the graph query engine as seen by the transport.
type ChannelQueries interface {
	GetChannelProfile(ctx context.Context, username, viewerID string) (*entity.ChannelProfile, error)
	GetWatchHistory(ctx context.Context, userID string) ([]entity.WatchHistoryEntry, error)
}

type ChannelHandler struct {
	Graph  ChannelQueries
	Logger *logrus.Logger
}

func NewChannelHandler(g ChannelQueries, logger *logrus.Logger) *ChannelHandler {
	return &ChannelHandler{Graph: g, Logger: logger}
}

func (h *ChannelHandler) Profile(c *gin.Context) {
	p, err := h.Graph.GetChannelProfile(c.Request.Context(), c.Param("username"), middleware.UserID(c))
	if err != nil {
		response.FromError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, p, "user channel fetched successfully", nil)
}

func (h *ChannelHandler) WatchHistory(c *gin.Context) {
	entries, err := h.Graph.GetWatchHistory(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.FromError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, entries, "watch history fetched successfully", gin.H{"count": len(entries)})
}
