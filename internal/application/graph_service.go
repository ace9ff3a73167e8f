package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vidtube-accounts/internal/domain/apperror"
	"github.com/oksasatya/vidtube-accounts/internal/domain/entity"
	repo "github.com/oksasatya/vidtube-accounts/internal/domain/repository"
)

// GraphService answers read-only aggregation queries over the subscription
// graph and watch history.
type GraphService struct {
	Repo   repo.GraphRepository
	Logger *logrus.Logger
}

func NewGraphService(r repo.GraphRepository, logger *logrus.Logger) *GraphService {
	return &GraphService{Repo: r, Logger: logger}
}

// GetChannelProfile returns the channel's public profile with subscriber
// counts. IsSubscribed is relative to viewerID and false when it is empty.
func (g *GraphService) GetChannelProfile(ctx context.Context, username, viewerID string) (*entity.ChannelProfile, error) {
	username = normalizeUsername(username)
	if username == "" {
		return nil, apperror.Validation("username", "username is missing")
	}
	p, err := g.Repo.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrChannelNotFound
		}
		return nil, apperror.Dependency("failed to load channel", err)
	}
	return p, nil
}

// GetWatchHistory returns the user's watched videos in the order they were
// watched, oldest first.
func (g *GraphService) GetWatchHistory(ctx context.Context, userID string) ([]entity.WatchHistoryEntry, error) {
	if userID == "" {
		return nil, ErrUnauthorizedRequest
	}
	entries, err := g.Repo.WatchHistory(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnauthorizedRequest
		}
		return nil, apperror.Dependency("failed to load watch history", err)
	}
	if entries == nil {
		entries = []entity.WatchHistoryEntry{}
	}
	return entries, nil
}

func (g *GraphService) RecordWatch(ctx context.Context, userID, videoID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperror.Validation("userId", "user id is required")
	}
	if strings.TrimSpace(videoID) == "" {
		return apperror.Validation("videoId", "video id is required")
	}
	if err := g.Repo.AppendWatchHistory(ctx, userID, videoID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperror.NotFound("video does not exist")
		}
		return apperror.Dependency("failed to record watch", err)
	}
	return nil
}
