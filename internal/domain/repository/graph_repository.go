package repository

import (
	"context"

	"github.com/oksasatya/vidtube-accounts/internal/domain/entity"
)

// GraphRepository answers read-side queries over users, subscriptions and videos.
type GraphRepository interface {
	// ChannelProfile returns ErrNotFound when no user has the given username.
	ChannelProfile(ctx context.Context, username, viewerID string) (*entity.ChannelProfile, error)
	// WatchHistory returns entries in append order (oldest first).
	WatchHistory(ctx context.Context, userID string) ([]entity.WatchHistoryEntry, error)
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
}
