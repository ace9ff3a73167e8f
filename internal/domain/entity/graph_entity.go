package entity

import "time"

// Subscription is a directed edge from subscriber to channel.
type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// ChannelProfile is computed per request and never stored.
type ChannelProfile struct {
	DisplayName               string `json:"displayName"`
	Username                  string `json:"username"`
	Email                     string `json:"email"`
	AvatarURL                 string `json:"avatarUrl"`
	CoverImageURL             string `json:"coverImageUrl"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

// OwnerSummary is the reduced view of a video owner.
type OwnerSummary struct {
	DisplayName string `json:"displayName"`
	Username    string `json:"username"`
	AvatarURL   string `json:"avatarUrl"`
}

// WatchHistoryEntry is a watched video with its owner reduced to a summary.
// Owner is nil when the owner can no longer be resolved.
type WatchHistoryEntry struct {
	Video
	Owner *OwnerSummary `json:"owner"`
}
