package entity

import "time"

// Video is read-only to the account service; it is only expanded inside watch history.
type Video struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId,omitempty"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
