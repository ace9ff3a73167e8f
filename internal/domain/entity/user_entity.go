package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// Password holds the bcrypt hash and RefreshToken the single currently valid
// refresh token; neither is ever serialized.
type User struct {
	ID            string
	Username      string
	Email         string
	DisplayName   string
	Password      string `json:"-"`
	AvatarURL     string
	CoverImageURL string
	RefreshToken  string `json:"-"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
