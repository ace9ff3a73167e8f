package helpers

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestS3Store_PublicURL(t *testing.T) {
	s := NewS3Store(nil, "media", "eu-west-1", "")
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com/avatars/u/1.jpg", s.PublicURL("avatars/u/1.jpg"))

	s.PublicBaseURL = "http://localhost:9000/media/"
	assert.Equal(t, "http://localhost:9000/media/avatars/u/1.jpg", s.PublicURL("avatars/u/1.jpg"))
}

func TestBlobStores_NotConfigured(t *testing.T) {
	_, err := NewS3Store(nil, "", "", "").Store(context.Background(), "k", "image/jpeg", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrBlobStoreNotConfigured)

	_, err = NewGCSStore(nil, "").Store(context.Background(), "k", "image/jpeg", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrBlobStoreNotConfigured)
}
