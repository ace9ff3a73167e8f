package helpers

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_StampsAppAndEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	logger := NewLogger("vidtube-accounts", "production")
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	LogInfo(logger, "dropped", nil)
	assert.Zero(t, buf.Len(), "info is below warn")

	LogError(logger, "boom", errors.New("cause"), logrus.Fields{"user_id": "u1"})
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "vidtube-accounts", entry["app"])
	assert.Equal(t, "production", entry["env"])
	assert.Equal(t, "cause", entry["error"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "boom", entry["msg"])
}

func TestLogHelpers_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogError(nil, "x", errors.New("y"), nil)
		LogInfo(nil, "x", nil)
	})
}
