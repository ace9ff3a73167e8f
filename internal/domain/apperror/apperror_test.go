package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("email", "email is required"), KindValidation},
		{"conflict", Conflict("username", "username already exists"), KindConflict},
		{"wrapped not found", fmt.Errorf("load: %w", NotFound("user not found")), KindNotFound},
		{"unauthorized", Unauthorized("invalid credentials"), KindUnauthorized},
		{"dependency", Dependency("upload failed", errors.New("boom")), KindDependency},
		{"plain", errors.New("plain"), KindUnknown},
		{"nil", nil, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestKind_HTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, KindValidation.HTTPStatus())
	assert.Equal(t, http.StatusConflict, KindConflict.HTTPStatus())
	assert.Equal(t, http.StatusNotFound, KindNotFound.HTTPStatus())
	assert.Equal(t, http.StatusUnauthorized, KindUnauthorized.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, KindDependency.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, KindUnknown.HTTPStatus())
}

func TestError_UnwrapKeepsCause(t *testing.T) {
	cause := errors.New("bucket missing")
	err := Dependency("upload failed", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "upload failed: bucket missing", err.Error())
}
