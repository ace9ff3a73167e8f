package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/vidtube-accounts/internal/domain/apperror"
	"github.com/oksasatya/vidtube-accounts/internal/domain/entity"
	repo "github.com/oksasatya/vidtube-accounts/internal/domain/repository"
)

func TestCredentialStore_CreateHashesSecret(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u, err := h.creds.Create(ctx, NewCredential{Username: " Alice ", Email: "A@X.io", DisplayName: "Alice", Password: "p@ss", AvatarURL: "u"})
	require.NoError(t, err)

	stored := h.users.stored(u.ID)
	assert.Equal(t, "alice", stored.Username)
	assert.Equal(t, "a@x.io", stored.Email)
	assert.NotEqual(t, "p@ss", stored.Password)
	assert.True(t, h.creds.VerifySecret(stored, "p@ss"))
	assert.False(t, h.creds.VerifySecret(stored, "wrong"))
}

func TestCredentialStore_CreateConflicts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.creds.Create(ctx, NewCredential{Username: "alice", Email: "a@x.io", Password: "p"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		in    NewCredential
		field string
	}{
		{"username", NewCredential{Username: "ALICE", Email: "other@x.io", Password: "p"}, "username"},
		{"email", NewCredential{Username: "bob", Email: "a@x.io", Password: "p"}, "email"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.creds.Create(ctx, tc.in)
			var ae *apperror.Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, apperror.KindConflict, ae.Kind)
			assert.Equal(t, tc.field, ae.Field)
		})
	}
}

// racyRepo misses the collision on lookup so only the insert sees it.
type racyRepo struct {
	*memUserRepo
}

func (racyRepo) FindByIdentity(context.Context, string, string) (*entity.User, error) {
	return nil, repo.ErrNotFound
}

func TestCredentialStore_CreateMapsInsertViolation(t *testing.T) {
	mem := newMemUserRepo()
	creds := NewCredentialStore(racyRepo{mem}, newHarness(t).creds.Hasher)
	ctx := context.Background()
	_, err := creds.Create(ctx, NewCredential{Username: "alice", Email: "a@x.io", Password: "p"})
	require.NoError(t, err)

	_, err = creds.Create(ctx, NewCredential{Username: "bob", Email: "a@x.io", Password: "p"})
	var ae *apperror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperror.KindConflict, ae.Kind)
	assert.Equal(t, "email", ae.Field)
}

func TestCredentialStore_FindByIdentity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created, err := h.creds.Create(ctx, NewCredential{Username: "alice", Email: "a@x.io", Password: "p"})
	require.NoError(t, err)

	u, err := h.creds.FindByIdentity(ctx, "", " A@X.IO ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)

	_, err = h.creds.FindByIdentity(ctx, "", "")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = h.creds.FindByIdentity(ctx, "nobody", "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCredentialStore_SetSecret(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u, err := h.creds.Create(ctx, NewCredential{Username: "alice", Email: "a@x.io", Password: "old"})
	require.NoError(t, err)

	require.NoError(t, h.creds.SetSecret(ctx, u, "new"))

	stored := h.users.stored(u.ID)
	assert.True(t, h.creds.VerifySecret(stored, "new"))
	assert.False(t, h.creds.VerifySecret(stored, "old"))
	assert.False(t, h.creds.VerifySecret(nil, "new"))
}
