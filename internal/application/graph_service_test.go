package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/vidtube-accounts/internal/domain/apperror"
	"github.com/oksasatya/vidtube-accounts/internal/domain/entity"
)

func TestGetChannelProfile_CountsAndViewerFlag(t *testing.T) {
	h := newHarness(t)
	ch := h.register(t, "chan", "c@x.com", "p")
	a := h.register(t, "alice", "a@x.com", "p")
	b := h.register(t, "bob", "b@x.com", "p")
	h.graph.subs = []entity.Subscription{
		{SubscriberID: a.ID, ChannelID: ch.ID},
		{SubscriberID: b.ID, ChannelID: ch.ID},
		{SubscriberID: ch.ID, ChannelID: a.ID},
	}
	ctx := context.Background()

	p, err := h.graphSvc.GetChannelProfile(ctx, "CHAN", a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.SubscribersCount)
	assert.Equal(t, int64(1), p.ChannelsSubscribedToCount)
	assert.True(t, p.IsSubscribed)
	assert.Equal(t, "chan", p.Username)

	p, err = h.graphSvc.GetChannelProfile(ctx, "chan", "")
	require.NoError(t, err)
	assert.False(t, p.IsSubscribed)
}

func TestGetChannelProfile_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.graphSvc.GetChannelProfile(ctx, "  ", "")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = h.graphSvc.GetChannelProfile(ctx, "ghost", "")
	assert.ErrorIs(t, err, ErrChannelNotFound)

	h.graph.err = errBoom
	_, err = h.graphSvc.GetChannelProfile(ctx, "x", "")
	assert.Equal(t, apperror.KindDependency, apperror.KindOf(err))
}

func TestGetWatchHistory_OrderAndOwner(t *testing.T) {
	h := newHarness(t)
	viewer := h.register(t, "viewer", "v@x.com", "p")
	owner := h.register(t, "owner", "o@x.com", "p")
	h.graph.videos["v1"] = entity.Video{ID: "v1", OwnerID: owner.ID, Title: "first"}
	h.graph.videos["v2"] = entity.Video{ID: "v2", OwnerID: "deleted", Title: "orphan"}
	h.graph.videos["v3"] = entity.Video{ID: "v3", OwnerID: owner.ID, Title: "third"}
	ctx := context.Background()

	for _, id := range []string{"v3", "v1", "v2"} {
		require.NoError(t, h.graphSvc.RecordWatch(ctx, viewer.ID, id))
	}

	entries, err := h.graphSvc.GetWatchHistory(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "third", entries[0].Title)
	assert.Equal(t, "first", entries[1].Title)
	assert.Equal(t, "orphan", entries[2].Title)
	require.NotNil(t, entries[0].Owner)
	assert.Equal(t, "owner", entries[0].Owner.Username)
	assert.Nil(t, entries[2].Owner)
}

func TestGetWatchHistory_EmptyIsNotNil(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "viewer", "v@x.com", "p")

	entries, err := h.graphSvc.GetWatchHistory(context.Background(), u.ID)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestRecordWatch_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.Equal(t, apperror.KindValidation, apperror.KindOf(h.graphSvc.RecordWatch(ctx, "", "v")))
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(h.graphSvc.RecordWatch(ctx, "u", "missing")))
}
