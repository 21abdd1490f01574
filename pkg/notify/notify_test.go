package notify

import (
	"PhotoAlbum/pkg/logger"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutbox_NotifyComment(t *testing.T) {
	o := NewOutbox(logger.Discard())
	ctx := context.Background()

	require.NoError(t, o.NotifyComment(ctx, CommentNotice{
		OwnerID: 42, OwnerEmail: "owner@example.com", PhotoID: 5, PhotoTitle: "Sunset", Commenter: "bob", Text: "nice",
	}))
	require.NoError(t, o.NotifyComment(ctx, CommentNotice{
		OwnerID: 42, PhotoID: 6, Commenter: "carol", Text: "wow",
	}))
	require.NoError(t, o.NotifyComment(ctx, CommentNotice{
		OwnerID: 7, PhotoID: 9, PhotoTitle: "Dog", Commenter: "bob", Text: "cute",
	}))

	got := o.For(42)
	require.Len(t, got, 2)
	assert.Equal(t, "owner@example.com", got[0].To)
	assert.Equal(t, "New comment on Sunset", got[0].Subject)
	assert.Equal(t, "bob commented: nice", got[0].Body)
	assert.Equal(t, "New comment on #6", got[1].Subject)

	assert.Len(t, o.For(7), 1)
	assert.Empty(t, o.For(1000))
}

func TestOutbox_CancelledContext(t *testing.T) {
	o := NewOutbox(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, o.NotifyComment(ctx, CommentNotice{OwnerID: 1}))
	assert.Empty(t, o.For(1))
}
