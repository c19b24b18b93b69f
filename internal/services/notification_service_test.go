package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAddBranch_NotifiesParentOwner(t *testing.T) {
	f := newStoryFixture(t, OrphanPreserve)
	repo := &memNotifications{}
	f.svc.SetNotifier(NewNotificationService(repo, zap.NewNop()))

	root := f.newVideo(t, "u1", "root")
	mine := f.newVideo(t, "u1", "mine")
	theirs := f.newVideo(t, "u2", "theirs")
	story := f.newStory(t, root, "u1")

	f.link(t, root, mine)
	assert.Empty(t, repo.items, "branching your own video is not notified")

	_, err := f.svc.AddBranch(context.Background(), root.ID.Hex(), theirs.ID.Hex(), "u2")
	require.NoError(t, err)

	require.Len(t, repo.items, 1)
	n := repo.items[0]
	assert.Equal(t, "branch", n.Type)
	assert.Equal(t, "u1", n.RecipientID)
	assert.Equal(t, "u2", n.ActorID)
	assert.Equal(t, root.ID.Hex(), n.VideoID)
	assert.Equal(t, theirs.ID.Hex(), n.BranchID)
	assert.Equal(t, story.ID.Hex(), n.StoryID)
	assert.Contains(t, n.Message, "theirs")
}

func TestAddBranch_NotificationFailureDoesNotFailLink(t *testing.T) {
	f := newStoryFixture(t, OrphanPreserve)
	core, logs := observer.New(zapcore.WarnLevel)
	f.svc.SetNotifier(NewNotificationService(&memNotifications{failErr: errors.New("db down")}, zap.New(core)))

	root := f.newVideo(t, "u1", "root")
	branch := f.newVideo(t, "u2", "branch")
	f.newStory(t, root, "u1")

	_, err := f.svc.AddBranch(context.Background(), root.ID.Hex(), branch.ID.Hex(), "u2")
	require.NoError(t, err)
	assert.True(t, f.videos.get(root.ID).HasBranch(branch.ID))
	assert.Equal(t, 1, logs.FilterMessage("failed to store branch notification").Len())
}

func TestNotificationService_ListAndRead(t *testing.T) {
	repo := &memNotifications{}
	svc := NewNotificationService(repo, zap.NewNop())

	f := newStoryFixture(t, OrphanPreserve)
	parent := f.newVideo(t, "u1", "parent")
	for i := 0; i < 3; i++ {
		svc.BranchAdded(parent, f.newVideo(t, "u2", "child"), "u2")
	}
	svc.BranchAdded(f.newVideo(t, "u3", "other"), parent, "u1")

	page, err := svc.List("u1", 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Notifications, 2)
	assert.Equal(t, int64(3), page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasNext)
	assert.Equal(t, int64(3), page.UnreadCount)

	first := page.Notifications[0].ID
	require.NoError(t, svc.MarkAsRead("u1", first))
	count, err := svc.UnreadCount("u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// u3's notification cannot be marked by u1.
	err = svc.MarkAsRead("u1", 4)
	assert.Equal(t, KindNotFound, KindOf(err))

	n, err := svc.MarkAllAsRead("u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	count, err = svc.UnreadCount("u3")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = svc.List("", 1, 10)
	assert.Equal(t, KindUnauthorized, KindOf(err))
}
