package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/anonto42/story-branch/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RedisTreeCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisTreeCache(client, ttl), mr
}

func sampleTree() *models.StoryTree {
	return &models.StoryTree{
		Story: models.Story{ID: primitive.NewObjectID(), Title: "T", CreatedBy: "1"},
		RootVideoTree: &models.VideoNode{
			ID:    "root",
			Title: "root",
			Branches: []models.VideoNode{
				{ID: "child", Title: "child", Votes: 2, Branches: []models.VideoNode{}},
			},
		},
	}
}

func TestRedisTreeCache_RoundTripAndInvalidate(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	tree := sampleTree()
	id := tree.Story.ID.Hex()

	_, ok, err := c.GetTree(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetTree(ctx, tree, 0))
	assert.True(t, mr.Exists("story:tree:"+id))

	got, ok, err := c.GetTree(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "child", got.RootVideoTree.Branches[0].ID)
	assert.Equal(t, 2, got.RootVideoTree.Branches[0].Votes)

	require.NoError(t, c.Invalidate(ctx, id))
	_, ok, err = c.GetTree(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
	gen, err := c.Generation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)

	require.NoError(t, c.Invalidate(ctx))
}

func TestRedisTreeCache_DropsTreeBuiltBeforeInvalidation(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	tree := sampleTree()
	id := tree.Story.ID.Hex()

	gen, err := c.Generation(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, gen)

	// A branch lands while the tree is being built.
	require.NoError(t, c.Invalidate(ctx, id))

	require.NoError(t, c.SetTree(ctx, tree, gen))
	assert.False(t, mr.Exists("story:tree:"+id))

	gen, err = c.Generation(ctx, id)
	require.NoError(t, err)
	require.NoError(t, c.SetTree(ctx, tree, gen))
	assert.True(t, mr.Exists("story:tree:"+id))
}

func TestRedisTreeCache_Expires(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	tree := sampleTree()
	require.NoError(t, c.SetTree(ctx, tree, 0))

	mr.FastForward(2 * time.Minute)
	_, ok, err := c.GetTree(ctx, tree.Story.ID.Hex())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisTreeCache_CorruptEntryIsMiss(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set("story:tree:abc", "{not json"))

	_, ok, err := c.GetTree(context.Background(), "abc")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("story:tree:abc"))
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
