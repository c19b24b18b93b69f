package services

import (
	"context"
	"sync"

	"github.com/anonto42/story-branch/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TreeCache stores fully resolved story trees keyed by story ID.
// Every Invalidate bumps the story's generation; SetTree only stores a tree built
// while the generation it was given is still current.
type TreeCache interface {
	GetTree(ctx context.Context, storyID string) (*models.StoryTree, bool, error)
	Generation(ctx context.Context, storyID string) (int64, error)
	SetTree(ctx context.Context, tree *models.StoryTree, generation int64) error
	Invalidate(ctx context.Context, storyIDs ...string) error
}

// NoopTreeCache is used when no cache backend is configured. It stores no trees
// but counts invalidations so concurrent reads are never shared across a write.
type NoopTreeCache struct {
	mu          sync.Mutex
	generations map[string]int64
}

// NewNoopTreeCache creates an empty NoopTreeCache
func NewNoopTreeCache() *NoopTreeCache {
	return &NoopTreeCache{generations: make(map[string]int64)}
}

func (*NoopTreeCache) GetTree(context.Context, string) (*models.StoryTree, bool, error) {
	return nil, false, nil
}

func (c *NoopTreeCache) Generation(_ context.Context, storyID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[storyID], nil
}

func (*NoopTreeCache) SetTree(context.Context, *models.StoryTree, int64) error { return nil }

func (c *NoopTreeCache) Invalidate(_ context.Context, storyIDs ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range storyIDs {
		c.generations[id]++
	}
	return nil
}

// invalidateStory drops the cached tree of storyID; cache failures are logged, not returned
func invalidateStory(ctx context.Context, cache TreeCache, logger *zap.Logger, storyID *primitive.ObjectID) {
	if storyID == nil {
		return
	}
	if err := cache.Invalidate(ctx, storyID.Hex()); err != nil {
		logger.Warn("story tree cache invalidation failed", zap.String("story_id", storyID.Hex()), zap.Error(err))
	}
}
