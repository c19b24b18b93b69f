package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/anonto42/story-branch/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	treeKeyPrefix       = "story:tree:"
	generationKeyPrefix = "story:tree-gen:"
)

// errStaleTree aborts a SetTree whose generation was overtaken by an invalidation
var errStaleTree = errors.New("story tree generation changed")

// NewRedisClient connects to addr and pings it
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// RedisTreeCache stores resolved story trees as JSON with a TTL
type RedisTreeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTreeCache creates a tree cache on client
func NewRedisTreeCache(client *redis.Client, ttl time.Duration) *RedisTreeCache {
	return &RedisTreeCache{client: client, ttl: ttl}
}

func treeKey(storyID string) string {
	return treeKeyPrefix + storyID
}

func generationKey(storyID string) string {
	return generationKeyPrefix + storyID
}

// GetTree returns the cached tree of storyID, if any
func (c *RedisTreeCache) GetTree(ctx context.Context, storyID string) (*models.StoryTree, bool, error) {
	raw, err := c.client.Get(ctx, treeKey(storyID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var tree models.StoryTree
	if err := json.Unmarshal(raw, &tree); err != nil {
		// Unreadable entries are dropped and treated as a miss.
		_ = c.client.Del(ctx, treeKey(storyID)).Err()
		return nil, false, nil
	}
	return &tree, true, nil
}

// Generation returns the invalidation counter of storyID; 0 when it was never invalidated
func (c *RedisTreeCache) Generation(ctx context.Context, storyID string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(storyID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetTree caches tree under its story ID if the story's generation still equals generation.
// A tree built before a concurrent invalidation is silently dropped.
func (c *RedisTreeCache) SetTree(ctx context.Context, tree *models.StoryTree, generation int64) error {
	raw, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	storyID := tree.Story.ID.Hex()
	genKey := generationKey(storyID)

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleTree
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, treeKey(storyID), raw, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, errStaleTree) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate bumps the generations of storyIDs and drops their cached trees
func (c *RedisTreeCache) Invalidate(ctx context.Context, storyIDs ...string) error {
	if len(storyIDs) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range storyIDs {
			pipe.Incr(ctx, generationKey(id))
			pipe.Del(ctx, treeKey(id))
		}
		return nil
	})
	return err
}
