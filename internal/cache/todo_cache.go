package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	dom "todoapi/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyListPrefix = "todo:list:"
	keyListGen    = keyListPrefix + "gen"
)

// TodoCache caches todo list results per status filter in Redis.
// Keys carry a generation number; a write bumps it, so a list stored under
// an older generation is never read again.
type TodoCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTodoCache returns a new TodoCache.
func NewTodoCache(rdb *redis.Client, ttl time.Duration) *TodoCache {
	return &TodoCache{rdb: rdb, ttl: ttl}
}

// Generation returns the current list generation, 0 if none was recorded yet.
func (c *TodoCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, keyListGen).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// GetList returns the cached list for status, or nil on a miss.
func (c *TodoCache) GetList(ctx context.Context, gen int64, status dom.Status) ([]dom.Todo, error) {
	b, err := c.rdb.Get(ctx, listKey(gen, status)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	list := []dom.Todo{}
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetList stores the list for status under generation gen.
func (c *TodoCache) SetList(ctx context.Context, gen int64, status dom.Status, list []dom.Todo) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, listKey(gen, status), b, c.ttl).Err()
}

// InvalidateAll starts a new generation and drops the lists of the previous one.
func (c *TodoCache) InvalidateAll(ctx context.Context) error {
	gen, err := c.rdb.Incr(ctx, keyListGen).Result()
	if err != nil {
		return err
	}
	prev := gen - 1
	return c.rdb.Del(ctx,
		listKey(prev, dom.StatusAll),
		listKey(prev, dom.StatusCompleted),
		listKey(prev, dom.StatusPending),
	).Err()
}

func listKey(gen int64, status dom.Status) string {
	name := string(status)
	if status == dom.StatusAll {
		name = "all"
	}
	return keyListPrefix + strconv.FormatInt(gen, 10) + ":" + name
}
