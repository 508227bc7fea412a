package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	dom "tasklist/internal/domain"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "task:u:"

// Page is the cached unit: one window of a user's filtered task list plus
// the total count the pagination envelope needs.
type Page struct {
	Items []dom.Task `json:"items"`
	Total int64      `json:"total"`
}

// PageKey identifies a list query. Two requests with the same key may serve
// the same cached page.
type PageKey struct {
	UserID      int64
	Page        int
	Limit       int
	IsCompleted *bool
	Search      string
	Sort        string
}

func (k PageKey) String() string {
	status := "any"
	if k.IsCompleted != nil {
		status = strconv.FormatBool(*k.IsCompleted)
	}
	return fmt.Sprintf("%s%d:p%d:l%d:s%s:q%s:o%s",
		keyPrefix, k.UserID, k.Page, k.Limit, status,
		strings.ToLower(strings.TrimSpace(k.Search)), k.Sort)
}

// TaskPageCache caches task list pages in Redis, one keyspace per user so a
// write can drop everything that user might see as stale.
type TaskPageCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskPageCache returns a new TaskPageCache.
func NewTaskPageCache(rdb *redis.Client, ttl time.Duration) *TaskPageCache {
	return &TaskPageCache{rdb: rdb, ttl: ttl}
}

// GetPage returns the cached page or nil on miss.
func (c *TaskPageCache) GetPage(ctx context.Context, key PageKey) (*Page, error) {
	b, err := c.rdb.Get(ctx, key.String()).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p Page
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetPage stores the page under its query key.
func (c *TaskPageCache) SetPage(ctx context.Context, key PageKey, p Page) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key.String(), b, c.ttl).Err()
}

// InvalidateUser removes every cached page for the user (cache invalidation on write).
func (c *TaskPageCache) InvalidateUser(ctx context.Context, userID int64) error {
	pattern := fmt.Sprintf("%s%d:*", keyPrefix, userID)
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
