package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	dom "TaskAPI/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyList   = "task:list"
	keyLatest = "task:latest:"
)

// TaskCache caches the task list and latest-N results in Redis.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache returns a new TaskCache.
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

// cachedTask is the JSON shape stored in Redis.
type cachedTask struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Priority  string    `json:"priority"`
	DueDate   time.Time `json:"dueDate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GetList returns cached list or nil if miss.
func (c *TaskCache) GetList(ctx context.Context) ([]dom.Task, error) {
	return c.get(ctx, keyList)
}

// SetList stores the list in cache.
func (c *TaskCache) SetList(ctx context.Context, list []dom.Task) error {
	return c.set(ctx, keyList, list)
}

// GetLatest returns the cached latest-n result or nil if miss.
func (c *TaskCache) GetLatest(ctx context.Context, n int) ([]dom.Task, error) {
	return c.get(ctx, keyLatest+strconv.Itoa(n))
}

// SetLatest stores the latest-n result in cache.
func (c *TaskCache) SetLatest(ctx context.Context, n int, list []dom.Task) error {
	return c.set(ctx, keyLatest+strconv.Itoa(n), list)
}

// InvalidateAll removes the list and all latest-N keys (cache invalidation on write).
func (c *TaskCache) InvalidateAll(ctx context.Context) error {
	if err := c.rdb.Del(ctx, keyList).Err(); err != nil {
		return err
	}
	iter := c.rdb.Scan(ctx, 0, keyLatest+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *TaskCache) get(ctx context.Context, key string) ([]dom.Task, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stored []cachedTask
	if err := json.Unmarshal(b, &stored); err != nil {
		return nil, err
	}
	list := make([]dom.Task, len(stored))
	for i, t := range stored {
		list[i] = dom.Task{
			ID:        t.ID,
			Title:     t.Title,
			Content:   t.Content,
			Priority:  dom.Priority(t.Priority),
			DueDate:   t.DueDate,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		}
	}
	return list, nil
}

func (c *TaskCache) set(ctx context.Context, key string, list []dom.Task) error {
	stored := make([]cachedTask, len(list))
	for i, t := range list {
		stored[i] = cachedTask{
			ID:        t.ID,
			Title:     t.Title,
			Content:   t.Content,
			Priority:  string(t.Priority),
			DueDate:   t.DueDate,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		}
	}
	b, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}
