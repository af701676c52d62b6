package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"kanban-api/domain"
)

type backend interface {
	ListBoards(ctx context.Context) ([]domain.Board, error)
	GetBoard(ctx context.Context, id string) (*domain.Board, error)
	InsertBoard(ctx context.Context, b domain.Board) error
	UpdateBoard(ctx context.Context, id string, upd domain.BoardUpdate, updatedAt time.Time) error
	DeleteBoard(ctx context.Context, id string) error
	ListTasks(ctx context.Context, boardID string, priority domain.Priority, column domain.Column) ([]domain.Task, error)
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	InsertTask(ctx context.Context, t domain.Task) error
	UpdateTask(ctx context.Context, boardID, id string, upd domain.TaskUpdate, updatedAt time.Time) error
	DeleteTask(ctx context.Context, boardID, id string) error
	DeleteBoardTasks(ctx context.Context, boardID string) error
	Health(ctx context.Context) error
}

// Cache wraps a Storage instance with Redis-backed caching for the board and
// task list reads. Mutations pass through and evict the affected keys; Redis
// failures fall back to the backing storage without surfacing an error.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) ListBoards(ctx context.Context) ([]domain.Board, error) {
	if c.redis != nil {
		if data, err := c.redis.Get(ctx, boardsCacheKey()).Bytes(); err == nil {
			var boards []domain.Board
			if err := json.Unmarshal(data, &boards); err == nil {
				return boards, nil
			}
			_ = c.redis.Del(ctx, boardsCacheKey()).Err()
		} else if err != redis.Nil {
			_ = c.redis.Del(ctx, boardsCacheKey()).Err()
		}
	}
	boards, err := c.base.ListBoards(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, boardsCacheKey(), boards)
	return boards, nil
}

func (c *Cache) GetBoard(ctx context.Context, id string) (*domain.Board, error) {
	return c.base.GetBoard(ctx, id)
}

func (c *Cache) InsertBoard(ctx context.Context, b domain.Board) error {
	if err := c.base.InsertBoard(ctx, b); err != nil {
		return err
	}
	c.evict(ctx, boardsCacheKey())
	return nil
}

func (c *Cache) UpdateBoard(ctx context.Context, id string, upd domain.BoardUpdate, updatedAt time.Time) error {
	if err := c.base.UpdateBoard(ctx, id, upd, updatedAt); err != nil {
		return err
	}
	c.evict(ctx, boardsCacheKey())
	return nil
}

func (c *Cache) DeleteBoard(ctx context.Context, id string) error {
	if err := c.base.DeleteBoard(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, boardsCacheKey(), tasksCacheKey(id))
	return nil
}

// ListTasks caches only unfiltered lists; filtered queries always hit the
// backing storage.
func (c *Cache) ListTasks(ctx context.Context, boardID string, priority domain.Priority, column domain.Column) ([]domain.Task, error) {
	if priority != "" || column != "" {
		return c.base.ListTasks(ctx, boardID, priority, column)
	}
	if c.redis != nil {
		if data, err := c.redis.Get(ctx, tasksCacheKey(boardID)).Bytes(); err == nil {
			var tasks []domain.Task
			if err := json.Unmarshal(data, &tasks); err == nil {
				return tasks, nil
			}
			_ = c.redis.Del(ctx, tasksCacheKey(boardID)).Err()
		} else if err != redis.Nil {
			_ = c.redis.Del(ctx, tasksCacheKey(boardID)).Err()
		}
	}
	tasks, err := c.base.ListTasks(ctx, boardID, "", "")
	if err != nil {
		return nil, err
	}
	c.store(ctx, tasksCacheKey(boardID), tasks)
	return tasks, nil
}

func (c *Cache) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return c.base.GetTask(ctx, id)
}

func (c *Cache) InsertTask(ctx context.Context, t domain.Task) error {
	if err := c.base.InsertTask(ctx, t); err != nil {
		return err
	}
	c.evict(ctx, tasksCacheKey(t.BoardID))
	return nil
}

func (c *Cache) UpdateTask(ctx context.Context, boardID, id string, upd domain.TaskUpdate, updatedAt time.Time) error {
	if err := c.base.UpdateTask(ctx, boardID, id, upd, updatedAt); err != nil {
		return err
	}
	c.evict(ctx, tasksCacheKey(boardID))
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, boardID, id string) error {
	if err := c.base.DeleteTask(ctx, boardID, id); err != nil {
		return err
	}
	c.evict(ctx, tasksCacheKey(boardID))
	return nil
}

func (c *Cache) DeleteBoardTasks(ctx context.Context, boardID string) error {
	if err := c.base.DeleteBoardTasks(ctx, boardID); err != nil {
		return err
	}
	c.evict(ctx, tasksCacheKey(boardID))
	return nil
}

func (c *Cache) Health(ctx context.Context) error {
	return c.base.Health(ctx)
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, keys ...string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, keys...).Result()
}

func boardsCacheKey() string {
	return "boards"
}

func tasksCacheKey(boardID string) string {
	return "tasks:" + boardID
}
