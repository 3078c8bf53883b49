package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"TaskAPI/internal/cache"
	dom "TaskAPI/internal/domain"
	"TaskAPI/internal/repo"

	"golang.org/x/sync/singleflight"
)

// LatestCount is how many tasks the newest endpoint returns.
const LatestCount = 3

// loadTimeout bounds a shared cache-miss load.
const loadTimeout = 10 * time.Second

var ErrNotFound = errors.New("task not found")

type TaskService struct {
	repo  repo.TaskRepo
	cache *cache.TaskCache
	log   *slog.Logger
	sf    singleflight.Group
	// gen counts writes; reads loaded under an older gen are not cached.
	gen atomic.Uint64
}

// NewTaskService creates a TaskService. If c is nil, caching is disabled.
func NewTaskService(r repo.TaskRepo, c *cache.TaskCache, log *slog.Logger) *TaskService {
	if log == nil {
		log = slog.Default()
	}
	return &TaskService{repo: r, cache: c, log: log}
}

// Create validates d and stores it. Validation failures are *domain.ValidationError.
func (s *TaskService) Create(ctx context.Context, d dom.Draft) (dom.Task, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return dom.Task{}, err
	}
	t, err := s.repo.Create(ctx, d)
	if err != nil {
		return dom.Task{}, fmt.Errorf("create task: %w", err)
	}
	s.invalidateCache(ctx)
	return t, nil
}

func (s *TaskService) List(ctx context.Context) ([]dom.Task, error) {
	if s.cache == nil {
		return s.repo.List(ctx)
	}
	return s.cachedRead(ctx, "list", s.cache.GetList, s.repo.List, s.cache.SetList)
}

// Latest returns up to n tasks, newest first.
func (s *TaskService) Latest(ctx context.Context, n int) ([]dom.Task, error) {
	if s.cache == nil {
		return s.repo.Latest(ctx, n)
	}
	return s.cachedRead(ctx, "latest:"+strconv.Itoa(n),
		func(ctx context.Context) ([]dom.Task, error) { return s.cache.GetLatest(ctx, n) },
		func(ctx context.Context) ([]dom.Task, error) { return s.repo.Latest(ctx, n) },
		func(ctx context.Context, list []dom.Task) error { return s.cache.SetLatest(ctx, n, list) },
	)
}

// cachedRead is cache-aside for one read, shared by concurrent callers of
// the same key and write generation. The load runs detached from the
// caller's cancellation; each caller still returns on its own ctx.Done.
// A result loaded across a write is returned but never left in the cache.
func (s *TaskService) cachedRead(
	ctx context.Context,
	key string,
	get func(context.Context) ([]dom.Task, error),
	load func(context.Context) ([]dom.Task, error),
	set func(context.Context, []dom.Task) error,
) ([]dom.Task, error) {
	gen := s.gen.Load()
	ch := s.sf.DoChan(key+"@"+strconv.FormatUint(gen, 10), func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		if list, err := get(ctx); err == nil && list != nil {
			return list, nil
		}
		list, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if s.gen.Load() != gen {
			return list, nil
		}
		if err := set(ctx, list); err != nil {
			s.log.Warn("cache set failed", "key", key, "error", err)
			return list, nil
		}
		// A write may have invalidated between the check and the set.
		if s.gen.Load() != gen {
			s.dropCache(ctx)
		}
		return list, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]dom.Task), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *TaskService) GetByID(ctx context.Context, id string) (dom.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, err
	}
	return t, nil
}

// Update applies p to the task, re-validates the merged fields and stores them.
func (s *TaskService) Update(ctx context.Context, id string, p dom.Patch) (dom.Task, error) {
	d, err := s.merge(ctx, id, p)
	if err != nil {
		return dom.Task{}, err
	}
	if err := d.Validate(); err != nil {
		return dom.Task{}, err
	}
	t, err := s.repo.Update(ctx, id, d)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, fmt.Errorf("update task: %w", err)
	}
	s.invalidateCache(ctx)
	return t, nil
}

// CheckPatch validates p merged onto the stored task without saving it.
// It returns ErrNotFound, a store error, a *domain.ValidationError, or nil.
func (s *TaskService) CheckPatch(ctx context.Context, id string, p dom.Patch) error {
	d, err := s.merge(ctx, id, p)
	if err != nil {
		return err
	}
	return d.Validate()
}

func (s *TaskService) merge(ctx context.Context, id string, p dom.Patch) (dom.Draft, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return dom.Draft{}, err
	}
	return p.Apply(existing).Normalize(), nil
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete task: %w", err)
	}
	s.invalidateCache(ctx)
	return nil
}

// Ping checks the store connection.
func (s *TaskService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// invalidateCache starts a new write generation, then drops cached reads.
func (s *TaskService) invalidateCache(ctx context.Context) {
	s.gen.Add(1)
	s.dropCache(ctx)
}

func (s *TaskService) dropCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.log.Warn("cache invalidation failed", "error", err)
	}
}
