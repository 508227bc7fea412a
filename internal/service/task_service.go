package service

import (
	"context"
	"errors"
	"strings"

	"tasklist/internal/cache"
	dom "tasklist/internal/domain"
	"tasklist/internal/repo"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"
)

var ErrNotFound = errors.New("not found")

const (
	defaultPage  = 1
	defaultLimit = 10
)

// ListQuery carries the raw list parameters. Page and Limit that are zero or
// negative (including values the handler could not parse) fall back to the
// defaults rather than erroring.
type ListQuery struct {
	Page        int
	Limit       int
	IsCompleted *bool
	Search      string
	Sort        string
}

func (q ListQuery) normalized() ListQuery {
	if q.Page <= 0 {
		q.Page = defaultPage
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

type TaskService struct {
	repo  repo.TaskRepo
	cache *cache.TaskPageCache
	sf    singleflight.Group
}

// NewTaskService creates a TaskService. If c is nil, caching is disabled.
func NewTaskService(r repo.TaskRepo, c *cache.TaskPageCache) *TaskService {
	return &TaskService{repo: r, cache: c}
}

// TaskPage is one window of a filtered task list. Total counts the whole
// filtered set, not the window.
type TaskPage struct {
	Items []dom.Task
	Total int64
	Page  int
	Limit int
}

// TotalPages is ceil(Total/Limit).
func (p TaskPage) TotalPages() int64 {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + int64(p.Limit) - 1) / int64(p.Limit)
}

// List returns one page of the caller's tasks plus the total count of tasks
// matching the filter. Every query is scoped to userID; the count ignores
// the page window.
func (s *TaskService) List(ctx context.Context, userID int64, q ListQuery) (TaskPage, error) {
	q = q.normalized()
	f := repo.TaskFilter{
		UserID:      userID,
		IsCompleted: q.IsCompleted,
		Search:      q.Search,
		Sort:        q.Sort,
		Offset:      (q.Page - 1) * q.Limit,
		Limit:       q.Limit,
	}

	if s.cache == nil {
		p, err := s.queryPage(ctx, f)
		if err != nil {
			return TaskPage{}, err
		}
		return TaskPage{Items: p.Items, Total: p.Total, Page: q.Page, Limit: q.Limit}, nil
	}

	key := cache.PageKey{
		UserID:      userID,
		Page:        q.Page,
		Limit:       q.Limit,
		IsCompleted: q.IsCompleted,
		Search:      q.Search,
		Sort:        q.Sort,
	}
	v, err, _ := s.sf.Do(key.String(), func() (interface{}, error) {
		if p, err := s.cache.GetPage(ctx, key); err == nil && p != nil {
			return *p, nil
		}
		p, err := s.queryPage(ctx, f)
		if err != nil {
			return nil, err
		}
		_ = s.cache.SetPage(ctx, key, p)
		return p, nil
	})
	if err != nil {
		return TaskPage{}, err
	}
	p := v.(cache.Page)
	return TaskPage{Items: p.Items, Total: p.Total, Page: q.Page, Limit: q.Limit}, nil
}

func (s *TaskService) queryPage(ctx context.Context, f repo.TaskFilter) (cache.Page, error) {
	items, err := s.repo.List(ctx, f)
	if err != nil {
		return cache.Page{}, err
	}
	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return cache.Page{}, err
	}
	return cache.Page{Items: items, Total: total}, nil
}

// Create stores a new task owned by userID, not yet completed.
func (s *TaskService) Create(ctx context.Context, userID int64, title string) (dom.Task, error) {
	t, err := s.repo.Create(ctx, dom.Task{
		UserID: userID,
		Title:  strings.TrimSpace(title),
	})
	if err != nil {
		return dom.Task{}, err
	}
	s.invalidateCache(ctx, userID)
	return t, nil
}

// SetCompleted flips the completion flag of the caller's task. The id match
// and the owner match happen in one atomic statement, so a task that exists
// but belongs to someone else is reported the same way as a missing one.
func (s *TaskService) SetCompleted(ctx context.Context, userID, id int64, completed bool) (dom.Task, error) {
	t, err := s.repo.SetCompleted(ctx, userID, id, completed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, err
	}
	s.invalidateCache(ctx, userID)
	return t, nil
}

// Delete removes the caller's task. Same combined id+owner condition and
// not-found semantics as SetCompleted.
func (s *TaskService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	s.invalidateCache(ctx, userID)
	return nil
}

func (s *TaskService) invalidateCache(ctx context.Context, userID int64) {
	if s.cache != nil {
		_ = s.cache.InvalidateUser(ctx, userID)
	}
}
