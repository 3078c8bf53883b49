package repo

import (
	"context"
	"errors"

	dom "TaskAPI/internal/domain"
)

// ErrNotFound is returned when no task has the given id.
var ErrNotFound = errors.New("task not found")

// TaskRepo is the task store. Implementations assign ids and timestamps;
// callers validate drafts before writing.
type TaskRepo interface {
	Create(ctx context.Context, d dom.Draft) (dom.Task, error)
	GetByID(ctx context.Context, id string) (dom.Task, error)
	List(ctx context.Context) ([]dom.Task, error)
	// Latest returns up to n tasks, newest first.
	Latest(ctx context.Context, n int) ([]dom.Task, error)
	// Update replaces the editable fields and refreshes updatedAt.
	Update(ctx context.Context, id string, d dom.Draft) (dom.Task, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
