package repo

import (
	"context"
	"errors"
	"fmt"

	dom "TaskAPI/internal/domain"
	"TaskAPI/internal/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id::text, title, content, priority, due_date, created_at, updated_at`

// CHECK constraint -> field and rule it enforces.
var constraintRules = map[string][2]string{
	"tasks_title_min_length":  {dom.FieldTitle, "min"},
	"tasks_content_not_empty": {dom.FieldContent, "required"},
	"tasks_priority_enum":     {dom.FieldPriority, "oneof"},
}

// PGTaskRepo implements TaskRepo with Postgres.
type PGTaskRepo struct {
	db *pgxpool.Pool
}

// NewPGTaskRepo returns a new PGTaskRepo.
func NewPGTaskRepo(db *pgxpool.Pool) *PGTaskRepo {
	return &PGTaskRepo{db: db}
}

func (r *PGTaskRepo) Create(ctx context.Context, d dom.Draft) (dom.Task, error) {
	query := `
		INSERT INTO tasks (title, content, priority, due_date)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + taskColumns
	t, err := scanTask(r.db.QueryRow(ctx, query, d.Title, d.Content, string(d.Priority), d.DueDate))
	if err != nil {
		return dom.Task{}, pgWriteError("insert task", err)
	}
	return t, nil
}

func (r *PGTaskRepo) GetByID(ctx context.Context, id string) (dom.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return dom.Task{}, ErrNotFound
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	t, err := scanTask(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (r *PGTaskRepo) List(ctx context.Context) ([]dom.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at DESC, id DESC`
	return r.query(ctx, query)
}

func (r *PGTaskRepo) Latest(ctx context.Context, n int) ([]dom.Task, error) {
	if n <= 0 {
		return []dom.Task{}, nil
	}
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at DESC, id DESC LIMIT $1`
	return r.query(ctx, query, n)
}

func (r *PGTaskRepo) Update(ctx context.Context, id string, d dom.Draft) (dom.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return dom.Task{}, ErrNotFound
	}
	// GREATEST keeps updated_at >= created_at when both land in the same microsecond.
	query := `
		UPDATE tasks SET title = $2, content = $3, priority = $4, due_date = $5,
			updated_at = GREATEST(NOW(), created_at)
		WHERE id = $1
		RETURNING ` + taskColumns
	t, err := scanTask(r.db.QueryRow(ctx, query, id, d.Title, d.Content, string(d.Priority), d.DueDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, pgWriteError("update task", err)
	}
	return t, nil
}

func (r *PGTaskRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGTaskRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *PGTaskRepo) query(ctx context.Context, query string, args ...any) ([]dom.Task, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()
	list := []dom.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func scanTask(row pgx.Row) (dom.Task, error) {
	var t dom.Task
	var priority string
	err := row.Scan(&t.ID, &t.Title, &t.Content, &priority, &t.DueDate, &t.CreatedAt, &t.UpdatedAt)
	t.Priority = dom.Priority(priority)
	return t, err
}

// pgWriteError turns CHECK violations into validation errors.
func pgWriteError(op string, err error) error {
	if name, ok := utils.PGCheckViolation(err); ok {
		if rule, known := constraintRules[name]; known {
			return dom.NewValidationError(rule[0], dom.Message(rule[0], rule[1]))
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
