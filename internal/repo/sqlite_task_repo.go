package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	dom "TaskAPI/internal/domain"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// taskRecord is the GORM row for a task.
type taskRecord struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Title     string    `gorm:"not null"`
	Content   string    `gorm:"not null"`
	Priority  string    `gorm:"size:16;not null"`
	DueDate   time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index:idx_tasks_created_at;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (taskRecord) TableName() string {
	return "tasks"
}

func (r taskRecord) toDomain() dom.Task {
	return dom.Task{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		Priority:  dom.Priority(r.Priority),
		DueDate:   r.DueDate.UTC(),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

// SQLiteTaskRepo implements TaskRepo with GORM over SQLite.
type SQLiteTaskRepo struct {
	db  *gorm.DB
	now func() time.Time
}

// OpenSQLite opens (and migrates) a SQLite database at path.
// ":memory:" gives a private in-memory database.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// Each :memory: connection is a separate database.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&taskRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return db, nil
}

// NewSQLiteTaskRepo returns a new SQLiteTaskRepo. If now is nil, time.Now is used.
func NewSQLiteTaskRepo(db *gorm.DB, now func() time.Time) *SQLiteTaskRepo {
	if now == nil {
		now = time.Now
	}
	return &SQLiteTaskRepo{db: db, now: now}
}

func (r *SQLiteTaskRepo) Create(ctx context.Context, d dom.Draft) (dom.Task, error) {
	now := r.now().UTC()
	rec := taskRecord{
		ID:        uuid.NewString(),
		Title:     d.Title,
		Content:   d.Content,
		Priority:  string(d.Priority),
		DueDate:   d.DueDate.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return dom.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id string) (dom.Task, error) {
	var rec taskRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, fmt.Errorf("get task: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *SQLiteTaskRepo) List(ctx context.Context) ([]dom.Task, error) {
	var recs []taskRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return toDomainList(recs), nil
}

func (r *SQLiteTaskRepo) Latest(ctx context.Context, n int) ([]dom.Task, error) {
	if n <= 0 {
		return []dom.Task{}, nil
	}
	var recs []taskRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(n).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("latest tasks: %w", err)
	}
	return toDomainList(recs), nil
}

func (r *SQLiteTaskRepo) Update(ctx context.Context, id string, d dom.Draft) (dom.Task, error) {
	var out taskRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&out, "id = ?", id).Error; err != nil {
			return err
		}
		updatedAt := r.now().UTC()
		if updatedAt.Before(out.CreatedAt) {
			updatedAt = out.CreatedAt
		}
		out.Title = d.Title
		out.Content = d.Content
		out.Priority = string(d.Priority)
		out.DueDate = d.DueDate.UTC()
		out.UpdatedAt = updatedAt
		return tx.Model(&taskRecord{}).Where("id = ?", id).Updates(map[string]any{
			"title":      out.Title,
			"content":    out.Content,
			"priority":   out.Priority,
			"due_date":   out.DueDate,
			"updated_at": out.UpdatedAt,
		}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, fmt.Errorf("update task: %w", err)
	}
	return out.toDomain(), nil
}

func (r *SQLiteTaskRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&taskRecord{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteTaskRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying database handle.
func (r *SQLiteTaskRepo) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toDomainList(recs []taskRecord) []dom.Task {
	out := make([]dom.Task, len(recs))
	for i := range recs {
		out[i] = recs[i].toDomain()
	}
	return out
}
