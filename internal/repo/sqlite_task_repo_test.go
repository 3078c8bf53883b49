package repo

import (
	"context"
	"testing"
	"time"

	dom "TaskAPI/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) *SQLiteTaskRepo {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	r := NewSQLiteTaskRepo(db, newStepClock().Now)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestSQLiteTaskRepo_Contract(t *testing.T) {
	runContract(t, func(t *testing.T) repoHarness {
		return repoHarness{repo: setupSQLite(t), missingID: uuid.NewString()}
	})
}

func TestSQLiteTaskRepo_StepClockTimestamps(t *testing.T) {
	r := setupSQLite(t)
	ctx := context.Background()

	created, err := r.Create(ctx, draft("Write report", dom.PriorityHigh))
	require.NoError(t, err)
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

	d := dom.DraftOf(created)
	d.Content = "Q4 summary"
	updated, err := r.Update(ctx, created.ID, d)
	require.NoError(t, err)
	assert.True(t, created.CreatedAt.Add(time.Second).Equal(updated.UpdatedAt), "updatedAt = %v", updated.UpdatedAt)
	assert.Equal(t, "Q4 summary", updated.Content)
}

func TestSQLiteTaskRepo_ListEmpty(t *testing.T) {
	r := setupSQLite(t)
	list, err := r.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
