package repo

import (
	"context"
	"sync"
	"testing"
	"time"

	dom "TaskAPI/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock returns a strictly increasing time, one second per call.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type repoHarness struct {
	repo      TaskRepo
	missingID string
}

func draft(title string, p dom.Priority) dom.Draft {
	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return dom.Draft{Title: title, Content: "Q3 summary", Priority: p, DueDate: &due}
}

// runContract exercises the behaviour every TaskRepo backend must share.
func runContract(t *testing.T, setup func(t *testing.T) repoHarness) {
	t.Run("create then get", func(t *testing.T) {
		h := setup(t)
		ctx := context.Background()

		created, err := h.repo.Create(ctx, draft("Write report", dom.PriorityHigh))
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "Write report", created.Title)
		assert.Equal(t, dom.PriorityHigh, created.Priority)
		assert.False(t, created.CreatedAt.IsZero())
		assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

		got, err := h.repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, created.Title, got.Title)
		assert.Equal(t, created.Content, got.Content)
		assert.Equal(t, created.Priority, got.Priority)
		assert.True(t, created.DueDate.Equal(got.DueDate))
		assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("latest returns newest first", func(t *testing.T) {
		h := setup(t)
		ctx := context.Background()

		var ids []string
		for _, title := range []string{"Task one", "Task two", "Task three", "Task four", "Task five"} {
			created, err := h.repo.Create(ctx, draft(title, dom.PriorityLow))
			require.NoError(t, err)
			ids = append(ids, created.ID)
			time.Sleep(2 * time.Millisecond)
		}

		latest, err := h.repo.Latest(ctx, 3)
		require.NoError(t, err)
		require.Len(t, latest, 3)
		assert.Equal(t, []string{ids[4], ids[3], ids[2]}, []string{latest[0].ID, latest[1].ID, latest[2].ID})

		all, err := h.repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 5)

		none, err := h.repo.Latest(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("update refreshes updatedAt", func(t *testing.T) {
		h := setup(t)
		ctx := context.Background()

		created, err := h.repo.Create(ctx, draft("Write report", dom.PriorityHigh))
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)

		d := dom.DraftOf(created)
		d.Priority = dom.PriorityLow
		updated, err := h.repo.Update(ctx, created.ID, d)
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, dom.PriorityLow, updated.Priority)
		assert.Equal(t, created.Title, updated.Title)
		assert.True(t, updated.CreatedAt.Equal(created.CreatedAt), "createdAt must not change")
		assert.True(t, updated.UpdatedAt.After(created.CreatedAt), "updatedAt %v not after %v", updated.UpdatedAt, created.CreatedAt)
	})

	t.Run("update missing id does not create", func(t *testing.T) {
		h := setup(t)
		ctx := context.Background()

		_, err := h.repo.Update(ctx, h.missingID, draft("Write report", dom.PriorityHigh))
		assert.ErrorIs(t, err, ErrNotFound)

		all, err := h.repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("delete then get", func(t *testing.T) {
		h := setup(t)
		ctx := context.Background()

		created, err := h.repo.Create(ctx, draft("Write report", dom.PriorityMedium))
		require.NoError(t, err)

		require.NoError(t, h.repo.Delete(ctx, created.ID))
		_, err = h.repo.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, h.repo.Delete(ctx, created.ID), ErrNotFound)
	})

	t.Run("malformed and missing ids are not found", func(t *testing.T) {
		h := setup(t)
		ctx := context.Background()

		for _, id := range []string{"not-an-id", h.missingID} {
			_, err := h.repo.GetByID(ctx, id)
			assert.ErrorIs(t, err, ErrNotFound, id)
			_, err = h.repo.Update(ctx, id, draft("Write report", dom.PriorityHigh))
			assert.ErrorIs(t, err, ErrNotFound, id)
			assert.ErrorIs(t, h.repo.Delete(ctx, id), ErrNotFound, id)
		}
	})

	t.Run("ping", func(t *testing.T) {
		h := setup(t)
		assert.NoError(t, h.repo.Ping(context.Background()))
	})
}
