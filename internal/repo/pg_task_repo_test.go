package repo

import (
	"context"
	"os"
	"testing"

	dom "TaskAPI/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupPG connects to TEST_PG_DSN, migrates and empties the tasks table.
func setupPG(t *testing.T) *PGTaskRepo {
	t.Helper()
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}

	goose.SetBaseFS(Migrations)
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	require.NoError(t, err)
	require.NoError(t, goose.Up(db, "migrations"))
	require.NoError(t, db.Close())

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	_, err = pool.Exec(context.Background(), `TRUNCATE tasks`)
	require.NoError(t, err)
	return NewPGTaskRepo(pool)
}

func TestPGTaskRepo_Contract(t *testing.T) {
	runContract(t, func(t *testing.T) repoHarness {
		return repoHarness{repo: setupPG(t), missingID: uuid.NewString()}
	})
}

func TestPGTaskRepo_CheckConstraintIsValidationError(t *testing.T) {
	r := setupPG(t)

	_, err := r.Create(context.Background(), draft("abc", dom.PriorityHigh))
	ve, ok := dom.AsValidationError(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.Equal(t, "Title must be at least 5 characters", ve.Fields[dom.FieldTitle])

	_, err = r.Create(context.Background(), draft("Write report", "Urgent"))
	ve, ok = dom.AsValidationError(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.Contains(t, ve.Fields, dom.FieldPriority)
}
