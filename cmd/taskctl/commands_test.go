package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"TaskAPI/internal/app"
	"TaskAPI/internal/client"
	"TaskAPI/internal/config"
	"TaskAPI/internal/repo"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.OpenSQLite(":memory:")
	require.NoError(t, err)
	store := repo.NewSQLiteTaskRepo(db, nil)
	t.Cleanup(func() { _ = store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(app.NewWithStore(config.Config{}, log, store, nil).Router())
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := newRootCommand()
	cmd.Writer = &buf
	err := cmd.Run(context.Background(), append([]string{"taskctl", "--server", server}, args...))
	return buf.String(), err
}

func TestTaskctl_AddListShowDelete(t *testing.T) {
	server := newServer(t)

	out, err := run(t, server, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No tasks found.")

	out, err = run(t, server, "add", "--title", "Write report", "--content", "Q3 summary", "--priority", "High", "--due", "2025-01-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Title:    Write report")
	assert.Contains(t, out, "Due:      2025-01-01")

	tasks, err := client.New(server).List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	id := tasks[0].ID

	out, err = run(t, server, "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Write report")

	out, err = run(t, server, "edit", "--priority", "Low", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Priority: Low")
	assert.Contains(t, out, "Q3 summary")

	out, err = run(t, server, "newest")
	require.NoError(t, err)
	assert.Contains(t, out, id)

	out, err = run(t, server, "delete", id)
	require.NoError(t, err)
	assert.Equal(t, "Task deleted successfully!\n", out)

	_, err = run(t, server, "show", id)
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))
}

func TestTaskctl_AddPrintsFieldErrors(t *testing.T) {
	server := newServer(t)

	out, err := run(t, server, "add", "--title", "abc", "--content", "x", "--priority", "Urgent", "--due", "2025-01-01")
	require.Error(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{
		"priority: Priority must be one of Low, Medium, High",
		"title: Title must be at least 5 characters",
	}, lines)
}

func TestTaskctl_MissingID(t *testing.T) {
	server := newServer(t)
	for _, sub := range []string{"show", "edit", "delete"} {
		_, err := run(t, server, sub)
		assert.ErrorContains(t, err, "usage: taskctl "+sub)
	}
}
