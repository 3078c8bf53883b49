package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"TaskAPI/internal/config"
	"TaskAPI/internal/repo"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.Config {
	var cfg config.Config
	cfg.App.Env = "test"
	cfg.App.Version = "1.2.3"
	return cfg
}

func sqliteApp(t *testing.T, rdb *redis.Client) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := repo.OpenSQLite(":memory:")
	require.NoError(t, err)
	store := repo.NewSQLiteTaskRepo(db, nil)
	t.Cleanup(func() { _ = store.Close() })
	return NewWithStore(testConfig(), discardLogger(), store, rdb)
}

func serve(a *App, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)
	return w
}

func TestRoutes_ServiceEndpoints(t *testing.T) {
	a := sqliteApp(t, nil)

	w := serve(a, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"env":"test"}`, w.Body.String())

	w = serve(a, http.MethodGet, "/version", "")
	assert.JSONEq(t, `{"version":"1.2.3"}`, w.Body.String())

	w = serve(a, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	var root map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &root))
	assert.Equal(t, "/tasks", root["api"])

	w = serve(a, http.MethodGet, "/swagger", "")
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestRoutes_TaskTable(t *testing.T) {
	a := sqliteApp(t, nil)

	w := serve(a, http.MethodPost, "/tasks", `{"title":"Write report","content":"Q3","priority":"Low","dueDate":"2025-01-01"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct{ ID string }
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/tasks", "").Code)
	assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/tasks/newest3", "").Code)
	assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/tasks/"+created.ID, "").Code)
	assert.Equal(t, http.StatusOK, serve(a, http.MethodPut, "/tasks/"+created.ID, `{"content":"Q4"}`).Code)
	assert.Equal(t, http.StatusOK, serve(a, http.MethodDelete, "/tasks/"+created.ID, "").Code)

	assert.Equal(t, http.StatusNotFound, serve(a, http.MethodGet, "/api/v1/tasks", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(a, http.MethodPatch, "/tasks/"+created.ID, `{}`).Code)
}

func TestRoutes_CachedListSeesWrites(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	a := sqliteApp(t, rdb)

	assert.JSONEq(t, `[]`, serve(a, http.MethodGet, "/tasks", "").Body.String())
	assert.True(t, mr.Exists("task:list"))

	w := serve(a, http.MethodPost, "/tasks", `{"title":"Write report","content":"Q3","priority":"Low","dueDate":"2025-01-01"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.False(t, mr.Exists("task:list"))

	var list []map[string]any
	require.NoError(t, json.Unmarshal(serve(a, http.MethodGet, "/tasks", "").Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

type downStore struct {
	repo.TaskRepo
}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestRoutes_HealthReportsStoreFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := NewWithStore(testConfig(), discardLogger(), downStore{}, nil)

	w := serve(a, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestOpenStore_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")

	store, closer, err := openStore(context.Background(), config.StoreConfig{DSN: "sqlite://" + path})
	require.NoError(t, err)
	assert.IsType(t, &repo.SQLiteTaskRepo{}, store)
	assert.NoError(t, store.Ping(context.Background()))
	assert.NoError(t, closer(context.Background()))
}

func TestOpenStore_UnsupportedScheme(t *testing.T) {
	for _, dsn := range []string{"mysql://localhost/tasks", "tasks.db", ""} {
		_, _, err := openStore(context.Background(), config.StoreConfig{DSN: dsn})
		assert.Error(t, err, dsn)
	}
}

func TestNew_SQLiteWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.Store.DSN = "sqlite://" + filepath.Join(t.TempDir(), "tasks.db")

	a, err := New(cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/health", "").Code)
}

func TestNew_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig()
	cfg.Store.DSN = "sqlite://" + filepath.Join(t.TempDir(), "tasks.db")
	cfg.Redis.Addr = addr

	_, err := New(cfg, discardLogger())
	assert.ErrorContains(t, err, "redis ping")
}

func TestMongoDatabase(t *testing.T) {
	assert.Equal(t, "todo", mongoDatabase("mongodb://localhost:27017/todo", "tasks"))
	assert.Equal(t, "todo", mongoDatabase("mongodb+srv://u:p@cluster.example.net/todo?retryWrites=true", "tasks"))
	assert.Equal(t, "tasks", mongoDatabase("mongodb://localhost:27017", "tasks"))
	assert.Equal(t, "tasks", mongoDatabase("mongodb://localhost:27017/", "tasks"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	log.Info("hidden")
	log.Warn("shown", "k", "v")

	out := strings.TrimSpace(buf.String())
	require.NotEmpty(t, out)
	assert.NotContains(t, out, "hidden")
	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "v", line["k"])

	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
	assert.Equal(t, slog.LevelDebug, parseLevel(" DEBUG "))
}

func TestNew_RedisFromURL(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.Store.DSN = "sqlite://" + filepath.Join(t.TempDir(), "tasks.db")
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.URL = "redis://" + mr.Addr() + "/2"

	a, err := New(cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/tasks", "").Code)
	assert.True(t, mr.DB(2).Exists("task:list"))
	assert.False(t, mr.Exists("task:list"))
}
