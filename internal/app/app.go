package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"TaskAPI/internal/config"
	"TaskAPI/internal/repo"
	"TaskAPI/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type App struct {
	cfg    config.Config
	log    *slog.Logger
	store  repo.TaskRepo
	closer func(context.Context) error
	redis  *redis.Client
	router *gin.Engine
}

// startupTimeout bounds connecting to the store and Redis.
const startupTimeout = 10 * time.Second

func New(cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	store, closer, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closer = closer

	if cfg.Redis.Enabled() {
		rdb, err := newRedis(ctx, cfg.Redis)
		if err != nil {
			_ = closer(context.Background())
			return nil, err
		}
		a.redis = rdb
	} else {
		log.Info("redis not configured, cache disabled")
	}

	a.router = newRouter(cfg, log, a.store, a.redis)
	return a, nil
}

// NewWithStore builds an App over an already opened store; used by tests
// and tools that manage the store themselves.
func NewWithStore(cfg config.Config, log *slog.Logger, store repo.TaskRepo, rdb *redis.Client) *App {
	return &App{
		cfg:    cfg,
		log:    log,
		store:  store,
		closer: func(context.Context) error { return nil },
		redis:  rdb,
		router: newRouter(cfg, log, store, rdb),
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.closer != nil {
		errs = append(errs, a.closer(ctx))
	}
	return errors.Join(errs...)
}

// openStore picks the task store from the DSN scheme.
func openStore(ctx context.Context, cfg config.StoreConfig) (repo.TaskRepo, func(context.Context) error, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	scheme := ""
	if i := strings.Index(dsn, ":"); i > 0 {
		scheme = strings.ToLower(dsn[:i])
	}

	switch scheme {
	case "postgres", "postgresql":
		pool, err := newPostgres(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		if err := runMigrations(dsn); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo.NewPGTaskRepo(pool), func(context.Context) error { pool.Close(); return nil }, nil

	case "mongodb", "mongodb+srv":
		client, db, err := newMongo(ctx, dsn, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		r := repo.NewMongoTaskRepo(db, nil)
		if err := r.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return r, client.Disconnect, nil

	case "sqlite", "file":
		path := strings.TrimPrefix(dsn, "sqlite://")
		db, err := repo.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		r := repo.NewSQLiteTaskRepo(db, nil)
		return r, func(context.Context) error { return r.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("store dsn: unsupported scheme %q (want postgres, mongodb or sqlite)", scheme)
	}
}

// newPostgres opens a pool; pool_max_conns and friends in the DSN still apply.
func newPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}
	return pool, nil
}

func runMigrations(dsn string) error {
	goose.SetBaseFS(repo.Migrations)

	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("goose open db: %w", err)
	}
	defer db.Close()

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func newMongo(ctx context.Context, uri, fallbackDB string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, client.Database(mongoDatabase(uri, fallbackDB)), nil
}

// mongoDatabase returns the database named in the URI path, or fallback.
func mongoDatabase(uri, fallback string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return fallback
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return fallback
}

// newRedis connects with REDIS_URL when set (keeping rediss:// TLS),
// otherwise with the discrete address settings.
func newRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opt := &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		opt = parsed
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func newRouter(cfg config.Config, log *slog.Logger, store repo.TaskRepo, rdb *redis.Client) *gin.Engine {
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(requestLogger(log), gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}
	origins := utils.SplitList(cfg.HTTP.CORSOrigins)
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	r.Use(cors.New(corsCfg))

	Setup(r, cfg, log, store, rdb)
	return r
}
