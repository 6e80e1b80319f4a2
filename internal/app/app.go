package app

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"time"

	"todoapi/internal/cache"
	"todoapi/internal/config"
	"todoapi/internal/handlers"
	"todoapi/internal/middleware"
	"todoapi/internal/migrations"
	"todoapi/internal/repo"
	"todoapi/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type App struct {
	cfg    config.Config
	log    *zap.Logger
	pool   *pgxpool.Pool
	db     *sql.DB
	redis  *redis.Client
	router *gin.Engine
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	src := cfg.DB.Source(cfg.App.Env)
	pool, err := newPostgres(ctx, src)
	if err != nil {
		return nil, err
	}
	a.pool = pool
	a.db = stdlib.OpenDBFromPool(pool)
	log.Info("postgres connected",
		zap.Bool("relaxed_tls", src.RelaxedTLS),
		zap.Int32("max_conns", src.MaxConns))

	if cfg.DB.AutoMigrate {
		if err := migrations.Up(ctx, a.db); err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		log.Info("migrations applied")
	}

	var listCache service.ListCache
	if cfg.Redis.Enabled() {
		rdb, err := newRedis(ctx, cfg.Redis)
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		a.redis = rdb
		listCache = cache.NewTodoCache(rdb, cfg.Redis.DefaultTTL.Duration())
		log.Info("redis list cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	svc := service.NewTodoService(repo.NewPGTodoRepo(a.db), listCache, log)
	a.router = newRouter(cfg, log, svc)
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Close(ctx context.Context) error {
	_ = ctx
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return nil
}

func newPostgres(ctx context.Context, src config.Source) (*pgxpool.Pool, error) {
	cfg, err := poolConfig(src)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return pool, nil
}

func poolConfig(src config.Source) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(src.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MinConns = src.MinConns
	cfg.MaxConns = src.MaxConns
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute
	if src.RelaxedTLS {
		relaxTLS(cfg)
	}
	return cfg, nil
}

// relaxTLS forces TLS on the primary host and turns off certificate verification everywhere.
func relaxTLS(cfg *pgxpool.Config) {
	cc := cfg.ConnConfig
	if cc.TLSConfig == nil {
		cc.TLSConfig = &tls.Config{ServerName: cc.Host}
	}
	cc.TLSConfig.InsecureSkipVerify = true
	for _, fb := range cc.Fallbacks {
		if fb.TLSConfig != nil {
			fb.TLSConfig.InsecureSkipVerify = true
		}
	}
}

func newRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

func newRouter(cfg config.Config, log *zap.Logger, svc handlers.TodoService) *gin.Engine {
	if cfg.App.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(middleware.Recovery(log, cfg.App.IsDevelopment()))
	r.Use(middleware.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))
	r.Use(middleware.BodyLimit(cfg.HTTP.MaxBodyBytes))
	r.Use(middleware.ErrorHandler(log, cfg.App.IsDevelopment()))

	Setup(r, cfg, svc)
	r.NoRoute(middleware.NotFound())
	return r
}
