package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/poofware/booking-service/internal/config"
	"github.com/poofware/booking-service/internal/utils"
)

const (
	maxRetries     = 5
	connectTimeout = 5 * time.Second
	initialBackoff = 500 * time.Millisecond
)

// App holds the optional backing services. DB and Redis stay nil when
// their URLs are not configured; the engine then runs purely in memory.
type App struct {
	Config *config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
}

func NewApp(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	if cfg.DBUrl != "" {
		pool, err := connectWithRetry("Postgres", func(ctx context.Context) (*pgxpool.Pool, error) {
			return newDBPool(ctx, cfg.DBUrl)
		})
		if err != nil {
			return nil, err
		}
		app.DB = pool
	} else {
		utils.Logger.Info("DB_URL not set; audit log kept in memory only")
	}

	if cfg.RedisAddr != "" {
		rdb, err := connectWithRetry("Redis", func(ctx context.Context) (*redis.Client, error) {
			return newRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		})
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Redis = rdb
	} else {
		utils.Logger.Info("REDIS_ADDR not set; availability cache disabled")
	}

	return app, nil
}

func connectWithRetry[T any](name string, connect func(ctx context.Context) (T, error)) (T, error) {
	var (
		conn    T
		err     error
		backoff = initialBackoff
	)
	for i := 1; i <= maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		conn, err = connect(ctx)
		cancel()
		if err == nil {
			utils.Logger.Infof("booking-service connected to %s on attempt %d", name, i)
			return conn, nil
		}

		utils.Logger.WithError(err).Warnf(
			"Failed %s connect on attempt %d/%d. Retrying in %v...",
			name, i, maxRetries, backoff,
		)
		if i == maxRetries {
			break
		}
		time.Sleep(backoff)
		backoff *= 2
	}
	return conn, fmt.Errorf("unable to connect to %s after %d attempts: %w", name, maxRetries, err)
}

// Ping reports the state of each configured backend. Unconfigured ones are
// left empty.
func (a *App) Ping(ctx context.Context) (postgres, redisStatus string, err error) {
	if a.DB != nil {
		if pingErr := a.DB.Ping(ctx); pingErr != nil {
			postgres, err = "unreachable", fmt.Errorf("postgres: %w", pingErr)
		} else {
			postgres = "OK"
		}
	}
	if a.Redis != nil {
		if pingErr := a.Redis.Ping(ctx).Err(); pingErr != nil {
			redisStatus = "unreachable"
			if err == nil {
				err = fmt.Errorf("redis: %w", pingErr)
			}
		} else {
			redisStatus = "OK"
		}
	}
	return postgres, redisStatus, err
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
		utils.Logger.Info("booking-service DB connection closed.")
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			utils.Logger.WithError(err).Warn("Failed to close Redis client")
		}
	}
}

func newDBPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second
	return pgxpool.ConnectConfig(ctx, cfg)
}

func newRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
