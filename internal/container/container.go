package container

import (
	"context"
	"fmt"

	"alkoteka/exporter/internal/cache"
	"alkoteka/exporter/internal/client"
	"alkoteka/exporter/internal/config"
	"alkoteka/exporter/internal/repository"
	"alkoteka/exporter/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config     *config.Config
	Store      cache.Store
	Client     client.AlkotekaClient
	Repository repository.ProductRepository
	Service    *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	store, err := newStore(container, cfg)
	if err != nil {
		return nil, err
	}
	container.Store = store

	container.Client = client.NewAlkotekaClient(cfg.API)

	var repo repository.ProductRepository
	if cfg.Database.Enabled {
		db, err := pgxpool.New(context.Background(),
			fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
				cfg.Database.Host,
				cfg.Database.Port,
				cfg.Database.User,
				cfg.Database.Password,
				cfg.Database.Name,
			))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		container.db = db
		repo = repository.NewProductRepository(db)
	}
	container.Repository = repo

	container.Service = service.NewService(
		container.Client,
		store,
		repo,
		cfg.Output.Dir,
		cfg.Output.Prefix,
		cfg.Fetch.MaxPages,
	)

	return container, nil
}

func newStore(container *Container, cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})

		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")

		container.redis = rdb
		return cache.NewRedisStore(rdb, cfg.Redis.KeyPrefix), nil

	case "file", "":
		return cache.NewFileStore(cfg.Cache.Dir)

	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}
