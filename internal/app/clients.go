package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/saarthak-backend/internal/data/cache"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
	"github.com/yungbote/saarthak-backend/internal/platform/objectstore"
	"github.com/yungbote/saarthak-backend/internal/platform/sendgrid"
)

const (
	cacheBackendMemory = "memory"
	cacheBackendRedis  = "redis"
)

type Clients struct {
	Redis      *goredis.Client
	CacheStore cache.Store
	Objects    objectstore.Store
	Mailer     sendgrid.Client
	// MediaRoot is set when objects are kept on local disk and must be served
	// by this process.
	MediaRoot string

	closers []func() error
}

func wireClients(log *logger.Logger, cfg Config) (*Clients, error) {
	log.Info("Wiring clients...")
	c := &Clients{}

	switch cfg.Cache.Backend {
	case cacheBackendRedis:
		rdb, err := newRedisClient(cfg.Cache)
		if err != nil {
			return nil, err
		}
		c.Redis = rdb
		c.closers = append(c.closers, rdb.Close)
		store, err := cache.NewRedisStore(rdb, cfg.Cache.TTL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("init redis cache: %w", err)
		}
		c.CacheStore = store
		log.Info("Query cache backend selected", "backend", cacheBackendRedis, "ttl", cfg.Cache.TTL)
	default:
		c.CacheStore = cache.NewMemoryStore(cfg.Cache.Size, cfg.Cache.TTL)
		log.Info("Query cache backend selected", "backend", cacheBackendMemory, "size", cfg.Cache.Size, "ttl", cfg.Cache.TTL)
	}

	if cfg.Mail.SendGridAPIKey != "" {
		mailer, err := sendgrid.New(log, sendgrid.Config{
			APIKey:     cfg.Mail.SendGridAPIKey,
			BaseURL:    cfg.Mail.SendGridBaseURL,
			FromEmail:  cfg.Mail.FromEmail,
			FromName:   cfg.Mail.FromName,
			MaxRetries: 3,
		})
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("init sendgrid: %w", err)
		}
		c.Mailer = mailer
		log.Info("Lead alerts enabled", "recipients", len(cfg.Mail.LeadRecipients))
	}

	objects, err := resolveObjectStore(log, cfg.Storage)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Objects = objects.Store
	c.MediaRoot = objects.LocalRoot
	if objects.Close != nil {
		c.closers = append(c.closers, objects.Close)
	}
	return c, nil
}

func newRedisClient(cfg CacheConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.RedisAddr,
		DB:          cfg.RedisDB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
	c.closers = nil
}
