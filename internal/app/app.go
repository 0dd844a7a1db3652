package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"github.com/yungbote/saarthak-backend/internal/data/db"
	httpx "github.com/yungbote/saarthak-backend/internal/http"
	"github.com/yungbote/saarthak-backend/internal/observability"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
)

const shutdownGrace = 5 * time.Second

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Clients  *Clients
	Repos    Repos
	Services Services
	Server   *httpx.Server

	otelShutdown func(context.Context) error
}

// NewLogger builds the process logger for cfg.LogMode.
func NewLogger(cfg Config) (*logger.Logger, error) {
	mode := cfg.LogMode
	if mode == "" {
		mode = "development"
	}
	log, err := logger.New(mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

// OpenDB connects and migrates the row store.
func OpenDB(log *logger.Logger, cfg Config) (*gorm.DB, error) {
	theDB, err := db.Open(log, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrateAll(theDB); err != nil {
		_ = db.Close(theDB)
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return theDB, nil
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	if cfg.JWTSecretKey == defaultJWTSecret {
		log.Warn("JWT_SECRET_KEY is using the built-in default; set it before exposing the admin panel")
	}

	otelShutdown := observability.InitOTel(ctx, log, cfg.OTel)

	theDB, err := OpenDB(log, cfg)
	if err != nil {
		return nil, err
	}

	var (
		metrics        *observability.Metrics
		metricsHandler http.Handler
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		if sqlDB, err := theDB.DB(); err == nil {
			reg.MustRegister(collectors.NewDBStatsCollector(sqlDB, cfg.DB.Driver))
		}
		metrics, err = observability.NewMetrics(reg)
		if err != nil {
			_ = db.Close(theDB)
			return nil, fmt.Errorf("init metrics: %w", err)
		}
		metricsHandler = observability.Handler(reg)
	}

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = db.Close(theDB)
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clients, metrics)
	if err != nil {
		clients.Close()
		_ = db.Close(theDB)
		return nil, err
	}

	middleware := wireMiddleware(log, serviceset)
	handlerset, err := wireHandlers(log, theDB, clients, serviceset, middleware, metrics)
	if err != nil {
		clients.Close()
		_ = db.Close(theDB)
		return nil, err
	}
	routerCfg, err := routerConfig(log, cfg, clients, handlerset, middleware, metrics, metricsHandler)
	if err != nil {
		clients.Close()
		_ = db.Close(theDB)
		return nil, err
	}

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Server:       httpx.NewServer(routerCfg),
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(ctx, a.Cfg.Address())
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	a.Clients.Close()
	if err := db.Close(a.DB); err != nil {
		a.Log.Warn("database close failed", "error", err)
	}
	a.Log.Sync()
}
