package app

import (
	"context"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	httpx "github.com/yungbote/saarthak-backend/internal/http"
	httpH "github.com/yungbote/saarthak-backend/internal/http/handlers"
	httpMW "github.com/yungbote/saarthak-backend/internal/http/middleware"
	"github.com/yungbote/saarthak-backend/internal/lifecycle"
	"github.com/yungbote/saarthak-backend/internal/observability"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
	"github.com/yungbote/saarthak-backend/internal/web"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health    *httpH.HealthHandler
	Auth      *httpH.AuthHandler
	Media     *httpH.MediaHandler
	Contact   *httpH.ContactHandler
	Dashboard *httpH.DashboardHandler
	Pages     *httpH.PageHandler
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireHandlers(log *logger.Logger, db *gorm.DB, clients *Clients, services Services, mw Middleware, metrics *observability.Metrics) (Handlers, error) {
	log.Info("Wiring handlers...")
	site, err := web.LoadSite()
	if err != nil {
		return Handlers{}, fmt.Errorf("load site content: %w", err)
	}

	checks := map[string]httpH.Pinger{
		"db": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if clients.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return clients.Redis.Ping(ctx).Err()
		}
	}

	var contactObserver httpH.ContactObserver
	if metrics != nil {
		contactObserver = metrics
	}

	return Handlers{
		Health:    httpH.NewHealthHandler(checks),
		Auth:      httpH.NewAuthHandler(log, services.Auth, services.User),
		Media:     httpH.NewMediaHandler(log, services.Videos, services.Posters, services.Registry),
		Contact:   httpH.NewContactHandler(log, services.Contacts, services.Inbox, services.Notifier, contactObserver),
		Dashboard: httpH.NewDashboardHandler(services.Dashboard),
		Pages: httpH.NewPageHandler(log, httpH.PageDeps{
			Site:      site,
			Videos:    services.Videos,
			Posters:   services.Posters,
			Contacts:  services.Contacts,
			Dashboard: services.Dashboard,
			Auth:      services.Auth,
			Users:     services.User,
			Guard:     mw.Auth,
		}),
	}, nil
}

func routerConfig(log *logger.Logger, cfg Config, clients *Clients, handlers Handlers, mw Middleware, metrics *observability.Metrics, metricsHandler http.Handler) (httpx.RouterConfig, error) {
	renderer, err := web.NewRenderer()
	if err != nil {
		return httpx.RouterConfig{}, fmt.Errorf("parse templates: %w", err)
	}
	return httpx.RouterConfig{
		Log:              log,
		ServiceName:      cfg.OTel.ServiceName,
		TracingEnabled:   cfg.OTel.Enabled,
		CORSOrigins:      cfg.CORSAllowedOrigins,
		Metrics:          metrics,
		MetricsHandler:   metricsHandler,
		HTMLRender:       renderer,
		MaxUploadBytes:   cfg.Storage.MaxUploadBytes,
		MediaRoot:        clients.MediaRoot,
		Kinds:            []lifecycle.Kind{lifecycle.KindVideo, lifecycle.KindPoster},
		AuthMiddleware:   mw.Auth,
		AuthHandler:      handlers.Auth,
		MediaHandler:     handlers.Media,
		ContactHandler:   handlers.Contact,
		DashboardHandler: handlers.Dashboard,
		PageHandler:      handlers.Pages,
		HealthHandler:    handlers.Health,
	}, nil
}
