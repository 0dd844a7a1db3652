package app

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/yungbote/saarthak-backend/internal/data/cache"
	"github.com/yungbote/saarthak-backend/internal/data/gateway"
	"github.com/yungbote/saarthak-backend/internal/domain/media"
	"github.com/yungbote/saarthak-backend/internal/lifecycle"
	"github.com/yungbote/saarthak-backend/internal/observability"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
	"github.com/yungbote/saarthak-backend/internal/services"
)

type Services struct {
	Auth      services.AuthService
	User      services.UserService
	Gateway   gateway.Gateway
	Cache     *cache.Cache
	Videos    services.VideoService
	Posters   services.PosterService
	Contacts  services.ContactService
	Dashboard services.DashboardService

	Forms    *lifecycle.FormStore
	Registry *lifecycle.Registry
	Inbox    *lifecycle.Inbox
	Notifier lifecycle.Notifier
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients *Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	auth := services.NewAuthService(db, log, repos.User, repos.UserToken, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	gw := gateway.New(log, db, clients.Objects, auth)
	qc := cache.New(log, clients.CacheStore, metrics)

	videos := services.NewVideoService(log, gw, qc)
	posters := services.NewPosterService(log, gw, qc)
	contacts := services.WithLeadAlerts(log, services.NewContactService(log, gw, qc), clients.Mailer, cfg.Mail.LeadRecipients)

	if err := os.MkdirAll(cfg.SpoolDir, 0o755); err != nil {
		return Services{}, fmt.Errorf("create spool dir %s: %w", cfg.SpoolDir, err)
	}

	notifier := lifecycle.Notifiers{metrics, notificationLogger(log)}
	uploader := metrics.InstrumentUploader(gw)
	forms := lifecycle.NewFormStore(log, cfg.FormCapacity, cfg.FormTTL)
	registry := lifecycle.NewRegistry(forms,
		lifecycle.NewController[media.Video, *media.Video](log, lifecycle.VideoSpec(), forms, videos, uploader, notifier, cfg.SpoolDir),
		lifecycle.NewController[media.Poster, *media.Poster](log, lifecycle.PosterSpec(), forms, posters, uploader, notifier, cfg.SpoolDir),
	)

	return Services{
		Auth:      auth,
		User:      services.NewUserService(log, repos.User),
		Gateway:   gw,
		Cache:     qc,
		Videos:    videos,
		Posters:   posters,
		Contacts:  contacts,
		Dashboard: services.NewDashboardService(log, gw, qc),
		Forms:     forms,
		Registry:  registry,
		Inbox:     lifecycle.NewInbox(contacts, notifier),
		Notifier:  notifier,
	}, nil
}

func notificationLogger(log *logger.Logger) lifecycle.Notifier {
	nlog := log.With("component", "AdminNotifications")
	return lifecycle.NotifierFunc(func(_ context.Context, n lifecycle.Notification) {
		if n.Level == lifecycle.LevelError {
			nlog.Warn(n.Message, "kind", n.Kind, "action", n.Action)
			return
		}
		nlog.Info(n.Message, "kind", n.Kind, "action", n.Action)
	})
}
