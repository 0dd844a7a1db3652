package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/saarthak-backend/internal/data/cache"
	"github.com/yungbote/saarthak-backend/internal/data/gateway"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
)

type DashboardStats struct {
	TotalVideos       int64 `json:"total_videos"`
	ActiveVideos      int64 `json:"active_videos"`
	TotalPosters      int64 `json:"total_posters"`
	TotalContacts     int64 `json:"total_contacts"`
	UnreadContacts    int64 `json:"unread_contacts"`
	ContactsThisMonth int64 `json:"contacts_this_month"`
}

type DashboardService interface {
	Stats(ctx context.Context) (*DashboardStats, error)
}

type dashboardService struct {
	log   *logger.Logger
	gw    gateway.Gateway
	cache *cache.Cache
	now   func() time.Time
}

func NewDashboardService(log *logger.Logger, gw gateway.Gateway, c *cache.Cache) DashboardService {
	return &dashboardService{
		log:   log.With("service", "DashboardService"),
		gw:    gw,
		cache: c,
		now:   time.Now,
	}
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (ds *dashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	since := monthStart(ds.now())
	scope := since.Format("2006-01")
	return cache.Fetch(ctx, ds.cache, cache.Key{Family: cache.FamilyDashboard, Scope: scope}, func(ctx context.Context) (*DashboardStats, error) {
		var out DashboardStats
		counts := []struct {
			dst    *int64
			table  gateway.Table
			filter gateway.Filter
		}{
			{&out.TotalVideos, gateway.TableVideos, nil},
			{&out.ActiveVideos, gateway.TableVideos, gateway.Filter{"is_active": true}},
			{&out.TotalPosters, gateway.TablePosters, nil},
			{&out.TotalContacts, gateway.TableContacts, nil},
			{&out.UnreadContacts, gateway.TableContacts, gateway.Filter{"is_read": false}},
			{&out.ContactsThisMonth, gateway.TableContacts, gateway.Filter{"created_at >=": since}},
		}
		g, gctx := errgroup.WithContext(ctx)
		for _, c := range counts {
			c := c
			g.Go(func() error {
				n, err := ds.gw.Count(gctx, c.table, c.filter)
				if err != nil {
					return err
				}
				*c.dst = n
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			ds.log.Warn("Dashboard counts failed", "error", err)
			return nil, err
		}
		return &out, nil
	})
}
