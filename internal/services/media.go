package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/yungbote/saarthak-backend/internal/data/cache"
	"github.com/yungbote/saarthak-backend/internal/data/gateway"
	"github.com/yungbote/saarthak-backend/internal/domain/media"
	"github.com/yungbote/saarthak-backend/internal/platform/apierr"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
)

// MediaService is the cached query and mutation surface for one media kind.
// Errors from the gateway are returned unmodified.
type MediaService[T media.Record] interface {
	ListVisible(ctx context.Context, page media.Page) ([]T, error)
	ListAll(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id uuid.UUID) (*T, error)
	Create(ctx context.Context, d media.Draft) (*T, error)
	Update(ctx context.Context, id uuid.UUID, p media.Patch) (*T, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*T, error)
}

type VideoService = MediaService[media.Video]
type PosterService = MediaService[media.Poster]

type mediaService[T media.Record, P media.RecordPtr[T]] struct {
	log    *logger.Logger
	gw     gateway.Gateway
	cache  *cache.Cache
	table  gateway.Table
	family cache.Family
}

func newMediaService[T media.Record, P media.RecordPtr[T]](
	log *logger.Logger,
	gw gateway.Gateway,
	c *cache.Cache,
	table gateway.Table,
	family cache.Family,
	name string,
) MediaService[T] {
	return &mediaService[T, P]{
		log:    log.With("service", name),
		gw:     gw,
		cache:  c,
		table:  table,
		family: family,
	}
}

func NewVideoService(log *logger.Logger, gw gateway.Gateway, c *cache.Cache) VideoService {
	return newMediaService[media.Video](log, gw, c, gateway.TableVideos, cache.FamilyVideos, "VideoService")
}

func NewPosterService(log *logger.Logger, gw gateway.Gateway, c *cache.Cache) PosterService {
	return newMediaService[media.Poster](log, gw, c, gateway.TablePosters, cache.FamilyPosters, "PosterService")
}

var listOrder = []gateway.Order{{Column: "display_order"}, {Column: "created_at"}, {Column: "id"}}

func (s *mediaService[T, P]) ListVisible(ctx context.Context, page media.Page) ([]T, error) {
	return cache.Fetch(ctx, s.cache, cache.Key{Family: s.family, Scope: string(page)}, func(ctx context.Context) ([]T, error) {
		var rows []T
		filter := gateway.Filter{"page_assignment": page, "is_active": true}
		if err := s.gw.Query(ctx, s.table, filter, listOrder, &rows); err != nil {
			return nil, err
		}
		return media.VisibleOn[T, P](page, rows), nil
	})
}

func (s *mediaService[T, P]) ListAll(ctx context.Context) ([]T, error) {
	return cache.Fetch(ctx, s.cache, cache.Key{Family: s.family, Scope: cache.ScopeAll}, func(ctx context.Context) ([]T, error) {
		rows := []T{}
		if err := s.gw.Query(ctx, s.table, nil, listOrder, &rows); err != nil {
			return nil, err
		}
		return rows, nil
	})
}

func (s *mediaService[T, P]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	var row T
	if err := s.gw.Get(ctx, s.table, id, P(&row)); err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *mediaService[T, P]) Create(ctx context.Context, d media.Draft) (*T, error) {
	var row T
	P(&row).ApplyDraft(d.Canonical())
	if err := s.gw.Insert(ctx, s.table, P(&row)); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.Mutation{Family: s.family, Op: cache.OpCreate})
	s.log.Info("Created", "id", P(&row).Base().ID, "page", P(&row).Base().PageAssignment)
	return &row, nil
}

func (s *mediaService[T, P]) Update(ctx context.Context, id uuid.UUID, p media.Patch) (*T, error) {
	cols := P(new(T)).PatchColumns(p.Canonical())
	if len(cols) == 0 {
		return nil, apierr.New(http.StatusBadRequest, "empty_patch", errors.New("nothing to update"))
	}
	var row T
	if err := s.gw.Update(ctx, s.table, id, cols, P(&row)); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.Mutation{Family: s.family, Op: cache.OpUpdate})
	return &row, nil
}

func (s *mediaService[T, P]) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.gw.Delete(ctx, s.table, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.Mutation{Family: s.family, Op: cache.OpDelete})
	s.log.Info("Deleted", "id", id)
	return nil
}

func (s *mediaService[T, P]) SetActive(ctx context.Context, id uuid.UUID, active bool) (*T, error) {
	var row T
	if err := s.gw.Update(ctx, s.table, id, map[string]any{"is_active": active}, P(&row)); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.Mutation{Family: s.family, Op: cache.OpSetActive})
	return &row, nil
}
