package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/saarthak-backend/internal/data/cache"
	"github.com/yungbote/saarthak-backend/internal/data/gateway"
	"github.com/yungbote/saarthak-backend/internal/data/testutil"
	"github.com/yungbote/saarthak-backend/internal/domain/media"
	"github.com/yungbote/saarthak-backend/internal/presentation"
	"github.com/yungbote/saarthak-backend/internal/services"
)

func TestSubmitStoresCanonicalEnums(t *testing.T) {
	ctx := context.Background()
	log := testutil.Logger(t)
	gw := gateway.New(log, testutil.DB(t), nil, nil)
	videos := services.NewVideoService(log, gw, cache.New(log, cache.NewMemoryStore(64, time.Minute), nil))
	notes := &Collector{}
	ctrl := NewController[media.Video, *media.Video](log, VideoSpec(), NewFormStore(log, 16, 0), videos, nil, notes, t.TempDir())

	v, err := ctrl.OpenCreate(ctx)
	if err != nil {
		t.Fatalf("OpenCreate: %v", err)
	}
	title, src := "Booth training", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	page, kind := media.Page(" Home"), media.VideoKind("YouTube")
	upd := DraftUpdate{Patch: media.Patch{Title: &title, SourceURL: &src, PageAssignment: &page, VideoType: &kind}}
	view, err := ctrl.UpdateDraft(ctx, v.ID, upd)
	if err != nil {
		t.Fatalf("UpdateDraft: %v", err)
	}
	if view.Draft.PageAssignment != media.PageHome || view.Draft.VideoType != media.VideoKindYouTube {
		t.Fatalf("draft not normalized: %+v", view.Draft)
	}

	res, err := ctrl.Submit(ctx, v.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	row := res.Record.(*media.Video)
	if row.PageAssignment != media.PageHome || row.VideoType != media.VideoKindYouTube {
		t.Fatalf("stored page=%q type=%q", row.PageAssignment, row.VideoType)
	}

	visible, err := videos.ListVisible(ctx, media.PageHome)
	if err != nil {
		t.Fatalf("ListVisible: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != row.ID {
		t.Fatalf("submitted video missing from home page: %+v", visible)
	}
	if vv := presentation.NewVideoView(visible[0]); vv.Player != presentation.PlayerEmbed {
		t.Fatalf("player=%q want embed", vv.Player)
	}
}

func TestServiceUpdateStoresCanonicalPage(t *testing.T) {
	ctx := context.Background()
	log := testutil.Logger(t)
	gw := gateway.New(log, testutil.DB(t), nil, nil)
	posters := services.NewPosterService(log, gw, cache.New(log, cache.NewMemoryStore(64, time.Minute), nil))

	d := media.NewDraft()
	d.Title, d.SourceURL = "Manifesto", "https://cdn.test/p.png"
	row, err := posters.Create(ctx, d)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	page := media.Page("ABOUT ")
	if _, err := posters.Update(ctx, row.ID, media.Patch{PageAssignment: &page}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	about, err := posters.ListVisible(ctx, media.PageAbout)
	if err != nil || len(about) != 1 {
		t.Fatalf("ListVisible(about)=%d err=%v", len(about), err)
	}
}
