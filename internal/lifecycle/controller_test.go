package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/saarthak-backend/internal/domain/media"
	"github.com/yungbote/saarthak-backend/internal/platform/apierr"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
	"github.com/yungbote/saarthak-backend/internal/platform/objectstore"
)

func fieldErrors(t *testing.T, err error) apierr.FieldErrors {
	t.Helper()
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status != 422 {
		t.Fatalf("expected validation error, got %v", err)
	}
	return ae.Fields
}

func TestCreateVideoFromURL(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	v, err := h.video.OpenCreate(ctx)
	if err != nil {
		t.Fatalf("OpenCreate: %v", err)
	}
	if v.Mode != ModeCreate || v.State != StateIdle || !v.Draft.IsActive || v.Draft.VideoType != media.VideoKindYouTube {
		t.Fatalf("unexpected new form: %+v", v)
	}

	title, src := "Rally at Ward 12", "https://youtu.be/dQw4w9WgXcQ"
	if _, err := h.video.UpdateDraft(ctx, v.ID, DraftUpdate{Patch: media.Patch{Title: &title, SourceURL: &src}}); err != nil {
		t.Fatalf("UpdateDraft: %v", err)
	}
	res, err := h.video.Submit(ctx, v.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Notification == nil || res.Notification.Message != "Video added successfully" || res.Notification.Level != LevelSuccess {
		t.Fatalf("unexpected notification: %+v", res.Notification)
	}
	if res.Form.State != StateSettled || res.Form.Outcome != OutcomeSuccess {
		t.Fatalf("unexpected settled form: %+v", res.Form)
	}
	if h.uploader.count() != 0 || h.videos.creates != 1 {
		t.Fatalf("uploads=%d creates=%d", h.uploader.count(), h.videos.creates)
	}
	row := res.Record.(*media.Video)
	if row.Title != title || row.VideoURL != src {
		t.Fatalf("unexpected record: %+v", row)
	}
	if _, err := h.video.Form(ctx, v.ID); !errors.Is(err, ErrFormNotFound) {
		t.Fatalf("form should close on success, got %v", err)
	}
	if got := h.notes.All(); len(got) != 1 {
		t.Fatalf("want 1 notification, got %v", got)
	}
}

func TestValidationBlocksSubmission(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	v, _ := h.video.OpenCreate(ctx)
	res, err := h.video.Submit(ctx, v.ID)
	fe := fieldErrors(t, err)
	if fe["title"] != "Title is required" {
		t.Fatalf("title error: %v", fe)
	}
	if fe["source_url"] != "Please provide a video URL or upload a file" {
		t.Fatalf("source error: %v", fe)
	}
	if res == nil || res.Form.State != StateIdle || res.Form.Errors["title"] == "" {
		t.Fatalf("form should stay idle with errors: %+v", res)
	}
	if h.videos.creates != 0 || len(h.notes.All()) != 0 {
		t.Fatalf("validation failure must not write or notify")
	}

	p, _ := h.poster.OpenCreate(ctx)
	title := "Manifesto"
	page := media.Page("packages")
	_, _ = h.poster.UpdateDraft(ctx, p.ID, DraftUpdate{Patch: media.Patch{Title: &title, PageAssignment: &page}})
	_, err = h.poster.Submit(ctx, p.ID)
	fe = fieldErrors(t, err)
	if fe["source_url"] != "Please upload an image" || fe["page_assignment"] != "Please select a page" {
		t.Fatalf("poster errors: %v", fe)
	}
}

func TestOversizeImageRejectedAtSelection(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	p, _ := h.poster.OpenCreate(ctx)
	title := "Big poster"
	_, _ = h.poster.UpdateDraft(ctx, p.ID, DraftUpdate{Patch: media.Patch{Title: &title}})

	img := pngBytes(t)
	declared := int64(11 << 20)
	_, err := h.poster.SelectFile(ctx, p.ID, "big.png", declared, bytes.NewReader(img))
	if fe := fieldErrors(t, err); fe["file"] != "File size must be less than 10MB" {
		t.Fatalf("declared size: %v", fe)
	}

	stream := io.MultiReader(bytes.NewReader(img), io.LimitReader(zeroReader{}, 11<<20))
	_, err = h.poster.SelectFile(ctx, p.ID, "big.png", -1, stream)
	if fe := fieldErrors(t, err); fe["file"] != "File size must be less than 10MB" {
		t.Fatalf("streamed size: %v", fe)
	}

	v, _ := h.poster.Form(ctx, p.ID)
	if v.File != nil || v.UploadMode != UploadModeURL {
		t.Fatalf("rejected file must not be attached: %+v", v)
	}
	_, err = h.poster.Submit(ctx, p.ID)
	if fe := fieldErrors(t, err); fe["source_url"] != "Please upload an image" {
		t.Fatalf("submit without file: %v", fe)
	}
	if h.uploader.count() != 0 || h.posters.creates != 0 {
		t.Fatalf("uploads=%d creates=%d", h.uploader.count(), h.posters.creates)
	}
}

func TestWrongFileTypeRejected(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	v, _ := h.video.OpenCreate(ctx)
	_, err := h.video.SelectFile(ctx, v.ID, "clip.mp4", 100, bytes.NewReader(pngBytes(t)))
	if fe := fieldErrors(t, err); fe["file"] != "Please select a valid video file" {
		t.Fatalf("video rule: %v", fe)
	}

	p, _ := h.poster.OpenCreate(ctx)
	_, err = h.poster.SelectFile(ctx, p.ID, "poster.png", 9, bytes.NewReader([]byte("not image")))
	if fe := fieldErrors(t, err); fe["file"] != "Please select a valid image file" {
		t.Fatalf("poster rule: %v", fe)
	}

	// A PNG signature with a truncated header fails the decode check.
	broken := pngBytes(t)[:12]
	_, err = h.poster.SelectFile(ctx, p.ID, "poster.png", int64(len(broken)), bytes.NewReader(broken))
	if fe := fieldErrors(t, err); fe["file"] != "Please select a valid image file" {
		t.Fatalf("broken png: %v", fe)
	}
}

func TestFileUploadThenPersist(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	p, _ := h.poster.OpenCreate(ctx)
	title := "Campaign launch"
	_, _ = h.poster.UpdateDraft(ctx, p.ID, DraftUpdate{Patch: media.Patch{Title: &title}})
	img := pngBytes(t)
	view, err := h.poster.SelectFile(ctx, p.ID, "Launch.PNG", int64(len(img)), bytes.NewReader(img))
	if err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	if view.File == nil || view.File.ContentType != "image/png" || view.File.Size != int64(len(img)) || view.UploadMode != UploadModeFile {
		t.Fatalf("unexpected file view: %+v", view)
	}

	res, err := h.poster.Submit(ctx, p.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(h.uploader.uploads) != 1 {
		t.Fatalf("want one upload, got %d", len(h.uploader.uploads))
	}
	up := h.uploader.uploads[0]
	if up.bucket != objectstore.BucketPosters || up.size != len(img) {
		t.Fatalf("unexpected upload: %+v", up)
	}
	if !regexp.MustCompile(`^uploads/\d+-[0-9a-z]{1,6}\.png$`).MatchString(up.path) {
		t.Fatalf("unexpected object path %q", up.path)
	}
	row := res.Record.(*media.Poster)
	if row.ImageURL != "https://cdn.test/posters/"+up.path {
		t.Fatalf("record must reference the uploaded object: %q", row.ImageURL)
	}
}

func TestVideoFileSetsUploadKind(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	v, _ := h.video.OpenCreate(ctx)
	title := "Door to door"
	_, _ = h.video.UpdateDraft(ctx, v.ID, DraftUpdate{Patch: media.Patch{Title: &title}})
	mp4 := append([]byte{0, 0, 0, 0x18}, []byte("ftypisom\x00\x00\x02\x00isomiso2")...)
	mp4 = append(mp4, make([]byte, 64)...)
	view, err := h.video.SelectFile(ctx, v.ID, "walk.mp4", int64(len(mp4)), bytes.NewReader(mp4))
	if err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	if view.Draft.VideoType != media.VideoKindUpload {
		t.Fatalf("video type after file select: %q", view.Draft.VideoType)
	}
	res, err := h.video.Submit(ctx, v.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	row := res.Record.(*media.Video)
	if row.VideoType != media.VideoKindUpload || row.VideoURL == "" {
		t.Fatalf("unexpected record: %+v", row)
	}
	if h.uploader.uploads[0].bucket != objectstore.BucketVideos {
		t.Fatalf("wrong bucket %q", h.uploader.uploads[0].bucket)
	}
}

func TestBackToURLModeRestoresVideoType(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	v, _ := h.video.OpenCreate(ctx)
	title, external := "Roadshow", media.VideoKindExternal
	_, _ = h.video.UpdateDraft(ctx, v.ID, DraftUpdate{Patch: media.Patch{Title: &title, VideoType: &external}})
	mp4 := append([]byte{0, 0, 0, 0x18}, []byte("ftypisom\x00\x00\x02\x00isomiso2")...)
	mp4 = append(mp4, make([]byte, 64)...)
	if _, err := h.video.SelectFile(ctx, v.ID, "roadshow.mp4", int64(len(mp4)), bytes.NewReader(mp4)); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}

	urlMode, src := UploadModeURL, "https://cdn.test/roadshow.mp4"
	view, err := h.video.UpdateDraft(ctx, v.ID, DraftUpdate{Patch: media.Patch{SourceURL: &src}, UploadMode: &urlMode})
	if err != nil {
		t.Fatalf("UpdateDraft: %v", err)
	}
	if view.Draft.VideoType != media.VideoKindExternal {
		t.Fatalf("video type after returning to url mode: %q", view.Draft.VideoType)
	}
	res, err := h.video.Submit(ctx, v.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if row := res.Record.(*media.Video); row.VideoType != media.VideoKindExternal || row.VideoURL != src {
		t.Fatalf("unexpected record: %+v", row)
	}
	if h.uploader.count() != 0 {
		t.Fatalf("url submission uploaded %d files", h.uploader.count())
	}
}

func TestExplicitTypeWinsOverRestore(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	v, _ := h.video.OpenCreate(ctx)
	mp4 := append([]byte{0, 0, 0, 0x18}, []byte("ftypisom\x00\x00\x02\x00isomiso2")...)
	mp4 = append(mp4, make([]byte, 64)...)
	if _, err := h.video.SelectFile(ctx, v.ID, "a.mp4", int64(len(mp4)), bytes.NewReader(mp4)); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	urlMode, external := UploadModeURL, media.VideoKindExternal
	view, err := h.video.UpdateDraft(ctx, v.ID, DraftUpdate{Patch: media.Patch{VideoType: &external}, UploadMode: &urlMode})
	if err != nil {
		t.Fatalf("UpdateDraft: %v", err)
	}
	if view.Draft.VideoType != media.VideoKindExternal {
		t.Fatalf("video type: %q", view.Draft.VideoType)
	}
}

func TestUploadFailureKeepsFormOpen(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.uploader.err = errBackend

	p, _ := h.poster.OpenCreate(ctx)
	title := "Rally"
	_, _ = h.poster.UpdateDraft(ctx, p.ID, DraftUpdate{Patch: media.Patch{Title: &title}})
	img := pngBytes(t)
	_, _ = h.poster.SelectFile(ctx, p.ID, "rally.png", int64(len(img)), bytes.NewReader(img))

	res, err := h.poster.Submit(ctx, p.ID)
	if !errors.Is(err, errBackend) {
		t.Fatalf("want backend error, got %v", err)
	}
	if res.Form.State != StateSettled || res.Form.Outcome != OutcomeError || res.Form.Submitting {
		t.Fatalf("unexpected failed form: %+v", res.Form)
	}
	if res.Form.Draft.Title != title || res.Form.File == nil {
		t.Fatalf("draft must survive failure: %+v", res.Form)
	}
	notes := h.notes.All()
	if len(notes) != 1 || notes[0].Message != "Failed to save poster" || notes[0].Level != LevelError {
		t.Fatalf("unexpected notifications: %+v", notes)
	}
	if h.posters.creates != 0 {
		t.Fatalf("no write after failed upload")
	}

	h.uploader.err = nil
	if _, err := h.poster.Submit(ctx, p.ID); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if h.posters.creates != 1 {
		t.Fatalf("creates=%d", h.posters.creates)
	}
}

func TestWriteFailureReusesUploadedObject(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.posters.createErr = errBackend

	p, _ := h.poster.OpenCreate(ctx)
	title := "Rally"
	_, _ = h.poster.UpdateDraft(ctx, p.ID, DraftUpdate{Patch: media.Patch{Title: &title}})
	img := pngBytes(t)
	_, _ = h.poster.SelectFile(ctx, p.ID, "rally.png", int64(len(img)), bytes.NewReader(img))

	res, err := h.poster.Submit(ctx, p.ID)
	if !errors.Is(err, errBackend) {
		t.Fatalf("want backend error, got %v", err)
	}
	if res.Form.File != nil || res.Form.Draft.SourceURL == "" {
		t.Fatalf("uploaded url should replace the pending file: %+v", res.Form)
	}

	h.posters.createErr = nil
	if _, err := h.poster.Submit(ctx, p.ID); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if h.uploader.count() != 1 {
		t.Fatalf("resubmit must not upload again, uploads=%d", h.uploader.count())
	}
}

func TestSecondSubmitRejectedWhileInFlight(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.uploader.started = make(chan struct{})
	h.uploader.release = make(chan struct{})

	p, _ := h.poster.OpenCreate(ctx)
	title := "Rally"
	_, _ = h.poster.UpdateDraft(ctx, p.ID, DraftUpdate{Patch: media.Patch{Title: &title}})
	img := pngBytes(t)
	_, _ = h.poster.SelectFile(ctx, p.ID, "rally.png", int64(len(img)), bytes.NewReader(img))

	done := make(chan error, 1)
	go func() {
		_, err := h.poster.Submit(ctx, p.ID)
		done <- err
	}()
	<-h.uploader.started

	if _, err := h.poster.Submit(ctx, p.ID); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("want in-flight rejection, got %v", err)
	}
	if _, err := h.poster.UpdateDraft(ctx, p.ID, DraftUpdate{}); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("draft edits must wait, got %v", err)
	}
	v, _ := h.poster.Form(ctx, p.ID)
	if !v.Submitting || v.State != StateUploading {
		t.Fatalf("unexpected in-flight view: %+v", v)
	}

	close(h.uploader.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if h.uploader.count() != 1 || h.posters.creates != 1 {
		t.Fatalf("uploads=%d creates=%d", h.uploader.count(), h.posters.creates)
	}
}

func TestClosedFormResultDiscarded(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.uploader.started = make(chan struct{})
	h.uploader.release = make(chan struct{})

	p, _ := h.poster.OpenCreate(ctx)
	title := "Rally"
	_, _ = h.poster.UpdateDraft(ctx, p.ID, DraftUpdate{Patch: media.Patch{Title: &title}})
	img := pngBytes(t)
	_, _ = h.poster.SelectFile(ctx, p.ID, "rally.png", int64(len(img)), bytes.NewReader(img))

	type outcome struct {
		res *SubmitResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := h.poster.Submit(ctx, p.ID)
		done <- outcome{res, err}
	}()
	<-h.uploader.started
	if err := h.poster.Close(ctx, p.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	close(h.uploader.release)

	out := <-done
	if out.err != nil || out.res == nil || !out.res.Orphaned || out.res.Notification != nil {
		t.Fatalf("unexpected orphan result: %+v err=%v", out.res, out.err)
	}
	if len(h.notes.All()) != 0 {
		t.Fatalf("closed form must not notify: %+v", h.notes.All())
	}
	if _, err := h.poster.Form(ctx, p.ID); !errors.Is(err, ErrFormNotFound) {
		t.Fatalf("closed form resurrected: %v", err)
	}
}

func TestClosedFormFailureIsSilent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.uploader.started = make(chan struct{})
	h.uploader.release = make(chan struct{})
	h.uploader.err = errBackend

	p, _ := h.poster.OpenCreate(ctx)
	title := "Rally"
	_, _ = h.poster.UpdateDraft(ctx, p.ID, DraftUpdate{Patch: media.Patch{Title: &title}})
	img := pngBytes(t)
	_, _ = h.poster.SelectFile(ctx, p.ID, "rally.png", int64(len(img)), bytes.NewReader(img))

	done := make(chan *SubmitResult, 1)
	go func() {
		res, _ := h.poster.Submit(ctx, p.ID)
		done <- res
	}()
	<-h.uploader.started
	_ = h.poster.Close(ctx, p.ID)
	close(h.uploader.release)

	if res := <-done; res == nil || !res.Orphaned {
		t.Fatalf("want orphaned result, got %+v", res)
	}
	if len(h.notes.All()) != 0 {
		t.Fatalf("closed form must not notify")
	}
}

func TestEditPosterKeepsExistingImage(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	row := h.posters.seed(media.Draft{Title: "Old", SourceURL: "https://cdn.test/posters/a.png", PageAssignment: media.PageAbout, IsActive: true})

	v, err := h.poster.OpenEdit(ctx, row.ID)
	if err != nil {
		t.Fatalf("OpenEdit: %v", err)
	}
	if v.Mode != ModeEdit || v.TargetID == nil || *v.TargetID != row.ID || v.Preview != row.ImageURL {
		t.Fatalf("unexpected edit form: %+v", v)
	}
	title := "New"
	_, _ = h.poster.UpdateDraft(ctx, v.ID, DraftUpdate{Patch: media.Patch{Title: &title}})
	res, err := h.poster.Submit(ctx, v.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Notification.Message != "Poster updated successfully" {
		t.Fatalf("unexpected message %q", res.Notification.Message)
	}
	if h.posters.updates != 1 || h.uploader.count() != 0 {
		t.Fatalf("updates=%d uploads=%d", h.posters.updates, h.uploader.count())
	}
	got, _ := h.posters.Get(ctx, row.ID)
	if got.Title != "New" || got.ImageURL != "https://cdn.test/posters/a.png" || got.PageAssignment != media.PageAbout {
		t.Fatalf("unexpected record after edit: %+v", got)
	}
}

func TestEditUpdateFailureMessage(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	row := h.videos.seed(media.Draft{Title: "Old", SourceURL: "https://youtu.be/x", VideoType: media.VideoKindYouTube, PageAssignment: media.PageHome})
	h.videos.updateErr = errBackend

	v, _ := h.video.OpenEdit(ctx, row.ID)
	res, err := h.video.Submit(ctx, v.ID)
	if !errors.Is(err, errBackend) || res.Notification.Message != "Failed to save video" {
		t.Fatalf("unexpected failure: %+v err=%v", res, err)
	}
	if res.Form.Mode != ModeEdit {
		t.Fatalf("form should stay in edit mode")
	}
}

func TestToggleAndDelete(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	row := h.videos.seed(media.Draft{Title: "Clip", SourceURL: "https://youtu.be/x", VideoType: media.VideoKindYouTube, PageAssignment: media.PageHome, IsActive: true})

	n, err := h.video.Toggle(ctx, row.ID, false)
	if err != nil || n.Message != "Video deactivated" {
		t.Fatalf("deactivate: %+v err=%v", n, err)
	}
	n, _ = h.video.Toggle(ctx, row.ID, true)
	if n.Message != "Video activated" {
		t.Fatalf("activate: %+v", n)
	}
	n, err = h.video.Toggle(ctx, uuid.New(), true)
	if err == nil || n.Message != "Failed to update video" || n.Level != LevelError {
		t.Fatalf("toggle missing: %+v err=%v", n, err)
	}

	if _, err := h.video.Delete(ctx, row.ID, false); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("unconfirmed delete: %v", err)
	}
	if h.videos.deletes != 0 {
		t.Fatalf("unconfirmed delete reached the backend")
	}
	n, err = h.video.Delete(ctx, row.ID, true)
	if err != nil || n.Message != "Video deleted successfully" {
		t.Fatalf("delete: %+v err=%v", n, err)
	}
	n, err = h.video.Delete(ctx, row.ID, true)
	if err == nil || n.Message != "Failed to delete video" {
		t.Fatalf("second delete: %+v err=%v", n, err)
	}
	if got := len(h.notes.All()); got != 5 {
		t.Fatalf("want one notification per action, got %d", got)
	}
}

func TestFormKindChecked(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	v, _ := h.video.OpenCreate(ctx)
	if _, err := h.poster.Submit(ctx, v.ID); !errors.Is(err, ErrWrongKind) {
		t.Fatalf("want wrong kind, got %v", err)
	}
	if _, err := h.poster.Form(ctx, uuid.New()); !errors.Is(err, ErrFormNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestExpiredFormReleasesSpooledFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	forms := NewFormStore(logger.Nop(), 4, 50*time.Millisecond)
	posters := newFakeResource[media.Poster, *media.Poster]()
	c := NewController[media.Poster, *media.Poster](logger.Nop(), PosterSpec(), forms, posters, &fakeUploader{}, nil, dir)

	p, _ := c.OpenCreate(ctx)
	img := pngBytes(t)
	if _, err := c.SelectFile(ctx, p.ID, "a.png", int64(len(img)), bytes.NewReader(img)); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("want one spooled file, got %d", len(entries))
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		entries, _ = os.ReadDir(dir)
		if len(entries) == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("spooled file not removed after expiry")
		}
		time.Sleep(20 * time.Millisecond)
	}
	if _, err := c.Form(ctx, p.ID); !errors.Is(err, ErrFormNotFound) {
		t.Fatalf("expired form still reachable: %v", err)
	}
}
