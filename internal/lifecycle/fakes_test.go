package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/saarthak-backend/internal/domain/media"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
	"github.com/yungbote/saarthak-backend/internal/platform/objectstore"
)

var errBackend = errors.New("backend rejected write")

type fakeResource[T media.Record, P media.RecordPtr[T]] struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]*T
	createErr error
	updateErr error
	creates   int
	updates   int
	deletes   int
	toggles   int
	lastPatch media.Patch
}

func newFakeResource[T media.Record, P media.RecordPtr[T]]() *fakeResource[T, P] {
	return &fakeResource[T, P]{rows: map[uuid.UUID]*T{}}
}

func (r *fakeResource[T, P]) seed(d media.Draft) *T {
	r.mu.Lock()
	defer r.mu.Unlock()
	var row T
	P(&row).ApplyDraft(d)
	P(&row).Base().ID = uuid.New()
	r.rows[P(&row).Base().ID] = &row
	return &row
}

func (r *fakeResource[T, P]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *row
	return &cp, nil
}

func (r *fakeResource[T, P]) Create(ctx context.Context, d media.Draft) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return nil, r.createErr
	}
	var row T
	P(&row).ApplyDraft(d)
	P(&row).Base().ID = uuid.New()
	r.rows[P(&row).Base().ID] = &row
	cp := row
	return &cp, nil
}

func (r *fakeResource[T, P]) Update(ctx context.Context, id uuid.UUID, p media.Patch) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	r.lastPatch = p
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	row, ok := r.rows[id]
	if !ok {
		return nil, errors.New("not found")
	}
	P(row).ApplyDraft(p.Apply(P(row).ToDraft()))
	cp := *row
	return &cp, nil
}

func (r *fakeResource[T, P]) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes++
	if _, ok := r.rows[id]; !ok {
		return errors.New("not found")
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeResource[T, P]) SetActive(ctx context.Context, id uuid.UUID, active bool) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toggles++
	row, ok := r.rows[id]
	if !ok {
		return nil, errors.New("not found")
	}
	P(row).Base().IsActive = active
	cp := *row
	return &cp, nil
}

type upload struct {
	bucket objectstore.Bucket
	path   string
	size   int
}

type fakeUploader struct {
	mu      sync.Mutex
	uploads []upload
	err     error
	started chan struct{}
	release chan struct{}
}

func (u *fakeUploader) UploadFile(ctx context.Context, bucket objectstore.Bucket, path string, file io.Reader) (string, error) {
	b, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	u.mu.Lock()
	u.uploads = append(u.uploads, upload{bucket: bucket, path: path, size: len(b)})
	started, release, uerr := u.started, u.release, u.err
	u.mu.Unlock()
	if started != nil {
		started <- struct{}{}
		<-release
	}
	if uerr != nil {
		return "", uerr
	}
	return "https://cdn.test/" + string(bucket) + "/" + path, nil
}

func (u *fakeUploader) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.uploads)
}

type harness struct {
	forms    *FormStore
	notes    *Collector
	uploader *fakeUploader
	videos   *fakeResource[media.Video, *media.Video]
	posters  *fakeResource[media.Poster, *media.Poster]
	video    *Controller[media.Video, *media.Video]
	poster   *Controller[media.Poster, *media.Poster]
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.Nop()
	h := &harness{
		forms:    NewFormStore(log, 16, 0),
		notes:    &Collector{},
		uploader: &fakeUploader{},
		videos:   newFakeResource[media.Video, *media.Video](),
		posters:  newFakeResource[media.Poster, *media.Poster](),
	}
	dir := t.TempDir()
	h.video = NewController[media.Video, *media.Video](log, VideoSpec(), h.forms, h.videos, h.uploader, h.notes, dir)
	h.poster = NewController[media.Poster, *media.Poster](log, PosterSpec(), h.forms, h.posters, h.uploader, h.notes, dir)
	return h
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

