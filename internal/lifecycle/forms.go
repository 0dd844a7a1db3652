package lifecycle

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yungbote/saarthak-backend/internal/domain/media"
	"github.com/yungbote/saarthak-backend/internal/platform/apierr"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
)

const (
	DefaultFormCapacity = 256
	DefaultFormTTL      = 30 * time.Minute
)

type pendingFile struct {
	path        string
	name        string
	ext         string
	size        int64
	contentType string
}

func (p *pendingFile) remove() {
	if p != nil && p.path != "" {
		_ = os.Remove(p.path)
	}
}

type form struct {
	mu sync.Mutex

	id         uuid.UUID
	kind       Kind
	mode       Mode
	targetID   uuid.UUID
	state      State
	outcome    Outcome
	draft      media.Draft
	uploadMode UploadMode
	file       *pendingFile
	preview    string
	errors     apierr.FieldErrors
	submitting bool
	updatedAt  time.Time

	// urlVideoType is the video type in effect before a file was selected,
	// restored when the form goes back to URL mode.
	urlVideoType media.VideoKind
}

func (f *form) hasFile() bool {
	return f.uploadMode == UploadModeFile && f.file != nil
}

// view must be called with f.mu held.
func (f *form) view() FormView {
	v := FormView{
		ID:         f.id,
		Kind:       f.kind,
		Mode:       f.mode,
		State:      f.state,
		Outcome:    f.outcome,
		Draft:      f.draft,
		UploadMode: f.uploadMode,
		Preview:    f.preview,
		Submitting: f.submitting,
		UpdatedAt:  f.updatedAt,
	}
	if f.mode == ModeEdit {
		id := f.targetID
		v.TargetID = &id
	}
	if f.file != nil {
		v.File = &FileView{Name: f.file.name, Size: f.file.size, ContentType: f.file.contentType}
	}
	if len(f.errors) > 0 {
		v.Errors = apierr.FieldErrors{}
		for k, msg := range f.errors {
			v.Errors[k] = msg
		}
	}
	return v
}

// FormStore holds open forms for every kind. Idle forms expire after the TTL
// and their spooled files are removed with them.
type FormStore struct {
	lru *expirable.LRU[uuid.UUID, *form]
	log *logger.Logger
}

func NewFormStore(log *logger.Logger, capacity int, ttl time.Duration) *FormStore {
	if capacity <= 0 {
		capacity = DefaultFormCapacity
	}
	if ttl <= 0 {
		ttl = DefaultFormTTL
	}
	s := &FormStore{log: log.With("service", "FormStore")}
	s.lru = expirable.NewLRU[uuid.UUID, *form](capacity, s.onEvict, ttl)
	return s
}

func (s *FormStore) onEvict(id uuid.UUID, f *form) {
	f.mu.Lock()
	file := f.file
	f.file = nil
	f.mu.Unlock()
	file.remove()
	s.log.Debug("Form released", "form_id", id)
}

func (s *FormStore) put(f *form) { s.lru.Add(f.id, f) }

func (s *FormStore) get(id uuid.UUID) (*form, bool) { return s.lru.Get(id) }

// owns reports whether f is still the live form for its id.
func (s *FormStore) owns(f *form) bool {
	cur, ok := s.lru.Peek(f.id)
	return ok && cur == f
}

func (s *FormStore) remove(id uuid.UUID) bool { return s.lru.Remove(id) }

func (s *FormStore) KindOf(id uuid.UUID) (Kind, bool) {
	f, ok := s.lru.Peek(id)
	if !ok {
		return "", false
	}
	return f.kind, true
}

func (s *FormStore) Len() int { return s.lru.Len() }
