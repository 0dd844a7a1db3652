package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/saarthak-backend/internal/domain/media"
	"github.com/yungbote/saarthak-backend/internal/platform/apierr"
	"github.com/yungbote/saarthak-backend/internal/platform/ctxutil"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
	"github.com/yungbote/saarthak-backend/internal/platform/objectstore"
)

// Resource is the query and mutation surface a controller drives.
type Resource[T media.Record] interface {
	Get(ctx context.Context, id uuid.UUID) (*T, error)
	Create(ctx context.Context, d media.Draft) (*T, error)
	Update(ctx context.Context, id uuid.UUID, p media.Patch) (*T, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*T, error)
}

type Uploader interface {
	UploadFile(ctx context.Context, bucket objectstore.Bucket, path string, file io.Reader) (string, error)
}

// Workflow is the kind-agnostic view of a Controller.
type Workflow interface {
	Kind() Kind
	OpenCreate(ctx context.Context) (FormView, error)
	OpenEdit(ctx context.Context, id uuid.UUID) (FormView, error)
	Form(ctx context.Context, formID uuid.UUID) (FormView, error)
	UpdateDraft(ctx context.Context, formID uuid.UUID, upd DraftUpdate) (FormView, error)
	SelectFile(ctx context.Context, formID uuid.UUID, name string, size int64, r io.Reader) (FormView, error)
	Submit(ctx context.Context, formID uuid.UUID) (*SubmitResult, error)
	Close(ctx context.Context, formID uuid.UUID) error
	Toggle(ctx context.Context, id uuid.UUID, active bool) (Notification, error)
	Delete(ctx context.Context, id uuid.UUID, confirmed bool) (Notification, error)
}

type Controller[T media.Record, P media.RecordPtr[T]] struct {
	spec     Spec
	log      *logger.Logger
	forms    *FormStore
	resource Resource[T]
	uploader Uploader
	notifier Notifier
	spoolDir string
	now      func() time.Time
}

func NewController[T media.Record, P media.RecordPtr[T]](
	log *logger.Logger,
	spec Spec,
	forms *FormStore,
	resource Resource[T],
	uploader Uploader,
	notifier Notifier,
	spoolDir string,
) *Controller[T, P] {
	return &Controller[T, P]{
		spec:     spec,
		log:      log.With("service", spec.Noun+"Lifecycle"),
		forms:    forms,
		resource: resource,
		uploader: uploader,
		notifier: notifier,
		spoolDir: spoolDir,
		now:      time.Now,
	}
}

func (c *Controller[T, P]) Kind() Kind { return c.spec.Kind }

func (c *Controller[T, P]) emit(ctx context.Context, level Level, action, message string) Notification {
	n := Notification{Level: level, Message: message, Action: action, Kind: string(c.spec.Kind)}
	if c.notifier != nil {
		c.notifier.Notify(ctx, n)
	}
	return n
}

func (c *Controller[T, P]) lookup(formID uuid.UUID) (*form, error) {
	f, ok := c.forms.get(formID)
	if !ok {
		return nil, ErrFormNotFound
	}
	if f.kind != c.spec.Kind {
		return nil, ErrWrongKind
	}
	return f, nil
}

func (c *Controller[T, P]) OpenCreate(ctx context.Context) (FormView, error) {
	f := &form{
		id:         uuid.New(),
		kind:       c.spec.Kind,
		mode:       ModeCreate,
		state:      StateIdle,
		draft:      media.NewDraft(),
		uploadMode: UploadModeURL,
		updatedAt:  c.now(),
	}
	if c.spec.Kind == KindVideo {
		f.draft.VideoType = media.VideoKindYouTube
	}
	v := f.view()
	c.forms.put(f)
	return v, nil
}

// OpenEdit loads the record and previews its current source.
func (c *Controller[T, P]) OpenEdit(ctx context.Context, id uuid.UUID) (FormView, error) {
	row, err := c.resource.Get(ctx, id)
	if err != nil {
		return FormView{}, err
	}
	rec := P(row)
	f := &form{
		id:         uuid.New(),
		kind:       c.spec.Kind,
		mode:       ModeEdit,
		targetID:   rec.Base().ID,
		state:      StateIdle,
		draft:      rec.ToDraft(),
		uploadMode: UploadModeURL,
		preview:    rec.Source(),
		updatedAt:  c.now(),
	}
	v := f.view()
	c.forms.put(f)
	return v, nil
}

func (c *Controller[T, P]) Form(ctx context.Context, formID uuid.UUID) (FormView, error) {
	f, err := c.lookup(formID)
	if err != nil {
		return FormView{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view(), nil
}

func (c *Controller[T, P]) UpdateDraft(ctx context.Context, formID uuid.UUID, upd DraftUpdate) (FormView, error) {
	f, err := c.lookup(formID)
	if err != nil {
		return FormView{}, err
	}
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return FormView{}, ErrSubmissionInFlight
	}
	if upd.UploadMode != nil {
		switch *upd.UploadMode {
		case UploadModeURL:
			if f.uploadMode == UploadModeFile && f.draft.VideoType == media.VideoKindUpload {
				f.draft.VideoType = f.urlVideoType
				if f.draft.VideoType == "" {
					f.draft.VideoType = media.VideoKindYouTube
				}
			}
		case UploadModeFile:
		default:
			f.mu.Unlock()
			return FormView{}, apierr.Validation(apierr.FieldErrors{"upload_mode": "Unknown upload mode"})
		}
		f.uploadMode = *upd.UploadMode
	}
	f.draft = upd.Patch.Apply(f.draft).Canonical()
	f.state, f.outcome, f.errors = StateIdle, OutcomeNone, nil
	f.updatedAt = c.now()
	v := f.view()
	f.mu.Unlock()

	c.forms.put(f)
	return v, nil
}

// SelectFile checks type and size and spools the file. A rejected file
// leaves any previously selected file in place.
func (c *Controller[T, P]) SelectFile(ctx context.Context, formID uuid.UUID, name string, size int64, r io.Reader) (FormView, error) {
	f, err := c.lookup(formID)
	if err != nil {
		return FormView{}, err
	}
	f.mu.Lock()
	busy := f.submitting
	f.mu.Unlock()
	if busy {
		return FormView{}, ErrSubmissionInFlight
	}

	pf, err := spool(c.spoolDir, c.spec.File, name, size, r)
	if err != nil {
		return FormView{}, err
	}

	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		pf.remove()
		return FormView{}, ErrSubmissionInFlight
	}
	old := f.file
	f.file = pf
	f.uploadMode = UploadModeFile
	f.preview = pf.name
	if f.draft.VideoType != media.VideoKindUpload {
		f.urlVideoType = f.draft.VideoType
	}
	if c.spec.OnFileSelected != nil {
		c.spec.OnFileSelected(&f.draft)
	}
	f.state, f.outcome, f.errors = StateIdle, OutcomeNone, nil
	f.updatedAt = c.now()
	v := f.view()
	f.mu.Unlock()
	old.remove()

	if !c.forms.owns(f) {
		pf.remove()
		return FormView{}, ErrFormNotFound
	}
	c.forms.put(f)
	return v, nil
}

func (c *Controller[T, P]) Close(ctx context.Context, formID uuid.UUID) error {
	if _, err := c.lookup(formID); err != nil {
		return err
	}
	c.forms.remove(formID)
	return nil
}

func (c *Controller[T, P]) setState(f *form, s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

// Submit runs Validating, then Uploading when a file is pending, then
// Persisting. A second Submit while one is in flight is rejected.
func (c *Controller[T, P]) Submit(ctx context.Context, formID uuid.UUID) (*SubmitResult, error) {
	f, err := c.lookup(formID)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	f.state = StateValidating
	f.draft = f.draft.Canonical()
	hasFile := f.hasFile()
	if fe := c.spec.Validate(f.draft, hasFile); len(fe) > 0 {
		f.state, f.outcome, f.errors = StateIdle, OutcomeNone, fe
		v := f.view()
		f.mu.Unlock()
		return &SubmitResult{Form: v}, apierr.Validation(fe)
	}
	f.submitting = true
	f.errors = nil
	draft := f.draft
	mode, target := f.mode, f.targetID
	var pending *pendingFile
	if hasFile {
		p := *f.file
		pending = &p
	}
	f.mu.Unlock()

	logFields := append(ctxutil.LogFields(ctx), "form_id", formID, "mode", mode)

	if pending != nil {
		c.setState(f, StateUploading)
		url, err := c.upload(ctx, pending)
		if err != nil {
			c.log.Warn("Upload failed", append(logFields, "error", err)...)
			return c.fail(ctx, f, err)
		}
		draft.SourceURL = url
		if c.spec.OnFileSelected != nil {
			c.spec.OnFileSelected(&draft)
		}
		// The object is stored; a resubmit after a write failure reuses it.
		f.mu.Lock()
		if f.file != nil && f.file.path == pending.path {
			f.file = nil
		}
		f.draft.SourceURL = url
		f.draft.VideoType = draft.VideoType
		f.preview = url
		f.mu.Unlock()
		pending.remove()
	}

	c.setState(f, StatePersisting)
	var row *T
	if mode == ModeEdit {
		row, err = c.resource.Update(ctx, target, media.PatchFromDraft(draft))
	} else {
		row, err = c.resource.Create(ctx, draft)
	}
	if err != nil {
		c.log.Warn("Write failed", append(logFields, "error", err)...)
		return c.fail(ctx, f, err)
	}

	if !c.forms.owns(f) {
		c.log.Debug("Discarding result of closed form", logFields...)
		return &SubmitResult{Orphaned: true, Record: row}, nil
	}
	c.forms.remove(formID)

	f.mu.Lock()
	f.state, f.outcome, f.submitting = StateSettled, OutcomeSuccess, false
	f.draft = P(row).ToDraft()
	f.updatedAt = c.now()
	v := f.view()
	f.mu.Unlock()

	msg := c.spec.Noun + " added successfully"
	action := "create"
	if mode == ModeEdit {
		msg = c.spec.Noun + " updated successfully"
		action = "update"
	}
	n := c.emit(ctx, LevelSuccess, action, msg)
	return &SubmitResult{Form: v, Notification: &n, Record: row}, nil
}

func (c *Controller[T, P]) upload(ctx context.Context, pf *pendingFile) (string, error) {
	if c.uploader == nil {
		return "", errors.New("no uploader configured")
	}
	file, err := os.Open(pf.path)
	if err != nil {
		return "", fmt.Errorf("open spooled file: %w", err)
	}
	defer file.Close()
	return c.uploader.UploadFile(ctx, c.spec.Bucket, objectPath(c.now(), pf.ext), file)
}

// fail settles f with an error. The form stays open with its draft intact.
func (c *Controller[T, P]) fail(ctx context.Context, f *form, cause error) (*SubmitResult, error) {
	if !c.forms.owns(f) {
		return &SubmitResult{Orphaned: true}, nil
	}
	f.mu.Lock()
	f.state, f.outcome, f.submitting = StateSettled, OutcomeError, false
	f.updatedAt = c.now()
	v := f.view()
	action := "create"
	if f.mode == ModeEdit {
		action = "update"
	}
	f.mu.Unlock()

	n := c.emit(ctx, LevelError, action, "Failed to save "+strings.ToLower(c.spec.Noun))
	return &SubmitResult{Form: v, Notification: &n}, cause
}

func (c *Controller[T, P]) Toggle(ctx context.Context, id uuid.UUID, active bool) (Notification, error) {
	if _, err := c.resource.SetActive(ctx, id, active); err != nil {
		return c.emit(ctx, LevelError, "toggle", "Failed to update "+strings.ToLower(c.spec.Noun)), err
	}
	state := "deactivated"
	if active {
		state = "activated"
	}
	return c.emit(ctx, LevelSuccess, "toggle", c.spec.Noun+" "+state), nil
}

// Delete removes the record once the caller has confirmed.
func (c *Controller[T, P]) Delete(ctx context.Context, id uuid.UUID, confirmed bool) (Notification, error) {
	if !confirmed {
		return Notification{}, ErrConfirmationRequired
	}
	if err := c.resource.Delete(ctx, id); err != nil {
		return c.emit(ctx, LevelError, "delete", "Failed to delete "+strings.ToLower(c.spec.Noun)), err
	}
	return c.emit(ctx, LevelSuccess, "delete", c.spec.Noun+" deleted successfully"), nil
}
