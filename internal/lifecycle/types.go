package lifecycle

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/saarthak-backend/internal/domain/media"
	"github.com/yungbote/saarthak-backend/internal/platform/apierr"
)

// Kind is the managed resource a controller edits. Its value doubles as the
// URL segment of the admin routes.
type Kind string

const (
	KindVideo  Kind = "videos"
	KindPoster Kind = "posters"
)

func ParseKind(raw string) (Kind, bool) {
	switch Kind(raw) {
	case KindVideo, KindPoster:
		return Kind(raw), true
	default:
		return "", false
	}
}

type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateUploading  State = "uploading"
	StatePersisting State = "persisting"
	StateSettled    State = "settled"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// UploadMode selects where the source comes from on submit.
type UploadMode string

const (
	UploadModeURL  UploadMode = "url"
	UploadModeFile UploadMode = "file"
)

var (
	ErrFormNotFound         = apierr.New(http.StatusNotFound, "form_not_found", errors.New("form not found or expired"))
	ErrSubmissionInFlight   = apierr.New(http.StatusConflict, "submission_in_flight", errors.New("a submission is already in progress"))
	ErrConfirmationRequired = apierr.New(http.StatusPreconditionRequired, "confirmation_required", errors.New("Are you sure you want to delete this?"))
	ErrWrongKind            = apierr.New(http.StatusBadRequest, "wrong_kind", errors.New("form belongs to a different resource"))
)

type FileView struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// FormView is a point-in-time copy of a form safe to hand to callers.
type FormView struct {
	ID         uuid.UUID          `json:"id"`
	Kind       Kind               `json:"kind"`
	Mode       Mode               `json:"mode"`
	TargetID   *uuid.UUID         `json:"target_id,omitempty"`
	State      State              `json:"state"`
	Outcome    Outcome            `json:"outcome,omitempty"`
	Draft      media.Draft        `json:"draft"`
	UploadMode UploadMode         `json:"upload_mode"`
	File       *FileView          `json:"file,omitempty"`
	Preview    string             `json:"preview,omitempty"`
	Errors     apierr.FieldErrors `json:"errors,omitempty"`
	Submitting bool               `json:"submitting"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// DraftUpdate edits an open form. Nil fields are left unchanged.
type DraftUpdate struct {
	Patch      media.Patch `json:"patch"`
	UploadMode *UploadMode `json:"upload_mode,omitempty"`
}

// SubmitResult describes a settled submission. Orphaned results belong to a
// form that was closed while in flight and carry no notification.
type SubmitResult struct {
	Form         FormView      `json:"form"`
	Notification *Notification `json:"notification,omitempty"`
	Record       any           `json:"record,omitempty"`
	Orphaned     bool          `json:"orphaned,omitempty"`
}
