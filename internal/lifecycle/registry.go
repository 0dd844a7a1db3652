package lifecycle

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/saarthak-backend/internal/domain/contact"
)

// Registry routes admin requests to the workflow for a kind or a form.
type Registry struct {
	forms     *FormStore
	workflows map[Kind]Workflow
}

func NewRegistry(forms *FormStore, workflows ...Workflow) *Registry {
	r := &Registry{forms: forms, workflows: make(map[Kind]Workflow, len(workflows))}
	for _, w := range workflows {
		r.workflows[w.Kind()] = w
	}
	return r
}

func (r *Registry) Workflow(kind Kind) (Workflow, bool) {
	w, ok := r.workflows[kind]
	return w, ok
}

func (r *Registry) ForForm(formID uuid.UUID) (Workflow, error) {
	kind, ok := r.forms.KindOf(formID)
	if !ok {
		return nil, ErrFormNotFound
	}
	w, ok := r.workflows[kind]
	if !ok {
		return nil, ErrFormNotFound
	}
	return w, nil
}

// ContactMarker is the contact write the inbox drives.
type ContactMarker interface {
	MarkRead(ctx context.Context, id uuid.UUID) (*contact.Submission, error)
}

// Inbox wraps contact actions with their notifications.
type Inbox struct {
	contacts ContactMarker
	notifier Notifier
}

func NewInbox(contacts ContactMarker, notifier Notifier) *Inbox {
	return &Inbox{contacts: contacts, notifier: notifier}
}

func (in *Inbox) MarkRead(ctx context.Context, id uuid.UUID) (*contact.Submission, Notification, error) {
	row, err := in.contacts.MarkRead(ctx, id)
	n := Notification{Level: LevelSuccess, Message: "Marked as read", Action: "mark_read", Kind: "contacts"}
	if err != nil {
		n.Level, n.Message = LevelError, "Failed to update submission"
	}
	if in.notifier != nil {
		in.notifier.Notify(ctx, n)
	}
	return row, n, err
}
