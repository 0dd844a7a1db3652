package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/saarthak-backend/internal/http/response"
	"github.com/yungbote/saarthak-backend/internal/lifecycle"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
	"github.com/yungbote/saarthak-backend/internal/services"
)

// ContactObserver records the outcome of public submissions.
type ContactObserver interface {
	ObserveContact(err error)
}

type ContactHandler struct {
	log      *logger.Logger
	contacts services.ContactService
	inbox    *lifecycle.Inbox
	notifier lifecycle.Notifier
	observer ContactObserver
}

func NewContactHandler(
	log *logger.Logger,
	contacts services.ContactService,
	inbox *lifecycle.Inbox,
	notifier lifecycle.Notifier,
	observer ContactObserver,
) *ContactHandler {
	return &ContactHandler{
		log:      log.With("handler", "ContactHandler"),
		contacts: contacts,
		inbox:    inbox,
		notifier: notifier,
		observer: observer,
	}
}

func (ch *ContactHandler) notify(c *gin.Context, n lifecycle.Notification) lifecycle.Notification {
	if ch.notifier != nil {
		ch.notifier.Notify(c.Request.Context(), n)
	}
	return n
}

// POST /api/contact accepts JSON or a plain form post.
func (ch *ContactHandler) Submit(c *gin.Context) {
	var req services.ContactInput
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	source := map[string]any{"path": c.FullPath()}
	if ref := strings.TrimSpace(c.Request.Referer()); ref != "" {
		source["referer"] = ref
	}
	if ua := strings.TrimSpace(c.Request.UserAgent()); ua != "" {
		source["user_agent"] = ua
	}

	row, err := ch.contacts.Submit(c.Request.Context(), req, source)
	if ch.observer != nil {
		ch.observer.ObserveContact(err)
	}
	if err != nil {
		n := ch.notify(c, lifecycle.Notification{
			Level:   lifecycle.LevelError,
			Message: "Submission Failed",
			Action:  "submit",
			Kind:    "contacts",
		})
		response.RespondErr(c, err, response.WithNotification(n))
		return
	}
	n := ch.notify(c, lifecycle.Notification{
		Level:   lifecycle.LevelSuccess,
		Message: "Consultation Request Received",
		Action:  "submit",
		Kind:    "contacts",
	})
	response.RespondCreated(c, gin.H{"submission": gin.H{"id": row.ID}, "notification": n})
}

// GET /api/admin/contacts
func (ch *ContactHandler) List(c *gin.Context) {
	rows, err := ch.contacts.List(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"contacts": rows})
}

// POST /api/admin/contacts/:id/read
func (ch *ContactHandler) MarkRead(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	row, n, err := ch.inbox.MarkRead(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err, response.WithNotification(n))
		return
	}
	response.RespondOK(c, gin.H{"contact": row, "notification": n})
}
