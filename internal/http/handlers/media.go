package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/saarthak-backend/internal/domain/media"
	"github.com/yungbote/saarthak-backend/internal/http/response"
	"github.com/yungbote/saarthak-backend/internal/lifecycle"
	"github.com/yungbote/saarthak-backend/internal/platform/ctxutil"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
	"github.com/yungbote/saarthak-backend/internal/presentation"
	"github.com/yungbote/saarthak-backend/internal/services"
)

type MediaHandler struct {
	log      *logger.Logger
	videos   services.VideoService
	posters  services.PosterService
	registry *lifecycle.Registry
}

func NewMediaHandler(
	log *logger.Logger,
	videos services.VideoService,
	posters services.PosterService,
	registry *lifecycle.Registry,
) *MediaHandler {
	return &MediaHandler{
		log:      log.With("handler", "MediaHandler"),
		videos:   videos,
		posters:  posters,
		registry: registry,
	}
}

func pageParam(c *gin.Context) (media.Page, bool) {
	page, err := media.ParsePage(c.DefaultQuery("page", string(media.PageHome)))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_page", err)
		return "", false
	}
	return page, true
}

func idParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

// GET /api/videos?page=
func (mh *MediaHandler) ListVideos(c *gin.Context) {
	page, ok := pageParam(c)
	if !ok {
		return
	}
	rows, err := mh.videos.ListVisible(c.Request.Context(), page)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"videos":  rows,
		"players": presentation.NewVideoViews(rows),
	})
}

// GET /api/posters?page=
func (mh *MediaHandler) ListPosters(c *gin.Context) {
	page, ok := pageParam(c)
	if !ok {
		return
	}
	rows, err := mh.posters.ListVisible(c.Request.Context(), page)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	out := gin.H{"posters": rows}
	if carousel := presentation.NewPosterCarousel(rows); carousel != nil {
		out["carousel"] = carousel.View
	}
	response.RespondOK(c, out)
}

// ListAll is the admin list for kind, inactive rows included.
func (mh *MediaHandler) ListAll(kind lifecycle.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			rows any
			err  error
		)
		switch kind {
		case lifecycle.KindVideo:
			rows, err = mh.videos.ListAll(c.Request.Context())
		case lifecycle.KindPoster:
			rows, err = mh.posters.ListAll(c.Request.Context())
		default:
			err = lifecycle.ErrWrongKind
		}
		if err != nil {
			response.RespondErr(c, err)
			return
		}
		response.RespondOK(c, gin.H{string(kind): rows})
	}
}

func (mh *MediaHandler) workflow(c *gin.Context, kind lifecycle.Kind) (lifecycle.Workflow, bool) {
	wf, ok := mh.registry.Workflow(kind)
	if !ok {
		response.RespondErr(c, lifecycle.ErrWrongKind)
		return nil, false
	}
	return wf, true
}

func (mh *MediaHandler) formWorkflow(c *gin.Context) (lifecycle.Workflow, uuid.UUID, bool) {
	formID, ok := idParam(c, "formID")
	if !ok {
		return nil, uuid.Nil, false
	}
	wf, err := mh.registry.ForForm(formID)
	if err != nil {
		response.RespondErr(c, err)
		return nil, uuid.Nil, false
	}
	return wf, formID, true
}

// POST /api/admin/{kind}/forms
func (mh *MediaHandler) OpenCreate(kind lifecycle.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		wf, ok := mh.workflow(c, kind)
		if !ok {
			return
		}
		view, err := wf.OpenCreate(c.Request.Context())
		if err != nil {
			response.RespondErr(c, err)
			return
		}
		response.RespondCreated(c, gin.H{"form": view})
	}
}

// POST /api/admin/{kind}/:id/forms
func (mh *MediaHandler) OpenEdit(kind lifecycle.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		wf, ok := mh.workflow(c, kind)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		view, err := wf.OpenEdit(c.Request.Context(), id)
		if err != nil {
			response.RespondErr(c, err)
			return
		}
		response.RespondCreated(c, gin.H{"form": view})
	}
}

// GET /api/admin/forms/:formID
func (mh *MediaHandler) GetForm(c *gin.Context) {
	wf, formID, ok := mh.formWorkflow(c)
	if !ok {
		return
	}
	view, err := wf.Form(c.Request.Context(), formID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"form": view})
}

// PATCH /api/admin/forms/:formID
func (mh *MediaHandler) UpdateDraft(c *gin.Context) {
	wf, formID, ok := mh.formWorkflow(c)
	if !ok {
		return
	}
	var req lifecycle.DraftUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	view, err := wf.UpdateDraft(c.Request.Context(), formID, req)
	if err != nil {
		response.RespondErr(c, err, withFormView(view))
		return
	}
	response.RespondOK(c, gin.H{"form": view})
}

// PUT /api/admin/forms/:formID/file
func (mh *MediaHandler) SelectFile(c *gin.Context) {
	wf, formID, ok := mh.formWorkflow(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", errors.New("a file is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()

	view, err := wf.SelectFile(c.Request.Context(), formID, fh.Filename, fh.Size, f)
	if err != nil {
		response.RespondErr(c, err, withFormView(view))
		return
	}
	response.RespondOK(c, gin.H{"form": view})
}

// POST /api/admin/forms/:formID/submit
func (mh *MediaHandler) Submit(c *gin.Context) {
	wf, formID, ok := mh.formWorkflow(c)
	if !ok {
		return
	}
	res, err := wf.Submit(c.Request.Context(), formID)
	if err != nil {
		mh.log.Warn("Submission failed", append(ctxutil.LogFields(c.Request.Context()), "form_id", formID, "error", err)...)
		var extra []func(*response.ErrorEnvelope)
		if res != nil {
			extra = append(extra, withFormView(res.Form))
			if res.Notification != nil {
				extra = append(extra, response.WithNotification(res.Notification))
			}
		}
		response.RespondErr(c, err, extra...)
		return
	}
	if res.Orphaned {
		response.RespondOK(c, gin.H{"orphaned": true})
		return
	}
	response.RespondOK(c, gin.H{
		"form":         res.Form,
		"notification": res.Notification,
		"record":       res.Record,
	})
}

// DELETE /api/admin/forms/:formID
func (mh *MediaHandler) CloseForm(c *gin.Context) {
	wf, formID, ok := mh.formWorkflow(c)
	if !ok {
		return
	}
	if err := wf.Close(c.Request.Context(), formID); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// PATCH /api/admin/{kind}/:id/active
func (mh *MediaHandler) SetActive(kind lifecycle.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		wf, ok := mh.workflow(c, kind)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req struct {
			IsActive *bool `json:"is_active"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("is_active is required"))
			return
		}
		n, err := wf.Toggle(c.Request.Context(), id, *req.IsActive)
		if err != nil {
			response.RespondErr(c, err, response.WithNotification(n))
			return
		}
		response.RespondOK(c, gin.H{"notification": n})
	}
}

// DELETE /api/admin/{kind}/:id?confirm=true
func (mh *MediaHandler) Delete(kind lifecycle.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		wf, ok := mh.workflow(c, kind)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		n, err := wf.Delete(c.Request.Context(), id, c.Query("confirm") == "true")
		if err != nil {
			if errors.Is(err, lifecycle.ErrConfirmationRequired) {
				response.RespondErr(c, err)
				return
			}
			response.RespondErr(c, err, response.WithNotification(n))
			return
		}
		response.RespondOK(c, gin.H{"notification": n})
	}
}

func withFormView(v lifecycle.FormView) func(*response.ErrorEnvelope) {
	return func(e *response.ErrorEnvelope) {
		if v.ID != uuid.Nil {
			e.Form = v
		}
	}
}
