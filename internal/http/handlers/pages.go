package handlers

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/saarthak-backend/internal/domain/contact"
	"github.com/yungbote/saarthak-backend/internal/domain/media"
	"github.com/yungbote/saarthak-backend/internal/http/middleware"
	"github.com/yungbote/saarthak-backend/internal/http/response"
	"github.com/yungbote/saarthak-backend/internal/platform/ctxutil"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
	"github.com/yungbote/saarthak-backend/internal/services"
	"github.com/yungbote/saarthak-backend/internal/web"
)

const (
	msgAccessDenied   = "Access denied. Admin privileges required."
	msgAccountCreated = "Account created! Contact admin for access."
	msgPasswordSaved  = "Password updated successfully"
)

type PageDeps struct {
	Site      *web.Site
	Videos    services.VideoService
	Posters   services.PosterService
	Contacts  services.ContactService
	Dashboard services.DashboardService
	Auth      services.AuthService
	Users     services.UserService
	Guard     *middleware.AuthMiddleware
}

// PageHandler renders the server-side pages. Failed queries on public pages
// render as empty sections; admin lists show their empty state.
type PageHandler struct {
	log *logger.Logger
	PageDeps
}

func NewPageHandler(log *logger.Logger, deps PageDeps) *PageHandler {
	return &PageHandler{log: log.With("handler", "PageHandler"), PageDeps: deps}
}

func (ph *PageHandler) render(c *gin.Context, status int, name, title string, body any) {
	page := web.Page{Title: title, Path: c.Request.URL.Path, Site: ph.Site, Body: body}
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.IsAdmin && strings.HasPrefix(name, "admin_") {
		page.Admin = web.NewAdminChrome(rd.Email)
	}
	c.HTML(status, name, page)
}

func (ph *PageHandler) queryFailed(ctx context.Context, what string, err error) {
	ph.log.Warn("Page query failed", append(ctxutil.LogFields(ctx), "query", what, "error", err)...)
}

// mediaFor loads the visible videos and posters of page concurrently.
func (ph *PageHandler) mediaFor(ctx context.Context, page media.Page) web.MediaSection {
	var (
		videos  []media.Video
		posters []media.Poster
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := ph.Videos.ListVisible(gctx, page)
		if err != nil {
			ph.queryFailed(ctx, "videos", err)
			return nil
		}
		videos = rows
		return nil
	})
	g.Go(func() error {
		rows, err := ph.Posters.ListVisible(gctx, page)
		if err != nil {
			ph.queryFailed(ctx, "posters", err)
			return nil
		}
		posters = rows
		return nil
	})
	_ = g.Wait()
	return web.NewMediaSection(videos, posters)
}

func contactBody() web.ContactBody {
	return web.ContactBody{ElectionTypes: contact.ElectionTypes()}
}

func (ph *PageHandler) Home(c *gin.Context) {
	body := web.HomeBody{
		MediaSection: ph.mediaFor(c.Request.Context(), media.PageHome),
		ContactBody:  contactBody(),
	}
	ph.render(c, http.StatusOK, web.PageHome, "", body)
}

func (ph *PageHandler) Services(c *gin.Context) {
	ph.render(c, http.StatusOK, web.PageServices, "Services", ph.mediaFor(c.Request.Context(), media.PageService))
}

func (ph *PageHandler) About(c *gin.Context) {
	ph.render(c, http.StatusOK, web.PageAbout, "About Us", ph.mediaFor(c.Request.Context(), media.PageAbout))
}

func (ph *PageHandler) Packages(c *gin.Context) {
	ph.render(c, http.StatusOK, web.PagePackages, "Packages", nil)
}

func (ph *PageHandler) Contact(c *gin.Context) {
	ph.render(c, http.StatusOK, web.PageContact, "Contact", contactBody())
}

func (ph *PageHandler) Legal(c *gin.Context) {
	active := c.Query("doc")
	if _, ok := ph.Site.LegalDoc(active); !ok && len(ph.Site.Legal) > 0 {
		active = ph.Site.Legal[0].ID
	}
	ph.render(c, http.StatusOK, web.PageLegal, "Legal", web.LegalBody{Active: active, Docs: ph.Site.Legal})
}

// NotFound answers unknown API paths with the JSON envelope and everything
// else with the not-found page.
func (ph *PageHandler) NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		response.RespondError(c, http.StatusNotFound, "not_found", errors.New("route not found"))
		return
	}
	ph.render(c, http.StatusNotFound, web.PageNotFound, "Page Not Found", nil)
}

// GET /admin
func (ph *PageHandler) AdminLogin(c *gin.Context) {
	if rd, ok := ph.Guard.Resolve(c); ok && rd.IsAdmin {
		c.Redirect(http.StatusSeeOther, "/admin/dashboard")
		return
	}
	ph.render(c, http.StatusOK, web.PageAdminLogin, "Admin Login", web.LoginBody{})
}

// POST /admin/login
func (ph *PageHandler) AdminLoginSubmit(c *gin.Context) {
	ctx := c.Request.Context()
	pair, err := ph.Auth.Login(ctx, c.PostForm("email"), c.PostForm("password"))
	if err != nil {
		status, apiErr := response.Classify(err)
		ph.render(c, status, web.PageAdminLogin, "Admin Login", web.LoginBody{Error: apiErr.Message})
		return
	}
	sessCtx, err := ph.Auth.SetContextFromToken(ctx, pair.AccessToken)
	rd := ctxutil.GetRequestData(sessCtx)
	if err != nil || rd == nil || !rd.IsAdmin {
		if err == nil {
			_ = ph.Auth.Logout(sessCtx)
		}
		ph.render(c, http.StatusForbidden, web.PageAdminLogin, "Admin Login", web.LoginBody{Error: msgAccessDenied})
		return
	}
	middleware.SetSession(c, pair.AccessToken, pair.ExpiresIn)
	c.Redirect(http.StatusSeeOther, "/admin/dashboard")
}

// POST /admin/signup
func (ph *PageHandler) AdminSignup(c *gin.Context) {
	in := services.RegisterInput{
		FullName:        c.PostForm("name"),
		Email:           c.PostForm("email"),
		Password:        c.PostForm("password"),
		ConfirmPassword: c.PostForm("confirm_password"),
	}
	if _, err := ph.Auth.Register(c.Request.Context(), in); err != nil {
		status, apiErr := response.Classify(err)
		ph.render(c, status, web.PageAdminLogin, "Admin Login", web.LoginBody{Error: firstMessage(apiErr)})
		return
	}
	ph.render(c, http.StatusCreated, web.PageAdminLogin, "Admin Login", web.LoginBody{Notice: msgAccountCreated})
}

// POST /admin/logout
func (ph *PageHandler) AdminLogout(c *gin.Context) {
	if _, ok := ph.Guard.Resolve(c); ok {
		if err := ph.Auth.Logout(c.Request.Context()); err != nil {
			ph.log.Warn("Logout failed", "error", err)
		}
	}
	middleware.ClearSession(c)
	c.Redirect(http.StatusSeeOther, middleware.AdminLoginPath)
}

func (ph *PageHandler) AdminReset(c *gin.Context) {
	ph.render(c, http.StatusOK, web.PageAdminReset, "Update Password", web.LoginBody{})
}

// POST /admin/reset-password
func (ph *PageHandler) AdminResetSubmit(c *gin.Context) {
	err := ph.Users.UpdatePassword(c.Request.Context(), services.PasswordInput{
		NewPassword:     c.PostForm("new_password"),
		ConfirmPassword: c.PostForm("confirm_password"),
	})
	if err != nil {
		status, apiErr := response.Classify(err)
		ph.render(c, status, web.PageAdminReset, "Update Password", web.LoginBody{Error: firstMessage(apiErr)})
		return
	}
	ph.render(c, http.StatusOK, web.PageAdminReset, "Update Password", web.LoginBody{Notice: msgPasswordSaved})
}

func (ph *PageHandler) AdminDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		stats    services.DashboardStats
		contacts []contact.Submission
		videos   []media.Video
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := ph.Dashboard.Stats(gctx)
		if err != nil {
			ph.queryFailed(ctx, "dashboard", err)
			return nil
		}
		stats = *s
		return nil
	})
	g.Go(func() error {
		rows, err := ph.Contacts.List(gctx)
		if err != nil {
			ph.queryFailed(ctx, "contacts", err)
			return nil
		}
		contacts = rows
		return nil
	})
	g.Go(func() error {
		rows, err := ph.Videos.ListAll(gctx)
		if err != nil {
			ph.queryFailed(ctx, "videos", err)
			return nil
		}
		videos = rows
		return nil
	})
	_ = g.Wait()
	ph.render(c, http.StatusOK, web.PageAdminDash, "Dashboard", web.NewDashboardBody(stats, contacts, videos))
}

func (ph *PageHandler) AdminVideos(c *gin.Context) {
	rows, err := ph.Videos.ListAll(c.Request.Context())
	if err != nil {
		ph.queryFailed(c.Request.Context(), "videos", err)
	}
	ph.render(c, http.StatusOK, web.PageAdminMedia, "Videos", web.NewVideoList(rows, err != nil))
}

func (ph *PageHandler) AdminPosters(c *gin.Context) {
	rows, err := ph.Posters.ListAll(c.Request.Context())
	if err != nil {
		ph.queryFailed(c.Request.Context(), "posters", err)
	}
	ph.render(c, http.StatusOK, web.PageAdminMedia, "Posters", web.NewPosterList(rows, err != nil))
}

func (ph *PageHandler) AdminContacts(c *gin.Context) {
	rows, err := ph.Contacts.List(c.Request.Context())
	if err != nil {
		ph.queryFailed(c.Request.Context(), "contacts", err)
	}
	ph.render(c, http.StatusOK, web.PageAdminContacts, "Contact Submissions", web.NewContactsBody(rows, err != nil))
}

func (ph *PageHandler) AdminContent(c *gin.Context) {
	ph.render(c, http.StatusOK, web.PageAdminContent, "Content", nil)
}

// firstMessage picks one field message for forms that show a single error.
func firstMessage(e response.APIError) string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return e.Fields[keys[0]]
}
