package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/saarthak-backend/internal/data/cache"
	"github.com/yungbote/saarthak-backend/internal/data/gateway"
	authrepo "github.com/yungbote/saarthak-backend/internal/data/repos/auth"
	userrepo "github.com/yungbote/saarthak-backend/internal/data/repos/user"
	"github.com/yungbote/saarthak-backend/internal/data/testutil"
	"github.com/yungbote/saarthak-backend/internal/domain/contact"
	"github.com/yungbote/saarthak-backend/internal/domain/media"
	httpH "github.com/yungbote/saarthak-backend/internal/http/handlers"
	httpMW "github.com/yungbote/saarthak-backend/internal/http/middleware"
	"github.com/yungbote/saarthak-backend/internal/lifecycle"
	"github.com/yungbote/saarthak-backend/internal/platform/localstore"
	"github.com/yungbote/saarthak-backend/internal/services"
	"github.com/yungbote/saarthak-backend/internal/web"
)

type stack struct {
	engine  *gin.Engine
	auth    services.AuthService
	users   services.UserService
	videos  services.VideoService
	posters services.PosterService
	notes   *lifecycle.Collector
}

func newStack(t *testing.T) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := testutil.Logger(t)
	db := testutil.DB(t)
	uRepo := userrepo.NewUserRepo(db, log)
	tRepo := authrepo.NewUserTokenRepo(db, log)
	auth := services.NewAuthService(db, log, uRepo, tRepo, "test-secret", 15*time.Minute, 24*time.Hour)
	users := services.NewUserService(log, uRepo)
	store := localstore.NewStore(log, t.TempDir(), "http://localhost:8080/media")
	gw := gateway.New(log, db, store, auth)
	c := cache.New(log, cache.NewMemoryStore(64, time.Minute), nil)

	videos := services.NewVideoService(log, gw, c)
	posters := services.NewPosterService(log, gw, c)
	contacts := services.NewContactService(log, gw, c)
	dashboard := services.NewDashboardService(log, gw, c)

	notes := &lifecycle.Collector{}
	forms := lifecycle.NewFormStore(log, 16, time.Minute)
	spool := t.TempDir()
	registry := lifecycle.NewRegistry(forms,
		lifecycle.NewController[media.Video, *media.Video](log, lifecycle.VideoSpec(), forms, videos, gw, notes, spool),
		lifecycle.NewController[media.Poster, *media.Poster](log, lifecycle.PosterSpec(), forms, posters, gw, notes, spool),
	)

	site, err := web.LoadSite()
	if err != nil {
		t.Fatalf("load site: %v", err)
	}
	renderer, err := web.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	am := httpMW.NewAuthMiddleware(log, auth)

	pages := httpH.NewPageHandler(log, httpH.PageDeps{
		Site:      site,
		Videos:    videos,
		Posters:   posters,
		Contacts:  contacts,
		Dashboard: dashboard,
		Auth:      auth,
		Users:     users,
		Guard:     am,
	})
	health := httpH.NewHealthHandler(map[string]httpH.Pinger{
		"db": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	engine := NewRouter(RouterConfig{
		Log:              log,
		HTMLRender:       renderer,
		Kinds:            []lifecycle.Kind{lifecycle.KindVideo, lifecycle.KindPoster},
		AuthMiddleware:   am,
		AuthHandler:      httpH.NewAuthHandler(log, auth, users),
		MediaHandler:     httpH.NewMediaHandler(log, videos, posters, registry),
		ContactHandler:   httpH.NewContactHandler(log, contacts, lifecycle.NewInbox(contacts, notes), notes, nil),
		DashboardHandler: httpH.NewDashboardHandler(dashboard),
		PageHandler:      pages,
		HealthHandler:    health,
	})
	return &stack{engine: engine, auth: auth, users: users, videos: videos, posters: posters, notes: notes}
}

// login registers email and returns an access token, granting admin when
// asked.
func (s *stack) login(t *testing.T, email string, admin bool) string {
	t.Helper()
	ctx := context.Background()
	_, err := s.auth.Register(ctx, services.RegisterInput{
		FullName:        "Test User",
		Email:           email,
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if admin {
		if _, err := s.users.SetAdminByEmail(ctx, email, true); err != nil {
			t.Fatalf("grant: %v", err)
		}
	}
	pair, err := s.auth.Login(ctx, email, "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return pair.AccessToken
}

func (s *stack) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	out := map[string]any{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, out
}

func dig(t *testing.T, m map[string]any, path ...string) any {
	t.Helper()
	var cur any = m
	for _, p := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			t.Fatalf("path %v: %q is not an object in %v", path, p, m)
		}
		cur = obj[p]
	}
	return cur
}

func TestHealthz(t *testing.T) {
	s := newStack(t)
	rec, body := s.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("healthz: %d %v", rec.Code, body)
	}
}

func TestPublicListsOnlyVisibleOrdered(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	mk := func(title string, page media.Page, order int, active bool) {
		d := media.Draft{
			Title:          title,
			SourceURL:      "https://youtu.be/dQw4w9WgXcQ",
			VideoType:      media.VideoKindYouTube,
			PageAssignment: page,
			DisplayOrder:   order,
			IsActive:       active,
		}
		if _, err := s.videos.Create(ctx, d); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}
	mk("second", media.PageHome, 2, true)
	mk("first", media.PageHome, 1, true)
	mk("hidden", media.PageHome, 0, false)
	mk("elsewhere", media.PageAbout, 0, true)

	rec, body := s.do(t, http.MethodGet, "/api/videos?page=home", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d %s", rec.Code, rec.Body.String())
	}
	rows := body["videos"].([]any)
	if len(rows) != 2 {
		t.Fatalf("want 2 visible videos, got %d", len(rows))
	}
	if rows[0].(map[string]any)["title"] != "first" || rows[1].(map[string]any)["title"] != "second" {
		t.Fatalf("unexpected order: %v", rows)
	}
	players := body["players"].([]any)
	src := players[0].(map[string]any)["src"]
	if src != "https://www.youtube.com/embed/dQw4w9WgXcQ?rel=0&modestbranding=1&playsinline=1" {
		t.Fatalf("embed src: %v", src)
	}

	rec, _ = s.do(t, http.MethodGet, "/api/posters?page=nowhere", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid page: got %d", rec.Code)
	}
}

func TestContactSubmission(t *testing.T) {
	s := newStack(t)

	rec, body := s.do(t, http.MethodPost, "/api/contact", "", map[string]any{
		"name":          "Asha Verma",
		"email":         "asha@example.com",
		"election_type": string(contact.ElectionVidhanSabha),
		"message":       "Need help with a campaign",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	if got := dig(t, body, "notification", "message"); got != "Consultation Request Received" {
		t.Fatalf("notification: %v", got)
	}

	rec, body = s.do(t, http.MethodPost, "/api/contact", "", map[string]any{
		"name":  "A",
		"email": "not-an-email",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid submit: %d %s", rec.Code, rec.Body.String())
	}
	if got := dig(t, body, "error", "fields", "name"); got != "Name must be at least 2 characters" {
		t.Fatalf("name message: %v", got)
	}
	if got := dig(t, body, "notification", "message"); got != "Submission Failed" {
		t.Fatalf("failure notification: %v", got)
	}

	token := s.login(t, "admin@saarthak.org", true)
	rec, body = s.do(t, http.MethodGet, "/api/admin/contacts", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list contacts: %d", rec.Code)
	}
	rows := body["contacts"].([]any)
	if len(rows) != 1 {
		t.Fatalf("invalid input must not be stored, got %d rows", len(rows))
	}
	id := rows[0].(map[string]any)["id"].(string)

	rec, body = s.do(t, http.MethodPost, "/api/admin/contacts/"+id+"/read", token, nil)
	if rec.Code != http.StatusOK || dig(t, body, "notification", "message") != "Marked as read" {
		t.Fatalf("mark read: %d %v", rec.Code, body)
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newStack(t)

	rec, body := s.do(t, http.MethodGet, "/api/admin/dashboard", "", nil)
	if rec.Code != http.StatusUnauthorized || dig(t, body, "error", "code") != "unauthorized" {
		t.Fatalf("anonymous: %d %v", rec.Code, body)
	}

	member := s.login(t, "member@saarthak.org", false)
	rec, _ = s.do(t, http.MethodGet, "/api/admin/dashboard", member, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member: %d", rec.Code)
	}

	admin := s.login(t, "admin@saarthak.org", true)
	rec, body = s.do(t, http.MethodGet, "/api/admin/dashboard", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: %d %s", rec.Code, rec.Body.String())
	}
	if _, ok := dig(t, body, "stats").(map[string]any); !ok {
		t.Fatalf("stats missing: %v", body)
	}
}

func TestLoginRejectsBadPasswordGenerically(t *testing.T) {
	s := newStack(t)
	s.login(t, "admin@saarthak.org", true)

	rec, body := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "admin@saarthak.org",
		"password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: %d", rec.Code)
	}
	if got := dig(t, body, "error", "message"); got != "Invalid email or password" {
		t.Fatalf("message: %v", got)
	}
}

func TestVideoFormLifecycle(t *testing.T) {
	s := newStack(t)
	token := s.login(t, "admin@saarthak.org", true)

	rec, body := s.do(t, http.MethodPost, "/api/admin/videos/forms", token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("open: %d %s", rec.Code, rec.Body.String())
	}
	formID := dig(t, body, "form", "id").(string)

	// Empty title is rejected before anything is written.
	rec, body = s.do(t, http.MethodPost, "/api/admin/forms/"+formID+"/submit", token, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid submit: %d %s", rec.Code, rec.Body.String())
	}
	if got := dig(t, body, "error", "fields", "title"); got != "Title is required" {
		t.Fatalf("title message: %v", got)
	}
	if dig(t, body, "form", "id") != formID {
		t.Fatalf("form should stay open: %v", body)
	}

	rec, _ = s.do(t, http.MethodPatch, "/api/admin/forms/"+formID, token, map[string]any{
		"patch": map[string]any{
			"title":      "Campaign launch",
			"source_url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			"video_type": "youtube",
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: %d %s", rec.Code, rec.Body.String())
	}

	rec, body = s.do(t, http.MethodPost, "/api/admin/forms/"+formID+"/submit", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	if got := dig(t, body, "notification", "message"); got != "Video added successfully" {
		t.Fatalf("notification: %v", got)
	}
	id := dig(t, body, "record", "id").(string)

	// The settled form is gone.
	rec, _ = s.do(t, http.MethodPost, "/api/admin/forms/"+formID+"/submit", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("resubmit settled form: %d", rec.Code)
	}

	rec, body = s.do(t, http.MethodPatch, "/api/admin/videos/"+id+"/active", token, map[string]bool{"is_active": false})
	if rec.Code != http.StatusOK || dig(t, body, "notification", "message") != "Video deactivated" {
		t.Fatalf("toggle: %d %v", rec.Code, body)
	}

	rec, body = s.do(t, http.MethodDelete, "/api/admin/videos/"+id, token, nil)
	if rec.Code != http.StatusPreconditionRequired {
		t.Fatalf("unconfirmed delete: %d %v", rec.Code, body)
	}
	rec, body = s.do(t, http.MethodDelete, "/api/admin/videos/"+id+"?confirm=true", token, nil)
	if rec.Code != http.StatusOK || dig(t, body, "notification", "message") != "Video deleted successfully" {
		t.Fatalf("delete: %d %v", rec.Code, body)
	}

	rows, err := s.videos.ListAll(context.Background())
	if err != nil || len(rows) != 0 {
		t.Fatalf("after delete: %v %d", err, len(rows))
	}

	var messages []string
	for _, n := range s.notes.All() {
		messages = append(messages, n.Message)
	}
	want := []string{"Video added successfully", "Video deactivated", "Video deleted successfully"}
	if strings.Join(messages, "|") != strings.Join(want, "|") {
		t.Fatalf("notifications: got %v want %v", messages, want)
	}
}

func TestFormOfOtherKindIsRejected(t *testing.T) {
	s := newStack(t)
	token := s.login(t, "admin@saarthak.org", true)

	rec, _ := s.do(t, http.MethodPost, "/api/admin/posters/"+uuid.NewString()+"/forms", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("edit missing poster: %d", rec.Code)
	}
	rec, _ = s.do(t, http.MethodPatch, "/api/admin/forms/"+uuid.NewString(), token, map[string]any{"patch": map[string]any{}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown form: %d", rec.Code)
	}
}

func TestPublicPagesRender(t *testing.T) {
	s := newStack(t)
	for _, path := range []string{"/", "/services", "/packages", "/about", "/contact", "/legal"} {
		rec, _ := s.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "SAARTHAK") {
			t.Fatalf("%s: site name missing", path)
		}
	}
	rec, _ := s.do(t, http.MethodGet, "/no-such-page", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("not found page: %d", rec.Code)
	}
	rec, body := s.do(t, http.MethodGet, "/api/no-such-route", "", nil)
	if rec.Code != http.StatusNotFound || dig(t, body, "error", "code") != "not_found" {
		t.Fatalf("api not found: %d %v", rec.Code, body)
	}
}

func TestAdminPagesUseSessionCookie(t *testing.T) {
	s := newStack(t)
	token := s.login(t, "admin@saarthak.org", true)

	get := func(path string, cookie string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: httpMW.SessionCookie, Value: cookie})
		}
		rec := httptest.NewRecorder()
		s.engine.ServeHTTP(rec, req)
		return rec
	}

	if rec := get("/admin/videos", ""); rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin" {
		t.Fatalf("anonymous admin page: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if rec := get("/admin", token); rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/dashboard" {
		t.Fatalf("signed-in login page: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	for _, path := range []string{"/admin/dashboard", "/admin/videos", "/admin/posters", "/admin/contacts", "/admin/content"} {
		rec := get(path, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: %d", path, rec.Code)
		}
	}
	if rec := get("/admin/posters", token); !strings.Contains(rec.Body.String(), "No posters yet") {
		t.Fatalf("empty poster state missing")
	}
}

func TestAdminLoginFormSetsCookie(t *testing.T) {
	s := newStack(t)
	s.login(t, "admin@saarthak.org", true)
	s.login(t, "member@saarthak.org", false)

	post := func(email string) *httptest.ResponseRecorder {
		form := "email=" + email + "&password=secret1"
		req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		s.engine.ServeHTTP(rec, req)
		return rec
	}

	rec := post("admin@saarthak.org")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("admin login: %d", rec.Code)
	}
	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == httpMW.SessionCookie && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("session cookie not set")
	}

	rec = post("member@saarthak.org")
	if rec.Code != http.StatusForbidden || !strings.Contains(rec.Body.String(), "Admin privileges required") {
		t.Fatalf("member login: %d", rec.Code)
	}
}

func TestServerShutsDownOnCancel(t *testing.T) {
	srv := NewServer(RouterConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
