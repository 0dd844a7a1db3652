package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/saarthak-backend/internal/http/handlers"
	httpMW "github.com/yungbote/saarthak-backend/internal/http/middleware"
	"github.com/yungbote/saarthak-backend/internal/lifecycle"
	"github.com/yungbote/saarthak-backend/internal/observability"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string
	Metrics        *observability.Metrics
	MetricsHandler http.Handler
	HTMLRender     render.HTMLRender
	MaxUploadBytes int64
	MediaRoot      string
	Kinds          []lifecycle.Kind

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler      *httpH.AuthHandler
	MediaHandler     *httpH.MediaHandler
	ContactHandler   *httpH.ContactHandler
	DashboardHandler *httpH.DashboardHandler
	PageHandler      *httpH.PageHandler
	HealthHandler    *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	if cfg.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = cfg.MaxUploadBytes
	}
	if cfg.HTMLRender != nil {
		r.HTMLRender = cfg.HTMLRender
	}

	// Health / metrics
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}
	// Locally stored uploads
	if cfg.MediaRoot != "" {
		r.Static("/media", cfg.MediaRoot)
	}

	api := r.Group("/api")
	{
		// Public content
		if cfg.MediaHandler != nil {
			api.GET("/videos", cfg.MediaHandler.ListVideos)
			api.GET("/posters", cfg.MediaHandler.ListPosters)
		}
		if cfg.ContactHandler != nil {
			api.POST("/contact", cfg.ContactHandler.Submit)
		}

		// Auth
		if cfg.AuthHandler != nil {
			api.POST("/auth/login", cfg.AuthHandler.Login)
			api.POST("/auth/signup", cfg.AuthHandler.Signup)
			api.POST("/auth/refresh", cfg.AuthHandler.Refresh)
			if cfg.AuthMiddleware != nil {
				api.GET("/auth/session", cfg.AuthMiddleware.OptionalAuth(), cfg.AuthHandler.Session)
				api.POST("/auth/logout", cfg.AuthMiddleware.RequireAuth(), cfg.AuthHandler.Logout)
				api.POST("/auth/password", cfg.AuthMiddleware.RequireAuth(), cfg.AuthHandler.UpdatePassword)
			}
		}
	}

	if cfg.AuthMiddleware != nil {
		admin := api.Group("/admin")
		admin.Use(cfg.AuthMiddleware.RequireAdmin())
		{
			if cfg.DashboardHandler != nil {
				admin.GET("/dashboard", cfg.DashboardHandler.Stats)
			}
			if cfg.ContactHandler != nil {
				admin.GET("/contacts", cfg.ContactHandler.List)
				admin.POST("/contacts/:id/read", cfg.ContactHandler.MarkRead)
			}
			if mh := cfg.MediaHandler; mh != nil {
				admin.GET("/forms/:formID", mh.GetForm)
				admin.PATCH("/forms/:formID", mh.UpdateDraft)
				admin.PUT("/forms/:formID/file", mh.SelectFile)
				admin.POST("/forms/:formID/submit", mh.Submit)
				admin.DELETE("/forms/:formID", mh.CloseForm)

				for _, kind := range cfg.Kinds {
					g := admin.Group("/" + string(kind))
					g.GET("", mh.ListAll(kind))
					g.POST("/forms", mh.OpenCreate(kind))
					g.POST("/:id/forms", mh.OpenEdit(kind))
					g.PATCH("/:id/active", mh.SetActive(kind))
					g.DELETE("/:id", mh.Delete(kind))
				}
			}
		}
	}

	// Server-rendered pages
	if ph := cfg.PageHandler; ph != nil {
		r.GET("/", ph.Home)
		r.GET("/services", ph.Services)
		r.GET("/packages", ph.Packages)
		r.GET("/about", ph.About)
		r.GET("/contact", ph.Contact)
		r.GET("/legal", ph.Legal)

		r.GET("/admin", ph.AdminLogin)
		r.POST("/admin/login", ph.AdminLoginSubmit)
		r.POST("/admin/signup", ph.AdminSignup)
		r.POST("/admin/logout", ph.AdminLogout)

		if cfg.AuthMiddleware != nil {
			pages := r.Group("/admin")
			pages.Use(cfg.AuthMiddleware.RequireAdminPage())
			{
				pages.GET("/dashboard", ph.AdminDashboard)
				pages.GET("/videos", ph.AdminVideos)
				pages.GET("/posters", ph.AdminPosters)
				pages.GET("/contacts", ph.AdminContacts)
				pages.GET("/content", ph.AdminContent)
				pages.GET("/reset-password", ph.AdminReset)
				pages.POST("/reset-password", ph.AdminResetSubmit)
			}
		}
		r.NoRoute(ph.NotFound)
	}

	return r
}
