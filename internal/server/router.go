// Package server assembles the HTTP router.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/contentmachine/contentmachine/internal/ai"
	"github.com/contentmachine/contentmachine/internal/auth"
	"github.com/contentmachine/contentmachine/internal/brief"
	"github.com/contentmachine/contentmachine/internal/config"
	"github.com/contentmachine/contentmachine/internal/health"
	"github.com/contentmachine/contentmachine/internal/networks"
	"github.com/contentmachine/contentmachine/internal/plan"
	"github.com/contentmachine/contentmachine/internal/posts"
	"github.com/contentmachine/contentmachine/internal/rubrics"
	"github.com/contentmachine/contentmachine/internal/settings"
)

// Deps carries everything the router wires together.
type Deps struct {
	Cfg          *config.Config
	DB           *gorm.DB
	AIClient     *ai.Client
	PlanProgress *plan.Progress
	Logger       *slog.Logger
	EnqueuePlan  func(planID uint) error
}

// New builds the gin engine with session middleware and all routes.
func New(d Deps) *gin.Engine {
	if d.Cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	store := cookie.NewStore([]byte(d.Cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   d.Cfg.Env == "production",
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("contentmachine_session", store))

	r.GET("/health", gin.WrapF(health.Handler))

	r.POST("/auth/register", auth.HandleRegister(d.DB))
	r.POST("/auth/login", auth.HandleLogin(d.DB))
	r.POST("/auth/logout", auth.HandleLogout)
	r.GET("/auth/google", auth.HandleGoogleLogin)
	r.GET("/auth/google/callback", auth.HandleGoogleCallback(d.DB))

	briefHandlers := brief.NewHandlers(d.DB, d.AIClient, d.Cfg, d.Logger)
	planHandlers := plan.NewHandlers(d.DB, d.PlanProgress, d.Logger, d.EnqueuePlan)
	postHandlers := posts.NewHandlers(d.DB, d.AIClient, d.Logger)
	rubricHandlers := rubrics.NewHandlers(d.DB, d.Logger)
	settingsHandlers := settings.NewHandlers(d.DB, d.Logger)

	api := r.Group("/api", auth.RequireAuth())
	{
		api.GET("/networks", networks.ListHandler(d.DB))

		api.GET("/rubrics", rubricHandlers.List)
		api.POST("/rubrics", rubricHandlers.Create)
		api.PATCH("/rubrics/:id", rubricHandlers.Update)
		api.DELETE("/rubrics/:id", rubricHandlers.Delete)

		api.GET("/settings/ai", settingsHandlers.Get)
		api.PUT("/settings/ai", settingsHandlers.Update)

		api.GET("/brief/session", briefHandlers.GetSession)
		api.POST("/brief/session/new", briefHandlers.StartNewSession)
		api.POST("/brief/chat", briefHandlers.Chat)
		api.POST("/brief/upload", briefHandlers.Upload)
		api.POST("/brief/generate", briefHandlers.Generate)

		api.POST("/content-plans", planHandlers.Create)
		api.GET("/content-plans", planHandlers.List)
		api.GET("/content-plans/:id", planHandlers.Get)

		api.GET("/posts", postHandlers.List)
		api.GET("/posts/stats", postHandlers.Stats)
		api.GET("/posts/:id", postHandlers.Get)
		api.PATCH("/posts/:id", postHandlers.Update)
		api.DELETE("/posts/:id", postHandlers.Delete)
		api.POST("/posts/:id/improve", postHandlers.Improve)
	}

	return r
}
