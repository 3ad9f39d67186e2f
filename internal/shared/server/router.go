package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"autofill-backend/internal/account"
	"autofill-backend/internal/answers"
	"autofill-backend/internal/fieldmap"
	"autofill-backend/internal/profile"
	"autofill-backend/internal/shared/config"
	"autofill-backend/internal/shared/metrics"
	"autofill-backend/internal/shared/server/middleware"
	"autofill-backend/internal/shared/server/respond"
	"autofill-backend/internal/usage"
)

// RouterDeps carries the constructed handlers into the route table.
type RouterDeps struct {
	Config          config.Config
	FieldMapHandler *fieldmap.Handler
	ProfileHandler  *profile.Handler
	AnswersHandler  *answers.Handler
	UsageHandler    *usage.Handler
	AccountHandler  *account.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
// Auth is group-scoped: health, metrics and the extension error sink stay
// reachable without an identity.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.RateLimit(rateLimits()),
	)

	r.GET("/healthz", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")

	ext := api.Group("/extension")
	deps.FieldMapHandler.RegisterPublicRoutes(ext)

	guarded := ext.Group("")
	guarded.Use(middleware.Auth(cfg.Env))
	deps.FieldMapHandler.RegisterRoutes(guarded)

	user := api.Group("")
	user.Use(middleware.Auth(cfg.Env))
	registerMeRoutes(user)
	deps.ProfileHandler.RegisterRoutes(user)
	deps.AnswersHandler.RegisterRoutes(user)
	deps.UsageHandler.RegisterRoutes(user)
	deps.AccountHandler.RegisterRoutes(user)
	if cfg.Env == "dev" || cfg.Env == "local" {
		dev := user.Group("/dev")
		deps.UsageHandler.RegisterDevRoutes(dev)
	}

	return r
}

// rateLimits throttles the mapping route harder than the cheap lookups. Keys
// fall back to client IP because the limiter runs before auth.
func rateLimits() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		DefaultGroup: "DEFAULT",
		GroupFor: func(c *gin.Context) string {
			switch c.FullPath() {
			case "/api/v1/extension/form-fields/map":
				return "MAP"
			case "/api/v1/extension/form-structure/check",
				"/api/v1/extension/selectors/best-batch":
				return "LOOKUP"
			}
			return "DEFAULT"
		},
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT": {Rate: 5, Burst: 20},
			"MAP":     {Rate: 2, Burst: 8},
			"LOOKUP":  {Rate: 10, Burst: 40},
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
