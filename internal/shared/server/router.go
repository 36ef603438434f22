package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"werkly-backend/internal/chat"
	"werkly-backend/internal/companies"
	"werkly-backend/internal/documents"
	"werkly-backend/internal/ingest"
	"werkly-backend/internal/shared/config"
	"werkly-backend/internal/shared/metrics"
	"werkly-backend/internal/shared/server/middleware"
	"werkly-backend/internal/shared/server/respond"
	"werkly-backend/internal/suggestions"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config             config.Config
	CompaniesHandler   *companies.Handler
	DocumentsHandler   *documents.Handler
	IngestHandler      *ingest.Handler
	ChatHandler        *chat.Handler
	SuggestionsHandler *suggestions.Handler
}

// NewRouter constructs the Gin engine with middleware and routes
// registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.Use(
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"DEFAULT": {Rate: 10, Burst: 30},
			},
		}),
	)

	if deps.CompaniesHandler != nil {
		deps.CompaniesHandler.RegisterRoutes(api)
	}
	if deps.DocumentsHandler != nil {
		deps.DocumentsHandler.RegisterRoutes(api)
	}
	if deps.IngestHandler != nil {
		deps.IngestHandler.RegisterRoutes(api)
	}
	if deps.ChatHandler != nil {
		deps.ChatHandler.RegisterRoutes(api)
	}
	if deps.SuggestionsHandler != nil {
		deps.SuggestionsHandler.RegisterRoutes(api)
	}

	return r
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
