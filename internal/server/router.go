// Package server exposes the discovery engine over HTTP. It is a thin
// JSON layer: parsing, status mapping and logging; every decision belongs
// to the service underneath.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/emberapp/discovery/internal/app"
	"github.com/emberapp/discovery/internal/service/discovery"
)

const requestIDHeader = "X-Request-ID"

// NewRouter builds the HTTP handler for the engine.
func NewRouter(appCtx *app.AppContext, svc *discovery.Service) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
		MaxAge:       12 * time.Hour,
	}))
	router.Use(requestID())
	router.Use(requestLog(appCtx))

	h := &handler{appCtx: appCtx, svc: svc}

	router.GET("/healthz", h.health)

	v1 := router.Group("/v1")
	{
		users := v1.Group("/users/:id")
		users.GET("/candidates", h.getCandidates)
		users.POST("/swipes", h.postSwipe)
		users.GET("/liked-by", h.getLikedBy)
		users.GET("/liked-by/count", h.getLikedByCount)
		users.GET("/preferences", h.getPreferences)
		users.PUT("/preferences", h.putPreferences)
	}

	return router
}

// requestID tags each request with an id, honoring one supplied by the
// caller, and echoes it back in the response.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLog(appCtx *app.AppContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		appCtx.Logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString("request_id"),
		)
	}
}
