// Package router wires the HTTP surface (§6): the synchronous retrieval
// endpoint and the streaming chat endpoint, behind the teacher's middleware
// stack (request ID, logging, tracing, recovery, auth, CORS).
package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/raghavpatnecha/ragserve/internal/handler"
	"github.com/raghavpatnecha/ragserve/internal/middleware"
	"github.com/raghavpatnecha/ragserve/internal/types/interfaces"
)

// NewRouter builds the gin engine and registers every route.
func NewRouter(
	tenantService interfaces.TenantService,
	retrievalHandler *handler.RetrievalHandler,
	chatHandler *handler.ChatHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", "X-API-Key", "X-Request-ID"},
	}))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.TracingMiddleware())
	r.Use(middleware.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.Auth(tenantService))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/retrieval", retrievalHandler.Retrieve)
		api.POST("/chat", chatHandler.Chat)
	}

	return r
}
