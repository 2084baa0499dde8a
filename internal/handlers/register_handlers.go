package handlers

import (
	portssvc "github.com/chartermate/charter-ledger/internal/core/ports/services"
	"github.com/chartermate/charter-ledger/internal/middleware"
	"github.com/chartermate/charter-ledger/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	rateLimiter *limiter.Limiter,
) {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	// Setup API v1 routes with Auth Middleware, passing service interfaces
	setupAPIV1Routes(r, cfg, services, rateLimiter)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	rateLimiter *limiter.Limiter,
) {
	// Apply AuthMiddleware and rate limiting to the entire v1 group
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret), middleware.RateLimit(rateLimiter))

	RegisterEventRoutes(v1, services.Event)
}

// RegisterEventRoutes wires the accounting event endpoints.
func RegisterEventRoutes(rg *gin.RouterGroup, eventService portssvc.EventSvcFacade) {
	h := newEventHandler(eventService)

	events := rg.Group("/events")
	{
		events.POST("", h.createEvent)
		events.GET("", h.listEvents)
		events.GET("/duplicate-check", h.checkDuplicate)
		events.GET("/:eventID", h.getEvent)
		events.GET("/:eventID/journals", h.getEventJournals)
		events.POST("/:eventID/process", h.processEvent)
		events.POST("/:eventID/retry", h.retryEvent)
		events.POST("/:eventID/cancel", h.cancelEvent)
	}
}
