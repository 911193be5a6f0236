package api

import (
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(app *fiber.App, handler *Handler, sessionTTL time.Duration) {
	// Global middlewares
	app.Use(RequestID())
	app.Use(ErrorHandler())

	// Health checks (sem rate limiting)
	app.Get("/health", handler.HealthCheck)
	app.Get("/ready", handler.ReadinessCheck)

	// Metrics endpoint para Prometheus (sem rate limiting)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger documentation (sem rate limiting)
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 - com rate limiting, métricas e sessão
	v1 := app.Group("/api/v1")
	v1.Use(RateLimiter())
	v1.Use(PrometheusMiddleware())
	v1.Use(SessionID(sessionTTL))

	// Trade routes
	trades := v1.Group("/trades")
	trades.Post("/parse", handler.ParseHTML)
	trades.Get("/", handler.GetTrades)
	trades.Get("/export", handler.ExportCSV)

	// Metrics routes
	v1.Get("/metrics", handler.GetMetrics)

	// Currency routes
	currencies := v1.Group("/currencies")
	currencies.Get("/rates", handler.GetRates)

	// Admin routes
	admin := v1.Group("/admin")
	admin.Use(BasicAuth())
	admin.Get("/stats", handler.GetSystemStats)
	admin.Delete("/cache/:pattern", handler.InvalidateCache)
}

func BasicAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get("Authorization")
		if auth != "Basic YWRtaW46c2VjcmV0" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		return c.Next()
	}
}
