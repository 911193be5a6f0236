package api

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "http_duration_seconds",
		Help: "Duration of HTTP requests.",
	}, []string{"method", "route", "status_code"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "route", "status_code"})
)

func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := c.Response().StatusCode()

		httpDuration.WithLabelValues(
			c.Method(),
			c.Route().Path,
			fmt.Sprintf("%d", status),
		).Observe(duration)

		httpRequests.WithLabelValues(
			c.Method(),
			c.Route().Path,
			fmt.Sprintf("%d", status),
		).Inc()

		return err
	}
}

func RateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               100,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests",
			})
		},
	})
}

func ErrorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if err != nil {
			code := fiber.StatusInternalServerError
			message := "Internal Server Error"

			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}

			return c.Status(code).JSON(fiber.Map{
				"error": message,
				"code":  code,
			})
		}

		return nil
	}
}

func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set("X-Request-ID", requestID)
		c.Locals("requestID", requestID)

		return c.Next()
	}
}

// SessionID identifica a sessão dona do dataset. O cliente pode fixar a sua
// pelo header X-Session-ID; sem header nem cookie uma nova é emitida e
// devolvida nos dois canais.
func SessionID(ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Get("X-Session-ID")
		if sessionID == "" {
			sessionID = c.Cookies("session_id")
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		c.Set("X-Session-ID", sessionID)
		c.Cookie(&fiber.Cookie{
			Name:     "session_id",
			Value:    sessionID,
			Expires:  time.Now().Add(ttl),
			HTTPOnly: true,
			SameSite: "Lax",
		})
		c.Locals("sessionID", sessionID)

		return c.Next()
	}
}

func getSessionID(c *fiber.Ctx) string {
	if id := c.Locals("sessionID"); id != nil {
		return id.(string)
	}
	return ""
}
