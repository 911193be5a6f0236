package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jeovahfialho/portfolio-analyzer/internal/analytics"
	"github.com/jeovahfialho/portfolio-analyzer/internal/api"
	"github.com/jeovahfialho/portfolio-analyzer/internal/config"
	"github.com/jeovahfialho/portfolio-analyzer/internal/extract"
	"github.com/jeovahfialho/portfolio-analyzer/internal/fx"
	"github.com/jeovahfialho/portfolio-analyzer/internal/service"
	"github.com/jeovahfialho/portfolio-analyzer/internal/storage/cache"
	"github.com/jeovahfialho/portfolio-analyzer/internal/storage/session"
	pkglogger "github.com/jeovahfialho/portfolio-analyzer/pkg/logger"
)

// @title Portfolio Analyzer API
// @version 1.0
// @description API para extração e análise de trades fechados a partir de HTML
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
func main() {
	cfg := config.Load()

	if err := pkglogger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatal("Erro ao inicializar logger:", err)
	}
	defer pkglogger.Close()

	var cacheService *cache.RedisCache
	if cfg.CacheEnabled {
		cacheService = connectRedis(cfg)
		if cacheService != nil {
			defer cacheService.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Sessões em memória: o único lugar do processo que guarda datasets
	sessions := session.NewStore(cfg.SessionTTL)
	sessions.StartJanitor(ctx, cfg.CleanupInterval)

	// Extração e análise
	extractor := extract.NewExtractor()
	builder := extract.NewBuilder()
	engine := analytics.NewEngine()

	// Câmbio
	provider := fx.NewProvider(cfg.RatesURL, cfg.RatesTimeout, cfg.RatesPerMinute)

	// Services
	ingestionService := service.NewIngestionService(extractor, builder)
	metricsService := service.NewMetricsService(engine, provider, cacheService,
		cfg.BaseCurrency, cfg.MetricsMemoTTL, cfg.RatesTTL)

	// Handler
	handler := api.NewHandler(
		cacheService,
		sessions,
		ingestionService,
		metricsService,
		cfg.TopTradesDefault,
		cfg.SessionTTL,
	)

	// Fiber app
	app := fiber.New(fiber.Config{
		Prefork:                 false,
		ServerHeader:            "Portfolio-Analyzer",
		DisableStartupMessage:   false,
		AppName:                 "Portfolio Analyzer v1.0.0",
		ReadTimeout:             cfg.APIReadTimeout,
		WriteTimeout:            cfg.APIWriteTimeout,
		IdleTimeout:             120 * time.Second,
		ReadBufferSize:          8192,
		WriteBufferSize:         8192,
		CompressedFileSuffix:    ".gz",
		ProxyHeader:             "X-Forwarded-For",
		EnableTrustedProxyCheck: true,
		BodyLimit:               cfg.MaxHTMLBytes,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Session-ID",
	}))

	// Setup routes
	api.SetupRoutes(app, handler, cfg.SessionTTL)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		cancel()
		if err := app.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("Starting server on %s", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatal("Server error:", err)
	}
}

func connectRedis(cfg *config.Config) *cache.RedisCache {
	redisCache, err := cache.NewRedisCache(cfg.RedisURL, cfg.RatesTTL)
	if err != nil {
		log.Printf("⚠️ Redis não disponível: %v (continuando sem cache)", err)
		return nil
	}

	log.Println("✅ Conectado ao Redis")
	return redisCache
}
