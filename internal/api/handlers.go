package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jeovahfialho/portfolio-analyzer/internal/domain"
	"github.com/jeovahfialho/portfolio-analyzer/internal/export"
	"github.com/jeovahfialho/portfolio-analyzer/internal/service"
	"github.com/jeovahfialho/portfolio-analyzer/internal/storage/cache"
	"github.com/jeovahfialho/portfolio-analyzer/internal/storage/session"
	"github.com/jeovahfialho/portfolio-analyzer/pkg/logger"
)

type Handler struct {
	cacheService     *cache.RedisCache
	sessions         *session.Store
	ingestionService *service.IngestionService
	metricsService   *service.MetricsService
	topDefault       int
	sessionTTL       time.Duration
}

func NewHandler(
	cacheService *cache.RedisCache,
	sessions *session.Store,
	ingestionService *service.IngestionService,
	metricsService *service.MetricsService,
	topDefault int,
	sessionTTL time.Duration,
) *Handler {
	return &Handler{
		cacheService:     cacheService,
		sessions:         sessions,
		ingestionService: ingestionService,
		metricsService:   metricsService,
		topDefault:       topDefault,
		sessionTTL:       sessionTTL,
	}
}

// ParseHTML recebe o fragmento HTML colado pelo usuário, extrai o dataset e
// o associa à sessão, substituindo qualquer dataset anterior.
func (h *Handler) ParseHTML(c *fiber.Ctx) error {
	start := time.Now()

	var req ParseRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "corpo da requisição inválido")
	}

	if strings.TrimSpace(req.HTML) == "" {
		return respondError(c, fiber.StatusBadRequest, "conteúdo HTML é obrigatório")
	}

	sessionID := getSessionID(c)

	result, err := h.ingestionService.ProcessHTML(c.Context(), req.HTML)
	if err != nil {
		if errors.Is(err, domain.ErrNoTradeData) {
			return respondError(c, fiber.StatusUnprocessableEntity, err.Error())
		}

		logger.Error("erro ao processar HTML",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "erro ao processar HTML")
	}

	h.sessions.Put(sessionID, result.Dataset)

	logger.Info("dataset associado à sessão",
		zap.String("session_id", sessionID),
		zap.Int("rows", len(result.Dataset.Rows)),
		zap.String("request_id", getRequestID(c)))

	return c.JSON(ParseResponse{
		SessionID:      sessionID,
		Rows:           len(result.Dataset.Rows),
		AssetClasses:   result.Dataset.AssetClasses(),
		Diagnostics:    result.Diagnostics,
		ProcessingTime: time.Since(start).String(),
	})
}

// GetTrades devolve as linhas tipadas do dataset da sessão.
func (h *Handler) GetTrades(c *fiber.Ctx) error {
	sessionID := getSessionID(c)

	dataset, ok := h.sessions.Get(sessionID)
	if !ok {
		return respondError(c, fiber.StatusNotFound,
			"nenhum dataset para esta sessão; envie o HTML primeiro")
	}

	return c.JSON(TradesResponse{
		SessionID: sessionID,
		Trades:    dataset.Rows,
		Count:     len(dataset.Rows),
		ParsedAt:  dataset.ParsedAt,
	})
}

// ExportCSV projeta o dataset da sessão em CSV para download.
func (h *Handler) ExportCSV(c *fiber.Ctx) error {
	sessionID := getSessionID(c)

	dataset, ok := h.sessions.Get(sessionID)
	if !ok {
		return respondError(c, fiber.StatusNotFound,
			"nenhum dataset para esta sessão; envie o HTML primeiro")
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, dataset); err != nil {
		logger.Error("erro ao gerar CSV",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "erro ao gerar CSV")
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="trades.csv"`)
	return c.Send(buf.Bytes())
}

// GetMetrics calcula as métricas derivadas do dataset da sessão sob os
// filtros da query string.
func (h *Handler) GetMetrics(c *fiber.Ctx) error {
	start := time.Now()

	sessionID := getSessionID(c)

	dataset, ok := h.sessions.Get(sessionID)
	if !ok {
		return respondError(c, fiber.StatusNotFound,
			"nenhum dataset para esta sessão; envie o HTML primeiro")
	}

	criteria, topN, err := parseFilter(c, h.topDefault)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.metricsService.Compute(c.Context(), sessionID, dataset, criteria, topN)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyFilter) {
			return respondError(c, fiber.StatusNotFound,
				"nenhum trade para os filtros selecionados; amplie os filtros")
		}

		logger.Error("erro ao calcular métricas",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "erro ao calcular métricas")
	}

	filter := FilterDTO{
		AssetClasses: criteria.AssetClasses,
		Currency:     result.Metrics.Summary.Currency,
		TopN:         topN,
	}
	if !criteria.StartDate.IsZero() {
		filter.StartDate = criteria.StartDate.Format("2006-01-02")
	}
	if !criteria.EndDate.IsZero() {
		filter.EndDate = criteria.EndDate.Format("2006-01-02")
	}

	return c.JSON(MetricsResponse{
		Metrics:        result.Metrics,
		Filter:         filter,
		Warnings:       result.Warnings,
		ProcessingTime: time.Since(start).String(),
	})
}

// GetRates expõe a tabela de câmbio da base pedida na query, ou da moeda
// base configurada.
func (h *Handler) GetRates(c *fiber.Ctx) error {
	table, err := h.metricsService.Rates(c.Context(), c.Query("base"))
	if err != nil {
		logger.Error("erro ao buscar cotações", zap.Error(err))
		return respondError(c, fiber.StatusServiceUnavailable,
			"serviço de câmbio indisponível")
	}

	return c.JSON(RatesResponse{
		Base:  table.Base,
		Date:  table.Date,
		Rates: table.Rates,
	})
}

func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "healthy",
		Version:   "1.0.0",
		Timestamp: time.Now(),
	})
}

func (h *Handler) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]ServiceHealth)

	if h.cacheService == nil {
		// sem redis o serviço opera normalmente, apenas sem memoização
		services["cache"] = ServiceHealth{Status: "disabled"}
	} else {
		cacheStart := time.Now()
		if err := h.cacheService.HealthCheck(ctx); err != nil {
			services["cache"] = ServiceHealth{
				Status: "unhealthy",
				Error:  err.Error(),
			}
		} else {
			services["cache"] = ServiceHealth{
				Status:  "healthy",
				Latency: time.Since(cacheStart).String(),
			}
		}
	}

	status := "ready"
	for _, svc := range services {
		if svc.Status == "unhealthy" {
			status = "not_ready"
			break
		}
	}

	response := HealthResponse{
		Status:    status,
		Version:   "1.0.0",
		Timestamp: time.Now(),
		Services:  services,
	}

	if status != "ready" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}

	return c.JSON(response)
}

func (h *Handler) GetSystemStats(c *fiber.Ctx) error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := SystemStatsResponse{
		Sessions: SessionStats{
			Active: h.sessions.Len(),
			TTL:    h.sessionTTL.String(),
		},
		Cache: CacheStats{
			Enabled:    h.cacheService != nil,
			MemoryUsed: fmt.Sprintf("%d MB", m.Alloc/1024/1024),
		},
		API: APIStats{
			ActiveGoroutines: runtime.NumGoroutine(),
		},
	}

	return c.JSON(response)
}

func (h *Handler) InvalidateCache(c *fiber.Ctx) error {
	if h.cacheService == nil {
		return respondError(c, fiber.StatusServiceUnavailable, "cache desabilitado")
	}

	pattern := c.Params("pattern", "*")

	if err := h.cacheService.DeletePattern(c.Context(), pattern); err != nil {
		return respondError(c, fiber.StatusInternalServerError, "erro ao invalidar cache")
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": fmt.Sprintf("cache invalidado para padrão: %s", pattern),
	})
}

// parseFilter monta o critério de filtro a partir da query string.
func parseFilter(c *fiber.Ctx, topDefault int) (domain.FilterCriteria, int, error) {
	var criteria domain.FilterCriteria

	if classesParam := c.Query("classes"); classesParam != "" {
		for _, class := range strings.Split(classesParam, ",") {
			if class = strings.TrimSpace(class); class != "" {
				criteria.AssetClasses = append(criteria.AssetClasses, class)
			}
		}
	}

	if dateStr := c.Query("start_date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return criteria, 0, errors.New("formato de data inicial inválido (use YYYY-MM-DD)")
		}
		criteria.StartDate = parsed
	}

	if dateStr := c.Query("end_date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return criteria, 0, errors.New("formato de data final inválido (use YYYY-MM-DD)")
		}
		criteria.EndDate = parsed
	}

	criteria.Currency = c.Query("currency")

	return criteria, c.QueryInt("top_n", topDefault), nil
}

func respondError(c *fiber.Ctx, code int, message string) error {
	return c.Status(code).JSON(ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: getRequestID(c),
		Timestamp: time.Now(),
	})
}

func getRequestID(c *fiber.Ctx) string {
	if id := c.Locals("requestID"); id != nil {
		return id.(string)
	}
	return ""
}
