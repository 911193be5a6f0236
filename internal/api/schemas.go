package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jeovahfialho/portfolio-analyzer/internal/domain"
	"github.com/jeovahfialho/portfolio-analyzer/internal/extract"
)

type ParseRequest struct {
	HTML string `json:"html" validate:"required"`
}

type ParseResponse struct {
	SessionID      string              `json:"session_id"`
	Rows           int                 `json:"rows"`
	AssetClasses   []string            `json:"asset_classes"`
	Diagnostics    extract.Diagnostics `json:"diagnostics"`
	ProcessingTime string              `json:"processing_time,omitempty"`
}

type TradesResponse struct {
	SessionID string               `json:"session_id"`
	Trades    []domain.TradeRecord `json:"trades"`
	Count     int                  `json:"count"`
	ParsedAt  time.Time            `json:"parsed_at"`
}

type FilterDTO struct {
	AssetClasses []string `json:"asset_classes,omitempty"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
	Currency     string   `json:"currency,omitempty"`
	TopN         int      `json:"top_n"`
}

type MetricsResponse struct {
	Metrics        *domain.DerivedMetrics `json:"metrics"`
	Filter         FilterDTO              `json:"filter"`
	Warnings       []string               `json:"warnings,omitempty"`
	ProcessingTime string                 `json:"processing_time,omitempty"`
}

type RatesResponse struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date,omitempty"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

type HealthResponse struct {
	Status    string                   `json:"status"`
	Version   string                   `json:"version"`
	Timestamp time.Time                `json:"timestamp"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

type ServiceHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

type SystemStatsResponse struct {
	Sessions SessionStats `json:"sessions"`
	Cache    CacheStats   `json:"cache"`
	API      APIStats     `json:"api"`
}

type SessionStats struct {
	Active int    `json:"active"`
	TTL    string `json:"ttl"`
}

type CacheStats struct {
	Enabled    bool   `json:"enabled"`
	MemoryUsed string `json:"memory_used"`
}

type APIStats struct {
	ActiveGoroutines int `json:"active_goroutines"`
}

type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      int       `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
