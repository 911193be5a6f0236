package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jeovahfialho/portfolio-analyzer/internal/analytics"
	"github.com/jeovahfialho/portfolio-analyzer/internal/domain"
	"github.com/jeovahfialho/portfolio-analyzer/internal/fx"
	"github.com/jeovahfialho/portfolio-analyzer/internal/storage/cache"
	"github.com/jeovahfialho/portfolio-analyzer/pkg/logger"
	"github.com/jeovahfialho/portfolio-analyzer/pkg/metrics"
)

// MetricsService orquestra filtro, conversão de moeda e cálculo das métricas
// derivadas. O memo em redis e a cópia local da tabela de câmbio são apenas
// otimização: sem redis o serviço calcula tudo de novo a cada chamada.
type MetricsService struct {
	engine   *analytics.Engine
	provider *fx.Provider
	cache    *cache.RedisCache
	base     string
	memoTTL  time.Duration
	ratesTTL time.Duration

	mu       sync.Mutex
	memTable *fx.RateTable
	memSince time.Time
}

func NewMetricsService(engine *analytics.Engine, provider *fx.Provider, redisCache *cache.RedisCache,
	baseCurrency string, memoTTL, ratesTTL time.Duration) *MetricsService {

	if baseCurrency == "" {
		baseCurrency = "USD"
	}

	return &MetricsService{
		engine:   engine,
		provider: provider,
		cache:    redisCache,
		base:     strings.ToUpper(baseCurrency),
		memoTTL:  memoTTL,
		ratesTTL: ratesTTL,
	}
}

type ComputeResult struct {
	Metrics  *domain.DerivedMetrics
	Warnings []string
}

// Compute resolve a taxa de conversão, calcula as métricas do subconjunto
// filtrado e memoíza o resultado por um curto período. Falha de câmbio não
// derruba a análise: os valores seguem na moeda base com um aviso.
func (s *MetricsService) Compute(ctx context.Context, sessionID string, ds *domain.Dataset,
	criteria domain.FilterCriteria, topN int) (*ComputeResult, error) {

	timer := metrics.NewTimer()

	criteria.Currency = strings.ToUpper(strings.TrimSpace(criteria.Currency))
	if criteria.Currency == "" {
		criteria.Currency = s.base
	}

	var warnings []string
	criteria.Rate, warnings = s.resolveRate(ctx, criteria.Currency)
	if len(warnings) > 0 {
		// Degradou para identidade; o rótulo da moeda acompanha os valores.
		criteria.Currency = s.base
	}

	memoKey := s.memoKey(sessionID, criteria, topN)
	if cached := s.fromMemo(ctx, memoKey); cached != nil {
		metrics.RecordMetricsComputation("memo_hit")
		return &ComputeResult{Metrics: cached, Warnings: warnings}, nil
	}

	derived, err := s.engine.Compute(ds, criteria, topN)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyFilter) {
			metrics.RecordMetricsComputation("empty_filter")
		}
		return nil, err
	}

	s.toMemo(ctx, memoKey, derived)

	timer.ObserveDuration(metrics.MetricsComputationDuration)
	metrics.RecordMetricsComputation("success")

	logger.Debug("métricas calculadas",
		zap.String("currency", criteria.Currency),
		zap.Int("trades", derived.Summary.TradeCount))

	return &ComputeResult{Metrics: derived, Warnings: warnings}, nil
}

// Rates expõe a tabela de câmbio da base pedida, passando pelas mesmas
// camadas de cache do cálculo de métricas. Base vazia usa a moeda base do
// serviço.
func (s *MetricsService) Rates(ctx context.Context, base string) (*fx.RateTable, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		base = s.base
	}
	return s.ratesFor(ctx, base)
}

// resolveRate devolve o fator de conversão da moeda base para a moeda alvo.
// Qualquer indisponibilidade degrada para conversão identidade com aviso.
func (s *MetricsService) resolveRate(ctx context.Context, target string) (decimal.Decimal, []string) {
	identity := decimal.NewFromInt(1)
	if target == s.base {
		return identity, nil
	}

	table, err := s.ratesFor(ctx, s.base)
	if err != nil {
		metrics.RecordFxLookup("fallback")
		logger.Warn("serviço de câmbio indisponível, mantendo moeda base",
			zap.String("currency", target),
			zap.Error(err))
		return identity, []string{fmt.Sprintf("cotação indisponível; valores exibidos em %s", s.base)}
	}

	rateValue, ok := table.Rate(target)
	if !ok {
		metrics.RecordFxLookup("unknown_currency")
		return identity, []string{fmt.Sprintf("moeda %s desconhecida; valores exibidos em %s", target, s.base)}
	}

	return rateValue, nil
}

// ratesFor busca a tabela de câmbio: redis primeiro, depois a cópia local e
// por fim o serviço externo. As duas camadas respeitam a mesma janela de
// frescor.
func (s *MetricsService) ratesFor(ctx context.Context, base string) (*fx.RateTable, error) {
	cacheKey := fmt.Sprintf("fx:%s", base)

	if s.cache != nil {
		var table fx.RateTable
		if err := s.cache.Get(ctx, cacheKey, &table); err == nil {
			metrics.RecordCacheHit()
			return &table, nil
		}
		metrics.RecordCacheMiss()
	}

	s.mu.Lock()
	if s.memTable != nil && s.memTable.Base == base && time.Since(s.memSince) < s.ratesTTL {
		table := s.memTable
		s.mu.Unlock()
		return table, nil
	}
	s.mu.Unlock()

	if s.provider == nil {
		return nil, fmt.Errorf("serviço de câmbio não configurado")
	}

	table, err := s.provider.GetRates(ctx, base)
	if err != nil {
		return nil, err
	}
	metrics.RecordFxLookup("success")

	s.mu.Lock()
	s.memTable = table
	s.memSince = time.Now()
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, table, s.ratesTTL); err != nil {
			logger.Warn("falha ao salvar cotações no cache", zap.Error(err))
		}
	}

	return table, nil
}

func (s *MetricsService) memoKey(sessionID string, criteria domain.FilterCriteria, topN int) string {
	classes := append([]string(nil), criteria.AssetClasses...)
	sort.Strings(classes)

	start, end := "all", "all"
	if !criteria.StartDate.IsZero() {
		start = criteria.StartDate.Format("2006-01-02")
	}
	if !criteria.EndDate.IsZero() {
		end = criteria.EndDate.Format("2006-01-02")
	}

	return fmt.Sprintf("metrics:%s:%s:%s:%s:%s:%s:%d",
		sessionID, strings.Join(classes, ","), start, end,
		criteria.Currency, criteria.Rate.String(), topN)
}

func (s *MetricsService) fromMemo(ctx context.Context, key string) *domain.DerivedMetrics {
	if s.cache == nil {
		return nil
	}

	var derived domain.DerivedMetrics
	if err := s.cache.Get(ctx, key, &derived); err != nil {
		return nil
	}
	return &derived
}

func (s *MetricsService) toMemo(ctx context.Context, key string, derived *domain.DerivedMetrics) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Set(ctx, key, derived, s.memoTTL); err != nil {
		logger.Warn("falha ao memoizar métricas", zap.Error(err))
	}
}
