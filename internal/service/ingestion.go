package service

import (
	"context"

	"github.com/jeovahfialho/portfolio-analyzer/internal/domain"
	"github.com/jeovahfialho/portfolio-analyzer/internal/extract"
	"github.com/jeovahfialho/portfolio-analyzer/pkg/logger"
	"github.com/jeovahfialho/portfolio-analyzer/pkg/metrics"
	"go.uber.org/zap"
)

type IngestionService struct {
	extractor *extract.Extractor
	builder   *extract.Builder
}

func NewIngestionService(extractor *extract.Extractor, builder *extract.Builder) *IngestionService {
	return &IngestionService{
		extractor: extractor,
		builder:   builder,
	}
}

type ProcessResult struct {
	Dataset     *domain.Dataset
	Diagnostics extract.Diagnostics
}

// ProcessHTML roda o pipeline completo de extração sobre um fragmento HTML
// colado pelo usuário. Erros de registro individuais viram contadores no
// diagnóstico; só a ausência total de candidatos interrompe o processamento.
func (s *IngestionService) ProcessHTML(ctx context.Context, html string) (*ProcessResult, error) {
	timer := metrics.NewTimer()

	records, diag, err := s.extractor.Extract(html)
	if err != nil {
		metrics.RecordExtractionRun("no_trade_data")
		logger.Warn("extração sem candidatos", zap.Int("html_bytes", len(html)))
		return nil, err
	}

	dataset := s.builder.Build(records, &diag)

	timer.ObserveDuration(metrics.ExtractionDuration)
	metrics.RecordExtractionRun("success")
	metrics.RecordExtractedRecords("parsed", len(dataset.Rows))
	metrics.RecordExtractedRecords("incomplete", diag.Incomplete)
	metrics.RecordExtractedRecords("failed", diag.Failed)
	metrics.RecordExtractedRecords("dropped", diag.Dropped)

	logger.Info("extração concluída",
		zap.Int("candidates", diag.Candidates),
		zap.Int("rows", len(dataset.Rows)),
		zap.Int("incomplete", diag.Incomplete),
		zap.Int("failed", diag.Failed),
		zap.Int("dropped", diag.Dropped))

	return &ProcessResult{Dataset: dataset, Diagnostics: diag}, nil
}
