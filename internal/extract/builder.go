package extract

import (
	"time"

	"github.com/jeovahfialho/portfolio-analyzer/internal/domain"
)

// Builder monta o dataset tipado a partir dos registros crus, aplicando os
// normalizadores campo a campo.
type Builder struct {
	now func() time.Time
}

func NewBuilder() *Builder {
	return &Builder{
		now: time.Now,
	}
}

// Build normaliza cada registro e descarta as linhas sem valor ou sem data
// de fechamento, que não têm o que agregar. Descartes somam em diag.Dropped.
func (b *Builder) Build(records []RawRecord, diag *Diagnostics) *domain.Dataset {
	now := b.now()
	rows := make([]domain.TradeRecord, 0, len(records))

	for _, record := range records {
		amount := NormalizeNumber(record.Amount)
		closeDate, hasDate := NormalizeDate(record.CloseDate, now)

		if !amount.Valid || !hasDate {
			if diag != nil {
				diag.Dropped++
			}
			continue
		}

		assetClass := record.AssetClass
		if assetClass == "" {
			assetClass = domain.DefaultAssetClass
		}

		rows = append(rows, domain.TradeRecord{
			Type:        record.Type,
			AssetName:   record.AssetName,
			AssetTicker: record.AssetTicker,
			AssetClass:  assetClass,
			ProfitLoss:  amount.Decimal,
			Percent:     NormalizeNumber(record.Percent),
			CloseDate:   closeDate,
		})
	}

	return &domain.Dataset{Rows: rows, ParsedAt: now}
}
