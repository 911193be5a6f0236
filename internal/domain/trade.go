package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoTradeData indica que o HTML não contém nenhum registro candidato,
	// em geral porque o fragmento veio de outra página do vendor.
	ErrNoTradeData = errors.New("nenhum dado de trade encontrado no HTML")

	// ErrEmptyFilter indica que o dataset tem linhas, mas nenhuma satisfaz
	// os critérios de filtro.
	ErrEmptyFilter = errors.New("nenhum trade para os filtros selecionados")
)

// DefaultAssetClass rotula registros cuja classe não aparece no markup.
const DefaultAssetClass = "Other"

type TradeRecord struct {
	Type        string              `json:"type,omitempty"`
	AssetName   string              `json:"asset_name,omitempty"`
	AssetTicker string              `json:"asset_ticker,omitempty"`
	AssetClass  string              `json:"asset_class"`
	ProfitLoss  decimal.Decimal     `json:"profit_loss"`
	Percent     decimal.NullDecimal `json:"percent"`
	CloseDate   time.Time           `json:"close_date"`
}

// Win informa se o trade fechou no positivo. A classificação usa sempre o
// valor original, nunca o convertido.
func (t TradeRecord) Win() bool {
	return t.ProfitLoss.IsPositive()
}

// Dataset é o lote imutável produzido por uma extração. Cada nova extração
// substitui o dataset anterior da sessão por inteiro.
type Dataset struct {
	Rows     []TradeRecord `json:"rows"`
	ParsedAt time.Time     `json:"parsed_at"`
}

func (d *Dataset) Empty() bool {
	return d == nil || len(d.Rows) == 0
}

// AssetClasses devolve as classes distintas na ordem de primeira ocorrência.
func (d *Dataset) AssetClasses() []string {
	if d == nil {
		return nil
	}
	seen := make(map[string]bool, 8)
	classes := make([]string, 0, 8)
	for _, row := range d.Rows {
		if !seen[row.AssetClass] {
			seen[row.AssetClass] = true
			classes = append(classes, row.AssetClass)
		}
	}
	return classes
}

// DateSpan devolve a menor e a maior data de fechamento, truncadas para o dia.
func (d *Dataset) DateSpan() (time.Time, time.Time) {
	if d.Empty() {
		return time.Time{}, time.Time{}
	}
	oldest, newest := d.Rows[0].CloseDate, d.Rows[0].CloseDate
	for _, row := range d.Rows[1:] {
		if row.CloseDate.Before(oldest) {
			oldest = row.CloseDate
		}
		if row.CloseDate.After(newest) {
			newest = row.CloseDate
		}
	}
	return DateOnly(oldest), DateOnly(newest)
}

// FilterCriteria delimita o subconjunto de linhas e a moeda de exibição.
// Datas zero significam sem limite; lista de classes vazia significa todas.
type FilterCriteria struct {
	AssetClasses []string        `json:"asset_classes,omitempty"`
	StartDate    time.Time       `json:"start_date,omitempty"`
	EndDate      time.Time       `json:"end_date,omitempty"`
	Currency     string          `json:"currency,omitempty"`
	Rate         decimal.Decimal `json:"rate,omitempty"`
}

// DateOnly descarta o componente de hora, fixando a data em UTC. Comparações
// de intervalo e agrupamentos diários passam todos por aqui.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
