package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Ratio é um quociente que pode ser infinito. encoding/json rejeita
// math.Inf, então o infinito trafega como a string "Infinity".
type Ratio float64

func (r Ratio) MarshalJSON() ([]byte, error) {
	f := float64(r)
	if math.IsInf(f, 1) {
		return []byte(`"Infinity"`), nil
	}
	if math.IsInf(f, -1) {
		return []byte(`"-Infinity"`), nil
	}
	return json.Marshal(f)
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"Infinity"`:
		*r = Ratio(math.Inf(1))
		return nil
	case `"-Infinity"`:
		*r = Ratio(math.Inf(-1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("ratio inválido: %w", err)
	}
	*r = Ratio(f)
	return nil
}

// Summary reúne os agregados escalares do conjunto filtrado. Valores
// monetários já estão na moeda de exibição.
type Summary struct {
	TotalProfitLoss decimal.Decimal `json:"total_profit_loss"`
	TradeCount      int             `json:"trade_count"`
	WinRate         float64         `json:"win_rate"`
	ProfitFactor    Ratio           `json:"profit_factor"`
	ProfitPerDay    decimal.Decimal `json:"profit_per_day"`
	AvgReturn       decimal.Decimal `json:"avg_return"`
	OldestClose     time.Time       `json:"oldest_close"`
	NewestClose     time.Time       `json:"newest_close"`
	Currency        string          `json:"currency,omitempty"`
}

// DailyPoint é um dia da série temporal, com a soma do dia e o acumulado
// até ele, em ordem cronológica.
type DailyPoint struct {
	Date       time.Time       `json:"date"`
	Sum        decimal.Decimal `json:"sum"`
	Cumulative decimal.Decimal `json:"cumulative"`
}

// AssetClassPnL agrega o resultado por classe de ativo.
type AssetClassPnL struct {
	AssetClass string          `json:"asset_class"`
	Sum        decimal.Decimal `json:"sum"`
	Trades     int             `json:"trades"`
}

// DerivedMetrics é a superfície completa de análise de um conjunto filtrado.
type DerivedMetrics struct {
	Summary      Summary         `json:"summary"`
	Daily        []DailyPoint    `json:"daily"`
	ByAssetClass []AssetClassPnL `json:"by_asset_class"`
	TopTrades    []TradeRecord   `json:"top_trades"`
	WorstTrades  []TradeRecord   `json:"worst_trades"`
}
