package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeovahfialho/portfolio-analyzer/internal/domain"
)

func at(day, hour int) time.Time {
	return time.Date(2024, 1, day, hour, 0, 0, 0, time.UTC)
}

func trade(class, amount, percent string, closeDate time.Time) domain.TradeRecord {
	record := domain.TradeRecord{
		AssetClass: class,
		ProfitLoss: decimal.RequireFromString(amount),
		CloseDate:  closeDate,
	}
	if percent != "" {
		record.Percent = decimal.NullDecimal{
			Decimal: decimal.RequireFromString(percent),
			Valid:   true,
		}
	}
	return record
}

func dataset(rows ...domain.TradeRecord) *domain.Dataset {
	return &domain.Dataset{Rows: rows, ParsedAt: time.Now()}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeSummary(t *testing.T) {
	ds := dataset(
		trade("Stocks", "10", "2.5", at(1, 10)),
		trade("Stocks", "-5", "-1.5", at(2, 11)),
		trade("Currencies", "6", "", at(3, 12)),
		trade("Commodities", "0", "", at(3, 15)),
	)

	metrics, err := NewEngine().Compute(ds, domain.FilterCriteria{}, 10)
	require.NoError(t, err)

	summary := metrics.Summary
	assert.Equal(t, 4, summary.TradeCount)
	assert.True(t, summary.TotalProfitLoss.Equal(dec("11")))
	// Trade zerado não é ganho: 2 ganhos em 4.
	assert.Equal(t, 50.0, summary.WinRate)
	assert.InDelta(t, 3.2, float64(summary.ProfitFactor), 1e-9)
	assert.True(t, summary.AvgReturn.Equal(dec("0.5")), "média de 2.5 e -1.5: %s", summary.AvgReturn)
	assert.Equal(t, at(1, 0), summary.OldestClose)
	assert.Equal(t, at(3, 0), summary.NewestClose)
	// Sem limites no filtro o intervalo é o span das linhas: 3 dias.
	assert.True(t, summary.ProfitPerDay.Equal(dec("11").Div(dec("3"))))
}

func TestComputeProfitFactorInfiniteWithoutLosses(t *testing.T) {
	ds := dataset(
		trade("Stocks", "10", "", at(1, 10)),
		trade("Stocks", "4", "", at(2, 10)),
	)

	metrics, err := NewEngine().Compute(ds, domain.FilterCriteria{}, 10)
	require.NoError(t, err)

	assert.True(t, math.IsInf(float64(metrics.Summary.ProfitFactor), 1))
	assert.Equal(t, 100.0, metrics.Summary.WinRate)
}

func TestComputeZeroOnlyTrades(t *testing.T) {
	ds := dataset(trade("Stocks", "0", "", at(1, 10)))

	metrics, err := NewEngine().Compute(ds, domain.FilterCriteria{}, 10)
	require.NoError(t, err)

	assert.Equal(t, 0.0, metrics.Summary.WinRate)
	// Perda bruta zero, mesmo vindo do ramo de perdas.
	assert.True(t, math.IsInf(float64(metrics.Summary.ProfitFactor), 1))
}

func TestComputeDailySeries(t *testing.T) {
	// Entrada fora de ordem e com dois trades no mesmo dia.
	ds := dataset(
		trade("Stocks", "-3", "", at(2, 9)),
		trade("Stocks", "4", "", at(1, 10)),
		trade("Stocks", "7", "", at(3, 16)),
		trade("Currencies", "6", "", at(1, 18)),
	)

	metrics, err := NewEngine().Compute(ds, domain.FilterCriteria{}, 10)
	require.NoError(t, err)

	require.Len(t, metrics.Daily, 3)

	wantSums := []string{"10", "-3", "7"}
	wantCumulative := []string{"10", "7", "14"}
	for i, point := range metrics.Daily {
		assert.Equal(t, at(i+1, 0), point.Date)
		assert.True(t, point.Sum.Equal(dec(wantSums[i])), "dia %d: soma %s", i+1, point.Sum)
		assert.True(t, point.Cumulative.Equal(dec(wantCumulative[i])), "dia %d: acumulado %s", i+1, point.Cumulative)
	}
}

func TestComputeFilterByAssetClass(t *testing.T) {
	ds := dataset(
		trade("Stocks", "10", "", at(1, 10)),
		trade("Currencies", "-5", "", at(2, 10)),
		trade("Stocks", "3", "", at(3, 10)),
	)

	metrics, err := NewEngine().Compute(ds, domain.FilterCriteria{AssetClasses: []string{"Stocks"}}, 10)
	require.NoError(t, err)

	assert.Equal(t, 2, metrics.Summary.TradeCount)
	require.Len(t, metrics.ByAssetClass, 1)
	assert.Equal(t, "Stocks", metrics.ByAssetClass[0].AssetClass)
	assert.True(t, metrics.ByAssetClass[0].Sum.Equal(dec("13")))
	assert.Equal(t, 2, metrics.ByAssetClass[0].Trades)
}

func TestComputeFilterByDateInclusive(t *testing.T) {
	ds := dataset(
		trade("Stocks", "1", "", at(1, 10)),
		trade("Stocks", "2", "", at(2, 10)),
		trade("Stocks", "4", "", at(3, 23)),
		trade("Stocks", "8", "", at(4, 1)),
	)

	criteria := domain.FilterCriteria{
		StartDate: at(2, 0),
		// Fim às 00:00 ainda inclui o trade das 23:00 do mesmo dia.
		EndDate: at(3, 0),
	}

	metrics, err := NewEngine().Compute(ds, criteria, 10)
	require.NoError(t, err)

	assert.Equal(t, 2, metrics.Summary.TradeCount)
	assert.True(t, metrics.Summary.TotalProfitLoss.Equal(dec("6")))
	// Intervalo explícito de 2 dias, inclusivo nas pontas.
	assert.True(t, metrics.Summary.ProfitPerDay.Equal(dec("3")))
}

func TestComputeEmptyFilter(t *testing.T) {
	ds := dataset(trade("Stocks", "10", "", at(1, 10)))

	tests := []struct {
		name     string
		ds       *domain.Dataset
		criteria domain.FilterCriteria
	}{
		{"dataset vazio", dataset(), domain.FilterCriteria{}},
		{"classe inexistente", ds, domain.FilterCriteria{AssetClasses: []string{"Crypto"}}},
		{"janela sem trades", ds, domain.FilterCriteria{StartDate: at(10, 0), EndDate: at(20, 0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine().Compute(tt.ds, tt.criteria, 10)
			assert.ErrorIs(t, err, domain.ErrEmptyFilter)
		})
	}
}

// Converter moeda escala os agregados monetários sem mudar a classificação:
// mesma taxa de acerto, mesmo profit factor, mesmo ranking.
func TestComputeCurrencyConversion(t *testing.T) {
	ds := dataset(
		trade("Stocks", "10", "", at(1, 10)),
		trade("Stocks", "-4", "", at(2, 10)),
		trade("Currencies", "5", "", at(3, 10)),
	)

	base, err := NewEngine().Compute(ds, domain.FilterCriteria{}, 10)
	require.NoError(t, err)

	criteria := domain.FilterCriteria{Currency: "EUR", Rate: dec("0.5")}
	converted, err := NewEngine().Compute(ds, criteria, 10)
	require.NoError(t, err)

	assert.True(t, converted.Summary.TotalProfitLoss.Equal(dec("5.5")))
	assert.Equal(t, "EUR", converted.Summary.Currency)
	assert.Equal(t, base.Summary.WinRate, converted.Summary.WinRate)
	assert.Equal(t, float64(base.Summary.ProfitFactor), float64(converted.Summary.ProfitFactor))

	require.Len(t, converted.TopTrades, 3)
	assert.Equal(t, base.TopTrades[0].AssetClass, converted.TopTrades[0].AssetClass)
	// As linhas retornadas preservam o valor original, não o convertido.
	assert.True(t, converted.TopTrades[0].ProfitLoss.Equal(dec("10")))

	require.Len(t, converted.ByAssetClass, 2)
	assert.Equal(t, "Stocks", converted.ByAssetClass[0].AssetClass)
	assert.True(t, converted.ByAssetClass[0].Sum.Equal(dec("3")))
}

func TestComputeByAssetClassOrdering(t *testing.T) {
	ds := dataset(
		trade("Currencies", "5", "", at(1, 10)),
		trade("Stocks", "12", "", at(2, 10)),
		trade("Commodities", "5", "", at(3, 10)),
		trade("Indices", "-2", "", at(4, 10)),
	)

	metrics, err := NewEngine().Compute(ds, domain.FilterCriteria{}, 10)
	require.NoError(t, err)

	classes := make([]string, 0, len(metrics.ByAssetClass))
	for _, group := range metrics.ByAssetClass {
		classes = append(classes, group.AssetClass)
	}
	// Soma decrescente; empate em 5 resolve por nome.
	assert.Equal(t, []string{"Stocks", "Commodities", "Currencies", "Indices"}, classes)
}

func TestComputeRankTrades(t *testing.T) {
	ds := dataset(
		trade("Stocks", "10", "", at(1, 10)),
		trade("Stocks", "-4", "", at(2, 10)),
		trade("Stocks", "6", "", at(3, 10)),
		trade("Stocks", "-9", "", at(4, 10)),
	)

	metrics, err := NewEngine().Compute(ds, domain.FilterCriteria{}, 2)
	require.NoError(t, err)

	require.Len(t, metrics.TopTrades, 2)
	assert.True(t, metrics.TopTrades[0].ProfitLoss.Equal(dec("10")))
	assert.True(t, metrics.TopTrades[1].ProfitLoss.Equal(dec("6")))

	require.Len(t, metrics.WorstTrades, 2)
	assert.True(t, metrics.WorstTrades[0].ProfitLoss.Equal(dec("-9")))
	assert.True(t, metrics.WorstTrades[1].ProfitLoss.Equal(dec("-4")))
}

func TestComputeRankTradesClamped(t *testing.T) {
	ds := dataset(
		trade("Stocks", "10", "", at(1, 10)),
		trade("Stocks", "-4", "", at(2, 10)),
	)

	metrics, err := NewEngine().Compute(ds, domain.FilterCriteria{}, 50)
	require.NoError(t, err)
	assert.Len(t, metrics.TopTrades, 2)
	assert.Len(t, metrics.WorstTrades, 2)

	metrics, err = NewEngine().Compute(ds, domain.FilterCriteria{}, 0)
	require.NoError(t, err)
	assert.Empty(t, metrics.TopTrades)
	assert.Empty(t, metrics.WorstTrades)
}

func TestComputeProfitPerDayExplicitRange(t *testing.T) {
	ds := dataset(
		trade("Stocks", "40", "", at(3, 10)),
		trade("Stocks", "60", "", at(5, 10)),
	)

	criteria := domain.FilterCriteria{StartDate: at(1, 0), EndDate: at(10, 0)}
	metrics, err := NewEngine().Compute(ds, criteria, 10)
	require.NoError(t, err)

	assert.True(t, metrics.Summary.ProfitPerDay.Equal(dec("10")))
}

func TestComputeAvgReturnSkipsInvalidPercent(t *testing.T) {
	ds := dataset(
		trade("Stocks", "10", "2.5", at(1, 10)),
		trade("Stocks", "5", "", at(2, 10)),
		trade("Stocks", "3", "7.5", at(3, 10)),
	)

	metrics, err := NewEngine().Compute(ds, domain.FilterCriteria{}, 10)
	require.NoError(t, err)

	assert.True(t, metrics.Summary.AvgReturn.Equal(dec("5")))
}
