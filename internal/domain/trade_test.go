package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeRecordWin(t *testing.T) {
	tests := []struct {
		amount string
		want   bool
	}{
		{"10.50", true},
		{"-10.50", false},
		{"0", false},
	}

	for _, tt := range tests {
		record := TradeRecord{ProfitLoss: decimal.RequireFromString(tt.amount)}
		assert.Equal(t, tt.want, record.Win(), "valor %s", tt.amount)
	}
}

func TestDatasetEmpty(t *testing.T) {
	var nilDS *Dataset
	assert.True(t, nilDS.Empty())
	assert.True(t, (&Dataset{}).Empty())
	assert.False(t, (&Dataset{Rows: []TradeRecord{{}}}).Empty())
}

func TestDatasetAssetClasses(t *testing.T) {
	ds := &Dataset{Rows: []TradeRecord{
		{AssetClass: "Stocks"},
		{AssetClass: "Currencies"},
		{AssetClass: "Stocks"},
		{AssetClass: "Commodities"},
	}}

	assert.Equal(t, []string{"Stocks", "Currencies", "Commodities"}, ds.AssetClasses())
}

func TestDatasetDateSpan(t *testing.T) {
	ds := &Dataset{Rows: []TradeRecord{
		{CloseDate: time.Date(2024, 1, 5, 18, 0, 0, 0, time.UTC)},
		{CloseDate: time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)},
		{CloseDate: time.Date(2024, 1, 9, 23, 59, 0, 0, time.UTC)},
	}}

	oldest, newest := ds.DateSpan()
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), oldest)
	assert.Equal(t, time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), newest)
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2024, 3, 15, 23, 59, 59, 999, time.FixedZone("BRT", -3*3600))

	got := DateOnly(in)

	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestRatioJSON(t *testing.T) {
	tests := []struct {
		name  string
		ratio Ratio
		want  string
	}{
		{"finito", Ratio(3.2), "3.2"},
		{"zero", Ratio(0), "0"},
		{"infinito positivo", Ratio(math.Inf(1)), `"Infinity"`},
		{"infinito negativo", Ratio(math.Inf(-1)), `"-Infinity"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.ratio)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))

			var back Ratio
			require.NoError(t, json.Unmarshal(data, &back))
			if math.IsInf(float64(tt.ratio), 0) {
				assert.True(t, math.IsInf(float64(back), int(math.Copysign(1, float64(tt.ratio)))))
			} else {
				assert.Equal(t, tt.ratio, back)
			}
		})
	}
}

func TestRatioUnmarshalInvalid(t *testing.T) {
	var r Ratio
	err := json.Unmarshal([]byte(`"muito"`), &r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ratio inválido")
}

// O summary inteiro precisa sobreviver a json.Marshal mesmo com profit
// factor infinito, que é o caso de qualquer sessão só com ganhos.
func TestSummaryMarshalWithInfiniteProfitFactor(t *testing.T) {
	summary := Summary{
		TotalProfitLoss: decimal.RequireFromString("100.50"),
		TradeCount:      3,
		WinRate:         100,
		ProfitFactor:    Ratio(math.Inf(1)),
		Currency:        "USD",
	}

	data, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"profit_factor":"Infinity"`)

	var back Summary
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, math.IsInf(float64(back.ProfitFactor), 1))
	assert.True(t, back.TotalProfitLoss.Equal(summary.TotalProfitLoss))
}
