package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeovahfialho/portfolio-analyzer/internal/domain"
)

// tradeRowHTML monta uma linha no markup do vendor, com os sufixos de build
// nas classes e o span duplicado de tipo (mobile primeiro, desktop depois).
func tradeRowHTML(typ, name, ticker, assetClass, amount, percent, date string) string {
	classLeaf := ""
	if assetClass != "" {
		classLeaf = fmt.Sprintf(`<div class="mx-1 truncate">%s</div>`, assetClass)
	}

	return fmt.Sprintf(`
<div class="portfolio-styles_row__H1q2x border-grey-300 border-b flex items-center py-2">
  <div class="portfolio-styles_typeColumn__Psx6k w-16 shrink-0">
    <span class="laptop:hidden flex text-xs">%s?</span>
    <span class="laptop:flex hidden text-sm">%s</span>
  </div>
  <div title="Asset info" class="grow min-w-0">
    <p class="font-semibold text-base truncate">%s</p>
    <span class="text-secondary text-xs">%s</span>
    <div class="flex items-center text-secondary text-xs">
      <img src="/icons/class.svg" alt=""/>%s
    </div>
  </div>
  <div title="Profit/Loss" class="text-right w-28">
    <p class="laptop:text-md text-sm font-medium">%s</p>
    <div class="laptop:font-semibold text-xs">%s</div>
  </div>
  <div title="Close date" class="w-44 shrink-0">
    <p class="text-secondary text-sm">%s</p>
  </div>
</div>`, typ, typ, name, ticker, classLeaf, amount, percent, date)
}

// incompleteRowHTML é uma linha sem a região de Profit/Loss.
func incompleteRowHTML(typ, name string) string {
	return fmt.Sprintf(`
<div class="portfolio-styles_row__H1q2x border-grey-300 border-b flex items-center py-2">
  <div class="portfolio-styles_typeColumn__Psx6k w-16 shrink-0">
    <span class="laptop:flex hidden text-sm">%s</span>
  </div>
  <div title="Asset info" class="grow min-w-0">
    <p class="font-semibold text-base truncate">%s</p>
  </div>
  <div title="Close date" class="w-44 shrink-0">
    <p class="text-secondary text-sm">12 Jan 2024, 10:00 AM</p>
  </div>
</div>`, typ, name)
}

const headerRowHTML = `
<div class="portfolio-styles_header__k2Lm9 flex items-center text-xs uppercase">
  <div class="w-16">Type</div>
  <div class="grow">Asset</div>
  <div class="w-28 text-right">Profit/Loss</div>
  <div class="w-44">Close date</div>
</div>`

// wrapDocument embute as linhas na lista do vendor, sempre com a linha de
// cabeçalho presente: ela repete os tokens de layout e não pode virar
// candidato.
func wrapDocument(rows ...string) string {
	return `<div class="portfolio-styles_list__u8Wq3">` +
		headerRowHTML + strings.Join(rows, "\n") + `</div>`
}

func TestExtractSingleRow(t *testing.T) {
	html := wrapDocument(tradeRowHTML(
		"Sell", "Tesla", "TSLA", "Stocks", "-$1,234.56", "-2.31%", "04 Jan 2024, 02:30 PM",
	))

	records, diag, err := NewExtractor().Extract(html)
	require.NoError(t, err)

	assert.Equal(t, 1, diag.Candidates)
	assert.Zero(t, diag.Incomplete)
	assert.Zero(t, diag.Failed)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, "Sell", got.Type)
	assert.Equal(t, "Tesla", got.AssetName)
	assert.Equal(t, "TSLA", got.AssetTicker)
	assert.Equal(t, "Stocks", got.AssetClass)
	assert.Equal(t, "-$1,234.56", got.Amount)
	assert.Equal(t, "-2.31%", got.Percent)
	assert.Equal(t, "04 Jan 2024, 02:30 PM", got.CloseDate)
}

func TestExtractMultipleRowsKeepOrder(t *testing.T) {
	html := wrapDocument(
		tradeRowHTML("Buy", "Apple", "AAPL", "Stocks", "+$89.10", "+1.12%", "02 Jan 2024, 11:00 AM"),
		tradeRowHTML("Sell", "Euro / US Dollar", "EURUSD", "Currencies", "-$12.40", "-0.45%", "03 Jan 2024, 09:15 AM"),
		tradeRowHTML("Buy", "Gold", "XAUUSD", "Commodities", "+$210.00", "+3.80%", "2 hours ago"),
	)

	records, diag, err := NewExtractor().Extract(html)
	require.NoError(t, err)

	assert.Equal(t, 3, diag.Candidates)
	require.Len(t, records, 3)
	assert.Equal(t, "Apple", records[0].AssetName)
	assert.Equal(t, "Euro / US Dollar", records[1].AssetName)
	assert.Equal(t, "Gold", records[2].AssetName)
	assert.Equal(t, "2 hours ago", records[2].CloseDate)
}

// Uma linha sem região obrigatória é contabilizada e descartada sem
// derrubar as irmãs.
func TestExtractIsolatesIncompleteRows(t *testing.T) {
	html := wrapDocument(
		tradeRowHTML("Buy", "Apple", "AAPL", "Stocks", "+$89.10", "+1.12%", "02 Jan 2024, 11:00 AM"),
		incompleteRowHTML("Sell", "Quebrada"),
		tradeRowHTML("Sell", "Gold", "XAUUSD", "Commodities", "-$15.00", "-0.30%", "03 Jan 2024, 09:15 AM"),
	)

	records, diag, err := NewExtractor().Extract(html)
	require.NoError(t, err)

	assert.Equal(t, 3, diag.Candidates)
	assert.Equal(t, 1, diag.Incomplete)
	assert.Zero(t, diag.Failed)
	require.Len(t, records, 2)
	assert.Equal(t, "Apple", records[0].AssetName)
	assert.Equal(t, "Gold", records[1].AssetName)
}

func TestExtractMissingAssetClassLeaf(t *testing.T) {
	html := wrapDocument(tradeRowHTML(
		"Buy", "Mystery", "MYST", "", "+$1.00", "+0.10%", "02 Jan 2024, 11:00 AM",
	))

	records, _, err := NewExtractor().Extract(html)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Empty(t, records[0].AssetClass)
}

func TestExtractNoCandidates(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"página sem trades", `<html><body><p>Nenhuma posição fechada.</p></body></html>`},
		{"string vazia", ""},
		{"só cabeçalho", wrapDocument()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, diag, err := NewExtractor().Extract(tt.html)

			require.ErrorIs(t, err, domain.ErrNoTradeData)
			assert.Zero(t, diag.Candidates)
			assert.Empty(t, records)
		})
	}
}

// Fragmentos truncados no final ainda rendem candidatos: o parser de HTML
// fecha as tags pendentes sozinho.
func TestExtractTruncatedFragment(t *testing.T) {
	html := wrapDocument(
		tradeRowHTML("Buy", "Apple", "AAPL", "Stocks", "+$89.10", "+1.12%", "02 Jan 2024, 11:00 AM"),
	)
	truncated := strings.TrimSuffix(strings.TrimSpace(html), "</div>")

	records, diag, err := NewExtractor().Extract(truncated)
	require.NoError(t, err)

	assert.Equal(t, 1, diag.Candidates)
	require.Len(t, records, 1)
	assert.Equal(t, "Apple", records[0].AssetName)
}

func generateTradesHTML(rows int) string {
	var sb strings.Builder
	sb.WriteString(`<div class="portfolio-styles_list__u8Wq3">`)
	sb.WriteString(headerRowHTML)

	for i := 0; i < rows; i++ {
		amount := fmt.Sprintf("+$%d.%02d", 100+i, i%100)
		if i%3 == 0 {
			amount = fmt.Sprintf("-$%d.%02d", 50+i, i%100)
		}
		sb.WriteString(tradeRowHTML(
			"Sell",
			fmt.Sprintf("Asset %d", i),
			fmt.Sprintf("TCK%d", i),
			"Stocks",
			amount,
			fmt.Sprintf("+%d.%02d%%", i%10, i%100),
			"04 Jan 2024, 02:30 PM",
		))
	}

	sb.WriteString(`</div>`)
	return sb.String()
}

func BenchmarkExtract(b *testing.B) {
	benchmarks := []struct {
		name string
		rows int
	}{
		{"Small_10Rows", 10},
		{"Medium_100Rows", 100},
		{"Large_1000Rows", 1000},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			html := generateTradesHTML(bm.rows)
			extractor := NewExtractor()

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				records, _, err := extractor.Extract(html)
				if err != nil {
					b.Fatalf("Erro na extração: %v", err)
				}
				if len(records) != bm.rows {
					b.Fatalf("Esperava %d registros, veio %d", bm.rows, len(records))
				}
			}
		})
	}
}
