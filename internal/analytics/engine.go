package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jeovahfialho/portfolio-analyzer/internal/domain"
)

// Engine computa as métricas derivadas de um dataset. Todas as operações são
// funções puras dos argumentos; o dataset nunca é mutado e o estado de sessão
// fica por conta de quem chama.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Compute aplica o filtro e calcula a superfície completa de análise sobre o
// subconjunto. Com nenhuma linha sobrevivente o erro é domain.ErrEmptyFilter.
//
// A conversão de moeda multiplica cada valor por criteria.Rate apenas nos
// agregados monetários; a classificação ganho/perda usa o valor original.
func (e *Engine) Compute(ds *domain.Dataset, criteria domain.FilterCriteria, topN int) (*domain.DerivedMetrics, error) {
	rows := filterRows(ds, criteria)
	if len(rows) == 0 {
		return nil, domain.ErrEmptyFilter
	}

	rate := criteria.Rate
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}

	converted := make([]decimal.Decimal, len(rows))
	for i, row := range rows {
		converted[i] = row.ProfitLoss.Mul(rate)
	}

	derived := &domain.DerivedMetrics{
		Summary:      summarize(rows, converted, criteria),
		Daily:        dailySeries(rows, converted),
		ByAssetClass: byAssetClass(rows, converted),
	}
	derived.TopTrades, derived.WorstTrades = rankTrades(rows, converted, topN)

	return derived, nil
}

// filterRows devolve cópias das linhas que satisfazem o critério. Lista de
// classes vazia aceita todas; data zero não limita aquele lado. A comparação
// de datas ignora o componente de hora dos dois lados.
func filterRows(ds *domain.Dataset, criteria domain.FilterCriteria) []domain.TradeRecord {
	if ds.Empty() {
		return nil
	}

	allowed := make(map[string]bool, len(criteria.AssetClasses))
	for _, class := range criteria.AssetClasses {
		allowed[class] = true
	}

	var start, end time.Time
	if !criteria.StartDate.IsZero() {
		start = domain.DateOnly(criteria.StartDate)
	}
	if !criteria.EndDate.IsZero() {
		end = domain.DateOnly(criteria.EndDate)
	}

	rows := make([]domain.TradeRecord, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		if len(allowed) > 0 && !allowed[row.AssetClass] {
			continue
		}

		day := domain.DateOnly(row.CloseDate)
		if !start.IsZero() && day.Before(start) {
			continue
		}
		if !end.IsZero() && day.After(end) {
			continue
		}

		rows = append(rows, row)
	}
	return rows
}

func summarize(rows []domain.TradeRecord, converted []decimal.Decimal, criteria domain.FilterCriteria) domain.Summary {
	var (
		total     decimal.Decimal
		grossWin  decimal.Decimal
		grossLoss decimal.Decimal
		wins      int
		returns   []decimal.Decimal
	)

	oldest, newest := rows[0].CloseDate, rows[0].CloseDate
	for i, row := range rows {
		total = total.Add(converted[i])

		if row.Win() {
			wins++
			grossWin = grossWin.Add(converted[i])
		} else {
			grossLoss = grossLoss.Add(converted[i])
		}

		if row.Percent.Valid {
			returns = append(returns, row.Percent.Decimal)
		}

		if row.CloseDate.Before(oldest) {
			oldest = row.CloseDate
		}
		if row.CloseDate.After(newest) {
			newest = row.CloseDate
		}
	}

	summary := domain.Summary{
		TotalProfitLoss: total,
		TradeCount:      len(rows),
		WinRate:         float64(wins) / float64(len(rows)) * 100,
		ProfitFactor:    profitFactor(grossWin, grossLoss),
		OldestClose:     domain.DateOnly(oldest),
		NewestClose:     domain.DateOnly(newest),
		Currency:        criteria.Currency,
	}

	if days := rangeDays(criteria, oldest, newest); days > 0 {
		summary.ProfitPerDay = total.Div(decimal.NewFromInt(days))
	}

	if len(returns) > 0 {
		summary.AvgReturn = decimal.Avg(returns[0], returns[1:]...)
	}

	return summary
}

// profitFactor é a soma dos ganhos sobre o módulo da soma das perdas, ambas
// em valor convertido. Sem perdas o quociente é infinito positivo.
func profitFactor(grossWin, grossLoss decimal.Decimal) domain.Ratio {
	if grossLoss.IsZero() {
		return domain.Ratio(math.Inf(1))
	}
	ratio, _ := grossWin.Div(grossLoss.Abs()).Float64()
	return domain.Ratio(ratio)
}

// rangeDays conta os dias do intervalo do filtro, inclusivo nas duas pontas.
// Sem limites explícitos vale o span das próprias linhas filtradas.
func rangeDays(criteria domain.FilterCriteria, oldest, newest time.Time) int64 {
	start, end := criteria.StartDate, criteria.EndDate
	if start.IsZero() {
		start = oldest
	}
	if end.IsZero() {
		end = newest
	}

	startDay, endDay := domain.DateOnly(start), domain.DateOnly(end)
	if endDay.Before(startDay) {
		return 0
	}
	return int64(endDay.Sub(startDay).Hours()/24) + 1
}

// dailySeries agrupa por dia de fechamento em ordem cronológica e acumula a
// soma corrente ao longo da série.
func dailySeries(rows []domain.TradeRecord, converted []decimal.Decimal) []domain.DailyPoint {
	sums := make(map[time.Time]decimal.Decimal, len(rows))
	for i, row := range rows {
		day := domain.DateOnly(row.CloseDate)
		sums[day] = sums[day].Add(converted[i])
	}

	days := make([]time.Time, 0, len(sums))
	for day := range sums {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	series := make([]domain.DailyPoint, 0, len(days))
	var running decimal.Decimal
	for _, day := range days {
		running = running.Add(sums[day])
		series = append(series, domain.DailyPoint{
			Date:       day,
			Sum:        sums[day],
			Cumulative: running,
		})
	}
	return series
}

// byAssetClass agrega o resultado por classe, da mais lucrativa para a menos.
// Empates ordenam pelo nome da classe para manter a saída estável.
func byAssetClass(rows []domain.TradeRecord, converted []decimal.Decimal) []domain.AssetClassPnL {
	groups := make(map[string]*domain.AssetClassPnL, 8)
	for i, row := range rows {
		group, ok := groups[row.AssetClass]
		if !ok {
			group = &domain.AssetClassPnL{AssetClass: row.AssetClass}
			groups[row.AssetClass] = group
		}
		group.Sum = group.Sum.Add(converted[i])
		group.Trades++
	}

	out := make([]domain.AssetClassPnL, 0, len(groups))
	for _, group := range groups {
		out = append(out, *group)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Sum.Equal(out[j].Sum) {
			return out[i].Sum.GreaterThan(out[j].Sum)
		}
		return out[i].AssetClass < out[j].AssetClass
	})
	return out
}

// rankTrades devolve os topN melhores em ordem decrescente e os topN piores
// em ordem crescente de valor convertido, com N limitado ao total de linhas.
func rankTrades(rows []domain.TradeRecord, converted []decimal.Decimal, topN int) ([]domain.TradeRecord, []domain.TradeRecord) {
	if topN < 0 {
		topN = 0
	}
	if topN > len(rows) {
		topN = len(rows)
	}

	desc := make([]int, len(rows))
	for i := range desc {
		desc[i] = i
	}
	asc := make([]int, len(rows))
	copy(asc, desc)

	sort.SliceStable(desc, func(a, b int) bool {
		return converted[desc[a]].GreaterThan(converted[desc[b]])
	})
	sort.SliceStable(asc, func(a, b int) bool {
		return converted[asc[a]].LessThan(converted[asc[b]])
	})

	top := make([]domain.TradeRecord, 0, topN)
	for _, i := range desc[:topN] {
		top = append(top, rows[i])
	}

	worst := make([]domain.TradeRecord, 0, topN)
	for _, i := range asc[:topN] {
		worst = append(worst, rows[i])
	}

	return top, worst
}
