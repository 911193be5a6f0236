package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jeovahfialho/portfolio-analyzer/internal/analytics"
	"github.com/jeovahfialho/portfolio-analyzer/internal/config"
	"github.com/jeovahfialho/portfolio-analyzer/internal/domain"
	"github.com/jeovahfialho/portfolio-analyzer/internal/export"
	"github.com/jeovahfialho/portfolio-analyzer/internal/extract"
	"github.com/jeovahfialho/portfolio-analyzer/internal/fx"
	"github.com/jeovahfialho/portfolio-analyzer/internal/service"
	"github.com/jeovahfialho/portfolio-analyzer/internal/storage/cache"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "portfolio-analyzer",
		Short: "Portfolio Analyzer CLI",
		Long: `CLI para análise de trades fechados.
Extrai registros de um arquivo HTML exportado do vendor e calcula métricas de performance.`,
	}

	// Comando parse
	var parseCmd = &cobra.Command{
		Use:   "parse [arquivo.html]",
		Short: "Extrai os trades de um arquivo HTML",
		Long: `Extrai os registros de trades fechados de um arquivo HTML.
Linhas sem data de fechamento ou sem valor de resultado são descartadas.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			preview, _ := cmd.Flags().GetInt("preview")
			return parseFile(args[0], preview)
		},
	}

	parseCmd.Flags().IntP("preview", "p", 5, "Quantidade de linhas exibidas na prévia")

	// Comando metrics
	var metricsCmd = &cobra.Command{
		Use:   "metrics [arquivo.html]",
		Short: "Calcula as métricas de performance",
		Long: `Extrai os trades do arquivo HTML e calcula as métricas derivadas:
resultado total, taxa de acerto, profit factor, série diária acumulada,
resultado por classe de ativo e melhores/piores trades.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			classes, _ := cmd.Flags().GetString("classes")
			startDate, _ := cmd.Flags().GetString("start-date")
			endDate, _ := cmd.Flags().GetString("end-date")
			currency, _ := cmd.Flags().GetString("currency")
			topN, _ := cmd.Flags().GetInt("top")
			return computeMetrics(args[0], classes, startDate, endDate, currency, topN)
		},
	}

	metricsCmd.Flags().StringP("classes", "c", "", "Classes de ativo separadas por vírgula (padrão: todas)")
	metricsCmd.Flags().StringP("start-date", "s", "", "Data inicial (YYYY-MM-DD)")
	metricsCmd.Flags().StringP("end-date", "e", "", "Data final (YYYY-MM-DD)")
	metricsCmd.Flags().String("currency", "", "Moeda de exibição (padrão: moeda base)")
	metricsCmd.Flags().IntP("top", "n", 10, "Quantidade de melhores/piores trades")

	// Comando export
	var exportCmd = &cobra.Command{
		Use:   "export [arquivo.html]",
		Short: "Exporta os trades extraídos para CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			return exportFile(args[0], output)
		},
	}

	exportCmd.Flags().StringP("output", "o", "trades.csv", "Arquivo CSV de saída")

	// Comando rates
	var ratesCmd = &cobra.Command{
		Use:   "rates",
		Short: "Consulta a tabela de câmbio da moeda base",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, _ := cmd.Flags().GetString("base")
			return showRates(base)
		},
	}

	ratesCmd.Flags().StringP("base", "b", "", "Moeda base (padrão: BASE_CURRENCY)")

	// Comando health
	var healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Verifica saúde das dependências externas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkHealth()
		},
	}

	rootCmd.AddCommand(parseCmd, metricsCmd, exportCmd, ratesCmd, healthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadDataset extrai o dataset tipado de um arquivo HTML local.
func loadDataset(path string) (*domain.Dataset, extract.Diagnostics, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, extract.Diagnostics{}, fmt.Errorf("erro ao abrir arquivo: %w", err)
	}

	fmt.Printf("📄 Lendo %s (%s)\n", path, humanize.Bytes(uint64(info.Size())))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, extract.Diagnostics{}, fmt.Errorf("erro ao ler arquivo: %w", err)
	}

	extractor := extract.NewExtractor()
	records, diag, err := extractor.Extract(string(data))
	if err != nil {
		return nil, diag, err
	}

	dataset := extract.NewBuilder().Build(records, &diag)
	return dataset, diag, nil
}

func parseFile(path string, preview int) error {
	dataset, diag, err := loadDataset(path)
	if err != nil {
		return err
	}

	fmt.Printf("\n📊 Extração concluída:\n")
	fmt.Printf("├─ Candidatos encontrados: %s\n", humanize.Comma(int64(diag.Candidates)))
	fmt.Printf("├─ Linhas válidas: %s\n", humanize.Comma(int64(len(dataset.Rows))))
	fmt.Printf("├─ Incompletos: %d\n", diag.Incomplete)
	fmt.Printf("├─ Falhas: %d\n", diag.Failed)
	fmt.Printf("└─ Descartados sem data/valor: %d\n", diag.Dropped)

	if classes := dataset.AssetClasses(); len(classes) > 0 {
		fmt.Printf("\n🏷️  Classes de ativo: %s\n", strings.Join(classes, ", "))
	}

	if preview > len(dataset.Rows) {
		preview = len(dataset.Rows)
	}
	if preview > 0 {
		fmt.Printf("\n📋 Prévia (%d de %d):\n", preview, len(dataset.Rows))
		for _, row := range dataset.Rows[:preview] {
			fmt.Printf("   %-10s %-20s %-12s %12s  %s\n",
				row.Type,
				truncate(row.AssetName, 20),
				row.AssetClass,
				row.ProfitLoss.StringFixed(2),
				row.CloseDate.Format("02/01/2006"))
		}
	}

	return nil
}

func computeMetrics(path, classesFlag, startDateStr, endDateStr, currency string, topN int) error {
	dataset, _, err := loadDataset(path)
	if err != nil {
		return err
	}

	criteria := domain.FilterCriteria{Currency: currency}

	if classesFlag != "" {
		for _, class := range strings.Split(classesFlag, ",") {
			if class = strings.TrimSpace(class); class != "" {
				criteria.AssetClasses = append(criteria.AssetClasses, class)
			}
		}
	}

	if startDateStr != "" {
		parsed, err := time.Parse("2006-01-02", startDateStr)
		if err != nil {
			return fmt.Errorf("data inicial inválida: %w", err)
		}
		criteria.StartDate = parsed
	}

	if endDateStr != "" {
		parsed, err := time.Parse("2006-01-02", endDateStr)
		if err != nil {
			return fmt.Errorf("data final inválida: %w", err)
		}
		criteria.EndDate = parsed
	}

	cfg := config.Load()
	provider := fx.NewProvider(cfg.RatesURL, cfg.RatesTimeout, cfg.RatesPerMinute)
	metricsService := service.NewMetricsService(analytics.NewEngine(), provider, nil,
		cfg.BaseCurrency, cfg.MetricsMemoTTL, cfg.RatesTTL)

	result, err := metricsService.Compute(context.Background(), "cli", dataset, criteria, topN)
	if err != nil {
		return err
	}

	for _, warning := range result.Warnings {
		fmt.Printf("⚠️  %s\n", warning)
	}

	printMetrics(result.Metrics)
	return nil
}

func printMetrics(m *domain.DerivedMetrics) {
	s := m.Summary

	fmt.Printf("\n📈 Resumo (%s):\n", s.Currency)
	fmt.Printf("├─ Resultado total: %s\n", s.TotalProfitLoss.StringFixed(2))
	fmt.Printf("├─ Trades: %s\n", humanize.Comma(int64(s.TradeCount)))
	fmt.Printf("├─ Taxa de acerto: %.1f%%\n", s.WinRate)
	fmt.Printf("├─ Profit factor: %s\n", formatRatio(s.ProfitFactor))
	fmt.Printf("├─ Resultado por dia: %s\n", s.ProfitPerDay.StringFixed(2))
	fmt.Printf("├─ Retorno médio: %s%%\n", s.AvgReturn.StringFixed(2))
	fmt.Printf("└─ Período: %s a %s\n",
		s.OldestClose.Format("02/01/2006"),
		s.NewestClose.Format("02/01/2006"))

	if len(m.ByAssetClass) > 0 {
		fmt.Printf("\n🏷️  Resultado por classe:\n")
		for _, group := range m.ByAssetClass {
			fmt.Printf("   %-14s %12s  (%d trades)\n",
				group.AssetClass, group.Sum.StringFixed(2), group.Trades)
		}
	}

	if len(m.Daily) > 0 {
		last := m.Daily[len(m.Daily)-1]
		fmt.Printf("\n📅 Série diária: %d dias, acumulado final %s\n",
			len(m.Daily), last.Cumulative.StringFixed(2))
	}

	if len(m.TopTrades) > 0 {
		fmt.Printf("\n🏆 Melhores trades:\n")
		for _, row := range m.TopTrades {
			fmt.Printf("   %12s  %-20s %s\n",
				row.ProfitLoss.StringFixed(2),
				truncate(row.AssetName, 20),
				row.CloseDate.Format("02/01/2006"))
		}
	}

	if len(m.WorstTrades) > 0 {
		fmt.Printf("\n💥 Piores trades:\n")
		for _, row := range m.WorstTrades {
			fmt.Printf("   %12s  %-20s %s\n",
				row.ProfitLoss.StringFixed(2),
				truncate(row.AssetName, 20),
				row.CloseDate.Format("02/01/2006"))
		}
	}
}

func exportFile(path, output string) error {
	dataset, _, err := loadDataset(path)
	if err != nil {
		return err
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("erro ao criar arquivo de saída: %w", err)
	}
	defer file.Close()

	if err := export.WriteCSV(file, dataset); err != nil {
		return fmt.Errorf("erro ao gerar CSV: %w", err)
	}

	fmt.Printf("✅ %s linhas exportadas para %s\n",
		humanize.Comma(int64(len(dataset.Rows))), output)
	return nil
}

func showRates(base string) error {
	cfg := config.Load()
	if base == "" {
		base = cfg.BaseCurrency
	}

	fmt.Printf("💱 Buscando cotações para %s...\n", strings.ToUpper(base))

	provider := fx.NewProvider(cfg.RatesURL, cfg.RatesTimeout, cfg.RatesPerMinute)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RatesTimeout)
	defer cancel()

	table, err := provider.GetRates(ctx, strings.ToUpper(base))
	if err != nil {
		return fmt.Errorf("erro ao buscar cotações: %w", err)
	}

	currencies := make([]string, 0, len(table.Rates))
	for currency := range table.Rates {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	fmt.Printf("\n📊 1 %s equivale a:\n", table.Base)
	for _, currency := range currencies {
		if currency == table.Base {
			continue
		}
		fmt.Printf("   %-5s %s\n", currency, table.Rates[currency].String())
	}

	return nil
}

func checkHealth() error {
	ctx := context.Background()
	cfg := config.Load()

	fmt.Println("🏥 Verificando saúde das dependências...")
	fmt.Println()

	// Testa Redis
	fmt.Print("Redis: ")
	redisCache, err := cache.NewRedisCache(cfg.RedisURL, cfg.RatesTTL)
	if err != nil {
		fmt.Printf("❌ Não disponível: %v\n", err)
	} else {
		defer redisCache.Close()

		if err := redisCache.HealthCheck(ctx); err != nil {
			fmt.Printf("❌ Erro: %v\n", err)
		} else {
			fmt.Println("✅ OK")
		}
	}

	// Testa serviço de câmbio
	fmt.Print("Câmbio: ")
	provider := fx.NewProvider(cfg.RatesURL, cfg.RatesTimeout, cfg.RatesPerMinute)

	rateCtx, cancel := context.WithTimeout(ctx, cfg.RatesTimeout)
	defer cancel()

	if _, err := provider.GetRates(rateCtx, cfg.BaseCurrency); err != nil {
		fmt.Printf("❌ Erro: %v\n", err)
	} else {
		fmt.Println("✅ OK")
	}

	fmt.Println("\n✅ Verificação concluída!")
	return nil
}

func formatRatio(r domain.Ratio) string {
	if math.IsInf(float64(r), 1) {
		return "∞"
	}
	return fmt.Sprintf("%.2f", float64(r))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
