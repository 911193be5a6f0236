package export

import (
	"encoding/csv"
	"io"

	"github.com/jeovahfialho/portfolio-analyzer/internal/domain"
)

// csvHeader espelha as colunas do dataset tipado, na ordem de extração.
var csvHeader = []string{
	"Type",
	"Asset Name",
	"Asset Ticker",
	"Asset Class",
	"Profit/Loss Amount",
	"Percent",
	"Close Date",
}

// WriteCSV projeta o dataset em CSV UTF-8 com linha de cabeçalho. Percentual
// ausente sai como célula vazia.
func WriteCSV(w io.Writer, ds *domain.Dataset) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	if ds != nil {
		for _, row := range ds.Rows {
			percent := ""
			if row.Percent.Valid {
				percent = row.Percent.Decimal.String()
			}

			record := []string{
				row.Type,
				row.AssetName,
				row.AssetTicker,
				row.AssetClass,
				row.ProfitLoss.String(),
				percent,
				row.CloseDate.Format("2006-01-02 15:04"),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
