package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jeovahfialho/portfolio-analyzer/internal/domain"
)

// RawRecord carrega os campos de um candidato como texto cru, antes de
// qualquer normalização. Campos ausentes ficam vazios.
type RawRecord struct {
	Type        string
	AssetName   string
	AssetTicker string
	AssetClass  string
	Amount      string
	Percent     string
	CloseDate   string
}

// Diagnostics contabiliza o destino de cada candidato de uma extração.
type Diagnostics struct {
	Candidates int `json:"candidates"`
	Incomplete int `json:"incomplete"`
	Failed     int `json:"failed"`
	Dropped    int `json:"dropped"`
}

var errIncompleteRecord = errors.New("registro sem as regiões obrigatórias")

type Extractor struct {
	rowFingerprint Fingerprint
}

func NewExtractor() *Extractor {
	return &Extractor{
		rowFingerprint: tradeRowFingerprint,
	}
}

// Extract varre o fragmento HTML e devolve os registros crus reconhecidos.
// O parser de HTML é tolerante: fragmentos truncados ou mal formados não
// geram erro, apenas menos candidatos. Com zero candidatos o erro é
// domain.ErrNoTradeData.
func (e *Extractor) Extract(html string) ([]RawRecord, Diagnostics, error) {
	var diag Diagnostics

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, diag, domain.ErrNoTradeData
	}

	candidates := doc.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		attr, ok := s.Attr("class")
		return ok && e.rowFingerprint.Matches(attr)
	})

	diag.Candidates = candidates.Length()
	if diag.Candidates == 0 {
		return nil, diag, domain.ErrNoTradeData
	}

	records := make([]RawRecord, 0, diag.Candidates)
	candidates.Each(func(_ int, row *goquery.Selection) {
		record, err := e.extractRecord(row)
		if err != nil {
			if errors.Is(err, errIncompleteRecord) {
				diag.Incomplete++
			} else {
				diag.Failed++
			}
			return
		}
		records = append(records, record)
	})

	return records, diag, nil
}

// extractRecord lê as quatro regiões de um candidato. A falha é isolada por
// registro: um candidato malformado, inclusive um que cause panic, não
// derruba os irmãos.
func (e *Extractor) extractRecord(row *goquery.Selection) (record RawRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("registro inválido: %v", r)
		}
	}()

	typeColumn := findFirst(row, "div", "portfolio-styles_typeColumn")
	typeSpan := findFirst(typeColumn, "span", "laptop:flex", "hidden")
	assetInfo := row.Find(`div[title="Asset info"]`).First()
	profitLoss := row.Find(`div[title="Profit/Loss"]`).First()
	closeDate := row.Find(`div[title="Close date"]`).First()

	if typeSpan.Length() == 0 || assetInfo.Length() == 0 ||
		profitLoss.Length() == 0 || closeDate.Length() == 0 {
		return RawRecord{}, errIncompleteRecord
	}

	record.Type = trimmedText(typeSpan)

	record.AssetName = trimmedText(findFirst(assetInfo, "p", "font-semibold"))
	record.AssetTicker = trimmedText(findFirst(assetInfo, "span", "text-secondary"))
	classContainer := findFirst(assetInfo, "div", "flex", "items-center")
	record.AssetClass = trimmedText(findFirst(classContainer, "div", "mx-1"))

	record.Amount = trimmedText(findFirst(profitLoss, "p", "laptop:text-md"))
	record.Percent = trimmedText(findFirst(profitLoss, "div", "laptop:font-semibold"))

	record.CloseDate = trimmedText(findFirst(closeDate, "p", "text-secondary"))

	return record, nil
}

func trimmedText(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}
