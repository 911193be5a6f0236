package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"

	"github.com/jeovahfialho/portfolio-analyzer/internal/domain"
)

// numberNoise cobre símbolos de moeda, separadores de milhar e sufixos de
// unidade que o vendor mistura ao número. O sinal negativo fica de fora;
// o "+" é redundante e cai junto com o resto.
var numberNoise = regexp.MustCompile(`(?i)[$\s,¥+%]|chf|≈|lots`)

// closeDateLayout é o formato absoluto do vendor: "04 Jan 2024, 02:30 PM".
const closeDateLayout = "02 Jan 2006, 03:04 PM"

// NormalizeNumber converte texto numérico decorado em decimal. Texto vazio
// ou imparseável vira NullDecimal inválido; a função nunca retorna erro.
func NormalizeNumber(text string) decimal.NullDecimal {
	cleaned := numberNoise.ReplaceAllString(text, "")
	if cleaned == "" {
		return decimal.NullDecimal{}
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}
	}

	return decimal.NullDecimal{Decimal: value, Valid: true}
}

// NormalizeDate resolve o texto de data do vendor para um instante canônico.
// Datas relativas ("2 hours ago") colapsam para a data de now; o resto tenta
// o layout absoluto do vendor e, por fim, um parse genérico.
func NormalizeDate(text string, now time.Time) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	if strings.Contains(strings.ToLower(text), "ago") {
		return domain.DateOnly(now), true
	}

	if ts, err := time.Parse(closeDateLayout, text); err == nil {
		return ts, true
	}

	ts, err := dateparse.ParseAny(text)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
