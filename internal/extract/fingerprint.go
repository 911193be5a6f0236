package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Fingerprint é o conjunto de tokens de classe que identifica um elemento.
// O markup do vendor carrega sufixos utilitários gerados por build
// ("portfolio-styles_typeColumn__Psx6k"), então o casamento é por presença
// de cada token no atributo class, em qualquer ordem, e não pela string
// literal.
type Fingerprint []string

func (f Fingerprint) Matches(classAttr string) bool {
	for _, token := range f {
		if !strings.Contains(classAttr, token) {
			return false
		}
	}
	return true
}

// tradeRowFingerprint marca as linhas de trade reais. Cabeçalhos e linhas
// decorativas repetem os tokens de layout, mas não o de borda.
var tradeRowFingerprint = Fingerprint{"border-grey-300", "flex", "items-center"}

// byFingerprint filtra uma seleção goquery pelos tokens de classe.
func byFingerprint(tokens ...string) func(int, *goquery.Selection) bool {
	f := Fingerprint(tokens)
	return func(_ int, s *goquery.Selection) bool {
		attr, ok := s.Attr("class")
		return ok && f.Matches(attr)
	}
}

// findFirst localiza o primeiro descendente da tag com os tokens dados.
// Seleções vazias propagam vazio, o que dispensa checagens intermediárias.
func findFirst(s *goquery.Selection, tag string, tokens ...string) *goquery.Selection {
	return s.Find(tag).FilterFunction(byFingerprint(tokens...)).First()
}
