package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// RateTable mapeia código de moeda para o fator multiplicativo a partir da
// moeda base.
type RateTable struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date,omitempty"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Rate devolve o fator da moeda pedida, se a tabela o tiver.
func (t *RateTable) Rate(currency string) (decimal.Decimal, bool) {
	r, ok := t.Rates[currency]
	return r, ok
}

// Provider consulta o serviço externo de cotações. As chamadas passam por um
// limitador de vazão para respeitar o rate limit público da API; o cache das
// tabelas fica na camada de serviço.
type Provider struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewProvider(baseURL string, timeout time.Duration, requestsPerMinute int) *Provider {
	if baseURL == "" {
		baseURL = "https://api.frankfurter.app"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 10
	}

	burst := requestsPerMinute / 5
	if burst < 1 {
		burst = 1
	}

	return &Provider{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst),
	}
}

// GetRates busca a tabela de conversão para a moeda base.
func (p *Provider) GetRates(ctx context.Context, base string) (*RateTable, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("limite de requisições: %w", err)
	}

	url := fmt.Sprintf("%s/latest?base=%s", p.baseURL, base)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erro ao consultar cotações: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code: %d para URL: %s", resp.StatusCode, url)
	}

	var table RateTable
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		return nil, fmt.Errorf("resposta inválida do serviço de cotações: %w", err)
	}

	if table.Base == "" {
		table.Base = base
	}

	// a base converte por identidade, mas nem toda API a inclui na tabela
	if table.Rates == nil {
		table.Rates = make(map[string]decimal.Decimal, 1)
	}
	if _, ok := table.Rates[table.Base]; !ok {
		table.Rates[table.Base] = decimal.NewFromInt(1)
	}

	return &table, nil
}
