package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	RedisURL       string        `envconfig:"REDIS_URL" default:"redis://localhost:6379"`
	CacheEnabled   bool          `envconfig:"CACHE_ENABLED" default:"true"`
	MetricsMemoTTL time.Duration `envconfig:"METRICS_MEMO_TTL" default:"30s"`

	RatesURL       string        `envconfig:"RATES_URL" default:"https://api.frankfurter.app"`
	RatesTimeout   time.Duration `envconfig:"RATES_TIMEOUT" default:"5s"`
	RatesTTL       time.Duration `envconfig:"RATES_TTL" default:"1h"`
	RatesPerMinute int           `envconfig:"RATES_PER_MINUTE" default:"10"`
	BaseCurrency   string        `envconfig:"BASE_CURRENCY" default:"USD"`

	SessionTTL      time.Duration `envconfig:"SESSION_TTL" default:"4h"`
	CleanupInterval time.Duration `envconfig:"CLEANUP_INTERVAL" default:"10m"`
	MaxHTMLBytes    int           `envconfig:"MAX_HTML_BYTES" default:"5242880"`

	TopTradesDefault int `envconfig:"TOP_TRADES_DEFAULT" default:"10"`

	APIHost         string        `envconfig:"API_HOST" default:"0.0.0.0"`
	APIPort         string        `envconfig:"API_PORT" default:"8000"`
	APIReadTimeout  time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	APIWriteTimeout time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"10s"`

	MetricsEnabled bool `envconfig:"METRICS_ENABLED" default:"true"`

	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func Load() *Config {
	// .env é opcional; variáveis já exportadas têm precedência
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	return &cfg
}
