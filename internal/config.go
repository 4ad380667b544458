package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Catalog sources for product details.
const (
	CatalogUpstream = "upstream"
	CatalogPostgres = "postgres"
)

type Config struct {
	Env           string
	LogLevel      string
	Port          uint16
	SessionCookie string
	Shop          ShopConfig
	Catalog       CatalogConfig
	Notices       NoticeConfig
	RateLimit     RateLimitConfig
}

// ShopConfig points at the shop server that owns carts and checkout.
type ShopConfig struct {
	URL     string
	Timeout time.Duration
}

// CatalogConfig selects where tooltip product details come from.
// "upstream" asks the shop server; "postgres" reads the catalogue replica.
type CatalogConfig struct {
	Source      string
	DatabaseURL string
}

// NoticeConfig configures transient notices. NATSURL is optional; without it
// notices are kept in memory only.
type NoticeConfig struct {
	NATSURL  string
	Subject  string
	Duration time.Duration
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

func NewConfig() (*Config, error) {
	loadDotEnv()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", 3000)
	v.SetDefault("SESSION_COOKIE", "airkicks_sid")
	v.SetDefault("SHOP_URL", "http://localhost:5000")
	v.SetDefault("SHOP_TIMEOUT", "10s")
	v.SetDefault("CATALOG_SOURCE", CatalogUpstream)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("NATS_URL", "")
	v.SetDefault("NOTICE_SUBJECT", "storefront.notices")
	v.SetDefault("NOTICE_DURATION", "3500ms")
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	return configFrom(v)
}

// configFrom builds and validates a Config from v.
func configFrom(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:           v.GetString("ENV"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		Port:          v.GetUint16("PORT"),
		SessionCookie: v.GetString("SESSION_COOKIE"),
		Shop: ShopConfig{
			URL:     v.GetString("SHOP_URL"),
			Timeout: v.GetDuration("SHOP_TIMEOUT"),
		},
		Catalog: CatalogConfig{
			Source:      strings.ToLower(v.GetString("CATALOG_SOURCE")),
			DatabaseURL: v.GetString("DATABASE_URL"),
		},
		Notices: NoticeConfig{
			NATSURL:  v.GetString("NATS_URL"),
			Subject:  v.GetString("NOTICE_SUBJECT"),
			Duration: v.GetDuration("NOTICE_DURATION"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             v.GetInt("RATE_LIMIT_BURST"),
		},
	}

	// Validate env
	if cfg.Env != "dev" && cfg.Env != "prod" {
		log.Warn().Str("env", cfg.Env).Msg("Invalid environment. Using default: prod")
		cfg.Env = "prod"
	}

	// Validate log level
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		log.Warn().Str("value", cfg.LogLevel).Msg("Invalid log level. Using default: info")
		cfg.LogLevel = "info"
	}

	if cfg.Port == 0 {
		return nil, fmt.Errorf("PORT must be a valid port number")
	}
	if cfg.Shop.URL == "" {
		return nil, fmt.Errorf("SHOP_URL is required")
	}
	if cfg.Shop.Timeout <= 0 {
		cfg.Shop.Timeout = 10 * time.Second
	}
	if cfg.Notices.Duration <= 0 {
		cfg.Notices.Duration = 3500 * time.Millisecond
	}
	if cfg.SessionCookie == "" {
		return nil, fmt.Errorf("SESSION_COOKIE must not be empty")
	}

	switch cfg.Catalog.Source {
	case CatalogUpstream:
	case CatalogPostgres:
		if cfg.Catalog.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL required when CATALOG_SOURCE=postgres")
		}
	default:
		return nil, fmt.Errorf("CATALOG_SOURCE must be %q or %q, got %q", CatalogUpstream, CatalogPostgres, cfg.Catalog.Source)
	}

	return cfg, nil
}

// loadDotEnv loads .env from the current directory, walking up at most two
// parents to find it.
func loadDotEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}
	dir, _ := os.Getwd()
	for i := 0; i < 2; i++ {
		dir = filepath.Join(dir, "..")
		if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
			return
		}
	}
	log.Warn().Msg(".env file not found, using environment variables and defaults")
}
