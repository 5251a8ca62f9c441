package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port    string
	GinMode string

	StripeSecretKey    string
	WebhookSecret      string
	ConnectedAccountID string
	APIKey             string

	PlatformName  string
	ConnectedName string

	// Fee knobs in basis points so the split stays in integer math.
	FeePercentBPS int64
	FeeFixedCents int64
	CommissionBPS int64

	MinAmountCents int64
	MaxAmountCents int64

	ToleranceSeconds int

	LedgerBackend string
	BoltPath      string

	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	AutoMigrate bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		StripeSecretKey:    os.Getenv("STRIPE_SECRET_KEY"),
		WebhookSecret:      os.Getenv("STRIPE_WEBHOOK_SECRET"),
		ConnectedAccountID: os.Getenv("CONNECTED_ACCOUNT_ID"),
		APIKey:             os.Getenv("API_KEY"),

		PlatformName:  getEnv("PLATFORM_NAME", "Platform Account"),
		ConnectedName: getEnv("CONNECTED_NAME", "Connected Account"),

		FeePercentBPS: getEnvInt64("FEE_PERCENT_BPS", 290),
		FeeFixedCents: getEnvInt64("FEE_FIXED_CENTS", 30),
		CommissionBPS: getEnvInt64("COMMISSION_BPS", 100),

		MinAmountCents: getEnvInt64("MIN_AMOUNT_CENTS", 50),
		MaxAmountCents: getEnvInt64("MAX_AMOUNT_CENTS", 99999999),

		ToleranceSeconds: int(getEnvInt64("TOLERANCE_SECONDS", 300)),

		LedgerBackend: getEnv("LEDGER_BACKEND", "memory"),
		BoltPath:      getEnv("BOLT_PATH", "ledger.db"),

		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "gateway"),
		DBPassword:  getEnv("DB_PASSWORD", "gateway_secret"),
		DBName:      getEnv("DB_NAME", "gateway"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		AutoMigrate: getEnv("AUTO_MIGRATE", "false") == "true",
	}

	for _, required := range []struct{ key, value string }{
		{"STRIPE_SECRET_KEY", cfg.StripeSecretKey},
		{"STRIPE_WEBHOOK_SECRET", cfg.WebhookSecret},
		{"CONNECTED_ACCOUNT_ID", cfg.ConnectedAccountID},
		{"API_KEY", cfg.APIKey},
	} {
		if required.value == "" {
			return nil, fmt.Errorf("missing required environment variable %s", required.key)
		}
	}

	switch cfg.LedgerBackend {
	case "memory", "bolt", "postgres":
	default:
		return nil, fmt.Errorf("unknown LEDGER_BACKEND %q", cfg.LedgerBackend)
	}

	return cfg, nil
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
