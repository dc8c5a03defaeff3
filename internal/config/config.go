package config

import (
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	DynamoTables    DynamoTables
	DynamoBootstrap bool

	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	Ledger LedgerConfig

	// Optional sinks. Empty disables them.
	ReconciliationBucket string
	LedgerEventsTopicARN string
	SNSRegion            string

	AllowedOrigins []string // CORS allowed origins

	// TrustedProxies are the ranges whose X-Forwarded-For is believed when
	// keying the rate limiter. Empty means the peer address is always used.
	TrustedProxies []netip.Prefix
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users         string
	Accounts      string
	Transactions  string
	RefreshTokens string
}

// LedgerConfig tunes the optimistic-concurrency retry loop.
type LedgerConfig struct {
	MaxAttempts    int
	CreditAttempts int
	RetryBase      time.Duration
	CreditTimeout  time.Duration
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		DynamoTables: DynamoTables{
			Users:         getEnv("DYNAMO_TABLE_USERS", "users"),
			Accounts:      getEnv("DYNAMO_TABLE_ACCOUNTS", "accounts"),
			Transactions:  getEnv("DYNAMO_TABLE_TRANSACTIONS", "transactions"),
			RefreshTokens: getEnv("DYNAMO_TABLE_REFRESH_TOKENS", "refresh_tokens"),
		},
		DynamoBootstrap: getEnvBool("DYNAMO_BOOTSTRAP", true),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		AccessTokenExpiry:  getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenExpiry: getEnvDuration("REFRESH_TOKEN_TTL", time.Hour),

		Ledger: LedgerConfig{
			MaxAttempts:    getEnvInt("LEDGER_MAX_ATTEMPTS", 5),
			CreditAttempts: getEnvInt("LEDGER_CREDIT_ATTEMPTS", 10),
			RetryBase:      getEnvDuration("LEDGER_RETRY_BASE", 25*time.Millisecond),
			CreditTimeout:  getEnvDuration("LEDGER_CREDIT_TIMEOUT", 10*time.Second),
		},

		ReconciliationBucket: getEnv("RECONCILIATION_BUCKET", ""),
		LedgerEventsTopicARN: getEnv("LEDGER_EVENTS_TOPIC_ARN", ""),
		SNSRegion:            getEnv("SNS_REGION", getEnv("AWS_REGION", "us-east-1")),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustedProxies: getEnvPrefixes("TRUSTED_PROXIES"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("15m", "250ms").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvPrefixes reads a comma-separated list of CIDRs or bare addresses.
// Invalid entries are logged and skipped.
func getEnvPrefixes(key string) []netip.Prefix {
	var out []netip.Prefix
	for _, raw := range strings.Split(os.Getenv(key), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			if addr, err := netip.ParseAddr(raw); err == nil {
				out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
				continue
			}
		}
		p, err := netip.ParsePrefix(raw)
		if err != nil {
			slog.Warn("ignoring invalid trusted proxy", "env", key, "value", raw)
			continue
		}
		out = append(out, p.Masked())
	}
	return out
}
