package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"stablecircle/internal/logger"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	AppPort        string
	PublicURL      string
	DatabaseURL    string
	JWTSecret      string
	DevMode        bool
	LogLevel       string
	LogJSON        bool
	AllowedOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Ledger LedgerConfig
	Celo   CeloConfig

	RecordRetries  int
	ReconcileCron  string
	AuthMessageTTL time.Duration
	StatsCacheTTL  time.Duration

	APIRateLimit         int
	APIRateWindow        int
	ContributeRateLimit  int
	ContributeRateWindow int
}

// LedgerConfig holds the reward and validation constants of the ledger.
type LedgerConfig struct {
	MinContribution decimal.Decimal
	ReferralReward  decimal.Decimal
	StreakBonus     decimal.Decimal
	StreakThreshold int
	StreakPeriod    time.Duration
	StreakMaxGap    time.Duration
	MaxGroupSize    int
	MinDurationDays int
	MaxDurationDays int
}

type CeloConfig struct {
	Network      string
	RPCURL       string
	PrivateKey   string
	TokenAddress string
	VaultAddress string
	UseMockTx    bool
}

// DefaultLedger returns the production reward constants.
func DefaultLedger() LedgerConfig {
	return LedgerConfig{
		MinContribution: decimal.NewFromInt(10),
		ReferralReward:  decimal.NewFromInt(5),
		StreakBonus:     decimal.NewFromInt(2),
		StreakThreshold: 3,
		StreakPeriod:    24 * time.Hour,
		StreakMaxGap:    48 * time.Hour,
		MaxGroupSize:    20,
		MinDurationDays: 7,
		MaxDurationDays: 365,
	}
}

func Load() *Config {
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	publicURL := strings.TrimRight(os.Getenv("PUBLIC_URL"), "/")
	if publicURL == "" {
		publicURL = "http://localhost:" + port
	}

	var origins []string
	for _, o := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	ledger := DefaultLedger()
	ledger.MinContribution = envDecimal("MIN_CONTRIBUTION", ledger.MinContribution)
	ledger.ReferralReward = envDecimal("REFERRAL_REWARD", ledger.ReferralReward)
	ledger.StreakBonus = envDecimal("STREAK_BONUS", ledger.StreakBonus)
	ledger.StreakThreshold = envInt("STREAK_THRESHOLD", ledger.StreakThreshold)
	ledger.StreakPeriod = envDuration("STREAK_PERIOD", ledger.StreakPeriod)
	ledger.StreakMaxGap = envDuration("STREAK_MAX_GAP", ledger.StreakMaxGap)
	ledger.MaxGroupSize = envInt("MAX_GROUP_SIZE", ledger.MaxGroupSize)
	ledger.MinDurationDays = envInt("MIN_DURATION_DAYS", ledger.MinDurationDays)
	ledger.MaxDurationDays = envInt("MAX_DURATION_DAYS", ledger.MaxDurationDays)
	if ledger.StreakMaxGap < ledger.StreakPeriod {
		logger.Fatal("STREAK_MAX_GAP must not be shorter than STREAK_PERIOD")
	}

	network := os.Getenv("CELO_NETWORK")
	if network == "" {
		network = "alfajores"
	}
	celo := CeloConfig{
		Network:      network,
		RPCURL:       os.Getenv("CELO_RPC_URL"),
		PrivateKey:   os.Getenv("CELO_PRIVATE_KEY"),
		TokenAddress: os.Getenv("CELO_TOKEN_ADDRESS"),
		VaultAddress: os.Getenv("VAULT_ADDRESS"),
		UseMockTx:    os.Getenv("USE_MOCK_TX") != "false",
	}
	if !celo.UseMockTx && celo.PrivateKey == "" {
		logger.Fatal("CELO_PRIVATE_KEY is required when USE_MOCK_TX=false")
	}

	reconcileCron := os.Getenv("RECONCILE_CRON")
	if reconcileCron == "" {
		reconcileCron = "0 */15 * * * *"
	}

	return &Config{
		AppPort:        port,
		PublicURL:      publicURL,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      jwtSecret,
		DevMode:        os.Getenv("DEV_MODE") == "true",
		LogLevel:       strings.ToLower(os.Getenv("LOG_LEVEL")),
		LogJSON:        os.Getenv("LOG_JSON") == "true",
		AllowedOrigins: origins,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		Ledger: ledger,
		Celo:   celo,

		RecordRetries:  envInt("RECORD_RETRIES", 3),
		ReconcileCron:  reconcileCron,
		AuthMessageTTL: envDuration("AUTH_MESSAGE_TTL", time.Hour),
		StatsCacheTTL:  envDuration("STATS_CACHE_TTL", 30*time.Second),

		APIRateLimit:         envInt("API_RATE_LIMIT", 120),
		APIRateWindow:        envInt("API_RATE_WINDOW_SECONDS", 60),
		ContributeRateLimit:  envInt("CONTRIBUTE_RATE_LIMIT", 10),
		ContributeRateWindow: envInt("CONTRIBUTE_RATE_WINDOW_SECONDS", 60),
	}
}

// envInt returns a non-negative integer from key, or def when unset or invalid.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
		logger.Warn("ignoring invalid integer env", "key", key, "value", v)
	}
	return def
}

func envDecimal(key string, def decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && d.IsPositive() {
			return d
		}
		logger.Warn("ignoring invalid decimal env", "key", key, "value", v)
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		logger.Warn("ignoring invalid duration env", "key", key, "value", v)
	}
	return def
}
