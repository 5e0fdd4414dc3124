package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Pathwatch/internal/market"
	"github.com/Alias1177/Pathwatch/internal/model"
)

// Config holds all application configuration
type Config struct {
	TwelveAPIKey string
	Symbol       string

	// Simulation
	NumPaths          int
	Tolerance         float64
	HorizonSteps      int
	StepInterval      time.Duration
	Seed              int64
	StartingPriceMode market.StartingPriceMode
	StartingPrice     float64 // used only with explicit-value mode

	// Estimation
	HistoryLookback time.Duration
	HistoryInterval time.Duration
	MultiTimeframe  bool

	// Live loop
	UpdateInterval time.Duration
	FetchTimeout   time.Duration
	RenderTimeout  time.Duration

	// Zone detection
	ZoneBins           int
	ZoneMinSurvivors   int
	ZoneDensityFloor   float64
	ZoneMaxZones       int
	ZoneLookaheadSteps int

	// Operational
	LogLevel    string
	MetricsAddr string

	// Snapshot recorder (Postgres); enabled when DBHost is set
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Zone alerts (Telegram); enabled when both are set
	TelegramToken  string
	TelegramChatID int64
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	mode, err := market.ParseStartingPriceMode(getEnvWithDefault("STARTING_PRICE_MODE", string(market.ModeWeeklyOpen)))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		TwelveAPIKey: os.Getenv("TWELVE_API_KEY"),
		Symbol:       getEnvWithDefault("SYMBOL", "QQQ"),

		NumPaths:          getEnvIntWithDefault("NUM_PATHS", 500),
		Tolerance:         getEnvFloatWithDefault("TOLERANCE", 0.01),
		HorizonSteps:      getEnvIntWithDefault("FORECAST_HORIZON_STEPS", 10080),
		StepInterval:      getEnvDurationWithDefault("STEP_INTERVAL", time.Minute),
		Seed:              int64(getEnvIntWithDefault("SEED", 20)),
		StartingPriceMode: mode,
		StartingPrice:     getEnvFloatWithDefault("STARTING_PRICE", 0),

		HistoryLookback: getEnvDurationWithDefault("HISTORY_LOOKBACK", 30*24*time.Hour),
		HistoryInterval: getEnvDurationWithDefault("HISTORY_INTERVAL", 5*time.Minute),
		MultiTimeframe:  getEnvBoolWithDefault("MULTI_TIMEFRAME", true),

		UpdateInterval: getEnvDurationWithDefault("UPDATE_INTERVAL", time.Minute),
		FetchTimeout:   getEnvDurationWithDefault("FETCH_TIMEOUT", 20*time.Second),
		RenderTimeout:  getEnvDurationWithDefault("RENDER_TIMEOUT", 5*time.Second),

		ZoneBins:           getEnvIntWithDefault("ZONE_BINS", 50),
		ZoneMinSurvivors:   getEnvIntWithDefault("ZONE_MIN_SURVIVORS", 5),
		ZoneDensityFloor:   getEnvFloatWithDefault("ZONE_DENSITY_FLOOR", 0.3),
		ZoneMaxZones:       getEnvIntWithDefault("ZONE_MAX_ZONES", 5),
		ZoneLookaheadSteps: getEnvIntWithDefault("ZONE_LOOKAHEAD_STEPS", 240),

		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		MetricsAddr: os.Getenv("METRICS_ADDR"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnvWithDefault("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),

		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID: int64(getEnvIntWithDefault("TELEGRAM_CHAT_ID", 0)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on any option that would corrupt a run. Called
// before any ensemble is created.
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return &model.InvalidParameterError{Param: "symbol", Reason: "must not be empty"}
	}
	if c.NumPaths < 1 {
		return &model.InvalidParameterError{Param: "num_paths", Reason: "must be at least 1"}
	}
	if c.Tolerance <= 0 || c.Tolerance >= 1 {
		return &model.InvalidParameterError{Param: "tolerance", Reason: "must be in (0, 1)"}
	}
	if c.HorizonSteps < 1 {
		return &model.InvalidParameterError{Param: "forecast_horizon_steps", Reason: "must be at least 1"}
	}
	if c.StepInterval <= 0 {
		return &model.InvalidParameterError{Param: "step_interval", Reason: "must be positive"}
	}
	if c.UpdateInterval <= 0 {
		return &model.InvalidParameterError{Param: "update_interval", Reason: "must be positive"}
	}
	if c.HistoryLookback <= 0 {
		return &model.InvalidParameterError{Param: "history_lookback", Reason: "must be positive"}
	}
	if c.HistoryInterval <= 0 {
		return &model.InvalidParameterError{Param: "history_interval", Reason: "must be positive"}
	}
	if c.StartingPriceMode == market.ModeExplicitValue && c.StartingPrice <= 0 {
		return &model.InvalidParameterError{Param: "starting_price", Reason: "must be positive with explicit-value mode"}
	}
	if c.ZoneBins < 1 {
		return &model.InvalidParameterError{Param: "zone_bins", Reason: "must be at least 1"}
	}
	if c.ZoneDensityFloor < 0 || c.ZoneDensityFloor > 1 {
		return &model.InvalidParameterError{Param: "zone_density_floor", Reason: "must be in [0, 1]"}
	}
	return nil
}

// RecorderEnabled reports whether snapshot persistence is configured
func (c *Config) RecorderEnabled() bool { return c.DBHost != "" }

// TelegramEnabled reports whether zone alerts are configured
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
