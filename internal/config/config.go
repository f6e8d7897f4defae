package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"efl_xg/ingestion/internal/models"
	"efl_xg/ingestion/internal/scraper"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigurationError reports an invalid option. It is returned before any
// scraping starts.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Config holds all application configuration
type Config struct {
	// Scrape selection
	Seasons       []int    `envconfig:"SEASONS"`
	FirstSeason   int      `envconfig:"FIRST_SEASON" default:"2017"`
	CurrentSeason int      `envconfig:"CURRENT_SEASON" default:"2024"`
	Leagues       []string `envconfig:"LEAGUES" default:"Premier League,Championship"`
	SleepSeconds  float64  `envconfig:"SLEEP_SECONDS" default:"10"`

	// Processing
	FilterIncomplete bool `envconfig:"FILTER_INCOMPLETE" default:"true"`
	PersistToFile    bool `envconfig:"PERSIST_TO_FILE" default:"true"`
	MergeMatchData   bool `envconfig:"MERGE_MATCH_DATA" default:"true"`
	StrictRows       bool `envconfig:"STRICT_ROWS" default:"false"`
	FailFast         bool `envconfig:"FAIL_FAST" default:"false"`

	// Output
	MatchDataPath  string `envconfig:"MATCH_DATA_PATH" default:"match_data.csv"`
	ModelInputPath string `envconfig:"MODEL_INPUT_PATH" default:"model_input.json"`

	// FBRef
	FBRefBaseURL           string        `envconfig:"FBREF_BASE_URL" default:"https://fbref.com"`
	FBRefTimeout           time.Duration `envconfig:"FBREF_TIMEOUT" default:"30s"`
	FBRefRequestsPerMinute int           `envconfig:"FBREF_REQUESTS_PER_MINUTE" default:"10"`
	FBRefMaxRetries        int           `envconfig:"FBREF_MAX_RETRIES" default:"3"`
	FBRefRetryDelay        time.Duration `envconfig:"FBREF_RETRY_DELAY" default:"5s"`
	FBRefUserAgent         string        `envconfig:"FBREF_USER_AGENT" default:"efl-xg-ingestion/1.0"`

	// Database
	DatabaseEnabled  bool   `envconfig:"DATABASE_ENABLED" default:"false"`
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"efl_xg"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"efl_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis
	RedisEnabled  bool          `envconfig:"REDIS_ENABLED" default:"false"`
	RedisHost     string        `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int           `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"6h"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Scheduler
	EnableScheduler    bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	InitialSyncEnabled bool   `envconfig:"INITIAL_SYNC_ENABLED" default:"false"`
	NightlyRefreshCron string `envconfig:"NIGHTLY_REFRESH_CRON" default:"0 4 * * *"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	for i, name := range c.Leagues {
		name = strings.TrimSpace(name)
		c.Leagues[i] = name
		if !models.League(name).IsValid() {
			return &ConfigurationError{Field: "LEAGUES", Value: name, Reason: "not an English Football League competition"}
		}
	}
	if len(c.Leagues) == 0 {
		return &ConfigurationError{Field: "LEAGUES", Reason: "at least one league is required"}
	}

	if c.SleepSeconds < 0 {
		return &ConfigurationError{Field: "SLEEP_SECONDS", Value: fmt.Sprint(c.SleepSeconds), Reason: "must not be negative"}
	}

	if len(c.Seasons) == 0 && c.FirstSeason > c.CurrentSeason {
		return &ConfigurationError{
			Field:  "FIRST_SEASON",
			Value:  fmt.Sprint(c.FirstSeason),
			Reason: fmt.Sprintf("after CURRENT_SEASON %d", c.CurrentSeason),
		}
	}

	if c.FBRefRequestsPerMinute < 0 {
		return &ConfigurationError{Field: "FBREF_REQUESTS_PER_MINUTE", Value: fmt.Sprint(c.FBRefRequestsPerMinute), Reason: "must not be negative"}
	}

	if c.DatabaseEnabled && c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required when DATABASE_ENABLED is set")
	}

	return nil
}

// SeasonList returns SEASONS if set, otherwise every season from
// FIRST_SEASON to CURRENT_SEASON inclusive
func (c *Config) SeasonList() []int {
	if len(c.Seasons) > 0 {
		return append([]int(nil), c.Seasons...)
	}
	seasons := make([]int, 0, c.CurrentSeason-c.FirstSeason+1)
	for s := c.FirstSeason; s <= c.CurrentSeason; s++ {
		seasons = append(seasons, s)
	}
	return seasons
}

// LeagueList returns the configured leagues
func (c *Config) LeagueList() []models.League {
	leagues := make([]models.League, len(c.Leagues))
	for i, name := range c.Leagues {
		leagues[i] = models.League(name)
	}
	return leagues
}

// RunConfig returns the scrape selection as an independent value
func (c *Config) RunConfig() scraper.RunConfig {
	return scraper.RunConfig{
		Seasons: c.SeasonList(),
		Leagues: c.LeagueList(),
		Sleep:   time.Duration(c.SleepSeconds * float64(time.Second)),
	}
}

// FailurePolicy maps FAIL_FAST to an orchestrator policy
func (c *Config) FailurePolicy() scraper.Policy {
	if c.FailFast {
		return scraper.FailFast
	}
	return scraper.ContinueOnError
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
