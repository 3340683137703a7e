package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"milos55/reklamiworker/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Sources to crawl, by store id
	Sources []string

	// Batch run
	StartPage     int
	EndPage       int
	BatchSize     int
	BatchPacing   time.Duration
	CrawlInterval time.Duration

	// Fetch engine
	FetchRetries    int
	FetchRetryDelay time.Duration
	FetchTimeout    time.Duration
	HostBlockTime   time.Duration

	// Ingestion policy
	ConflictPolicy     string
	MissingFieldPolicy string
	Placeholder        string
	PhoneBlocklist     []string

	// Postgres configuration
	DatabaseURL string
	DBMaxConns  int

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string

	MetricsAddr    string
	PruneBatchSize int

	// List URL overrides; must contain {page}
	Reklama5URL string
	Pazar3URL   string
	ItmkURL     string

	// Environment
	Environment string
}

// KnownSources lists the store ids a Config may name
var KnownSources = []string{"reklama5", "pazar3", "itmk"}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		Sources:              getEnvList("SOURCES", "reklama5,pazar3,itmk"),
		StartPage:            getEnvInt("START_PAGE", 1),
		EndPage:              getEnvInt("END_PAGE", 5),
		BatchSize:            getEnvInt("BATCH_SIZE", 5),
		BatchPacing:          getEnvSeconds("BATCH_PACING_SECONDS", 2),
		CrawlInterval:        getEnvSeconds("CRAWL_INTERVAL_SECONDS", 0),
		FetchRetries:         getEnvInt("FETCH_RETRIES", 3),
		FetchRetryDelay:      getEnvSeconds("FETCH_RETRY_DELAY_SECONDS", 2),
		FetchTimeout:         getEnvSeconds("FETCH_TIMEOUT_SECONDS", 10),
		HostBlockTime:        getEnvSeconds("HOST_BLOCK_SECONDS", 500),
		ConflictPolicy:       getEnv("UPSERT_ON_CONFLICT", "nothing"),
		MissingFieldPolicy:   getEnv("MISSING_FIELD_POLICY", "discard"),
		Placeholder:          getEnv("MISSING_FIELD_PLACEHOLDER", "NONE FOUND"),
		PhoneBlocklist:       getEnvList("PHONE_BLOCKLIST", "000 000 000,070 000 000,078 000 000"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		DBMaxConns:           getEnvInt("DB_MAX_CONNS", 4),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "ads"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		MetricsAddr:          getEnv("METRICS_ADDR", ""),
		PruneBatchSize:       getEnvInt("PRUNE_BATCH_SIZE", 100),
		Reklama5URL:          getEnv("REKLAMA5_URL", ""),
		Pazar3URL:            getEnv("PAZAR3_URL", ""),
		ItmkURL:              getEnv("ITMK_URL", ""),
		Environment:          getEnv("REKLAMI_ENVIRONMENT", "development"),
	}
}

// Validate checks ranges and enumerations; it does not touch the network
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return errors.NewConfiguration("no sources configured", nil)
	}
	for _, s := range c.Sources {
		if !contains(KnownSources, s) {
			return errors.NewConfiguration(fmt.Sprintf("unknown source %q", s), nil)
		}
	}
	if c.StartPage < 1 {
		return errors.NewConfiguration("START_PAGE must be >= 1", nil)
	}
	if c.EndPage < c.StartPage {
		return errors.NewConfiguration("END_PAGE must be >= START_PAGE", nil)
	}
	if c.BatchSize < 1 {
		return errors.NewConfiguration("BATCH_SIZE must be >= 1", nil)
	}
	if c.FetchRetries < 1 {
		return errors.NewConfiguration("FETCH_RETRIES must be >= 1", nil)
	}
	if c.BatchPacing < 0 || c.FetchRetryDelay < 0 || c.FetchTimeout <= 0 || c.CrawlInterval < 0 {
		return errors.NewConfiguration("durations must be non-negative and the fetch timeout positive", nil)
	}
	if c.ConflictPolicy != "nothing" && c.ConflictPolicy != "update" {
		return errors.NewConfiguration(fmt.Sprintf("UPSERT_ON_CONFLICT must be nothing or update, got %q", c.ConflictPolicy), nil)
	}
	if c.MissingFieldPolicy != "discard" && c.MissingFieldPolicy != "placeholder" {
		return errors.NewConfiguration(fmt.Sprintf("MISSING_FIELD_POLICY must be discard or placeholder, got %q", c.MissingFieldPolicy), nil)
	}
	if c.RedisStreamCount < 1 {
		return errors.NewConfiguration("REDIS_STREAM_COUNT must be >= 1", nil)
	}
	for _, u := range []string{c.Reklama5URL, c.Pazar3URL, c.ItmkURL} {
		if u != "" && !strings.Contains(u, "{page}") {
			return errors.NewConfiguration(fmt.Sprintf("list URL %q lacks a {page} placeholder", u), nil)
		}
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}

func getEnvList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
