package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"milos55/reklamiworker/pkg/errors"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, []string{"reklama5", "pazar3", "itmk"}, config.Sources)
	assert.Equal(t, 1, config.StartPage)
	assert.Equal(t, 5, config.BatchSize)
	assert.Equal(t, 3, config.FetchRetries)
	assert.Equal(t, 2*time.Second, config.FetchRetryDelay)
	assert.Equal(t, 10*time.Second, config.FetchTimeout)
	assert.Equal(t, 2*time.Second, config.BatchPacing)
	assert.Equal(t, "nothing", config.ConflictPolicy)
	assert.Equal(t, "discard", config.MissingFieldPolicy)
	assert.NoError(t, config.Validate())

	// Test with environment variables
	t.Setenv("SOURCES", "reklama5, itmk")
	t.Setenv("START_PAGE", "3")
	t.Setenv("END_PAGE", "9")
	t.Setenv("BATCH_SIZE", "2")
	t.Setenv("FETCH_RETRY_DELAY_SECONDS", "0")
	t.Setenv("UPSERT_ON_CONFLICT", "update")
	t.Setenv("PHONE_BLOCKLIST", "070 111 222")
	t.Setenv("REKLAMA5_URL", "https://example.com/search?page={page}")

	config = LoadConfig()
	assert.Equal(t, []string{"reklama5", "itmk"}, config.Sources)
	assert.Equal(t, 3, config.StartPage)
	assert.Equal(t, 9, config.EndPage)
	assert.Equal(t, 2, config.BatchSize)
	assert.Equal(t, time.Duration(0), config.FetchRetryDelay)
	assert.Equal(t, "update", config.ConflictPolicy)
	assert.Equal(t, []string{"070 111 222"}, config.PhoneBlocklist)
	assert.Equal(t, "https://example.com/search?page={page}", config.Reklama5URL)
	assert.NoError(t, config.Validate())
}

func TestLoadConfigIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("BATCH_SIZE", "many")
	assert.Equal(t, 5, LoadConfig().BatchSize)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown source", func(c *Config) { c.Sources = []string{"ebay"} }},
		{"no sources", func(c *Config) { c.Sources = nil }},
		{"start page zero", func(c *Config) { c.StartPage = 0 }},
		{"end before start", func(c *Config) { c.StartPage, c.EndPage = 4, 2 }},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }},
		{"zero retries", func(c *Config) { c.FetchRetries = 0 }},
		{"zero timeout", func(c *Config) { c.FetchTimeout = 0 }},
		{"bad conflict policy", func(c *Config) { c.ConflictPolicy = "replace" }},
		{"bad missing policy", func(c *Config) { c.MissingFieldPolicy = "keep" }},
		{"url without page", func(c *Config) { c.Pazar3URL = "https://www.pazar3.mk/oglasi" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := LoadConfig()
			tc.mutate(c)
			err := c.Validate()
			assert.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrorTypeConfiguration))
		})
	}
}
