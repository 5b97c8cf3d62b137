package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultSource is used when neither the environment nor the manifest names one.
const DefaultSource = "https://api.nuget.org/v3/index.json"

// Config holds all environment configuration
type Config struct {
	// Server
	Port string

	// Package metadata sources
	Sources     []string
	HTTPTimeout time.Duration

	// Response cache: "", "sqlite:<path>" or "redis://..."
	Cache    string
	CacheTTL time.Duration

	// Per-decorator finding cache size
	LRUSize int

	// Decorators enabled by default
	CheckVulnerabilities bool
	CheckDeprecation     bool
}

// Load reads .env files (missing ones are ignored) and then the environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(key, defaultValue string) string {
		if value := getenv(key); value != "" {
			return value
		}
		return defaultValue
	}

	config := &Config{
		Port:    env("DEPVIS_PORT", "8080"),
		Sources: splitList(env("DEPVIS_SOURCES", DefaultSource)),
		Cache:   env("DEPVIS_CACHE", ""),
	}

	var err error
	if config.HTTPTimeout, err = parseDuration("DEPVIS_HTTP_TIMEOUT", env("DEPVIS_HTTP_TIMEOUT", "30s")); err != nil {
		return nil, err
	}
	if config.CacheTTL, err = parseDuration("DEPVIS_CACHE_TTL", env("DEPVIS_CACHE_TTL", "24h")); err != nil {
		return nil, err
	}
	if config.LRUSize, err = strconv.Atoi(env("DEPVIS_LRU_SIZE", "4096")); err != nil || config.LRUSize <= 0 {
		return nil, fmt.Errorf("DEPVIS_LRU_SIZE must be a positive integer, got %q", getenv("DEPVIS_LRU_SIZE"))
	}
	if config.CheckVulnerabilities, err = parseBool("DEPVIS_CHECK_VULNERABILITIES", env("DEPVIS_CHECK_VULNERABILITIES", "false")); err != nil {
		return nil, err
	}
	if config.CheckDeprecation, err = parseBool("DEPVIS_CHECK_DEPRECATION", env("DEPVIS_CHECK_DEPRECATION", "false")); err != nil {
		return nil, err
	}

	return config, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, value)
	}
	return d, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, value)
	}
	return b, nil
}

// splitList splits a comma separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SourcesFor picks the sources to query: an explicit override first, then the
// sources recorded in the manifest, then the configured defaults.
func (c *Config) SourcesFor(override string, manifestSources []string) []string {
	if sources := splitList(override); len(sources) > 0 {
		return sources
	}
	if len(manifestSources) > 0 {
		return manifestSources
	}
	return c.Sources
}
