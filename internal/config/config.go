// Package config loads tally settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings.
type Config struct {
	// Backend
	URL     string
	AnonKey string

	// Local files
	SessionFile string
	LogFile     string
	LogLevel    string

	StrictCategories bool
	HTTPTimeout      time.Duration

	parseErrs []error // malformed values seen by Load
}

// dirName is the per-user state directory under $HOME.
const dirName = ".tally"

// Load reads .env (if present) and then the process environment.
// Variables already set in the environment take precedence over .env.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env is optional

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("config.Load: get home dir: %w", err)
	}
	stateDir := filepath.Join(home, dirName)

	cfg := &Config{
		URL:         strings.TrimRight(getEnv("TALLY_URL", ""), "/"),
		AnonKey:     getEnv("TALLY_ANON_KEY", ""),
		SessionFile: getEnv("TALLY_SESSION_FILE", filepath.Join(stateDir, "session.json")),
		LogFile:     getEnv("TALLY_LOG_FILE", filepath.Join(stateDir, "tally.log")),
		LogLevel:    getEnv("TALLY_LOG_LEVEL", "info"),
	}
	// Malformed values keep the default here and are reported by Validate.
	var perr error
	if cfg.StrictCategories, perr = getEnvBool("TALLY_STRICT_CATEGORIES", false); perr != nil {
		cfg.parseErrs = append(cfg.parseErrs, perr)
	}
	if cfg.HTTPTimeout, perr = getEnvDuration("TALLY_HTTP_TIMEOUT", 30*time.Second); perr != nil {
		cfg.parseErrs = append(cfg.parseErrs, perr)
	}
	return cfg, nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.parseErrs...)

	if c.URL == "" {
		errs = append(errs, errors.New("TALLY_URL is required"))
	} else if u, err := url.Parse(c.URL); err != nil || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid TALLY_URL %q: must be an absolute URL", c.URL))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, fmt.Errorf("invalid TALLY_URL scheme %q: must be http or https", u.Scheme))
	}
	if c.AnonKey == "" {
		errs = append(errs, errors.New("TALLY_ANON_KEY is required"))
	}
	if c.SessionFile == "" {
		errs = append(errs, errors.New("TALLY_SESSION_FILE cannot be empty"))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid TALLY_HTTP_TIMEOUT %s: must be positive", c.HTTPTimeout))
	}
	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "error", "disabled":
	default:
		errs = append(errs, fmt.Errorf("invalid TALLY_LOG_LEVEL %q", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %w", errors.Join(errs...))
	}
	return nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q: must be true or false", key, v)
	}
	return b, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q: must be a duration like 30s", key, v)
	}
	return d, nil
}
