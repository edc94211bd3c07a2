// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gitlab.com/yelinaung/finance-bot/internal/logger"
	"gitlab.com/yelinaung/finance-bot/internal/telemetry"
)

const (
	defaultAPITimeout   = 10 * time.Second
	defaultTimezone     = "Europe/Moscow"
	defaultUserCacheTTL = time.Hour
	defaultServiceName  = "finance-bot"
	listingYearSpan     = 3
)

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken     string
	APIBaseURL           string
	APIToken             string
	APITimeout           time.Duration
	DatabaseURL          string
	LogLevel             string
	LogJSON              bool
	LogHashSalt          string
	WhitelistedUserIDs   []int64
	WhitelistedUsernames []string
	ListingYears         []int
	Timezone             string
	Location             *time.Location
	UserCacheTTL         time.Duration
	OTelExporter         string
	ServiceName          string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(time.Now())
}

func load(now time.Time) (*Config, error) {
	var errs []string

	cfg := &Config{
		TelegramBotToken: strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		APIBaseURL:       strings.TrimSpace(os.Getenv("API_BASE_URL")),
		APIToken:         strings.TrimSpace(os.Getenv("API_TOKEN")),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		LogJSON:          os.Getenv("LOG_JSON") == "true",
		LogHashSalt:      os.Getenv("LOG_HASH_SALT"),
		APITimeout:       durationOr(os.Getenv("API_TIMEOUT"), defaultAPITimeout),
		UserCacheTTL:     durationOr(os.Getenv("USER_CACHE_TTL"), defaultUserCacheTTL),
		OTelExporter:     telemetry.ExporterNone,
		ServiceName:      defaultServiceName,
	}

	if name := strings.TrimSpace(os.Getenv("OTEL_SERVICE_NAME")); name != "" {
		cfg.ServiceName = name
	}

	switch exp := strings.ToLower(strings.TrimSpace(os.Getenv("OTEL_EXPORTER"))); exp {
	case "", telemetry.ExporterNone:
	case telemetry.ExporterStdout, telemetry.ExporterOTLPHTTP, telemetry.ExporterOTLPGRPC:
		cfg.OTelExporter = exp
	default:
		errs = append(errs, fmt.Sprintf("OTEL_EXPORTER %q is not one of none, stdout, otlphttp, otlpgrpc", exp))
	}

	cfg.Timezone = defaultTimezone
	if tz := strings.TrimSpace(os.Getenv("TIMEZONE")); tz != "" {
		cfg.Timezone = tz
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		errs = append(errs, fmt.Sprintf("TIMEZONE %q is invalid", cfg.Timezone))
		loc = time.UTC
	}
	cfg.Location = loc

	cfg.WhitelistedUserIDs = parseIDs(os.Getenv("WHITELISTED_USER_IDS"))

	for username := range strings.SplitSeq(os.Getenv("WHITELISTED_USERNAMES"), ",") {
		username = strings.TrimPrefix(strings.TrimSpace(username), "@")
		if username == "" {
			continue
		}
		cfg.WhitelistedUsernames = append(cfg.WhitelistedUsernames, username)
	}

	cfg.ListingYears = parseYears(os.Getenv("LISTING_YEARS"))
	if len(cfg.ListingYears) == 0 {
		current := now.In(loc).Year()
		for y := current - listingYearSpan + 1; y <= current; y++ {
			cfg.ListingYears = append(cfg.ListingYears, y)
		}
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return cfg, nil
}

// validate checks that all required configuration is present.
func (c *Config) validate() []string {
	var errs []string

	if c.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}

	if c.APIBaseURL == "" {
		errs = append(errs, "API_BASE_URL is required")
	} else if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		errs = append(errs, "API_BASE_URL must start with http:// or https://")
	}

	switch {
	case c.LogHashSalt == "":
		errs = append(errs, "LOG_HASH_SALT is required")
	case len(c.LogHashSalt) < logger.MinHashSaltLength:
		errs = append(errs, fmt.Sprintf("LOG_HASH_SALT must be at least %d characters", logger.MinHashSaltLength))
	}

	return errs
}

func durationOr(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseIDs(raw string) []int64 {
	var ids []int64
	for idStr := range strings.SplitSeq(raw, ",") {
		idStr = strings.TrimSpace(idStr)
		if idStr == "" {
			continue
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func parseYears(raw string) []int {
	var years []int
	for s := range strings.SplitSeq(raw, ",") {
		y, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || y < 1900 || y > 2999 {
			continue
		}
		if !slices.Contains(years, y) {
			years = append(years, y)
		}
	}
	slices.Sort(years)
	return years
}

// HasWhitelist reports whether access is restricted to listed users.
func (c *Config) HasWhitelist() bool {
	return len(c.WhitelistedUserIDs) > 0 || len(c.WhitelistedUsernames) > 0
}

// IsUserWhitelisted checks if a Telegram user ID or username is allowed.
// Everyone is allowed when no whitelist is configured.
func (c *Config) IsUserWhitelisted(userID int64, username string) bool {
	if !c.HasWhitelist() {
		return true
	}

	if slices.Contains(c.WhitelistedUserIDs, userID) {
		return true
	}

	// Usernames compare case-insensitively.
	if username != "" {
		username = strings.TrimPrefix(username, "@")
		for _, whitelisted := range c.WhitelistedUsernames {
			if strings.EqualFold(whitelisted, username) {
				return true
			}
		}
	}

	return false
}
