// Package config reads the server configuration from the environment.
//
// A .env file in the working directory is loaded first when present; real
// environment variables always win over it.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minSecretLength = 16

type Config struct {
	Port        int
	DatabaseURL string

	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool

	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	AIMaxConcurrency int

	CORSOrigins []string
	UploadsDir  string
	CacheTTL    time.Duration
	LogLevel    slog.Level

	AdminUsername string
	AdminPassword string
}

// Load reads .env (if any) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults and rejecting
// missing or malformed values. Every problem is reported, not just the first.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	c := &Config{
		DatabaseURL:   get("DATABASE_URL", ""),
		SessionSecret: get("SESSION_SECRET", ""),
		OpenAIAPIKey:  get("OPENAI_API_KEY", ""),
		OpenAIBaseURL: strings.TrimRight(get("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		OpenAIModel:   get("OPENAI_MODEL", "gpt-4o"),
		UploadsDir:    get("UPLOADS_DIR", "uploads"),
		AdminUsername: get("ADMIN_USERNAME", ""),
		AdminPassword: getenv("ADMIN_PASSWORD"),
	}

	if c.DatabaseURL == "" {
		fail("DATABASE_URL is required")
	}
	switch {
	case c.SessionSecret == "":
		fail("SESSION_SECRET is required")
	case len(c.SessionSecret) < minSecretLength:
		fail("SESSION_SECRET must be at least %d characters", minSecretLength)
	}

	var err error
	if c.Port, err = strconv.Atoi(get("PORT", "8080")); err != nil || c.Port <= 0 || c.Port > 65535 {
		fail("PORT must be a valid port number")
	}
	if c.AIMaxConcurrency, err = strconv.Atoi(get("AI_MAX_CONCURRENCY", "4")); err != nil || c.AIMaxConcurrency < 1 {
		fail("AI_MAX_CONCURRENCY must be a positive integer")
	}
	if c.SessionTTL, err = time.ParseDuration(get("SESSION_TTL", "168h")); err != nil || c.SessionTTL <= 0 {
		fail("SESSION_TTL must be a positive duration")
	}
	if c.CacheTTL, err = time.ParseDuration(get("CACHE_TTL", "5m")); err != nil || c.CacheTTL < 0 {
		fail("CACHE_TTL must be a duration")
	}
	if c.CookieSecure, err = strconv.ParseBool(get("COOKIE_SECURE", "false")); err != nil {
		fail("COOKIE_SECURE must be true or false")
	}
	if err := c.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		fail("LOG_LEVEL must be one of debug, info, warn, error")
	}

	for _, origin := range strings.Split(get("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			c.CORSOrigins = append(c.CORSOrigins, origin)
		}
	}

	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		fail("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return c, nil
}

// Addr is the listen address for http.Server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// BootstrapAdmin reports whether an admin account should be ensured at startup.
func (c *Config) BootstrapAdmin() bool {
	return c.AdminUsername != "" && c.AdminPassword != ""
}
