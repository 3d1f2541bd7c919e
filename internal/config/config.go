// Package config loads the engine's environment-variable configuration,
// mirroring the defaulting and validation style of the teacher's
// server/configuration.go (IsValid / GetPollInterval-style getters) and
// sourced from os.LookupEnv per original_source/server/src/config.rs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	envHost          = "GH_PILOT_HOST"
	envPort          = "GH_PILOT_PORT"
	envRulesetPath   = "GH_PILOT_RULESET_PATH"
	envWebhookSecret = "GH_PILOT_WEBHOOK_SECRET"
	envUsername      = "GH_PILOT_USERNAME"
	envAuthToken     = "GH_PILOT_AUTH_TOKEN"

	defaultHost        = "127.0.0.1"
	defaultPort        = 8330
	defaultRulesetPath = "rules.yaml"
)

// Config is the engine's fully-resolved runtime configuration.
type Config struct {
	Host          string
	Port          int
	RulesetPath   string
	WebhookSecret string
	Username      string
	AuthToken     string
}

// Load reads configuration from the process environment, applying the
// same defaults the original server process used.
func Load() (*Config, error) {
	c := &Config{
		Host:          lookupOr(envHost, defaultHost),
		RulesetPath:   lookupOr(envRulesetPath, defaultRulesetPath),
		WebhookSecret: os.Getenv(envWebhookSecret),
		Username:      os.Getenv(envUsername),
		AuthToken:     os.Getenv(envAuthToken),
	}

	port := defaultPort
	if raw, ok := os.LookupEnv(envPort); ok && raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "%s must be an integer, got %q", envPort, raw)
		}
		port = parsed
	}
	c.Port = port

	if err := c.IsValid(); err != nil {
		return nil, err
	}
	return c, nil
}

// IsValid checks that required configuration is present and well-formed,
// matching the teacher's IsValid pattern.
func (c *Config) IsValid() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("%s must not be empty", envHost)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", envPort, c.Port)
	}
	if strings.TrimSpace(c.RulesetPath) == "" {
		return fmt.Errorf("%s must not be empty", envRulesetPath)
	}
	return nil
}

// Addr returns the host:port pair suitable for http.Server.Addr.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func lookupOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
