package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds the configuration for the peer-practice backend.
// Environment variables are parsed from the PEER_PRACTICE_ prefix.
type Config struct {
	// HTTP configuration
	HTTPPort           int      `envconfig:"HTTP_PORT" default:"3000"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost,https://localhost"`

	// WebRoot serves the compiled frontend when set; empty disables static
	// file serving.
	WebRoot string `envconfig:"WEB_ROOT" default:""`

	// DataDir holds the snapshot files and is owned exclusively by the
	// storage actor.
	DataDir string `envconfig:"DATA_DIR" default:"/data/peer-practice"`

	// JWTSecret signs access-token cookies.
	JWTSecret string `envconfig:"JWT_SECRET" default:"change-me-jwt-secret"`

	// SweepIntervalMinutes is the cadence of the expired-post sweep.
	SweepIntervalMinutes int `envconfig:"SWEEP_INTERVAL_MINUTES" default:"60"`

	// LoginRatePerMinute caps PIN-email requests across all clients.
	LoginRatePerMinute int `envconfig:"LOGIN_RATE_PER_MINUTE" default:"10"`

	// SMTP configuration for login-code mail
	SMTPHost    string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort    int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser    string `envconfig:"SMTP_USER" default:""`
	SMTPPass    string `envconfig:"SMTP_PASS" default:""`
	MailFrom    string `envconfig:"MAIL_FROM" default:"noreply@peer-practice.local"`
	MailReplyTo string `envconfig:"MAIL_REPLY_TO" default:""`
}

// New creates a Config by parsing environment variables.
// Example: PEER_PRACTICE_HTTP_PORT, PEER_PRACTICE_DATA_DIR.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("PEER_PRACTICE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	log.Info().
		Int("port", cfg.HTTPPort).
		Str("data_dir", cfg.DataDir).
		Str("web_root", cfg.WebRoot).
		Strs("cors_allowed_origins", cfg.CORSAllowedOrigins).
		Int("sweep_interval_minutes", cfg.SweepIntervalMinutes).
		Str("smtp_host", cfg.SMTPHost).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config suitable for unit tests.
func NewForTesting(dataDir string) *Config {
	return &Config{
		HTTPPort:             3000,
		CORSAllowedOrigins:   []string{"http://localhost"},
		DataDir:              dataDir,
		JWTSecret:            "test-secret",
		SweepIntervalMinutes: 60,
		LoginRatePerMinute:   100,
		SMTPHost:             "localhost",
		SMTPPort:             1025,
		MailFrom:             "noreply@test.local",
	}
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
