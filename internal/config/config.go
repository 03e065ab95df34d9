// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Secrets (astrology key, email credentials) have no defaults and must be
//     supplied through the file or the environment.
//   - Validation errors wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// AstroAPIURL is the planets endpoint of the astrology provider.
	AstroAPIURL string `koanf:"astro_api_url"`

	// AstroAPIKey is sent as a bearer token to the astrology provider.
	AstroAPIKey string `koanf:"astro_api_key"`

	// AstroTimeoutMS bounds each provider call; 0 disables the bound.
	AstroTimeoutMS int `koanf:"astro_timeout_ms"`

	// TemplateDir and TemplateName locate the report template.
	TemplateDir  string `koanf:"template_dir"`
	TemplateName string `koanf:"template_name"`

	// OutputDir receives generated PDF files.
	OutputDir string `koanf:"output_dir"`

	// UniqueReportNames inserts the request id into report file names.
	// When false, reports for the same name overwrite each other.
	UniqueReportNames bool `koanf:"unique_report_names"`

	// ChromeBin optionally points go-rod at a specific Chrome binary.
	ChromeBin string `koanf:"chrome_bin"`

	// ChromeControlURL connects to a running Chrome instead of launching one.
	ChromeControlURL string `koanf:"chrome_control_url"`

	// ChromeNoSandbox disables the Chrome sandbox; usually needed in containers.
	ChromeNoSandbox bool `koanf:"chrome_no_sandbox"`

	// SMTP settings. Port 465 is implicit TLS.
	SMTPHost string `koanf:"smtp_host"`
	SMTPPort int    `koanf:"smtp_port"`

	// EmailAddress and EmailPassword authenticate the SMTP session; the
	// address is also the sender.
	EmailAddress  string `koanf:"email_address"`
	EmailPassword string `koanf:"email_password"`

	// EmailSubject is the fixed subject of report emails.
	EmailSubject string `koanf:"email_subject"`
}

// New creates a Config with defaults. Secrets are left empty.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":8000",
		AstroAPIURL:       "https://api.astroapi.dev/api/v1/planets",
		AstroTimeoutMS:    0,
		TemplateDir:       "templates",
		TemplateName:      "soul_blueprint_template.html",
		OutputDir:         "reports",
		UniqueReportNames: true,
		SMTPHost:          "smtp.gmail.com",
		SMTPPort:          465,
		EmailSubject:      "Your Soul Blueprint",
	}
}

// Validate checks required values. Context is accepted first to follow the
// project-wide convention.
func (c *Config) Validate(_ context.Context) error {
	var missing []string
	if strings.TrimSpace(c.AstroAPIKey) == "" {
		missing = append(missing, "astro_api_key")
	}
	if strings.TrimSpace(c.EmailAddress) == "" {
		missing = append(missing, "email_address")
	}
	if strings.TrimSpace(c.EmailPassword) == "" {
		missing = append(missing, "email_password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %w: %s", ErrInvalidConfig, ErrMissingSecret, strings.Join(missing, ", "))
	}

	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.AstroAPIURL == "":
		return fmt.Errorf("%w: astro_api_url must not be empty", ErrInvalidConfig)
	case c.TemplateDir == "" || c.TemplateName == "":
		return fmt.Errorf("%w: template_dir and template_name must not be empty", ErrInvalidConfig)
	case c.OutputDir == "":
		return fmt.Errorf("%w: output_dir must not be empty", ErrInvalidConfig)
	case c.SMTPHost == "" || c.SMTPPort <= 0:
		return fmt.Errorf("%w: smtp_host and smtp_port are required", ErrInvalidConfig)
	case c.AstroTimeoutMS < 0:
		return fmt.Errorf("%w: astro_timeout_ms must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.AstroAPIKey != "" {
		c.AstroAPIKey = "***"
	}
	if c.EmailPassword != "" {
		c.EmailPassword = "***"
	}
	return c
}
