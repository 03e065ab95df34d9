package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/blueprint/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When no secrets are provided", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should fail fast", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When secrets come from the environment", func() {
			setSecrets()
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then defaults are kept and secrets applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.AstroAPIKey, convey.ShouldEqual, "astro-key")
				convey.So(cfg.EmailAddress, convey.ShouldEqual, "reports@example.com")
				convey.So(cfg.EmailPassword, convey.ShouldEqual, "app-password")
				convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
			})
		})

		convey.Convey("When overriding typed values from the environment", func() {
			setSecrets()
			_ = os.Setenv("BLUEPRINT_ADDR", ":9090")
			_ = os.Setenv("BLUEPRINT_SMTP_PORT", "2465")
			_ = os.Setenv("BLUEPRINT_UNIQUE_REPORT_NAMES", "false")
			_ = os.Setenv("BLUEPRINT_ASTRO_TIMEOUT_MS", "1500")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the overrides are decoded", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.SMTPPort, convey.ShouldEqual, 2465)
				convey.So(cfg.UniqueReportNames, convey.ShouldBeFalse)
				convey.So(cfg.AstroTimeoutMS, convey.ShouldEqual, 1500)
			})
		})

		convey.Convey("When loading from a YAML file with env taking precedence", func() {
			yamlContent := `
# report service
addr: ":7000"
output_dir: /tmp/blueprints
astro_api_key: from-file
email_address: file@example.com
email_password: file-secret
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("BLUEPRINT_CONFIG", tmpFile)
			_ = os.Setenv("BLUEPRINT_ASTRO_API_KEY", "from-env")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values load and env wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7000")
				convey.So(cfg.OutputDir, convey.ShouldEqual, "/tmp/blueprints")
				convey.So(cfg.AstroAPIKey, convey.ShouldEqual, "from-env")
				convey.So(cfg.EmailAddress, convey.ShouldEqual, "file@example.com")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("BLUEPRINT_CONFIG", "/nonexistent/blueprint.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a numeric value is invalid", func() {
			setSecrets()
			_ = os.Setenv("BLUEPRINT_SMTP_PORT", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the timeout is negative", func() {
			setSecrets()
			_ = os.Setenv("BLUEPRINT_ASTRO_TIMEOUT_MS", "-1")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func setSecrets() {
	_ = os.Setenv("BLUEPRINT_ASTRO_API_KEY", "astro-key")
	_ = os.Setenv("BLUEPRINT_EMAIL_ADDRESS", "reports@example.com")
	_ = os.Setenv("BLUEPRINT_EMAIL_PASSWORD", "app-password")
}

func clearConfigEnvVars() {
	envVars := []string{
		"BLUEPRINT_CONFIG",
		"BLUEPRINT_ADDR",
		"BLUEPRINT_ASTRO_API_KEY",
		"BLUEPRINT_ASTRO_TIMEOUT_MS",
		"BLUEPRINT_EMAIL_ADDRESS",
		"BLUEPRINT_EMAIL_PASSWORD",
		"BLUEPRINT_SMTP_PORT",
		"BLUEPRINT_UNIQUE_REPORT_NAMES",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "blueprint-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
