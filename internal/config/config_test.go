package config_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/blueprint/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
			convey.So(cfg.AstroAPIURL, convey.ShouldEqual, "https://api.astroapi.dev/api/v1/planets")
			convey.So(cfg.TemplateDir, convey.ShouldEqual, "templates")
			convey.So(cfg.TemplateName, convey.ShouldEqual, "soul_blueprint_template.html")
			convey.So(cfg.OutputDir, convey.ShouldEqual, "reports")
			convey.So(cfg.UniqueReportNames, convey.ShouldBeTrue)
			convey.So(cfg.SMTPPort, convey.ShouldEqual, 465)
			convey.So(cfg.AstroAPIKey, convey.ShouldBeEmpty)
			convey.So(cfg.ChromeNoSandbox, convey.ShouldBeFalse)
		})

		convey.Convey("Then validation fails fast on missing secrets", func() {
			err := cfg.Validate(context.Background())
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(errors.Is(err, config.ErrMissingSecret), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "astro_api_key")
			convey.So(err.Error(), convey.ShouldContainSubstring, "email_address")
			convey.So(err.Error(), convey.ShouldContainSubstring, "email_password")
		})
	})
}

func TestConfig_Redacted(t *testing.T) {
	convey.Convey("Given a config holding secrets", t, func() {
		cfg := config.New()
		cfg.AstroAPIKey = "key"
		cfg.EmailPassword = "pw"

		red := cfg.Redacted()

		convey.Convey("Then the copy hides them and the original is untouched", func() {
			convey.So(red.AstroAPIKey, convey.ShouldEqual, "***")
			convey.So(red.EmailPassword, convey.ShouldEqual, "***")
			convey.So(cfg.AstroAPIKey, convey.ShouldEqual, "key")
		})
	})
}
