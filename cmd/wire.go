package main

import (
	"fmt"
	"time"

	"github.com/okian/blueprint/internal/adapters/astrology"
	"github.com/okian/blueprint/internal/adapters/notify"
	"github.com/okian/blueprint/internal/adapters/render"
	service "github.com/okian/blueprint/internal/app"
	"github.com/okian/blueprint/internal/config"
	"github.com/okian/blueprint/pkg/logger"
)

// buildService wires the adapters described by cfg into a Service. The
// returned service is not started.
func buildService(cfg *config.Config, log logger.Logger) (*service.Service, error) {
	astro, err := astrology.New(cfg.AstroAPIKey,
		astrology.WithEndpoint(cfg.AstroAPIURL),
		astrology.WithTimeout(time.Duration(cfg.AstroTimeoutMS)*time.Millisecond),
		astrology.WithLogger(log.Named("astrology")),
	)
	if err != nil {
		return nil, fmt.Errorf("astrology client: %w", err)
	}

	conv := render.NewRodConverter(
		render.WithChromeBin(cfg.ChromeBin),
		render.WithControlURL(cfg.ChromeControlURL),
		render.WithNoSandbox(cfg.ChromeNoSandbox),
	)
	renderer := render.New(cfg.TemplateDir, cfg.OutputDir, conv,
		render.WithTemplateName(cfg.TemplateName),
		render.WithUniqueNames(cfg.UniqueReportNames),
		render.WithLogger(log.Named("render")),
	)

	mailer, err := notify.New(notify.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.EmailAddress,
		Password: cfg.EmailPassword,
		Subject:  cfg.EmailSubject,
	}, notify.WithLogger(log.Named("notify")))
	if err != nil {
		_ = renderer.Close()
		return nil, fmt.Errorf("mailer: %w", err)
	}

	return service.New(
		service.WithAstrology(astro),
		service.WithRenderer(renderer),
		service.WithNotifier(mailer),
		service.WithLogger(log.Named("service")),
	), nil
}
