// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/blueprint/internal/domain/failure"
	"github.com/okian/blueprint/internal/domain/humandesign"
	"github.com/okian/blueprint/internal/domain/model"
	"github.com/okian/blueprint/internal/domain/numerology"
	"github.com/okian/blueprint/pkg/logger"
	"github.com/okian/blueprint/pkg/metrics"
)

// SuccessMessage is returned with every completed blueprint.
const SuccessMessage = "Blueprint generated"

// Sentinel kinds for service errors.
var (
	ErrNotStarted          = errors.New("service not started")
	ErrMissingDependency   = errors.New("service dependency missing")
	ErrNotifierUnavailable = errors.New("email notifications are not configured")
)

// Astrology looks up the signs for a birth moment.
type Astrology interface {
	Lookup(ctx context.Context, birthDate, birthTime, birthPlace string) (model.AstrologyResult, error)
}

// Renderer writes a report PDF and can take it back.
type Renderer interface {
	Render(ctx context.Context, report model.Report) (string, error)
	Remove(path string) error
}

// Notifier emails a rendered report.
type Notifier interface {
	Send(ctx context.Context, to, pdfPath string) error
}

// Service runs the blueprint pipeline for one profile at a time per call.
// Calls are independent; the only shared state is the statistics counters.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	astrology Astrology
	renderer  Renderer
	notifier  Notifier

	// Hooks
	now   func() time.Time
	newID func() string

	// State
	started bool

	// Statistics
	requests  atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	notified  atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithAstrology sets the astrology client.
func WithAstrology(a Astrology) Option {
	return func(s *Service) {
		if a != nil {
			s.astrology = a
		}
	}
}

// WithRenderer sets the report renderer.
func WithRenderer(r Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithNotifier sets the email notifier. Without one, profiles carrying an
// email address fail.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how request ids are produced.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New constructs a new Service.
func New(opts ...Option) *Service {
	s := &Service{
		now:    time.Now,
		newID:  uuid.NewString,
		logger: nil, // replaced when the service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start checks the collaborators and marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	switch {
	case s.astrology == nil:
		return errors.Join(ErrMissingDependency, errors.New("astrology client"))
	case s.renderer == nil:
		return errors.Join(ErrMissingDependency, errors.New("renderer"))
	}

	s.started = true
	s.logger.Info(ctx, "blueprint service started",
		logger.Bool("notifications", s.notifier != nil),
	)
	return nil
}

// Stop releases collaborators that hold resources, such as the PDF browser.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping blueprint service...")

	if closer, ok := s.renderer.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(ctx, "renderer close failed", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "blueprint service stopped")
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"started":       s.isStarted(),
		"requests":      s.requests.Load(),
		"completed":     s.completed.Load(),
		"failed":        s.failed.Load(),
		"notified":      s.notified.Load(),
		"notifications": s.notifier != nil,
	}
}

// Generate runs the pipeline for profile: validate, derive numerology and
// human design, look up astrology, render the PDF and, when the profile has an
// email address, mail it. If mailing fails the PDF is removed again so a
// failed request leaves no artifact.
func (s *Service) Generate(ctx context.Context, profile model.BirthProfile) (model.Result, error) {
	const op = "service.generate"

	if !s.isStarted() {
		return model.Result{}, failure.Wrap(op, failure.KindInternal, ErrNotStarted)
	}

	run := &pipeline{svc: s, id: s.newID(), start: s.now()}
	s.requests.Add(1)
	run.enter(ctx, StateReceived)

	if err := profile.Validate(); err != nil {
		return run.fail(ctx, err)
	}

	// Reduced
	lifePath := numerology.LifePath(profile.BirthDate)
	hd, err := humandesign.Classify(profile.BirthTime)
	if err != nil {
		return run.fail(ctx, err)
	}
	metrics.RecordLifePath(lifePath)
	metrics.RecordHumanDesign(hd.Type)
	run.enter(ctx, StateReduced, logger.Int("life_path", lifePath), logger.String("hd_type", hd.Type))

	// Enriched
	var astro model.AstrologyResult
	err = run.stage("astrology", func() error {
		var lookupErr error
		astro, lookupErr = s.astrology.Lookup(ctx, profile.BirthDate, profile.BirthTime, profile.BirthPlace)
		return lookupErr
	})
	if err != nil {
		return run.fail(ctx, failure.Default(op, failure.KindProvider, err))
	}
	run.enter(ctx, StateEnriched)

	// Rendered
	report := model.NewReport(run.id, profile, astro, hd, lifePath, run.start)
	var pdfPath string
	err = run.stage("render", func() error {
		var renderErr error
		pdfPath, renderErr = s.renderer.Render(ctx, report)
		return renderErr
	})
	if err != nil {
		return run.fail(ctx, failure.Default(op, failure.KindRender, err))
	}
	run.enter(ctx, StateRendered, logger.String("pdf_path", pdfPath))

	// Notified
	notified := false
	if profile.WantsEmail() {
		err = run.stage("notify", func() error {
			if s.notifier == nil {
				return failure.Wrap(op, failure.KindTransport, ErrNotifierUnavailable)
			}
			return s.notifier.Send(ctx, profile.Email, pdfPath)
		})
		if err != nil {
			s.compensate(ctx, run.id, pdfPath)
			return run.fail(ctx, failure.Default(op, failure.KindTransport, err))
		}
		notified = true
		s.notified.Add(1)
		run.enter(ctx, StateNotified)
	}

	run.complete(ctx)
	return model.Result{
		RequestID: run.id,
		Message:   SuccessMessage,
		PDFPath:   pdfPath,
		Notified:  notified,
	}, nil
}

// compensate deletes a report whose request failed after rendering.
func (s *Service) compensate(ctx context.Context, requestID, path string) {
	if err := s.renderer.Remove(path); err != nil {
		s.logger.Error(ctx, "failed to remove report after notification failure",
			logger.RequestID(requestID),
			logger.String("pdf_path", path),
			logger.Error(err),
		)
		return
	}
	metrics.RecordReportRemoved()
	s.logger.Debug(ctx, "removed report after notification failure",
		logger.RequestID(requestID),
		logger.String("pdf_path", path),
	)
}
