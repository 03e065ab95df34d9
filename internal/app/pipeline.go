package service

import (
	"context"
	"time"

	"github.com/okian/blueprint/internal/domain/failure"
	"github.com/okian/blueprint/internal/domain/model"
	"github.com/okian/blueprint/pkg/logger"
	"github.com/okian/blueprint/pkg/metrics"
)

// State is a step of the blueprint pipeline.
type State string

// Pipeline states. Completed and Failed are terminal.
const (
	StateReceived  State = "received"
	StateReduced   State = "reduced"
	StateEnriched  State = "enriched"
	StateRendered  State = "rendered"
	StateNotified  State = "notified"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// pipeline tracks one Generate call.
type pipeline struct {
	svc   *Service
	id    string
	start time.Time
	state State
}

func (p *pipeline) enter(ctx context.Context, state State, fields ...logger.Field) {
	p.state = state
	fields = append(fields, logger.RequestID(p.id), logger.String("state", string(state)))
	p.svc.logger.Debug(ctx, "blueprint state", fields...)
}

// stage runs fn and records its latency and outcome.
func (p *pipeline) stage(name string, fn func() error) error {
	start := p.svc.now()
	err := fn()
	metrics.RecordStage(name, err == nil, float64(p.svc.now().Sub(start).Milliseconds()))
	return err
}

func (p *pipeline) elapsed() time.Duration {
	return p.svc.now().Sub(p.start)
}

func (p *pipeline) complete(ctx context.Context) {
	p.state = StateCompleted
	p.svc.completed.Add(1)
	metrics.RecordBlueprintGenerated()
	metrics.RecordPipelineDuration(float64(p.elapsed().Milliseconds()))
	p.svc.logger.Info(ctx, "blueprint generated",
		logger.RequestID(p.id),
		logger.Duration("elapsed", p.elapsed()),
	)
}

// fail moves the pipeline to Failed and logs the state it failed in.
func (p *pipeline) fail(ctx context.Context, err error) (model.Result, error) {
	from := p.state
	p.state = StateFailed
	kind := failure.KindOf(err)

	p.svc.failed.Add(1)
	metrics.RecordBlueprintFailure(string(kind))
	metrics.RecordPipelineDuration(float64(p.elapsed().Milliseconds()))
	p.svc.logger.Warn(ctx, "blueprint failed",
		logger.RequestID(p.id),
		logger.String("state", string(from)),
		logger.String("kind", string(kind)),
		logger.Error(err),
	)
	return model.Result{RequestID: p.id}, err
}
