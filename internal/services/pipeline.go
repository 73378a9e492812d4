package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/RIGishan/text-toolkit/internal/transform"
	"github.com/RIGishan/text-toolkit/internal/workflow"
	"github.com/RIGishan/text-toolkit/pkg/models"
)

const instrumentationName = "github.com/RIGishan/text-toolkit/internal/services"

// PipelineService runs transforms and step chains, recording one span and
// a set of metrics per run.
type PipelineService struct {
	registry *transform.Registry
	logger   Logger

	runs     metric.Int64Counter
	failures metric.Int64Counter
	steps    metric.Int64Counter
	duration metric.Float64Histogram
}

// PipelineOption configures a PipelineService.
type PipelineOption func(*pipelineConfig)

type pipelineConfig struct {
	meterProvider metric.MeterProvider
}

// WithMeterProvider records metrics on mp instead of the global provider.
func WithMeterProvider(mp metric.MeterProvider) PipelineOption {
	return func(c *pipelineConfig) { c.meterProvider = mp }
}

// NewPipelineService returns a PipelineService over reg.
func NewPipelineService(reg *transform.Registry, logger Logger, opts ...PipelineOption) (*PipelineService, error) {
	cfg := pipelineConfig{meterProvider: otel.GetMeterProvider()}
	for _, opt := range opts {
		opt(&cfg)
	}
	meter := cfg.meterProvider.Meter(instrumentationName)

	p := &PipelineService{registry: reg, logger: logger}
	var err error
	if p.runs, err = meter.Int64Counter("textkit.pipeline.runs",
		metric.WithDescription("Pipeline runs started")); err != nil {
		return nil, err
	}
	if p.failures, err = meter.Int64Counter("textkit.pipeline.failures",
		metric.WithDescription("Pipeline runs that stopped at a failing step")); err != nil {
		return nil, err
	}
	if p.steps, err = meter.Int64Counter("textkit.pipeline.steps",
		metric.WithDescription("Steps executed successfully")); err != nil {
		return nil, err
	}
	if p.duration, err = meter.Float64Histogram("textkit.pipeline.duration",
		metric.WithDescription("Wall time of a pipeline run"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	return p, nil
}

// Registry returns the catalog the service runs against.
func (p *PipelineService) Registry() *transform.Registry { return p.registry }

// Transforms lists the catalog, ordered by display name.
func (p *PipelineService) Transforms() []*transform.Definition {
	return p.registry.List()
}

// Apply runs a single transform.
func (p *PipelineService) Apply(ctx context.Context, id transform.ID, input string, options map[string]any) (string, error) {
	steps := []models.WorkflowStep{{TransformID: string(id), Options: options}}
	_, out, err := p.trace(ctx, "pipeline.apply", input, steps)
	return out, err
}

// Run executes steps in order on input.
func (p *PipelineService) Run(ctx context.Context, input string, steps []models.WorkflowStep) (string, error) {
	_, out, err := p.trace(ctx, "pipeline.run", input, steps)
	return out, err
}

// Trace executes steps and reports what every step produced.
func (p *PipelineService) Trace(ctx context.Context, input string, steps []models.WorkflowStep) ([]workflow.StepResult, string, error) {
	return p.trace(ctx, "pipeline.run", input, steps)
}

// RunSaved loads the workflow id from store and runs it on input.
func (p *PipelineService) RunSaved(ctx context.Context, store *workflow.Store, id, input string) (models.SavedWorkflow, []workflow.StepResult, string, error) {
	w, err := store.Load(ctx, id)
	if err != nil {
		return models.SavedWorkflow{}, nil, "", err
	}
	results, out, err := p.trace(ctx, "pipeline.run_saved", input, w.Steps)
	return w, results, out, err
}

func (p *PipelineService) trace(ctx context.Context, name, input string, steps []models.WorkflowStep) ([]workflow.StepResult, string, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, name)
	defer span.End()
	span.SetAttributes(attribute.Int("textkit.steps", len(steps)))

	start := time.Now()
	results, out, err := workflow.Trace(p.registry, input, steps)
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	attrs := metric.WithAttributes(attribute.String("operation", name))
	p.runs.Add(ctx, 1, attrs)
	p.duration.Record(ctx, elapsed, attrs)

	ok := 0
	for _, r := range results {
		if r.Status == workflow.StatusSuccess {
			ok++
		}
	}
	p.steps.Add(ctx, int64(ok), attrs)

	if err != nil {
		p.failures.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Info("pipeline stopped", "operation", name, "steps", len(steps), "error", err)
		return results, "", err
	}
	p.logger.Debug("pipeline finished", "operation", name, "steps", len(steps), "ms", elapsed)
	return results, out, nil
}
