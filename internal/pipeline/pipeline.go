package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/sshprobe/internal/model"
)

// Step is one stage of a probe. Each step reads what earlier steps wrote
// into the report and adds its own results.
//
// Design decision: Steps are an interface instead of plain functions so
// that a step can hold its scanner, store or logger and still be named in
// logs and in ProbeReport.PerformedSteps.
type Step interface {
	// Do runs the step against report. A returned error means the probe
	// cannot go on. Problems that leave the report usable are logged and
	// nil is returned.
	Do(ctx context.Context, report *model.ProbeReport) error

	// Name identifies the step in logs and in the report.
	Name() string
}

// Pipeline runs its steps in order over one report.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger

	// continueOnError keeps running later steps after a failure.
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger. slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError runs the remaining steps after a step fails. The
// failure is still recorded on the report.
//
// The default stops at the first failure: without an identifier there is
// nothing to fingerprint, analyze or store.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New returns an empty pipeline. Add steps with AddStep or AddSteps.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends steps in the given order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step over report.
//
// Cancellation is checked between steps only. A step that blocks, such as
// the handshake, watches ctx itself. When a step fails its error is stored
// with report.SetError. Execute then returns it, unless the pipeline was
// built WithContinueOnError, in which case the next step runs and nil is
// returned at the end.
func (p *Pipeline) Execute(ctx context.Context, report *model.ProbeReport) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("probe cancelled", "target", report.Target, "before", step.Name(), "reason", err)
			report.SetError(err)
			return err
		}

		start := time.Now()
		err := step.Do(ctx, report)
		if err != nil {
			p.logger.Error("step failed", "step", step.Name(), "target", report.Target, "error", err)
			report.SetError(err)
			if !p.continueOnError {
				return err
			}
		} else {
			p.logger.Debug("step done",
				"step", step.Name(),
				"target", report.Target,
				"elapsed", time.Since(start).Round(time.Microsecond),
			)
		}

		report.PerformedSteps = append(report.PerformedSteps, step.Name())
	}

	return nil
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	return names
}
