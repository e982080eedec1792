package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/sshprobe/internal/model"
)

// BatchProcessor probes multiple targets one after another.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-probe execution
// 2. Each target gets a fresh pipeline, so step state cannot leak
// 3. A failed target is recorded in its report and the batch moves on
//
// Targets are probed sequentially. Probing many hosts at once looks like a
// port scan to the servers and to anything watching the Tor circuit.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each probe.
	pipelineFactory func(target string) *Pipeline

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each target to create a fresh
// pipeline instance. The target lets callers apply per-target settings.
func NewBatchProcessor(pipelineFactory func(target string) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch probes every target and returns one report per target in
// input order, including reports of failed probes.
//
// The returned error is non-nil only if ctx was cancelled. Targets not
// reached before cancellation have no report.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []string) ([]*model.ProbeReport, error) {
	reports := make([]*model.ProbeReport, 0, len(targets))
	err := bp.ProcessBatchWithCallback(ctx, targets, func(report *model.ProbeReport, _ int) {
		reports = append(reports, report)
	})
	return reports, err
}

// ProcessBatchWithCallback probes every target and calls callback with each
// report as soon as its probe finishes. This is useful for streaming output.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	targets []string,
	callback func(report *model.ProbeReport, index int),
) error {
	bp.logger.Debug("starting batch processing", "total_targets", len(targets))

	startTime := time.Now()

	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}

		bp.logger.Debug("probing target",
			"target", target,
			"index", i+1,
			"total", len(targets),
		)

		report := model.NewProbeReport(target)
		if err := bp.pipelineFactory(target).Execute(ctx, report); err != nil {
			bp.logger.Warn("probe failed",
				"target", target,
				"error", err,
			)
		}

		callback(report, i)
	}

	bp.logger.Debug("batch processing complete",
		"total_targets", len(targets),
		"elapsed", time.Since(startTime),
	)

	return nil
}
