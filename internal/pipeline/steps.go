package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cespare/xxhash/v2"

	"github.com/nao1215/sshprobe/internal/database"
	"github.com/nao1215/sshprobe/internal/handshake"
	"github.com/nao1215/sshprobe/internal/model"
	"github.com/nao1215/sshprobe/internal/protocol"
)

// HandshakeStep resolves the target and reads the server's identification
// string and KEXINIT packet.
//
// Design decision: Resolution happens here rather than in the CLI because:
// 1. The resolved address belongs in the report
// 2. Resolution errors are recorded like any other probe failure
// 3. A nil resolver keeps DNS inside Tor without special cases
type HandshakeStep struct {
	// scanner performs the wire exchange.
	scanner protocol.Scanner

	// resolver looks up host names. Nil leaves resolution to the dialer.
	resolver protocol.Resolver

	// port is used for targets that do not name one.
	port int

	// logger for structured logging.
	logger *slog.Logger
}

// HandshakeStepOption configures a HandshakeStep.
type HandshakeStepOption func(*HandshakeStep)

// WithResolver sets the resolver used for host names.
func WithResolver(resolver protocol.Resolver) HandshakeStepOption {
	return func(s *HandshakeStep) {
		s.resolver = resolver
	}
}

// WithDefaultPort sets the port used for targets that do not name one.
func WithDefaultPort(port int) HandshakeStepOption {
	return func(s *HandshakeStep) {
		s.port = port
	}
}

// WithHandshakeLogger sets a custom logger for the handshake step.
func WithHandshakeLogger(logger *slog.Logger) HandshakeStepOption {
	return func(s *HandshakeStep) {
		s.logger = logger
	}
}

// NewHandshakeStep creates a new handshake step.
func NewHandshakeStep(scanner protocol.Scanner, opts ...HandshakeStepOption) *HandshakeStep {
	s := &HandshakeStep{
		scanner: scanner,
		port:    scanner.DefaultPort(),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *HandshakeStep) Name() string {
	return "handshake"
}

// Do executes the handshake step.
func (s *HandshakeStep) Do(ctx context.Context, report *model.ProbeReport) error {
	target, err := protocol.ParseTarget(report.Target, s.port)
	if err != nil {
		return fmt.Errorf("handshake failed: %w", err)
	}
	target, err = protocol.Resolve(ctx, target, s.resolver)
	if err != nil {
		return fmt.Errorf("handshake failed: %w", err)
	}

	if err := s.scanner.Scan(ctx, target, report); err != nil {
		return fmt.Errorf("handshake failed: %w", err)
	}

	s.logger.Info("handshake completed",
		"target", report.Target,
		"address", report.Address,
		"identifier", report.Identifier,
		"kexinit", report.HasKexInit(),
	)

	return nil
}

// FingerprintStep derives the HASSH-server fingerprint and the algorithm
// digest from the KEXINIT packet.
//
// The digest covers all eight name-lists, including the client-to-server
// directions HASSH ignores, so any change to the offer shows up in history.
type FingerprintStep struct {
	logger *slog.Logger
}

// NewFingerprintStep creates a new fingerprint step.
func NewFingerprintStep(logger *slog.Logger) *FingerprintStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &FingerprintStep{logger: logger}
}

// Name returns the step name.
func (s *FingerprintStep) Name() string {
	return "fingerprint"
}

// Do executes the fingerprint step.
func (s *FingerprintStep) Do(_ context.Context, report *model.ProbeReport) error {
	if !report.HasKexInit() {
		s.logger.Debug("no KEXINIT to fingerprint", "target", report.Target)
		return nil
	}

	kex := report.KexInit.KexData
	hassh := handshake.ServerHASSH(kex)
	report.HASSH = &hassh
	report.AlgorithmDigest = AlgorithmDigest(kex)

	report.AddFinding(model.NewFinding(model.FindingHASSH,
		"HASSH Server Fingerprint",
		"Fingerprint of the server's algorithm offer: "+hassh.Algorithms,
		hassh.Hash, "kex_init"))

	return nil
}

// AlgorithmDigest returns a 16 hex digit xxhash digest of the eight
// name-lists of k in wire order.
func AlgorithmDigest(k handshake.KexData) string {
	h := xxhash.New()
	for _, list := range k.Lists() {
		for i, name := range list {
			if i > 0 {
				_, _ = h.WriteString(handshake.NameListSeparator) //nolint:errcheck // xxhash writes never fail
			}
			_, _ = h.WriteString(name) //nolint:errcheck // xxhash writes never fail
		}
		// A byte that cannot appear in a name-list ends each list.
		_, _ = h.Write([]byte{0}) //nolint:errcheck // xxhash writes never fail
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// AnalyzeStep derives findings from the identifier and the algorithm offer.
type AnalyzeStep struct{}

// NewAnalyzeStep creates a new analysis step.
func NewAnalyzeStep() *AnalyzeStep {
	return &AnalyzeStep{}
}

// Name returns the step name.
func (s *AnalyzeStep) Name() string {
	return "analyze"
}

// Do executes the analysis step.
func (s *AnalyzeStep) Do(_ context.Context, report *model.ProbeReport) error {
	protocol.Analyze(report)
	return nil
}

// HistoryStore is the part of the history database the pipeline uses.
type HistoryStore interface {
	GetLatestProbeReport(ctx context.Context, target string) (*model.ProbeReport, error)
	SaveProbeReport(ctx context.Context, report *model.ProbeReport) (int64, error)
}

// HistoryStep compares the report with the previous probe of the same
// target and then stores it.
//
// Design decision: Comparison runs before saving so that the stored report
// carries its own change findings. A later "history" view then shows when
// a server changed without comparing rows again.
type HistoryStep struct {
	store  HistoryStore
	logger *slog.Logger
}

// NewHistoryStep creates a new history step.
func NewHistoryStep(store HistoryStore, logger *slog.Logger) *HistoryStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryStep{store: store, logger: logger}
}

// Name returns the step name.
func (s *HistoryStep) Name() string {
	return "history"
}

// Do executes the history step.
func (s *HistoryStep) Do(ctx context.Context, report *model.ProbeReport) error {
	previous, err := s.store.GetLatestProbeReport(ctx, report.Target)
	switch {
	case errors.Is(err, database.ErrReportNotFound):
		s.logger.Debug("first probe of target", "target", report.Target)
	case err != nil:
		return fmt.Errorf("failed to load previous probe: %w", err)
	default:
		CompareReports(previous, report)
	}

	id, err := s.store.SaveProbeReport(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to save probe: %w", err)
	}

	s.logger.Debug("probe saved", "target", report.Target, "id", id)
	return nil
}

// CompareReports adds findings to current for every difference from
// previous. Failed probes carry no wire data and are never compared.
func CompareReports(previous, current *model.ProbeReport) {
	if previous == nil || previous.ErrorMessage != "" || current.ErrorMessage != "" {
		return
	}

	since := previous.DateProbed.Format("2006-01-02 15:04:05")

	if previous.Identifier != "" && previous.Identifier != current.Identifier {
		current.AddFinding(model.NewFinding(model.FindingIdentifierChanged,
			"Identifier Changed",
			fmt.Sprintf("The identifier changed since the probe of %s (was %q).", since, previous.Identifier),
			current.Identifier, "identifier"))
	}

	if previous.AlgorithmDigest != "" && current.AlgorithmDigest != "" &&
		previous.AlgorithmDigest != current.AlgorithmDigest {
		current.AddFinding(model.NewFinding(model.FindingHandshakeChanged,
			"Algorithm Offer Changed",
			fmt.Sprintf("The KEXINIT algorithm offer changed since the probe of %s (digest was %s).", since, previous.AlgorithmDigest),
			current.AlgorithmDigest, "kex_init"))
	}
}

// DefaultPipeline creates a pipeline with the standard probe steps.
// store may be nil to skip the history step.
//
// Design decision: We provide a default pipeline because:
// 1. Most users want all checks
// 2. Reduces boilerplate in CLI
// 3. Ensures consistent ordering
func DefaultPipeline(scanner protocol.Scanner, store HistoryStore, pipelineOpts []Option, handshakeOpts ...HandshakeStepOption) *Pipeline {
	p := New(pipelineOpts...)

	p.AddSteps(
		NewHandshakeStep(scanner, append([]HandshakeStepOption{WithHandshakeLogger(p.logger)}, handshakeOpts...)...),
		NewFingerprintStep(p.logger),
		NewAnalyzeStep(),
	)
	if store != nil {
		p.AddStep(NewHistoryStep(store, p.logger))
	}

	return p
}
