package protocol

import (
	"context"

	"github.com/nao1215/sshprobe/internal/model"
)

// Scanner defines the interface for probing one endpoint.
//
// Design decision: We use an interface rather than a concrete type because:
//  1. The pipeline can be tested with a scanner that never touches the network
//  2. Direct and Tor connections share one code path behind the interface
//  3. Pipeline steps can treat every scanner uniformly
type Scanner interface {
	// Scan connects to target and records what the server sends in report.
	// Wire data read before a failure stays in the report.
	//
	// The context should be used for cancellation and timeouts.
	// Implementations must respect context cancellation.
	Scan(ctx context.Context, target Target, report *model.ProbeReport) error

	// Protocol returns the protocol name.
	Protocol() string

	// DefaultPort returns the default port for this protocol.
	DefaultPort() int
}
