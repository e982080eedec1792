// Package protocol connects to SSH servers and turns what they send before
// key exchange into a model.ProbeReport.
//
// # Architecture
//
// The package has three parts:
//   - Target parsing and resolution (target.go)
//   - The SSH scanner that dials, exchanges identification strings and
//     reads the server's first KEXINIT packet (ssh.go)
//   - Analysis of the identifier and the algorithm offer (analyze.go)
//
// Design decision: The scanner only moves bytes between the connection and
// the handshake decoders. All interpretation happens in analyze.go so that
// stored reports can be re-analyzed without touching the network.
//
// # Usage
//
//	target, err := protocol.ResolveTarget(ctx, "example.com:2222", net.DefaultResolver)
//	scanner := protocol.NewSSHScanner(proxy.Direct)
//	report := model.NewProbeReport(target.Input)
//	err = scanner.Scan(ctx, target, report)
//	protocol.Analyze(report)
//
// # Security Considerations
//
// The scanner never negotiates keys or authenticates:
//   - It sends only its own identification string
//   - It closes the connection after the server's KEXINIT
//   - A deadline bounds every probe
//   - .onion targets are refused unless the dialer goes through Tor
package protocol
