package model

import (
	"time"

	"github.com/nao1215/sshprobe/internal/handshake"
)

// ProbeReport is the result of probing one SSH endpoint.
// It contains everything read from the server before key exchange would begin.
//
// Design decision: We use a single struct rather than many small ones
// to simplify serialization and database storage. Wire data, derived
// fingerprints and findings travel together through the pipeline.
type ProbeReport struct {
	// === Target ===

	// Target is the host[:port] string given by the user.
	Target string `json:"target"`

	// Address is the host:port that was dialed after resolution.
	Address string `json:"address,omitempty"`

	// ViaTor is true if the connection went through a Tor SOCKS5 proxy.
	ViaTor bool `json:"via_tor"`

	// DateProbed is the timestamp when the probe started.
	DateProbed time.Time `json:"date_probed"`

	// Duration is how long the handshake took, in nanoseconds.
	Duration time.Duration `json:"duration"`

	// === Wire Data ===

	// Identifier is the server's identification line without CR LF.
	Identifier string `json:"identifier,omitempty"`

	// Version is the identifier split into its protocol fields.
	Version *handshake.Version `json:"version,omitempty"`

	// KexInit is the server's first KEXINIT packet.
	// Nil when the probe stopped after the identifier.
	KexInit *handshake.KexInitPacket `json:"kex_init,omitempty"`

	// === Derived Data ===

	// HASSH is the hasshServer fingerprint of KexInit.
	HASSH *handshake.HASSH `json:"hassh,omitempty"`

	// AlgorithmDigest is a stable hex digest over all eight name-lists.
	// Two probes with equal digests saw the same algorithm offer.
	AlgorithmDigest string `json:"algorithm_digest,omitempty"`

	// Summary contains the findings for human-readable output.
	Summary *Summary `json:"summary,omitempty"`

	// === Probe State ===

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error contains the error that stopped the probe, if any.
	Error error `json:"-"` // Excluded from JSON

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewProbeReport creates a new report for the given target.
func NewProbeReport(target string) *ProbeReport {
	now := time.Now()
	return &ProbeReport{
		Target:     target,
		DateProbed: now,
		Summary:    NewSummary(target, now),
	}
}

// AddFinding adds a finding to the summary.
// If the summary doesn't exist, it initializes one.
//
// Design decision: We store findings in Summary rather than
// a separate findings slice because:
// 1. Summary already has the severity counters
// 2. Avoids duplication of findings data
// 3. Keeps the main report focused on wire data
func (r *ProbeReport) AddFinding(finding Finding) {
	if r.Summary == nil {
		r.Summary = NewSummary(r.Target, r.DateProbed)
	}
	if r.Summary.DateProbed.IsZero() {
		r.Summary.DateProbed = r.DateProbed
	}
	r.Summary.add(finding)
}

// SetError records err as the reason the probe stopped.
func (r *ProbeReport) SetError(err error) {
	r.Error = err
	if err == nil {
		r.ErrorMessage = ""
		return
	}
	r.ErrorMessage = err.Error()
	if r.Summary != nil {
		r.Summary.Error = r.ErrorMessage
	}
}

// HasKexInit returns true if a KEXINIT packet was decoded.
func (r *ProbeReport) HasKexInit() bool {
	return r.KexInit != nil
}
