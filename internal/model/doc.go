// Package model defines the core data structures used throughout sshprobe.
//
// This package contains the following main types:
//   - ProbeReport: The result of probing one SSH endpoint
//   - Summary: Findings and severity counts derived from a probe
//   - Finding: A single observation with its severity and remediation
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The protocol, pipeline, database and report packages all need
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
