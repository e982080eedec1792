// Package main provides the entry point for the sshprobe CLI.
//
// sshprobe reads what an SSH server sends before key exchange (its
// identification string and its KEXINIT algorithm offer) and reports on
// fingerprints, weak algorithms and changes since the previous probe.
//
// Usage:
//
//	sshprobe probe <host[:port]>...
//	sshprobe history <host[:port]>
//
// See --help for all available options.
package main

// main is the entry point for sshprobe.
func main() {
	Execute()
}
