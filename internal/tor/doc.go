// Package tor provides Tor network connectivity for sshprobe.
//
// SSH endpoints published as onion services can only be reached through a
// Tor SOCKS5 proxy. This package wraps the proxy dialer from
// golang.org/x/net/proxy, verifies that the configured proxy really speaks
// SOCKS5, and can launch an embedded Tor daemon through tornago when no
// system Tor is available.
//
// The package is designed to be used with dependency injection. Create a
// Client and pass its Dialer to the SSH scanner rather than using global state.
package tor
