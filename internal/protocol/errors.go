package protocol

import "github.com/go-faster/errors"

// Probe errors. Handshake decoding failures come from the handshake and wire
// packages and are returned wrapped, so callers match them with errors.Is.
var (
	// ErrInvalidTarget is returned when a target cannot be split into host and port.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrNoAddress is returned when name resolution succeeds but yields no address.
	ErrNoAddress = errors.New("no address for host")

	// ErrOnionRequiresTor is returned when an onion service is probed without Tor.
	ErrOnionRequiresTor = errors.New(".onion targets require Tor")
)
