package handshake

import "github.com/go-faster/errors"

// Handshake protocol errors.
// Framing, encoding and end-of-stream failures come from the wire package and
// are wrapped with the field that was being read.
var (
	// ErrTooManyLines is returned when the peer sends too many lines before
	// its identification string.
	ErrTooManyLines = errors.New("too many lines before identifier")

	// ErrUnexpectedMessage is returned when the packet in place of KEXINIT
	// carries a different message type.
	ErrUnexpectedMessage = errors.New("unexpected message")

	// ErrPacketTooLarge is returned when the declared packet length exceeds
	// MaxPacketLength.
	ErrPacketTooLarge = errors.New("packet too large")

	// ErrInvalidPadding is returned when the padding length does not fit in
	// the declared packet length.
	ErrInvalidPadding = errors.New("invalid padding length")

	// ErrNameListTooLong is returned when a name-list declares more bytes
	// than a packet may carry.
	ErrNameListTooLong = errors.New("name-list too long")

	// ErrMalformedIdentifier is returned when an identification line does not
	// follow the SSH-protoversion-softwareversion format.
	ErrMalformedIdentifier = errors.New("malformed identifier")
)
