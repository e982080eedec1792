package wire

import "github.com/go-faster/errors"

// Wire decoding errors.
// Callers should match them with errors.Is because the readers wrap them
// with additional context.
var (
	// ErrLineTooLong is returned when a line exceeds the caller's limit
	// before a CRLF terminator is seen.
	ErrLineTooLong = errors.New("line too long")

	// ErrLFWithoutCR is returned when a LF byte is not preceded by CR.
	ErrLFWithoutCR = errors.New("LF without CR")

	// ErrUnexpectedEnd is returned when the stream ends before the requested
	// number of bytes or the line terminator could be read.
	ErrUnexpectedEnd = errors.New("unexpected end of stream")

	// ErrInvalidEncoding is returned when text read from the stream is not
	// valid UTF-8.
	ErrInvalidEncoding = errors.New("invalid encoding")

	// ErrInvalidLength is returned when a negative byte count is requested.
	ErrInvalidLength = errors.New("invalid length")
)
