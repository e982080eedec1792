package handshake

import (
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/nao1215/sshprobe/internal/wire"
)

// Identification string constants from RFC 4253 section 4.2.
const (
	// IdentifierPrefix starts every SSH identification string.
	IdentifierPrefix = "SSH-"

	// MaxIdentifierLength is the maximum length of one line read while
	// looking for the identification string.
	MaxIdentifierLength = 255

	// MaxLinesBeforeIdentifier bounds the number of other lines a server may
	// send before its identification string.
	MaxLinesBeforeIdentifier = 5
)

// ReadIdentifier reads the peer's identification string from r.
//
// Servers may send other lines of text before the identification string.
// Those lines are skipped, but only up to MaxLinesBeforeIdentifier reads
// after the first line; past that the peer is treated as abusive and
// ErrTooManyLines is returned. Line-read failures are returned immediately
// and are not counted as skips.
func ReadIdentifier(r io.Reader) (string, error) {
	line, err := wire.ReadLine(r, MaxIdentifierLength)
	if err != nil {
		return "", errors.Wrap(err, "read identifier")
	}

	lines := 0
	for !strings.HasPrefix(line, IdentifierPrefix) {
		line, err = wire.ReadLine(r, MaxIdentifierLength)
		if err != nil {
			return "", errors.Wrap(err, "read identifier")
		}
		lines++

		if lines == MaxLinesBeforeIdentifier {
			return "", ErrTooManyLines
		}
	}

	return line, nil
}

// WriteIdentifier sends id followed by CRLF to w.
// The identifier must start with IdentifierPrefix, must not contain line
// breaks and must fit in MaxIdentifierLength including the terminator.
func WriteIdentifier(w io.Writer, id string) error {
	if !strings.HasPrefix(id, IdentifierPrefix) {
		return errors.Wrapf(ErrMalformedIdentifier, "%q lacks the %s prefix", id, IdentifierPrefix)
	}
	if strings.ContainsAny(id, "\r\n") {
		return errors.Wrapf(ErrMalformedIdentifier, "%q contains a line break", id)
	}
	if len(id)+2 > MaxIdentifierLength {
		return errors.Wrapf(ErrMalformedIdentifier, "identifier is longer than %d bytes", MaxIdentifierLength-2)
	}

	if _, err := io.WriteString(w, id+"\r\n"); err != nil {
		return errors.Wrap(err, "write identifier")
	}
	return nil
}
