package wire

import (
	"encoding/binary"
	"io"
	"unicode/utf8"

	"github.com/go-faster/errors"
)

const (
	cr = '\r'
	lf = '\n'
)

// ReadByte reads a single byte from r.
// It returns ErrUnexpectedEnd if the stream is exhausted.
func ReadByte(r io.Reader) (byte, error) {
	if br, ok := r.(io.ByteReader); ok {
		b, err := br.ReadByte()
		if err != nil {
			return 0, endOfStream(err)
		}
		return b, nil
	}

	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, endOfStream(err)
	}
	return buf[0], nil
}

// ReadLine reads a single CRLF-terminated line from r and returns it without
// the terminator.
//
// At most limit content bytes are accepted. A line of exactly limit bytes
// followed by CRLF succeeds; a content byte beyond limit fails with
// ErrLineTooLong before it is stored. A LF that does not follow a CR fails
// with ErrLFWithoutCR, and a CR followed by anything other than LF is kept
// as line content.
//
// The stream is read one byte at a time so that nothing after the LF is
// consumed.
func ReadLine(r io.Reader, limit int) (string, error) {
	line := make([]byte, 0, min(limit, 64))
	pendingCR := false

	for {
		b, err := ReadByte(r)
		if err != nil {
			return "", errors.Wrap(err, "line must end in CRLF")
		}

		if b == lf {
			if !pendingCR {
				return "", ErrLFWithoutCR
			}
			if !utf8.Valid(line) {
				return "", errors.Wrap(ErrInvalidEncoding, "line is not UTF-8")
			}
			return string(line), nil
		}

		if pendingCR {
			// The CR turned out to be content.
			if len(line) >= limit {
				return "", errors.Wrapf(ErrLineTooLong, "limit is %d bytes", limit)
			}
			line = append(line, cr)
			pendingCR = false
		}

		if b == cr {
			pendingCR = true
			continue
		}

		if len(line) >= limit {
			return "", errors.Wrapf(ErrLineTooLong, "limit is %d bytes", limit)
		}
		line = append(line, b)
	}
}

// ReadBytes reads exactly n bytes from r.
// A short read is never returned as a partial success; it fails with
// ErrUnexpectedEnd.
func ReadBytes(r io.Reader, n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.Wrapf(ErrInvalidLength, "cannot read %d bytes", n)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrapf(endOfStream(err), "read %d bytes", n)
	}
	return buf, nil
}

// ReadUint32 reads four bytes from r and combines them in network byte
// order into an unsigned 32-bit integer.
func ReadUint32(r io.Reader) (uint32, error) {
	buf, err := ReadBytes(r, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf), nil
}

// endOfStream maps the io package's end-of-stream errors to ErrUnexpectedEnd
// and leaves every other error untouched.
func endOfStream(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrUnexpectedEnd
	}
	return err
}
