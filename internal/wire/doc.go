// Package wire provides the byte-level readers used to decode the unencrypted
// SSH transport preamble.
//
// The readers know nothing about SSH semantics. They pull bounded,
// CRLF-terminated lines, fixed-size byte blobs and big-endian integers from
// any io.Reader.
//
// Design decision: Every reader consumes exactly the bytes it needs and
// never buffers ahead because:
//  1. The identification line and the binary packet share one stream
//  2. A read-ahead buffer would swallow bytes that belong to the next reader
//  3. Callers can hand in a raw net.Conn without wrapping it
//
// None of the functions are safe for concurrent use on the same stream.
// Bytes are consumed irreversibly; there is no pushback.
package wire
