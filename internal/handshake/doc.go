// Package handshake decodes the unencrypted SSH transport preamble defined by
// RFC 4253: the protocol-version identification line and the server's first
// SSH_MSG_KEXINIT packet.
//
// The package never opens sockets and never performs a key exchange. It
// reads from any io.Reader through the wire package and returns structured
// values:
//
//	id, err := handshake.ReadIdentifier(conn)
//	pkt, err := handshake.ReadKexPacket(conn)
//	fmt.Println(pkt.KexAlgorithms)
//
// # Decoding model
//
// Each operation is a single-pass, non-resumable read over a fixed sequence
// of fields. The first error aborts the operation and nothing is returned
// for the fields already decoded.
//
// Two KEXINIT readers exist. ReadKexPayload consumes the compact layout
// (length, message type, cookie, eight name-lists) without any cross-check
// between the declared length and the bytes consumed. ReadKexPacket consumes
// the full binary packet framing from RFC 4253 section 6, including the
// padding length and padding, and is what a live server sends.
//
// The readers share no state and are not safe for concurrent use on the
// same stream.
package handshake
