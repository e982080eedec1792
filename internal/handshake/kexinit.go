package handshake

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/nao1215/sshprobe/internal/wire"
)

const (
	// MsgKexInit is the SSH_MSG_KEXINIT message number.
	MsgKexInit = 20

	// MaxPacketLength is the largest packet length accepted from a peer.
	MaxPacketLength = 35000

	// NameListSeparator separates the tokens of a name-list.
	NameListSeparator = ","

	// cookieLength is the size of the random KEXINIT cookie.
	cookieLength = 16

	// NameListCount is the number of algorithm name-lists in KexData.
	NameListCount = 8
)

// NameListLabels names the KexData name-lists in wire order.
var NameListLabels = [NameListCount]string{
	"kex_algorithms",
	"server_host_key_algorithms",
	"encryption_algorithms_client_to_server",
	"encryption_algorithms_server_to_client",
	"mac_algorithms_client_to_server",
	"mac_algorithms_server_to_client",
	"compression_algorithms_client_to_server",
	"compression_algorithms_server_to_client",
}

// KexData holds the algorithm name-lists announced in one SSH_MSG_KEXINIT
// packet, in the order mandated by RFC 4253 section 7.1.
//
// A KexData is created once per decode and handed to the caller; nothing in
// this package keeps a reference to it.
type KexData struct {
	KexAlgorithms             []string `json:"kex_algorithms"`
	ServerHostKeyAlgorithms   []string `json:"server_host_key_algorithms"`
	EncryptionClientToServer  []string `json:"encryption_client_to_server"`
	EncryptionServerToClient  []string `json:"encryption_server_to_client"`
	MACClientToServer         []string `json:"mac_client_to_server"`
	MACServerToClient         []string `json:"mac_server_to_client"`
	CompressionClientToServer []string `json:"compression_client_to_server"`
	CompressionServerToClient []string `json:"compression_server_to_client"`
}

// Lists returns the eight name-lists in wire order.
func (k KexData) Lists() [NameListCount][]string {
	return [NameListCount][]string{
		k.KexAlgorithms,
		k.ServerHostKeyAlgorithms,
		k.EncryptionClientToServer,
		k.EncryptionServerToClient,
		k.MACClientToServer,
		k.MACServerToClient,
		k.CompressionClientToServer,
		k.CompressionServerToClient,
	}
}

// fields returns pointers to the name-lists in wire order for decoding.
func (k *KexData) fields() [NameListCount]*[]string {
	return [NameListCount]*[]string{
		&k.KexAlgorithms,
		&k.ServerHostKeyAlgorithms,
		&k.EncryptionClientToServer,
		&k.EncryptionServerToClient,
		&k.MACClientToServer,
		&k.MACServerToClient,
		&k.CompressionClientToServer,
		&k.CompressionServerToClient,
	}
}

// KexInitPacket is a KEXINIT message decoded from a fully framed binary
// packet. Besides the algorithm lists it carries the trailing payload fields
// that ReadKexPayload does not consume.
type KexInitPacket struct {
	KexData

	LanguagesClientToServer []string `json:"languages_client_to_server"`
	LanguagesServerToClient []string `json:"languages_server_to_client"`
	FirstKexPacketFollows   bool     `json:"first_kex_packet_follows"`
	PacketLength            uint32   `json:"packet_length"`
	PaddingLength           uint8    `json:"padding_length"`
}

// ReadKexPayload decodes a KEXINIT message laid out as packet length,
// message type, cookie and the eight algorithm name-lists.
//
// A packet length above MaxPacketLength is rejected before anything else is
// read. The declared length is not compared with the bytes consumed.
func ReadKexPayload(r io.Reader) (KexData, error) {
	length, err := wire.ReadUint32(r)
	if err != nil {
		return KexData{}, errors.Wrap(err, "read packet length")
	}
	if length > MaxPacketLength {
		return KexData{}, errors.Wrapf(ErrPacketTooLarge, "%d bytes exceeds %d", length, MaxPacketLength)
	}

	return readKexBody(r)
}

// ReadKexPacket decodes a KEXINIT message wrapped in the RFC 4253 section 6
// binary packet framing:
//
//	uint32    packet_length
//	byte      padding_length
//	byte[n1]  payload; n1 = packet_length - padding_length - 1
//	byte[n2]  random padding; n2 = padding_length
//
// The payload is read through a reader bounded to n1 bytes, so no field can
// run into the padding. Trailing payload bytes and the padding are consumed
// and discarded so that the stream is positioned at the next packet.
func ReadKexPacket(r io.Reader) (*KexInitPacket, error) {
	length, err := wire.ReadUint32(r)
	if err != nil {
		return nil, errors.Wrap(err, "read packet length")
	}
	if length > MaxPacketLength {
		return nil, errors.Wrapf(ErrPacketTooLarge, "%d bytes exceeds %d", length, MaxPacketLength)
	}

	padding, err := wire.ReadByte(r)
	if err != nil {
		return nil, errors.Wrap(err, "read padding length")
	}
	if uint32(padding)+1 > length {
		return nil, errors.Wrapf(ErrInvalidPadding, "padding %d does not fit in packet of %d bytes", padding, length)
	}

	payload := &io.LimitedReader{R: r, N: int64(length - uint32(padding) - 1)}

	kex, err := readKexBody(payload)
	if err != nil {
		return nil, err
	}

	pkt := &KexInitPacket{
		KexData:       kex,
		PacketLength:  length,
		PaddingLength: padding,
	}

	if pkt.LanguagesClientToServer, err = ReadNameList(payload); err != nil {
		return nil, errors.Wrap(err, "read languages_client_to_server")
	}
	if pkt.LanguagesServerToClient, err = ReadNameList(payload); err != nil {
		return nil, errors.Wrap(err, "read languages_server_to_client")
	}

	follows, err := wire.ReadByte(payload)
	if err != nil {
		return nil, errors.Wrap(err, "read first_kex_packet_follows")
	}
	pkt.FirstKexPacketFollows = follows != 0

	if _, err := wire.ReadUint32(payload); err != nil {
		return nil, errors.Wrap(err, "read reserved field")
	}

	if err := discard(payload, payload.N); err != nil {
		return nil, errors.Wrap(err, "discard payload remainder")
	}
	if err := discard(r, int64(padding)); err != nil {
		return nil, errors.Wrap(err, "discard padding")
	}

	return pkt, nil
}

// readKexBody decodes the message type, the cookie and the eight name-lists.
func readKexBody(r io.Reader) (KexData, error) {
	msgType, err := wire.ReadByte(r)
	if err != nil {
		return KexData{}, errors.Wrap(err, "read message type")
	}
	if msgType != MsgKexInit {
		return KexData{}, errors.Wrapf(ErrUnexpectedMessage, "got message type %d, want %d", msgType, MsgKexInit)
	}

	// The cookie only matters to a real key exchange.
	if _, err := wire.ReadBytes(r, cookieLength); err != nil {
		return KexData{}, errors.Wrap(err, "read cookie")
	}

	var kex KexData
	for i, field := range kex.fields() {
		list, err := ReadNameList(r)
		if err != nil {
			return KexData{}, errors.Wrapf(err, "read %s", NameListLabels[i])
		}
		*field = list
	}

	return kex, nil
}

// ReadNameList decodes one RFC 4251 name-list: a uint32 length followed by
// that many bytes of comma-separated UTF-8 names.
//
// An empty name-list decodes to a single empty name, matching strings.Split.
func ReadNameList(r io.Reader) ([]string, error) {
	length, err := wire.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	if length > MaxPacketLength {
		return nil, errors.Wrapf(ErrNameListTooLong, "%d bytes exceeds %d", length, MaxPacketLength)
	}

	raw, err := wire.ReadBytes(r, int(length))
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(raw) {
		return nil, errors.Wrap(wire.ErrInvalidEncoding, "name-list is not UTF-8")
	}

	return strings.Split(string(raw), NameListSeparator), nil
}

// discard consumes exactly n bytes from r.
func discard(r io.Reader, n int64) error {
	if n <= 0 {
		return nil
	}
	copied, err := io.CopyN(io.Discard, r, n)
	if errors.Is(err, io.EOF) {
		return errors.Wrapf(wire.ErrUnexpectedEnd, "discarded %d of %d bytes", copied, n)
	}
	return err
}
