package handshake

import (
	"bytes"
	"encoding/binary"
	"strings"
)

// sampleLists is a realistic OpenSSH 9.x algorithm offer.
var sampleLists = [NameListCount]string{
	"curve25519-sha256,curve25519-sha256@libssh.org,ecdh-sha2-nistp256,kex-strict-s-v00@openssh.com",
	"rsa-sha2-512,rsa-sha2-256,ssh-ed25519",
	"chacha20-poly1305@openssh.com,aes128-ctr,aes256-gcm@openssh.com",
	"chacha20-poly1305@openssh.com,aes128-ctr,aes256-gcm@openssh.com",
	"umac-64-etm@openssh.com,hmac-sha2-256-etm@openssh.com,hmac-sha1",
	"umac-64-etm@openssh.com,hmac-sha2-256-etm@openssh.com,hmac-sha1",
	"none,zlib@openssh.com",
	"none,zlib@openssh.com",
}

// encodeNameList encodes s as an RFC 4251 name-list.
func encodeNameList(s string) []byte {
	buf := make([]byte, 4, 4+len(s))
	binary.BigEndian.PutUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

// kexBody builds message type, cookie and the given name-lists.
func kexBody(msgType byte, lists ...string) []byte {
	var b bytes.Buffer
	b.WriteByte(msgType)
	b.Write(bytes.Repeat([]byte{0xa5}, cookieLength))
	for _, l := range lists {
		b.Write(encodeNameList(l))
	}
	return b.Bytes()
}

// compactPacket builds the layout read by ReadKexPayload.
func compactPacket(length uint32, body []byte) []byte {
	buf := make([]byte, 4, 4+len(body))
	binary.BigEndian.PutUint32(buf, length)
	return append(buf, body...)
}

// framedPacket builds an RFC 4253 binary packet around a full KEXINIT payload.
func framedPacket(padding int, lists ...string) []byte {
	payload := kexBody(MsgKexInit, lists...)
	payload = append(payload, encodeNameList("")...) // languages c2s
	payload = append(payload, encodeNameList("")...) // languages s2c
	payload = append(payload, 0)                     // first_kex_packet_follows
	payload = append(payload, 0, 0, 0, 0)            // reserved

	length := uint32(1 + len(payload) + padding)
	buf := make([]byte, 5, 5+len(payload)+padding)
	binary.BigEndian.PutUint32(buf, length)
	buf[4] = byte(padding)
	buf = append(buf, payload...)
	return append(buf, bytes.Repeat([]byte{0}, padding)...)
}

// split returns the expected decoding of a name-list string.
func split(s string) []string {
	return strings.Split(s, NameListSeparator)
}
