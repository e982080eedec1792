package handshake

import (
	"crypto/md5" //nolint:gosec // HASSH is defined over MD5
	"encoding/hex"
	"strings"
)

const (
	// hasshFieldDelimiter joins the name-lists that make up a HASSH input.
	hasshFieldDelimiter = ";"

	// HASSHVersion is the version of the HASSH method implemented here.
	HASSHVersion = "1.0"
)

// HASSH is a server fingerprint computed from the algorithms a server offers
// in its KEXINIT (see github.com/salesforce/hassh). The existence and order
// of the algorithms identify the server implementation more reliably than
// the software version in the identification string.
type HASSH struct {
	// Hash is the lowercase hex MD5 of Algorithms.
	Hash string `json:"hassh_server"`

	// Algorithms is the fingerprint input:
	// kex;encryption_s2c;mac_s2c;compression_s2c.
	Algorithms string `json:"hassh_server_algorithms"`

	// Version is the HASSH method version.
	Version string `json:"hassh_version"`
}

// ServerHASSH computes the hasshServer fingerprint of k.
func ServerHASSH(k KexData) HASSH {
	input := strings.Join([]string{
		strings.Join(k.KexAlgorithms, NameListSeparator),
		strings.Join(k.EncryptionServerToClient, NameListSeparator),
		strings.Join(k.MACServerToClient, NameListSeparator),
		strings.Join(k.CompressionServerToClient, NameListSeparator),
	}, hasshFieldDelimiter)

	sum := md5.Sum([]byte(input)) //nolint:gosec // HASSH is defined over MD5

	return HASSH{
		Hash:       hex.EncodeToString(sum[:]),
		Algorithms: input,
		Version:    HASSHVersion,
	}
}
