package handshake

import (
	"strings"

	"github.com/go-faster/errors"
)

// Version is an identification string split into its RFC 4253 parts:
//
//	SSH-protoversion-softwareversion SP comments
type Version struct {
	ProtoVersion    string `json:"proto_version"`
	SoftwareVersion string `json:"software_version"`
	Comments        string `json:"comments,omitempty"`
}

// ParseVersion splits an identification line into a Version.
func ParseVersion(line string) (Version, error) {
	rest, ok := strings.CutPrefix(line, IdentifierPrefix)
	if !ok {
		return Version{}, errors.Wrapf(ErrMalformedIdentifier, "%q lacks the %s prefix", line, IdentifierPrefix)
	}

	id, comments, _ := strings.Cut(rest, " ")
	proto, software, ok := strings.Cut(id, "-")
	if !ok || proto == "" || software == "" {
		return Version{}, errors.Wrapf(ErrMalformedIdentifier, "%q has no protoversion-softwareversion part", line)
	}

	return Version{
		ProtoVersion:    proto,
		SoftwareVersion: software,
		Comments:        comments,
	}, nil
}

// SupportsSSH2 reports whether the protocol version announces SSH 2.0.
// "1.99" is the compatibility marker for servers that speak both versions.
func (v Version) SupportsSSH2() bool {
	return v.ProtoVersion == "2.0" || v.ProtoVersion == "1.99"
}

// String returns the identification line the version was parsed from.
func (v Version) String() string {
	s := IdentifierPrefix + v.ProtoVersion + "-" + v.SoftwareVersion
	if v.Comments != "" {
		s += " " + v.Comments
	}
	return s
}
