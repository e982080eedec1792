package protocol

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"github.com/nao1215/sshprobe/internal/tor"
)

// DefaultSSHPort is the port used when a target does not name one.
const DefaultSSHPort = 22

// Target is an SSH endpoint to probe.
type Target struct {
	// Input is the target string as the user gave it.
	Input string

	// Host is the host name, IP literal or onion address.
	Host string

	// Port is the TCP port.
	Port int

	// IP is the resolved address. It stays empty for onion services and
	// when name resolution is left to the proxy.
	IP string
}

// Address returns the host:port to dial, preferring the resolved IP.
func (t Target) Address() string {
	host := t.IP
	if host == "" {
		host = t.Host
	}
	return net.JoinHostPort(host, strconv.Itoa(t.Port))
}

// IsOnion reports whether the target is an onion service.
func (t Target) IsOnion() bool {
	return tor.IsOnionHost(t.Host)
}

// Resolver looks up the addresses of a host. *net.Resolver implements it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// ParseTarget splits a target of the form [ssh://][user@]host[:port] into a
// Target. IPv6 literals may be given bare ("::1") or bracketed ("[::1]:22").
// A missing port becomes defaultPort.
func ParseTarget(input string, defaultPort int) (Target, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return Target{}, errors.Wrap(ErrInvalidTarget, "empty target")
	}

	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return Target{}, errors.Wrapf(ErrInvalidTarget, "%q: %v", input, err)
		}
		if u.Scheme != "ssh" {
			return Target{}, errors.Wrapf(ErrInvalidTarget, "%q: unsupported scheme %q", input, u.Scheme)
		}
		s = u.Host
	} else if at := strings.LastIndex(s, "@"); at != -1 {
		s = s[at+1:]
	}

	host, port := s, defaultPort
	switch {
	case strings.HasPrefix(s, "["), strings.Count(s, ":") == 1:
		h, p, err := net.SplitHostPort(s)
		if err != nil {
			// "[::1]" has brackets but no port.
			if trimmed := strings.Trim(s, "[]"); strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") && net.ParseIP(trimmed) != nil {
				h, p = trimmed, ""
			} else {
				return Target{}, errors.Wrapf(ErrInvalidTarget, "%q: %v", input, err)
			}
		}
		host = h
		if p != "" {
			n, err := strconv.Atoi(p)
			if err != nil {
				return Target{}, errors.Wrapf(ErrInvalidTarget, "%q: port %q is not a number", input, p)
			}
			port = n
		}
	}

	if host == "" {
		return Target{}, errors.Wrapf(ErrInvalidTarget, "%q: empty host", input)
	}
	if port < 1 || port > 65535 {
		return Target{}, errors.Wrapf(ErrInvalidTarget, "%q: port %d out of range", input, port)
	}

	return Target{Input: input, Host: host, Port: port}, nil
}

// ResolveTarget parses target with DefaultSSHPort and resolves it.
func ResolveTarget(ctx context.Context, target string, resolver Resolver) (Target, error) {
	t, err := ParseTarget(target, DefaultSSHPort)
	if err != nil {
		return Target{}, err
	}
	return Resolve(ctx, t, resolver)
}

// Resolve fills in t.IP with the first address the resolver returns.
//
// Onion services are validated but never resolved locally. IP literals are
// used as they are. A nil resolver leaves resolution to the dialer, which
// keeps DNS lookups inside Tor when probing through a SOCKS5 proxy.
func Resolve(ctx context.Context, t Target, resolver Resolver) (Target, error) {
	if t.IsOnion() {
		host, err := tor.NormalizeHost(t.Host)
		if err != nil {
			return Target{}, errors.Wrapf(err, "target %q", t.Input)
		}
		t.Host = host
		return t, nil
	}

	if ip := net.ParseIP(t.Host); ip != nil {
		t.IP = ip.String()
		return t, nil
	}

	if resolver == nil {
		return t, nil
	}

	addrs, err := resolver.LookupHost(ctx, t.Host)
	if err != nil {
		return Target{}, errors.Wrapf(err, "resolve %s", t.Host)
	}
	if len(addrs) == 0 {
		return Target{}, errors.Wrapf(ErrNoAddress, "resolve %s", t.Host)
	}

	t.IP = addrs[0]
	return t, nil
}
