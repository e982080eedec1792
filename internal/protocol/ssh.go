package protocol

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/net/proxy"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/sshprobe/internal/handshake"
	"github.com/nao1215/sshprobe/internal/model"
	"github.com/nao1215/sshprobe/internal/tor"
)

const (
	// DefaultClientIdentifier is the identification string sent to servers.
	DefaultClientIdentifier = "SSH-2.0-SSHProbe_0.1"

	// DefaultSSHTimeout bounds a whole probe, from dial to KEXINIT.
	DefaultSSHTimeout = 30 * time.Second
)

// SSHScanner reads the identification string and the first KEXINIT packet
// of an SSH server.
//
// Design decision: We use raw TCP connections rather than an SSH library because:
//  1. We only need what the server sends before key exchange
//  2. Client libraries abort on algorithm mismatches we want to report on
//  3. The decoders enforce their own length limits on hostile input
//  4. Nothing is negotiated, so the probe cannot authenticate by accident
type SSHScanner struct {
	// dialer is proxy.Direct or a Tor SOCKS5 dialer.
	dialer proxy.Dialer

	// timeout bounds the whole probe.
	timeout time.Duration

	// clientIdent is sent to the server before reading its identifier.
	clientIdent string

	// readKexInit controls whether the KEXINIT packet is read.
	readKexInit bool

	// viaTor marks the dialer as a Tor proxy.
	viaTor bool

	// logger for structured logging.
	logger *slog.Logger
}

// SSHScannerOption configures an SSHScanner.
type SSHScannerOption func(*SSHScanner)

// WithSSHTimeout sets the probe timeout.
func WithSSHTimeout(timeout time.Duration) SSHScannerOption {
	return func(s *SSHScanner) {
		s.timeout = timeout
	}
}

// WithClientIdentifier sets the identification string sent to the server.
func WithClientIdentifier(ident string) SSHScannerOption {
	return func(s *SSHScanner) {
		s.clientIdent = ident
	}
}

// WithKexInit controls whether the scanner reads the server's KEXINIT.
// When disabled the probe stops after the identification string.
func WithKexInit(enabled bool) SSHScannerOption {
	return func(s *SSHScanner) {
		s.readKexInit = enabled
	}
}

// WithTor marks the dialer as going through Tor, which allows onion targets.
func WithTor(viaTor bool) SSHScannerOption {
	return func(s *SSHScanner) {
		s.viaTor = viaTor
	}
}

// WithSSHLogger sets a custom logger for the scanner.
func WithSSHLogger(logger *slog.Logger) SSHScannerOption {
	return func(s *SSHScanner) {
		s.logger = logger
	}
}

// NewSSHScanner creates a new SSH scanner.
// Pass proxy.Direct for plain TCP or a tor.Client's Dialer for Tor.
func NewSSHScanner(dialer proxy.Dialer, opts ...SSHScannerOption) *SSHScanner {
	s := &SSHScanner{
		dialer:      dialer,
		timeout:     DefaultSSHTimeout,
		clientIdent: DefaultClientIdentifier,
		readKexInit: true,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Protocol returns the protocol name.
func (s *SSHScanner) Protocol() string {
	return "ssh"
}

// DefaultPort returns the default SSH port.
func (s *SSHScanner) DefaultPort() int {
	return DefaultSSHPort
}

// Scan probes target and fills in the wire data of report.
//
// The exchange runs in an errgroup next to a watcher that closes the
// connection when ctx is done, so a server that stops sending cannot hold
// the probe past its deadline. If the probe was interrupted the context
// error is returned.
func (s *SSHScanner) Scan(ctx context.Context, target Target, report *model.ProbeReport) error {
	if target.IsOnion() && !s.viaTor {
		return errors.Wrapf(ErrOnionRequiresTor, "target %s", target.Host)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	address := target.Address()
	report.Address = address
	report.ViaTor = s.viaTor

	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	conn, err := tor.DialContext(ctx, s.dialer, "tcp", address)
	if err != nil {
		return errors.Wrapf(err, "dial %s", address)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return errors.Wrap(err, "set deadline")
		}
	}

	s.logger.Debug("connected", "address", address, "via_tor", s.viaTor)

	done := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-gctx.Done():
			_ = conn.Close() //nolint:errcheck // unblocks the session
		case <-done:
		}
		return nil
	})
	g.Go(func() error {
		defer close(done)
		return s.session(conn, report)
	})

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Wrapf(ctxErr, "handshake with %s interrupted", address)
		}
		return err
	}
	return nil
}

// session exchanges identification strings and reads the KEXINIT packet.
func (s *SSHScanner) session(conn net.Conn, report *model.ProbeReport) error {
	if err := handshake.WriteIdentifier(conn, s.clientIdent); err != nil {
		return err
	}

	id, err := handshake.ReadIdentifier(conn)
	if err != nil {
		return err
	}
	report.Identifier = id

	version, err := handshake.ParseVersion(id)
	if err != nil {
		s.logger.Debug("identifier not parsed", "identifier", id, "error", err)
	} else {
		report.Version = &version
	}

	if !s.readKexInit {
		return nil
	}
	if report.Version != nil && !report.Version.SupportsSSH2() {
		// An SSH-1 server never sends KEXINIT.
		s.logger.Debug("skipping KEXINIT for SSH-1 server", "identifier", id)
		return nil
	}

	pkt, err := handshake.ReadKexPacket(conn)
	if err != nil {
		return errors.Wrap(err, "read kexinit")
	}
	report.KexInit = pkt

	return nil
}
