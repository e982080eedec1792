package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/sshprobe/internal/database"
	"github.com/nao1215/sshprobe/internal/handshake"
	"github.com/nao1215/sshprobe/internal/model"
	"github.com/nao1215/sshprobe/internal/protocol"
)

// sampleKex is a small algorithm offer with one weak MAC.
var sampleKex = handshake.KexData{
	KexAlgorithms:             []string{"curve25519-sha256", "kex-strict-s-v00@openssh.com"},
	ServerHostKeyAlgorithms:   []string{"ssh-ed25519"},
	EncryptionClientToServer:  []string{"aes128-ctr"},
	EncryptionServerToClient:  []string{"aes128-ctr"},
	MACClientToServer:         []string{"hmac-sha1"},
	MACServerToClient:         []string{"hmac-sha1"},
	CompressionClientToServer: []string{"none"},
	CompressionServerToClient: []string{"none"},
}

// fakeScanner fills in fixed wire data and records the target it got.
type fakeScanner struct {
	identifier string
	kex        *handshake.KexData
	err        error
	got        protocol.Target
}

func (s *fakeScanner) Scan(_ context.Context, target protocol.Target, report *model.ProbeReport) error {
	s.got = target
	if s.err != nil {
		return s.err
	}
	report.Address = target.Address()
	report.Identifier = s.identifier
	if v, err := handshake.ParseVersion(s.identifier); err == nil {
		report.Version = &v
	}
	if s.kex != nil {
		report.KexInit = &handshake.KexInitPacket{KexData: *s.kex}
	}
	return nil
}

func (s *fakeScanner) Protocol() string { return "ssh" }
func (s *fakeScanner) DefaultPort() int { return protocol.DefaultSSHPort }

// staticResolver resolves every host to one address.
type staticResolver string

func (r staticResolver) LookupHost(_ context.Context, _ string) ([]string, error) {
	return []string{string(r)}, nil
}

// memoryStore is an in-memory HistoryStore.
type memoryStore struct {
	reports []*model.ProbeReport
	loadErr error
	saveErr error
}

func (m *memoryStore) GetLatestProbeReport(_ context.Context, target string) (*model.ProbeReport, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	for i := len(m.reports) - 1; i >= 0; i-- {
		if m.reports[i].Target == target {
			return m.reports[i], nil
		}
	}
	return nil, database.ErrReportNotFound
}

func (m *memoryStore) SaveProbeReport(_ context.Context, report *model.ProbeReport) (int64, error) {
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	m.reports = append(m.reports, report)
	return int64(len(m.reports)), nil
}

// hasFinding reports whether report has a finding of findingType.
func hasFinding(report *model.ProbeReport, findingType string) bool {
	if report.Summary == nil {
		return false
	}
	for _, f := range report.Summary.Findings {
		if f.Type == findingType {
			return true
		}
	}
	return false
}

// TestHandshakeStep tests target resolution and scanning.
func TestHandshakeStep(t *testing.T) {
	t.Parallel()

	t.Run("Name returns correct value", func(t *testing.T) {
		t.Parallel()

		if got := NewHandshakeStep(&fakeScanner{}).Name(); got != "handshake" {
			t.Errorf("expected 'handshake', got %q", got)
		}
	})

	t.Run("resolves and scans target", func(t *testing.T) {
		t.Parallel()

		scanner := &fakeScanner{identifier: "SSH-2.0-OpenSSH_9.6"}
		step := NewHandshakeStep(scanner, WithResolver(staticResolver("192.0.2.5")))

		report := model.NewProbeReport("example.com")
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if scanner.got.IP != "192.0.2.5" || scanner.got.Port != 22 {
			t.Errorf("unexpected target %+v", scanner.got)
		}
		if report.Address != "192.0.2.5:22" {
			t.Errorf("unexpected address %q", report.Address)
		}
	})

	t.Run("default port option", func(t *testing.T) {
		t.Parallel()

		scanner := &fakeScanner{identifier: "SSH-2.0-X"}
		step := NewHandshakeStep(scanner, WithDefaultPort(2222))

		if err := step.Do(context.Background(), model.NewProbeReport("example.com")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if scanner.got.Port != 2222 {
			t.Errorf("expected port 2222, got %d", scanner.got.Port)
		}
		if scanner.got.IP != "" {
			t.Errorf("expected unresolved target without resolver, got %q", scanner.got.IP)
		}
	})

	t.Run("invalid target", func(t *testing.T) {
		t.Parallel()

		step := NewHandshakeStep(&fakeScanner{})
		err := step.Do(context.Background(), model.NewProbeReport("example.com:99999"))
		if !errors.Is(err, protocol.ErrInvalidTarget) {
			t.Errorf("expected ErrInvalidTarget, got %v", err)
		}
	})

	t.Run("scan error is wrapped", func(t *testing.T) {
		t.Parallel()

		step := NewHandshakeStep(&fakeScanner{err: handshake.ErrTooManyLines})
		err := step.Do(context.Background(), model.NewProbeReport("192.0.2.1"))
		if !errors.Is(err, handshake.ErrTooManyLines) {
			t.Errorf("expected ErrTooManyLines, got %v", err)
		}
		if !strings.HasPrefix(err.Error(), "handshake failed: ") {
			t.Errorf("unexpected message %q", err.Error())
		}
	})
}

// TestFingerprintStep tests HASSH and digest computation.
func TestFingerprintStep(t *testing.T) {
	t.Parallel()

	t.Run("skips report without KEXINIT", func(t *testing.T) {
		t.Parallel()

		report := model.NewProbeReport("host")
		if err := NewFingerprintStep(nil).Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.HASSH != nil || report.AlgorithmDigest != "" {
			t.Error("expected no fingerprint")
		}
	})

	t.Run("computes fingerprints", func(t *testing.T) {
		t.Parallel()

		report := model.NewProbeReport("host")
		report.KexInit = &handshake.KexInitPacket{KexData: sampleKex}

		if err := NewFingerprintStep(nil).Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := handshake.ServerHASSH(sampleKex)
		if report.HASSH == nil || report.HASSH.Hash != want.Hash {
			t.Errorf("expected HASSH %s, got %+v", want.Hash, report.HASSH)
		}
		if len(report.AlgorithmDigest) != 16 {
			t.Errorf("expected 16 hex digits, got %q", report.AlgorithmDigest)
		}
		if !hasFinding(report, model.FindingHASSH) {
			t.Error("expected HASSH finding")
		}
	})
}

// TestAlgorithmDigest tests the digest over all name-lists.
func TestAlgorithmDigest(t *testing.T) {
	t.Parallel()

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()

		if AlgorithmDigest(sampleKex) != AlgorithmDigest(sampleKex) {
			t.Error("expected equal digests")
		}
	})

	t.Run("covers client to server lists", func(t *testing.T) {
		t.Parallel()

		changed := sampleKex
		changed.MACClientToServer = []string{"hmac-sha2-256"}

		if AlgorithmDigest(sampleKex) == AlgorithmDigest(changed) {
			t.Error("expected digest to change")
		}
		if handshake.ServerHASSH(sampleKex).Hash != handshake.ServerHASSH(changed).Hash {
			t.Error("HASSH should ignore client to server lists")
		}
	})

	t.Run("list boundaries matter", func(t *testing.T) {
		t.Parallel()

		a := handshake.KexData{KexAlgorithms: []string{"a", "b"}, ServerHostKeyAlgorithms: []string{"c"}}
		b := handshake.KexData{KexAlgorithms: []string{"a"}, ServerHostKeyAlgorithms: []string{"b", "c"}}

		if AlgorithmDigest(a) == AlgorithmDigest(b) {
			t.Error("expected different digests")
		}
	})
}

// TestAnalyzeStep tests that the analysis step adds findings.
func TestAnalyzeStep(t *testing.T) {
	t.Parallel()

	step := NewAnalyzeStep()
	if step.Name() != "analyze" {
		t.Errorf("expected 'analyze', got %q", step.Name())
	}

	report := model.NewProbeReport("host")
	report.KexInit = &handshake.KexInitPacket{KexData: sampleKex}

	if err := step.Do(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasFinding(report, model.FindingWeakMAC) {
		t.Error("expected weak MAC finding")
	}
}

// TestHistoryStep tests comparison with the previous probe and saving.
func TestHistoryStep(t *testing.T) {
	t.Parallel()

	previous := func() *model.ProbeReport {
		r := model.NewProbeReport("host")
		r.DateProbed = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		r.Identifier = "SSH-2.0-OpenSSH_9.3"
		r.AlgorithmDigest = "1111111111111111"
		return r
	}

	t.Run("first probe is saved without findings", func(t *testing.T) {
		t.Parallel()

		store := &memoryStore{}
		report := model.NewProbeReport("host")
		report.Identifier = "SSH-2.0-OpenSSH_9.6"

		if err := NewHistoryStep(store, nil).Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(store.reports) != 1 {
			t.Errorf("expected 1 saved report, got %d", len(store.reports))
		}
		if report.Summary.HasFindings() {
			t.Errorf("unexpected findings %+v", report.Summary.Findings)
		}
	})

	t.Run("changed identifier and offer", func(t *testing.T) {
		t.Parallel()

		store := &memoryStore{reports: []*model.ProbeReport{previous()}}
		report := model.NewProbeReport("host")
		report.Identifier = "SSH-2.0-OpenSSH_9.6"
		report.AlgorithmDigest = "2222222222222222"

		if err := NewHistoryStep(store, nil).Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !hasFinding(report, model.FindingIdentifierChanged) {
			t.Error("expected identifier change finding")
		}
		if !hasFinding(report, model.FindingHandshakeChanged) {
			t.Error("expected handshake change finding")
		}
		if len(store.reports) != 2 {
			t.Errorf("expected 2 saved reports, got %d", len(store.reports))
		}
	})

	t.Run("unchanged server adds nothing", func(t *testing.T) {
		t.Parallel()

		store := &memoryStore{reports: []*model.ProbeReport{previous()}}
		report := model.NewProbeReport("host")
		report.Identifier = "SSH-2.0-OpenSSH_9.3"
		report.AlgorithmDigest = "1111111111111111"

		if err := NewHistoryStep(store, nil).Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Summary.HasFindings() {
			t.Errorf("unexpected findings %+v", report.Summary.Findings)
		}
	})

	t.Run("load error stops the step", func(t *testing.T) {
		t.Parallel()

		store := &memoryStore{loadErr: errors.New("disk I/O error")}
		err := NewHistoryStep(store, nil).Do(context.Background(), model.NewProbeReport("host"))
		if err == nil {
			t.Error("expected error")
		}
		if len(store.reports) != 0 {
			t.Error("expected nothing to be saved")
		}
	})

	t.Run("save error is returned", func(t *testing.T) {
		t.Parallel()

		saveErr := errors.New("database is locked")
		store := &memoryStore{saveErr: saveErr}
		err := NewHistoryStep(store, nil).Do(context.Background(), model.NewProbeReport("host"))
		if !errors.Is(err, saveErr) {
			t.Errorf("expected save error, got %v", err)
		}
	})
}

// TestCompareReports tests change detection edge cases.
func TestCompareReports(t *testing.T) {
	t.Parallel()

	t.Run("failed previous probe is ignored", func(t *testing.T) {
		t.Parallel()

		prev := model.NewProbeReport("host")
		prev.SetError(errors.New("timeout"))
		cur := model.NewProbeReport("host")
		cur.Identifier = "SSH-2.0-X"

		CompareReports(prev, cur)
		if cur.Summary.HasFindings() {
			t.Errorf("unexpected findings %+v", cur.Summary.Findings)
		}
	})

	t.Run("missing digest is not a change", func(t *testing.T) {
		t.Parallel()

		prev := model.NewProbeReport("host")
		prev.Identifier = "SSH-2.0-X"
		prev.AlgorithmDigest = "1111111111111111"
		cur := model.NewProbeReport("host")
		cur.Identifier = "SSH-2.0-X"

		CompareReports(prev, cur)
		if hasFinding(cur, model.FindingHandshakeChanged) {
			t.Error("unexpected handshake change finding")
		}
	})

	t.Run("nil previous", func(t *testing.T) {
		t.Parallel()

		cur := model.NewProbeReport("host")
		CompareReports(nil, cur)
		if cur.Summary.HasFindings() {
			t.Error("unexpected findings")
		}
	})
}

// TestDefaultPipeline tests the standard step order.
func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	t.Run("without store", func(t *testing.T) {
		t.Parallel()

		p := DefaultPipeline(&fakeScanner{}, nil, nil)
		want := []string{"handshake", "fingerprint", "analyze"}
		got := p.StepNames()
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("end to end with store", func(t *testing.T) {
		t.Parallel()

		kex := sampleKex
		scanner := &fakeScanner{identifier: "SSH-2.0-OpenSSH_9.6p1 Debian-4", kex: &kex}
		store := &memoryStore{}

		p := DefaultPipeline(scanner, store, nil, WithResolver(staticResolver("192.0.2.9")))
		report := model.NewProbeReport("host.example")

		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Join(report.PerformedSteps, ",") != "handshake,fingerprint,analyze,history" {
			t.Errorf("unexpected steps %v", report.PerformedSteps)
		}
		if report.HASSH == nil {
			t.Error("expected HASSH")
		}
		for _, ft := range []string{model.FindingHASSH, model.FindingWeakMAC, model.FindingOSDisclosure} {
			if !hasFinding(report, ft) {
				t.Errorf("expected %s finding", ft)
			}
		}
		if len(store.reports) != 1 {
			t.Errorf("expected report to be saved, got %d", len(store.reports))
		}
	})

	t.Run("handshake failure stops before history", func(t *testing.T) {
		t.Parallel()

		store := &memoryStore{}
		p := DefaultPipeline(&fakeScanner{err: errors.New("connection refused")}, store, nil)
		report := model.NewProbeReport("192.0.2.1")

		if err := p.Execute(context.Background(), report); err == nil {
			t.Fatal("expected error")
		}
		if report.ErrorMessage == "" {
			t.Error("expected error to be recorded")
		}
		if len(store.reports) != 0 {
			t.Error("expected failed probe not to be saved")
		}
	})
}
