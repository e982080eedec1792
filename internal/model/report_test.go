package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/sshprobe/internal/handshake"
)

// TestNewProbeReport tests the ProbeReport constructor.
func TestNewProbeReport(t *testing.T) {
	t.Parallel()

	target := "example.com:2222"
	report := NewProbeReport(target)

	t.Run("sets target", func(t *testing.T) {
		t.Parallel()
		if report.Target != target {
			t.Errorf("got %q, expected %q", report.Target, target)
		}
	})

	t.Run("sets probe timestamp", func(t *testing.T) {
		t.Parallel()
		if report.DateProbed.IsZero() {
			t.Error("expected DateProbed to be set")
		}
		// Should be recent (within last second)
		if time.Since(report.DateProbed) > time.Second {
			t.Error("DateProbed is too old")
		}
	})

	t.Run("initializes Summary", func(t *testing.T) {
		t.Parallel()
		if report.Summary == nil {
			t.Fatal("expected Summary to be initialized")
		}
		if !report.Summary.DateProbed.Equal(report.DateProbed) {
			t.Error("expected Summary to share the probe timestamp")
		}
	})

	t.Run("has no KEXINIT yet", func(t *testing.T) {
		t.Parallel()
		if report.HasKexInit() {
			t.Error("expected HasKexInit to be false")
		}
	})
}

// TestProbeReportAddFinding tests finding aggregation.
func TestProbeReportAddFinding(t *testing.T) {
	t.Parallel()

	t.Run("initializes Summary if nil", func(t *testing.T) {
		t.Parallel()

		report := NewProbeReport("example.com")
		report.Summary = nil

		report.AddFinding(Finding{
			Type:     "test_finding",
			Title:    "Test Finding",
			Severity: SeverityMedium,
			Value:    "test value",
		})

		if report.Summary == nil {
			t.Fatal("expected Summary to be initialized")
		}
		if len(report.Summary.Findings) != 1 {
			t.Errorf("expected 1 finding, got %d", len(report.Summary.Findings))
		}
		if report.Summary.Target != "example.com" {
			t.Errorf("expected target to be copied, got %q", report.Summary.Target)
		}
	})

	t.Run("deduplicates findings", func(t *testing.T) {
		t.Parallel()

		report := NewProbeReport("example.com")

		finding := NewFinding(FindingWeakCipher, "Weak Cipher", "", "3des-cbc", "encryption_algorithms_server_to_client")

		report.AddFinding(finding)
		report.AddFinding(finding) // Duplicate

		if len(report.Summary.Findings) != 1 {
			t.Errorf("expected 1 finding after deduplication, got %d", len(report.Summary.Findings))
		}
		if report.Summary.HighCount != 1 {
			t.Errorf("expected HighCount 1, got %d", report.Summary.HighCount)
		}
	})

	t.Run("same type with different location is kept", func(t *testing.T) {
		t.Parallel()

		report := NewProbeReport("example.com")
		report.AddFinding(NewFinding(FindingWeakCipher, "Weak Cipher", "", "3des-cbc", "encryption_algorithms_client_to_server"))
		report.AddFinding(NewFinding(FindingWeakCipher, "Weak Cipher", "", "3des-cbc", "encryption_algorithms_server_to_client"))

		if report.Summary.TotalFindings() != 2 {
			t.Errorf("expected 2 findings, got %d", report.Summary.TotalFindings())
		}
	})

	t.Run("counts severity levels correctly", func(t *testing.T) {
		t.Parallel()

		report := NewProbeReport("example.com")

		report.AddFinding(Finding{Type: "critical1", Severity: SeverityCritical, Value: "c1"})
		report.AddFinding(Finding{Type: "critical2", Severity: SeverityCritical, Value: "c2"})
		report.AddFinding(Finding{Type: "high1", Severity: SeverityHigh, Value: "h1"})
		report.AddFinding(Finding{Type: "medium1", Severity: SeverityMedium, Value: "m1"})
		report.AddFinding(Finding{Type: "low1", Severity: SeverityLow, Value: "l1"})
		report.AddFinding(Finding{Type: "info1", Severity: SeverityInfo, Value: "i1"})

		s := report.Summary
		if s.CriticalCount != 2 {
			t.Errorf("expected CriticalCount 2, got %d", s.CriticalCount)
		}
		if s.HighCount != 1 {
			t.Errorf("expected HighCount 1, got %d", s.HighCount)
		}
		if s.MediumCount != 1 {
			t.Errorf("expected MediumCount 1, got %d", s.MediumCount)
		}
		if s.LowCount != 1 {
			t.Errorf("expected LowCount 1, got %d", s.LowCount)
		}
		if s.InfoCount != 1 {
			t.Errorf("expected InfoCount 1, got %d", s.InfoCount)
		}
	})
}

// TestProbeReportSetError tests error recording.
func TestProbeReportSetError(t *testing.T) {
	t.Parallel()

	t.Run("records message on report and summary", func(t *testing.T) {
		t.Parallel()

		report := NewProbeReport("example.com")
		report.SetError(errors.New("handshake failed"))

		if report.ErrorMessage != "handshake failed" {
			t.Errorf("unexpected ErrorMessage %q", report.ErrorMessage)
		}
		if report.Summary.Error != "handshake failed" {
			t.Errorf("unexpected Summary.Error %q", report.Summary.Error)
		}
	})

	t.Run("nil clears the message", func(t *testing.T) {
		t.Parallel()

		report := NewProbeReport("example.com")
		report.SetError(errors.New("boom"))
		report.SetError(nil)

		if report.Error != nil || report.ErrorMessage != "" {
			t.Errorf("expected error to be cleared, got %v %q", report.Error, report.ErrorMessage)
		}
	})
}

// TestProbeReportJSON tests that the report serializes the wire data.
func TestProbeReportJSON(t *testing.T) {
	t.Parallel()

	report := NewProbeReport("example.com")
	report.Identifier = "SSH-2.0-OpenSSH_9.6"
	report.KexInit = &handshake.KexInitPacket{
		KexData: handshake.KexData{KexAlgorithms: []string{"curve25519-sha256"}},
	}
	report.SetError(errors.New("read kexinit: unexpected end of stream"))

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{`"identifier":"SSH-2.0-OpenSSH_9.6"`, `"curve25519-sha256"`, `"error":"read kexinit`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected JSON to contain %s, got %s", want, data)
		}
	}

	var decoded ProbeReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decoded.HasKexInit() {
		t.Error("expected KEXINIT to survive a round trip")
	}
}

// TestSummaryMethods tests the Summary helper methods.
func TestSummaryMethods(t *testing.T) {
	t.Parallel()

	t.Run("TotalFindings returns count", func(t *testing.T) {
		t.Parallel()

		s := &Summary{
			Findings: []Finding{
				{Type: "test1", Severity: SeverityHigh},
				{Type: "test2", Severity: SeverityLow},
			},
		}

		if s.TotalFindings() != 2 {
			t.Errorf("expected 2, got %d", s.TotalFindings())
		}
	})

	t.Run("HasFindings returns false when no findings", func(t *testing.T) {
		t.Parallel()

		if (&Summary{}).HasFindings() {
			t.Error("expected false")
		}
	})

	t.Run("GetFindingsBySeverity filters correctly", func(t *testing.T) {
		t.Parallel()

		s := &Summary{
			Findings: []Finding{
				{Type: "test1", Severity: SeverityHigh},
				{Type: "test2", Severity: SeverityLow},
				{Type: "test3", Severity: SeverityHigh},
			},
		}

		if got := len(s.GetFindingsBySeverity(SeverityHigh)); got != 2 {
			t.Errorf("expected 2 high findings, got %d", got)
		}
		if got := len(s.GetFindingsBySeverity(SeverityLow)); got != 1 {
			t.Errorf("expected 1 low finding, got %d", got)
		}
	})

	t.Run("HighestSeverity", func(t *testing.T) {
		t.Parallel()

		if _, ok := (&Summary{}).HighestSeverity(); ok {
			t.Error("expected no highest severity for empty summary")
		}

		s := &Summary{
			Findings: []Finding{
				{Type: "a", Severity: SeverityLow},
				{Type: "b", Severity: SeverityHigh},
				{Type: "c", Severity: SeverityMedium},
			},
		}
		got, ok := s.HighestSeverity()
		if !ok || got != SeverityHigh {
			t.Errorf("expected HIGH, got %v (ok=%v)", got, ok)
		}
	})
}

// TestNewFinding tests that registry metadata is applied.
func TestNewFinding(t *testing.T) {
	t.Parallel()

	f := NewFinding(FindingMACNone, "MAC none", "desc", "none", "mac_algorithms_server_to_client")

	if f.Severity != SeverityCritical {
		t.Errorf("expected SeverityCritical, got %v", f.Severity)
	}
	if f.SeverityText != "CRITICAL" {
		t.Errorf("expected CRITICAL, got %q", f.SeverityText)
	}
	if f.Impact == "" || f.Recommendation == "" {
		t.Error("expected impact and recommendation from the registry")
	}
	if f.Value != "none" || f.Location != "mac_algorithms_server_to_client" {
		t.Errorf("unexpected value/location %q %q", f.Value, f.Location)
	}
}
