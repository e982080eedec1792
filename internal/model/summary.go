package model

import "time"

// Summary is a condensed, human-readable view of a probe.
//
// Design decision: We keep a separate summary rather than
// just printing parts of ProbeReport because:
// 1. It provides a consistent, curated view of the most important findings
// 2. It can be serialized to JSON for tools that want structured but simple output
// 3. It separates presentation concerns from data collection
type Summary struct {
	// Target is the probed host[:port].
	Target string `json:"target"`

	// DateProbed is when the probe was performed.
	DateProbed time.Time `json:"date_probed"`

	// === Severity Summary ===

	// CriticalCount is the number of critical findings.
	CriticalCount int `json:"critical_count"`

	// HighCount is the number of high severity findings.
	HighCount int `json:"high_count"`

	// MediumCount is the number of medium severity findings.
	MediumCount int `json:"medium_count"`

	// LowCount is the number of low severity findings.
	LowCount int `json:"low_count"`

	// InfoCount is the number of informational findings.
	InfoCount int `json:"info_count"`

	// === Findings ===

	// Findings contains all categorized findings.
	Findings []Finding `json:"findings,omitempty"`

	// Error contains any error message if the probe failed.
	Error string `json:"error,omitempty"`
}

// Finding represents a single finding in the summary.
type Finding struct {
	// Type is the finding type identifier.
	// This maps to findingInfoMapping in severity.go.
	Type string `json:"type"`

	// Severity is the risk level.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity.
	SeverityText string `json:"severity_text"`

	// Title is a short description of the finding.
	Title string `json:"title"`

	// Description provides more detail about the finding.
	Description string `json:"description,omitempty"`

	// Impact explains the security implications of this finding.
	Impact string `json:"impact,omitempty"`

	// Recommendation provides guidance on how to address this finding.
	Recommendation string `json:"recommendation,omitempty"`

	// Value is the specific value found (algorithm name, banner, etc.).
	Value string `json:"value,omitempty"`

	// Location is where the finding was observed, such as a name-list label.
	Location string `json:"location,omitempty"`
}

// NewFinding builds a finding whose severity, impact and recommendation
// come from the finding type registry.
func NewFinding(findingType, title, description, value, location string) Finding {
	info := GetFindingInfo(findingType)
	return Finding{
		Type:           findingType,
		Severity:       info.Severity,
		SeverityText:   info.Severity.String(),
		Title:          title,
		Description:    description,
		Impact:         info.Impact,
		Recommendation: info.Recommendation,
		Value:          value,
		Location:       location,
	}
}

// NewSummary creates an empty summary for target.
func NewSummary(target string, probed time.Time) *Summary {
	return &Summary{
		Target:     target,
		DateProbed: probed,
		Findings:   make([]Finding, 0),
	}
}

// add appends f unless an identical finding is already present
// and updates the severity counters.
func (s *Summary) add(f Finding) {
	for _, existing := range s.Findings {
		if existing.Type == f.Type && existing.Value == f.Value && existing.Location == f.Location {
			return
		}
	}

	s.Findings = append(s.Findings, f)
	s.count(f.Severity)
}

// count increments the counter for severity.
func (s *Summary) count(severity Severity) {
	switch severity {
	case SeverityCritical:
		s.CriticalCount++
	case SeverityHigh:
		s.HighCount++
	case SeverityMedium:
		s.MediumCount++
	case SeverityLow:
		s.LowCount++
	case SeverityInfo:
		s.InfoCount++
	}
}

// TotalFindings returns the total number of findings.
func (s *Summary) TotalFindings() int {
	return len(s.Findings)
}

// HasFindings returns true if there are any findings.
func (s *Summary) HasFindings() bool {
	return len(s.Findings) > 0
}

// GetFindingsBySeverity returns findings filtered by severity.
func (s *Summary) GetFindingsBySeverity(severity Severity) []Finding {
	var result []Finding
	for _, f := range s.Findings {
		if f.Severity == severity {
			result = append(result, f)
		}
	}
	return result
}

// HighestSeverity returns the most severe level among the findings.
// The second return value is false when there are no findings.
func (s *Summary) HighestSeverity() (Severity, bool) {
	if len(s.Findings) == 0 {
		return SeverityInfo, false
	}
	highest := SeverityInfo
	for _, f := range s.Findings {
		if f.Severity > highest {
			highest = f.Severity
		}
	}
	return highest, true
}
