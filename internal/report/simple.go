package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nao1215/sshprobe/internal/handshake"
	"github.com/nao1215/sshprobe/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with color-coded severity
// levels and the algorithm offer rendered as a table.
//
// Design decision: Colors are off unless enabled with WithColor because:
// 1. Output piped to files or other tools stays free of escape codes
// 2. The CLI decides based on whether stdout is a terminal
// 3. Tests compare plain text
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool

	// palette holds the colors used for severities and headings.
	palette palette
}

// palette is the set of colors used by SimpleWriter.
type palette struct {
	heading *color.Color
	ok      *color.Color
	failed  *color.Color
	bySev   map[model.Severity]*color.Color
}

// newPalette creates the colors with output enabled or disabled.
func newPalette(enabled bool) palette {
	p := palette{
		heading: color.New(color.Bold),
		ok:      color.New(color.FgGreen),
		failed:  color.New(color.FgRed, color.Bold),
		bySev: map[model.Severity]*color.Color{
			model.SeverityCritical: color.New(color.FgHiRed, color.Bold),
			model.SeverityHigh:     color.New(color.FgRed),
			model.SeverityMedium:   color.New(color.FgYellow),
			model.SeverityLow:      color.New(color.FgBlue),
			model.SeverityInfo:     color.New(color.FgHiBlack),
		},
	}

	all := []*color.Color{p.heading, p.ok, p.failed}
	for _, c := range p.bySev {
		all = append(all, c)
	}
	for _, c := range all {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return p
}

// severity colors s with the color of sev.
func (p palette) severity(sev model.Severity, s string) string {
	if c, ok := p.bySev[sev]; ok {
		return c.Sprint(s)
	}
	return s
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithColor enables ANSI colors.
func WithColor(enabled bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.palette = newPalette(enabled)
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
		palette:    newPalette(false),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.ProbeReport) (int, error) {
	summary := summaryOf(report)
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeIdentification(&sb, report)
	w.writeAlgorithms(&sb, report, summary)
	w.writeSummary(&sb, summary)
	w.writeFindings(&sb, summary)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteSummary outputs the findings summary in human-readable format.
func (w *SimpleWriter) WriteSummary(summary *model.Summary) (int, error) {
	var sb strings.Builder

	w.writeSection(&sb, "PROBE SUMMARY")
	fmt.Fprintf(&sb, "Target:         %s\n", summary.Target)
	fmt.Fprintf(&sb, "Probe Date:     %s\n", summary.DateProbed.Format("2006-01-02 15:04:05 MST"))
	w.writeStatus(&sb, summary.Error)
	sb.WriteString("\n")

	w.writeSummary(&sb, summary)
	w.writeFindings(&sb, summary)

	return io.WriteString(w.output, sb.String())
}

// writeSection writes a section heading between rules.
func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(w.palette.heading.Sprint(title))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeStatus writes the status line.
func (w *SimpleWriter) writeStatus(sb *strings.Builder, errMsg string) {
	if errMsg != "" {
		fmt.Fprintf(sb, "Status:         %s\n", w.palette.failed.Sprint("ERROR - "+errMsg))
		return
	}
	fmt.Fprintf(sb, "Status:         %s\n", w.palette.ok.Sprint("Complete"))
}

// writeHeader writes the report header with probe information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.ProbeReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          SSHPROBE REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Target:         %s\n", report.Target)
	if report.Address != "" {
		fmt.Fprintf(sb, "Address:        %s\n", report.Address)
	}
	if report.ViaTor {
		sb.WriteString("Transport:      Tor\n")
	}
	fmt.Fprintf(sb, "Probe Date:     %s\n", report.DateProbed.Format("2006-01-02 15:04:05 MST"))
	if report.Duration > 0 {
		fmt.Fprintf(sb, "Duration:       %s\n", report.Duration.Round(time.Millisecond))
	}
	w.writeStatus(sb, report.ErrorMessage)

	sb.WriteString("\n")
}

// writeIdentification writes the identifier and fingerprints.
func (w *SimpleWriter) writeIdentification(sb *strings.Builder, report *model.ProbeReport) {
	if report.Identifier == "" && !w.showEmpty {
		return
	}

	w.writeSection(sb, "IDENTIFICATION")

	if report.Identifier == "" {
		sb.WriteString("  No identifier received\n\n")
		return
	}

	fmt.Fprintf(sb, "  Identifier:   %s\n", report.Identifier)
	if v := report.Version; v != nil {
		fmt.Fprintf(sb, "  Protocol:     %s\n", v.ProtoVersion)
		fmt.Fprintf(sb, "  Software:     %s\n", v.SoftwareVersion)
		if v.Comments != "" {
			fmt.Fprintf(sb, "  Comments:     %s\n", v.Comments)
		}
	}
	if report.HASSH != nil {
		fmt.Fprintf(sb, "  HASSH:        %s\n", report.HASSH.Hash)
		if w.verbose {
			fmt.Fprintf(sb, "  HASSH Input:  %s\n", report.HASSH.Algorithms)
		}
	}
	if report.AlgorithmDigest != "" {
		fmt.Fprintf(sb, "  Digest:       %s\n", report.AlgorithmDigest)
	}
	sb.WriteString("\n")
}

// writeAlgorithms writes the KEXINIT name-lists as a table. Algorithms
// with a finding at that name-list are colored by the finding's severity.
func (w *SimpleWriter) writeAlgorithms(sb *strings.Builder, report *model.ProbeReport, summary *model.Summary) {
	if !report.HasKexInit() {
		return
	}

	w.writeSection(sb, "ALGORITHMS")

	flagged := make(map[string]model.Severity)
	for _, f := range summary.Findings {
		key := f.Location + "\x00" + f.Value
		if sev, ok := flagged[key]; !ok || f.Severity > sev {
			flagged[key] = f.Severity
		}
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Name-List", "Algorithms"})

	lists := report.KexInit.Lists()
	for i, list := range lists {
		label := handshake.NameListLabels[i]
		names := make([]string, len(list))
		for j, name := range list {
			if name == "" {
				name = "(empty)"
			} else if sev, ok := flagged[label+"\x00"+name]; ok {
				name = w.palette.severity(sev, name)
			}
			names[j] = name
		}
		t.AppendRow(table.Row{labelTitle(label), strings.Join(names, "\n")})
	}

	t.SetStyle(table.StyleLight)
	sb.WriteString(t.Render())
	sb.WriteString("\n\n")

	if w.verbose {
		pkt := report.KexInit
		fmt.Fprintf(sb, "  Packet Length:            %d\n", pkt.PacketLength)
		fmt.Fprintf(sb, "  Padding Length:           %d\n", pkt.PaddingLength)
		fmt.Fprintf(sb, "  First KEX Packet Follows: %t\n\n", pkt.FirstKexPacketFollows)
	}
}

// writeSummary writes the severity summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, summary *model.Summary) {
	w.writeSection(sb, "SEVERITY SUMMARY")

	counts := map[model.Severity]int{
		model.SeverityCritical: summary.CriticalCount,
		model.SeverityHigh:     summary.HighCount,
		model.SeverityMedium:   summary.MediumCount,
		model.SeverityLow:      summary.LowCount,
		model.SeverityInfo:     summary.InfoCount,
	}
	for _, sev := range severities {
		label := fmt.Sprintf("%-9s", sev.String()+":")
		fmt.Fprintf(sb, "  %s %d\n", w.palette.severity(sev, label), counts[sev])
	}
	sb.WriteString("\n")

	fmt.Fprintf(sb, "  TOTAL:    %d findings\n", summary.TotalFindings())
	sb.WriteString("\n")
}

// writeFindings writes all findings grouped by severity.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, summary *model.Summary) {
	if !summary.HasFindings() && !w.showEmpty {
		return
	}

	w.writeSection(sb, "FINDINGS")

	for _, severity := range severities {
		findings := summary.GetFindingsBySeverity(severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}

		w.writeFindingsForSeverity(sb, severity, findings)
	}
}

// writeFindingsForSeverity writes findings of a specific severity level.
func (w *SimpleWriter) writeFindingsForSeverity(sb *strings.Builder, severity model.Severity, findings []model.Finding) {
	indicator := w.getSeverityIndicator(severity)
	sb.WriteString(w.palette.severity(severity, fmt.Sprintf("[%s] %s", indicator, severity.String())))
	sb.WriteString("\n")

	if len(findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}

	for _, finding := range findings {
		fmt.Fprintf(sb, "  * %s\n", finding.Title)
		if finding.Value != "" {
			fmt.Fprintf(sb, "    Value: %s\n", finding.Value)
		}
		if finding.Location != "" {
			fmt.Fprintf(sb, "    Location: %s\n", finding.Location)
		}
		if w.verbose && finding.Description != "" {
			fmt.Fprintf(sb, "    Description: %s\n", finding.Description)
		}
		if w.verbose && finding.Recommendation != "" {
			fmt.Fprintf(sb, "    Recommendation: %s\n", finding.Recommendation)
		}
	}
	sb.WriteString("\n")
}

// getSeverityIndicator returns a visual indicator for the severity level.
func (w *SimpleWriter) getSeverityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by sshprobe\n")
	sb.WriteString("https://github.com/nao1215/sshprobe\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
