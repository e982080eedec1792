package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/sshprobe/internal/handshake"
	"github.com/nao1215/sshprobe/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ProbeReport) (int, error) {
	summary := summaryOf(report)
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeIdentification(md, report)
	w.writeAlgorithms(md, report)
	w.writeSummary(md, summary)
	w.writeFindings(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs the findings summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("sshprobe Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target", "`" + summary.Target + "`"},
			{"Probe Date", summary.DateProbed.Format("2006-01-02 15:04:05 MST")},
			{"Status", statusText(summary.Error)},
		},
	})
	md.PlainText("")

	w.writeSummary(md, summary)
	w.writeFindings(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with probe information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ProbeReport) {
	md.H1("sshprobe Report")
	md.PlainText("")

	rows := [][]string{
		{"Target", "`" + report.Target + "`"},
	}
	if report.Address != "" {
		rows = append(rows, []string{"Address", "`" + report.Address + "`"})
	}
	if report.ViaTor {
		rows = append(rows, []string{"Transport", "Tor"})
	}
	rows = append(rows,
		[]string{"Probe Date", report.DateProbed.Format("2006-01-02 15:04:05 MST")},
		[]string{"Status", statusText(report.ErrorMessage)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// statusText returns the status text for an error message.
func statusText(errMsg string) string {
	if errMsg != "" {
		return "❌ Error - " + errMsg
	}
	return "✅ Complete"
}

// writeIdentification writes the identifier and fingerprints.
func (w *MarkdownWriter) writeIdentification(md *markdown.Markdown, report *model.ProbeReport) {
	if report.Identifier == "" {
		return
	}

	md.H2("Identification")
	md.PlainText("")

	rows := [][]string{
		{"Identifier", "`" + report.Identifier + "`"},
	}
	if v := report.Version; v != nil {
		rows = append(rows,
			[]string{"Protocol", v.ProtoVersion},
			[]string{"Software", v.SoftwareVersion},
		)
		if v.Comments != "" {
			rows = append(rows, []string{"Comments", v.Comments})
		}
	}
	if report.HASSH != nil {
		rows = append(rows, []string{"HASSH", "`" + report.HASSH.Hash + "`"})
	}
	if report.AlgorithmDigest != "" {
		rows = append(rows, []string{"Algorithm Digest", "`" + report.AlgorithmDigest + "`"})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Field", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeAlgorithms writes the KEXINIT name-lists.
func (w *MarkdownWriter) writeAlgorithms(md *markdown.Markdown, report *model.ProbeReport) {
	if !report.HasKexInit() {
		return
	}

	md.H2("Algorithms")
	md.PlainText("")

	lists := report.KexInit.Lists()
	rows := make([][]string, len(lists))
	for i, list := range lists {
		rows[i] = []string{
			labelTitle(handshake.NameListLabels[i]),
			"`" + strings.Join(list, handshake.NameListSeparator) + "`",
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Name-List", "Algorithms"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSummary writes the severity summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Severity Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(summary.CriticalCount)},
			{"🟠 High", strconv.Itoa(summary.HighCount)},
			{"🟡 Medium", strconv.Itoa(summary.MediumCount)},
			{"🔵 Low", strconv.Itoa(summary.LowCount)},
			{"⚪ Info", strconv.Itoa(summary.InfoCount)},
			{"**Total**", "**" + strconv.Itoa(summary.TotalFindings()) + "**"},
		},
	})
	md.PlainText("")

	if summary.HasFindings() {
		w.writePieChart(md, summary)
	}

	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Severity Distribution"),
		piechart.WithShowData(true),
	)

	counts := []struct {
		label string
		count int
	}{
		{"Critical", summary.CriticalCount},
		{"High", summary.HighCount},
		{"Medium", summary.MediumCount},
		{"Low", summary.LowCount},
		{"Info", summary.InfoCount},
	}
	for _, c := range counts {
		if c.count > 0 {
			chart.LabelAndIntValue(c.label, uint64(c.count))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on severity counts.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.Summary) {
	switch {
	case summary.CriticalCount > 0:
		md.Cautionf(
			"Critical issues detected! %d critical finding(s) leave the transport unprotected.",
			summary.CriticalCount,
		)
	case summary.HighCount > 0:
		md.Warningf(
			"High severity issues detected. %d high severity finding(s) should be addressed.",
			summary.HighCount,
		)
	case summary.MediumCount > 0:
		md.Importantf(
			"Medium severity issues found. %d finding(s) weaken the handshake.",
			summary.MediumCount,
		)
	case summary.TotalFindings() > 0:
		md.Note("Only low severity and informational findings detected.")
	default:
		md.Tip("No significant security issues detected.")
	}
	md.PlainText("")
}

// writeFindings writes all findings grouped by severity.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Findings")
	md.PlainText("")

	if !summary.HasFindings() {
		md.PlainText("No security findings detected.")
		md.PlainText("")
		return
	}

	headers := map[model.Severity]string{
		model.SeverityCritical: "### 🔴 Critical",
		model.SeverityHigh:     "### 🟠 High",
		model.SeverityMedium:   "### 🟡 Medium",
		model.SeverityLow:      "### 🔵 Low",
		model.SeverityInfo:     "### ⚪ Info",
	}

	for _, sev := range severities {
		findings := summary.GetFindingsBySeverity(sev)
		if len(findings) == 0 {
			continue
		}

		md.PlainText(headers[sev])
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

// writeFindingsTable writes a table of findings with details.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	orDash := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}

	rows := make([][]string, len(findings))
	for i, f := range findings {
		rows[i] = []string{
			f.Title,
			truncateString(orDash(f.Value), 50),
			truncateString(orDash(f.Location), 40),
			truncateString(orDash(f.Recommendation), 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Title", "Value", "Location", "Recommendation"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, f := range findings {
		if f.Description != "" {
			md.Details(f.Title, f.Description)
		}
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [sshprobe](https://github.com/nao1215/sshprobe)*")
}
