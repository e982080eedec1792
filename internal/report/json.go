package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/sshprobe/internal/model"
)

// JSONWriter writes one JSON document per report, followed by a newline.
//
// Design decision: encoding/json is used as in the rest of the code base.
// HTML escaping is turned off because identifiers and algorithm names are
// printed for people and tools, never embedded in a page.
type JSONWriter struct {
	baseWriter

	// prefix and indent are passed to json.Encoder.SetIndent. Both empty
	// means compact output.
	prefix string
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent indents nested values with indent and starts every line
// after the first with prefix.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.prefix = prefix
		w.indent = indent
	}
}

// WithPrettyPrint indents with two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter returns a compact JSONWriter unless an indent option is given.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write encodes report, filling in its summary first if it has none.
func (w *JSONWriter) Write(report *model.ProbeReport) (int, error) {
	if report.Summary == nil {
		report.Summary = summaryOf(report)
	}
	return w.encode(report)
}

// WriteSummary encodes only summary.
func (w *JSONWriter) WriteSummary(summary *model.Summary) (int, error) {
	return w.encode(summary)
}

// encode buffers the whole document so that a marshal error writes nothing.
func (w *JSONWriter) encode(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.prefix != "" || w.indent != "" {
		enc.SetIndent(w.prefix, w.indent)
	}
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}

// JSONReport is the document written by FullJSONWriter. It records which
// sshprobe version produced the report next to the report itself.
type JSONReport struct {
	// Version is the sshprobe version.
	Version string `json:"version"`

	// Report is the probe report.
	Report *model.ProbeReport `json:"report"`
}

// NewJSONReport wraps report with version.
func NewJSONReport(report *model.ProbeReport, version string) *JSONReport {
	return &JSONReport{Version: version, Report: report}
}

// FullJSONWriter writes each report as a JSONReport.
type FullJSONWriter struct {
	*JSONWriter

	version string
}

// NewFullJSONWriter returns a FullJSONWriter stamping reports with version.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write encodes report inside a JSONReport.
func (w *FullJSONWriter) Write(report *model.ProbeReport) (int, error) {
	if report.Summary == nil {
		report.Summary = summaryOf(report)
	}
	return w.encode(NewJSONReport(report, w.version))
}
