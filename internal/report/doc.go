// Package report renders probe reports and probe history.
//
// Every format implements Writer:
//   - SimpleWriter prints a terminal report with algorithm tables
//   - JSONWriter and FullJSONWriter emit the report for other tools
//   - MarkdownWriter produces a document with a severity chart
//
// WriteTargets, WriteHistory and WriteComparison print what the history
// database holds.
//
// Design decision: Rendering lives apart from internal/model so that the
// stored report stays the same whichever format prints it.
package report
