package report

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nao1215/sshprobe/internal/database"
	"github.com/nao1215/sshprobe/internal/handshake"
	"github.com/nao1215/sshprobe/internal/model"
)

// WriteTargets writes the list of probed targets.
func WriteTargets(out io.Writer, targets []string) error {
	if len(targets) == 0 {
		_, err := io.WriteString(out, "No probes stored.\n")
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Target"})
	for i, target := range targets {
		t.AppendRow(table.Row{i + 1, target})
	}
	t.SetStyle(table.StyleLight)

	_, err := io.WriteString(out, t.Render()+"\n")
	return err
}

// WriteHistory writes the stored probes of a target, newest first.
func WriteHistory(out io.Writer, target string, history []database.ProbeReportMetadata) error {
	if len(history) == 0 {
		_, err := fmt.Fprintf(out, "No probes stored for %s.\n", target)
		return err
	}

	t := table.NewWriter()
	t.SetTitle("Probe history of " + target)
	t.AppendHeader(table.Row{"ID", "Date", "Identifier", "HASSH", "C/H/M/L/I", "Error"})
	for _, h := range history {
		risk := strings.Join([]string{
			strconv.Itoa(h.RiskSummary["critical"]),
			strconv.Itoa(h.RiskSummary["high"]),
			strconv.Itoa(h.RiskSummary["medium"]),
			strconv.Itoa(h.RiskSummary["low"]),
			strconv.Itoa(h.RiskSummary["info"]),
		}, "/")
		t.AppendRow(table.Row{
			h.ID,
			h.Timestamp.Local().Format("2006-01-02 15:04:05"),
			truncateString(h.Identifier, 40),
			h.HASSH,
			risk,
			truncateString(h.Error, 30),
		})
	}
	t.SetStyle(table.StyleLight)

	_, err := io.WriteString(out, t.Render()+"\n")
	return err
}

// ListDiff is the difference between two versions of one name-list.
type ListDiff struct {
	Label   string
	Added   []string
	Removed []string
}

// DiffKexData compares the name-lists of two algorithm offers. Only lists
// that differ in membership are returned. A reordering alone is reported
// with empty Added and Removed.
func DiffKexData(older, newer handshake.KexData) []ListDiff {
	var diffs []ListDiff

	oldLists, newLists := older.Lists(), newer.Lists()
	for i := range oldLists {
		if slices.Equal(oldLists[i], newLists[i]) {
			continue
		}

		d := ListDiff{Label: handshake.NameListLabels[i]}
		for _, name := range newLists[i] {
			if !slices.Contains(oldLists[i], name) {
				d.Added = append(d.Added, name)
			}
		}
		for _, name := range oldLists[i] {
			if !slices.Contains(newLists[i], name) {
				d.Removed = append(d.Removed, name)
			}
		}
		diffs = append(diffs, d)
	}

	return diffs
}

// WriteComparison writes what changed between two probes of a target.
func WriteComparison(out io.Writer, older, newer *model.ProbeReport) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Comparing %s probes of %s and %s\n\n",
		newer.Target,
		older.DateProbed.Local().Format("2006-01-02 15:04:05"),
		newer.DateProbed.Local().Format("2006-01-02 15:04:05"))

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Field", "Before", "After"})
	changed := 0
	field := func(name, before, after string) {
		if before == after {
			return
		}
		changed++
		t.AppendRow(table.Row{name, before, after})
	}

	field("Identifier", older.Identifier, newer.Identifier)
	field("HASSH", hasshOf(older), hasshOf(newer))
	field("Algorithm Digest", older.AlgorithmDigest, newer.AlgorithmDigest)
	field("Error", older.ErrorMessage, newer.ErrorMessage)

	if older.HasKexInit() && newer.HasKexInit() {
		for _, d := range DiffKexData(older.KexInit.KexData, newer.KexInit.KexData) {
			before := "-" + strings.Join(d.Removed, "\n-")
			after := "+" + strings.Join(d.Added, "\n+")
			if len(d.Removed) == 0 {
				before = ""
			}
			if len(d.Added) == 0 {
				after = ""
			}
			if before == "" && after == "" {
				before, after = "(order)", "(order)"
			}
			changed++
			t.AppendRow(table.Row{labelTitle(d.Label), before, after})
		}
	}

	if changed == 0 {
		sb.WriteString("No changes.\n")
	} else {
		t.SetStyle(table.StyleLight)
		sb.WriteString(t.Render())
		sb.WriteString("\n")
	}

	_, err := io.WriteString(out, sb.String())
	return err
}

// hasshOf returns the HASSH hash of r or an empty string.
func hasshOf(r *model.ProbeReport) string {
	if r.HASSH == nil {
		return ""
	}
	return r.HASSH.Hash
}
