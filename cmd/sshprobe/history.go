package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nao1215/sshprobe/internal/config"
	"github.com/nao1215/sshprobe/internal/database"
	"github.com/nao1215/sshprobe/internal/model"
	"github.com/nao1215/sshprobe/internal/report"
)

// NewHistoryCmd creates the history command.
// This command reads probe results stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [host[:port]]",
		Short: "Show and compare stored probe results",
		Long: `History reads the probe results stored by 'sshprobe probe'.

Without arguments it lists every probed target. With a target it lists the
stored probes of that target, newest first. Targets are matched exactly as
they were given to 'sshprobe probe'.

Examples:
  # List all probed targets
  sshprobe history

  # List the probes of one target
  sshprobe history server.example.com

  # Show what changed between the latest two probes
  sshprobe history --compare server.example.com

  # Compare an older probe with the latest one
  sshprobe history --compare --id 5 server.example.com

  # Print a stored probe as JSON
  sshprobe history --id 5 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64P("id", "i", 0,
		"Probe ID to show, or to compare with the latest probe when used with --compare")
	cmd.Flags().BoolP("compare", "C", false,
		"Compare two probes of the target")
	cmd.Flags().BoolP("json", "j", false,
		"Print stored probes as JSON")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print stored probes as Markdown")
	cmd.Flags().String("db-dir", "",
		"Directory of the history database (default: XDG data directory)")

	return cmd
}

// historyOptions holds the parsed flags of the history command.
type historyOptions struct {
	target   string
	id       int64
	compare  bool
	json     bool
	markdown bool
	dbDir    string
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryFlags(cmd, args)
	if err != nil {
		return err
	}

	// Validate before opening the database.
	if opts.compare && opts.target == "" {
		return errors.New("a target is required with --compare")
	}
	if opts.json && opts.markdown {
		return config.ErrConflictingReportFormats
	}

	out := cmd.OutOrStdout()

	db, err := database.Open(opts.dbDir, database.Options{CreateIfNotExists: false})
	if err != nil {
		if errors.Is(err, database.ErrDatabaseNotFound) {
			fmt.Fprintln(out, "No probes stored.")
			fmt.Fprintln(out, "\nUse 'sshprobe probe <host>' to probe a server.")
			return nil
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()

	switch {
	case opts.compare:
		return compareProbes(ctx, out, db, opts.target, opts.id)
	case opts.id != 0:
		return showProbe(ctx, out, db, opts)
	case opts.target != "":
		history, err := db.GetProbeHistoryWithMetadata(ctx, opts.target)
		if err != nil {
			return fmt.Errorf("failed to get probe history: %w", err)
		}
		return report.WriteHistory(out, opts.target, history)
	default:
		targets, err := db.ListProbedTargets(ctx)
		if err != nil {
			return fmt.Errorf("failed to list targets: %w", err)
		}
		return report.WriteTargets(out, targets)
	}
}

// parseHistoryFlags reads the history command flags.
func parseHistoryFlags(cmd *cobra.Command, args []string) (historyOptions, error) {
	var opts historyOptions
	var err error

	if len(args) == 1 {
		opts.target = args[0]
	}
	if opts.id, err = cmd.Flags().GetInt64("id"); err != nil {
		return opts, err
	}
	if opts.compare, err = cmd.Flags().GetBool("compare"); err != nil {
		return opts, err
	}
	if opts.json, err = cmd.Flags().GetBool("json"); err != nil {
		return opts, err
	}
	if opts.markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return opts, err
	}
	if opts.dbDir, err = cmd.Flags().GetString("db-dir"); err != nil {
		return opts, err
	}
	if opts.dbDir == "" {
		opts.dbDir = config.XDGDataDir()
	}

	return opts, nil
}

// showProbe prints one stored probe.
func showProbe(ctx context.Context, out io.Writer, db *database.HistoryDB, opts historyOptions) error {
	r, err := db.GetProbeReportByID(ctx, opts.id)
	if err != nil {
		return fmt.Errorf("probe %d: %w", opts.id, err)
	}
	if opts.target != "" && r.Target != opts.target {
		return fmt.Errorf("probe %d belongs to %s, not %s", opts.id, r.Target, opts.target)
	}

	var w report.Writer
	switch {
	case opts.json:
		w = report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case opts.markdown:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out, report.WithVerbose(true))
	}
	_, err = w.Write(r)
	return err
}

// compareProbes compares probe id (or the second latest probe when id is 0)
// with the latest probe of target.
func compareProbes(ctx context.Context, out io.Writer, db *database.HistoryDB, target string, id int64) error {
	history, err := db.GetProbeHistory(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to get probe history: %w", err)
	}
	if len(history) == 0 {
		return fmt.Errorf("%w: no probes of %s", database.ErrReportNotFound, target)
	}
	newer := history[0]

	var older *model.ProbeReport
	if id == 0 {
		if len(history) < 2 {
			return fmt.Errorf("only one probe of %s is stored; probe it again to compare", target)
		}
		older = history[1]
	} else {
		older, err = db.GetProbeReportByID(ctx, id)
		if err != nil {
			return fmt.Errorf("probe %d: %w", id, err)
		}
		if older.Target != target {
			return fmt.Errorf("probe %d belongs to %s, not %s", id, older.Target, target)
		}
	}

	return report.WriteComparison(out, older, newer)
}
