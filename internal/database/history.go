package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sshprobe/internal/model"
)

const (
	// FileName is the database file created inside the data directory.
	FileName = "sshprobe.db"

	// timeLayout is fixed-width so that probed_at sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// HistoryDB stores probe reports in SQLite.
//
// Design decision: Reports are stored as JSON next to a few indexed columns.
// The JSON keeps the full wire data for later re-analysis, while the columns
// let history listings and change detection run without decoding it.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist,
// ErrDatabaseNotFound is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw prevents modernc.org/sqlite from creating a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS probe_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target TEXT NOT NULL,
		probed_at TEXT NOT NULL,
		address TEXT,
		identifier TEXT,
		hassh TEXT,
		algorithm_digest TEXT,
		error TEXT,
		report_json TEXT NOT NULL,
		risk_summary TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_probe_target ON probe_reports(target);
	CREATE INDEX IF NOT EXISTS idx_probe_time ON probe_reports(probed_at);
	CREATE INDEX IF NOT EXISTS idx_probe_hassh ON probe_reports(hassh);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// riskSummary counts findings by severity for the risk_summary column.
func riskSummary(report *model.ProbeReport) map[string]int {
	summary := map[string]int{
		"critical": 0,
		"high":     0,
		"medium":   0,
		"low":      0,
		"info":     0,
	}
	if s := report.Summary; s != nil {
		summary["critical"] = s.CriticalCount
		summary["high"] = s.HighCount
		summary["medium"] = s.MediumCount
		summary["low"] = s.LowCount
		summary["info"] = s.InfoCount
	}
	return summary
}

// SaveProbeReport stores report and returns its row ID.
func (hdb *HistoryDB) SaveProbeReport(ctx context.Context, report *model.ProbeReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}
	riskJSON, _ := json.Marshal(riskSummary(report)) //nolint:errcheck,errchkjson // map[string]int always marshals

	var hassh string
	if report.HASSH != nil {
		hassh = report.HASSH.Hash
	}

	query := `
	INSERT INTO probe_reports
		(target, probed_at, address, identifier, hassh, algorithm_digest, error, report_json, risk_summary)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := hdb.db.ExecContext(ctx, query,
		report.Target,
		report.DateProbed.UTC().Format(timeLayout),
		report.Address,
		report.Identifier,
		hassh,
		report.AlgorithmDigest,
		report.ErrorMessage,
		string(reportJSON),
		string(riskJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save probe report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read report id: %w", err)
	}
	return id, nil
}

// scanReport decodes the report_json column of a single-row query.
func scanReport(row *sql.Row) (*model.ProbeReport, error) {
	var reportJSON string
	err := row.Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get probe report: %w", err)
	}

	var report model.ProbeReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// GetLatestProbeReport returns the most recent report for target.
// ErrReportNotFound is returned when the target was never probed.
func (hdb *HistoryDB) GetLatestProbeReport(ctx context.Context, target string) (*model.ProbeReport, error) {
	query := `
	SELECT report_json FROM probe_reports
	WHERE target = ?
	ORDER BY probed_at DESC, id DESC
	LIMIT 1
	`
	return scanReport(hdb.db.QueryRowContext(ctx, query, target))
}

// GetProbeReportByID returns the report stored under id.
func (hdb *HistoryDB) GetProbeReportByID(ctx context.Context, id int64) (*model.ProbeReport, error) {
	query := `
	SELECT report_json FROM probe_reports
	WHERE id = ?
	`
	return scanReport(hdb.db.QueryRowContext(ctx, query, id))
}

// ListProbedTargets returns every target with at least one stored report.
func (hdb *HistoryDB) ListProbedTargets(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT target FROM probe_reports
	ORDER BY target
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, target)
	}

	return targets, rows.Err()
}

// GetProbeHistory returns all reports for target, newest first.
// Rows whose JSON cannot be decoded are skipped.
func (hdb *HistoryDB) GetProbeHistory(ctx context.Context, target string) ([]*model.ProbeReport, error) {
	query := `
	SELECT report_json FROM probe_reports
	WHERE target = ?
	ORDER BY probed_at DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, target)
	if err != nil {
		return nil, fmt.Errorf("failed to get probe history: %w", err)
	}
	defer rows.Close()

	var reports []*model.ProbeReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.ProbeReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// ProbeReportMetadata summarizes a stored report without decoding it.
type ProbeReportMetadata struct {
	// ID is the row ID of the report.
	ID int64

	// Target is the probed target as given by the user.
	Target string

	// Timestamp is when the probe started.
	Timestamp time.Time

	// Identifier is the server identification string.
	Identifier string

	// HASSH is the hasshServer fingerprint, empty if no KEXINIT was read.
	HASSH string

	// AlgorithmDigest is the digest over all algorithm name-lists.
	AlgorithmDigest string

	// Error is the probe error, empty on success.
	Error string

	// RiskSummary contains counts of findings by severity level.
	RiskSummary map[string]int
}

// GetProbeHistoryWithMetadata returns report metadata for target, newest first.
func (hdb *HistoryDB) GetProbeHistoryWithMetadata(ctx context.Context, target string) ([]ProbeReportMetadata, error) {
	query := `
	SELECT id, target, probed_at, identifier, hassh, algorithm_digest, error, risk_summary
	FROM probe_reports
	WHERE target = ?
	ORDER BY probed_at DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, target)
	if err != nil {
		return nil, fmt.Errorf("failed to get probe history: %w", err)
	}
	defer rows.Close()

	var results []ProbeReportMetadata
	for rows.Next() {
		var (
			meta                                 ProbeReportMetadata
			timestamp                            string
			identifier, hassh, digest, errString sql.NullString
			riskJSON                             sql.NullString
		)

		if err := rows.Scan(&meta.ID, &meta.Target, &timestamp,
			&identifier, &hassh, &digest, &errString, &riskJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		meta.Identifier = identifier.String
		meta.HASSH = hassh.String
		meta.AlgorithmDigest = digest.String
		meta.Error = errString.String

		meta.RiskSummary = make(map[string]int)
		if riskJSON.Valid && riskJSON.String != "" {
			if err := json.Unmarshal([]byte(riskJSON.String), &meta.RiskSummary); err != nil {
				meta.RiskSummary = make(map[string]int)
			}
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// timestampFormats contains the timestamp formats accepted from the
// probed_at column. The order matters: more specific formats come first.
var timestampFormats = []string{
	timeLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
