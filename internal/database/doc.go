// Package database provides SQLite-based storage for probe history.
//
// Every completed probe is stored as a row in probe_reports together with
// the fields needed to list and compare probes without decoding the full
// report: identifier, HASSH, algorithm digest and a risk summary.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for one probe at a time
package database
