package database

import "errors"

var (
	// ErrDatabaseNotFound is returned when Options.CreateIfNotExists is false
	// and no database file exists.
	ErrDatabaseNotFound = errors.New("database not found")

	// ErrReportNotFound is returned when no stored report matches a lookup.
	ErrReportNotFound = errors.New("probe report not found")
)
