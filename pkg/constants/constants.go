// Package constants provides shared constants used throughout the parity codebase.
package constants

import "time"

// Timeout constants
const (
	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// ShutdownTimeout bounds graceful shutdown after a failed command
	ShutdownTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Reconciliation constants
const (
	// TimestampField is the only field whose expected value is normalized before comparison
	TimestampField = "timestamp"

	// TimestampLayout is the layout expected epoch-millisecond timestamps are rendered in
	TimestampLayout = "2006-01-02 15:04:05"

	// DefaultFetchConcurrency is how many streams of one dependency level are fetched at once
	DefaultFetchConcurrency = 4

	// MaxScanTokenSize is the longest single JSONL line the loaders accept
	MaxScanTokenSize = 16 * 1024 * 1024
)

// Replication actions
const (
	// ActionUpsert marks an insert-or-update record in captured pipeline output
	ActionUpsert = "upsert"

	// ActionActivateVersion marks a table version switch
	ActionActivateVersion = "activate_version"

	// ActionState marks a bookmark/state message
	ActionState = "state"

	// ActionSchema marks a schema announcement
	ActionSchema = "schema"
)
