// Package types defines the core types shared across dotconf: tracked
// entries and their kinds, sync directions, per-entry reconciliation
// outcomes, and the FS interface the engine operates against.
package types
