// Package metadata models per-module run metadata and its bounded history.
//
// Every run produces one Metadata snapshot per module. Unless the module
// persisted its metadata itself, the runner prepends the snapshot to the
// module's History (newest first, bounded) and writes the history back
// through a HistoryStore.
package metadata
