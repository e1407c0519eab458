// Package persist stores module outputs and metadata on a storage backend.
//
// A Strategy owns one artifact of one module version. File strategies
// place it at {outputDir}/{fqn}_{fingerprint}.{ext}, so a new fingerprint
// means a new file and the old one becomes garbage for PurgeDirectory.
// Ephemeral modules use Noop, which never persists anything.
package persist
