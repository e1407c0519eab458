// Package module defines the contract between the runner and the modules
// it executes, the per-run transaction state, and a reference Generic
// module built from plain functions.
//
// A module has two identities. ClassKey names the definition and keys the
// transaction's known results. URN names the resolved version
// (mod:<fqn>@<fingerprint>) and appears in output paths and metadata.
//
// Modules owe exactly one post-action per run. Whoever triggers a
// persisting action calls RunPostActionCascade, which settles the module
// and every still-pending ancestor in dependency order.
package module
