// Package storage provides the object storage abstraction that persisted
// module outputs, module metadata and metadata history are written to.
//
// # Backends
//
//   - storage/local: local filesystem rooted at a base path
//   - storage/s3: Amazon S3 and S3-compatible storage
//
// Paths are slash-separated and relative to the backend root, so the same
// output layout works for both backends.
//
// # Configuration
//
//	storage:
//	  provider: "local"
//	  base_path: "/var/lib/modkit"
package storage
