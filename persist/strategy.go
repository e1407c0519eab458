package persist

import (
	"context"
)

// Strategy reads and writes one persisted artifact.
type Strategy interface {
	// Read returns the decoded artifact. A missing artifact is a NOT_FOUND
	// AppError.
	Read(ctx context.Context) (any, error)
	Write(ctx context.Context, v any) error
	IsPersisted(ctx context.Context) (bool, error)
	// Remove deletes the artifact. Removing a missing artifact succeeds.
	Remove(ctx context.Context) error
	// AllOutput lists every storage path the artifact occupies.
	AllOutput() []string
}

// Factory creates strategies for a module version.
type Factory interface {
	Strategy(fqn, fingerprint string, codec Codec) Strategy
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(fqn, fingerprint string, codec Codec) Strategy

func (f FactoryFunc) Strategy(fqn, fingerprint string, codec Codec) Strategy {
	return f(fqn, fingerprint, codec)
}
