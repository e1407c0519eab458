package module

import (
	"context"

	"github.com/kbukum/modkit/metadata"
	"github.com/kbukum/modkit/persist"
)

// ClassKey identifies a module definition independent of its version.
type ClassKey string

// URN identifies a resolved module version: mod:<fqn>@<fingerprint>.
type URN string

// Result is a module's computed output. Its encoding belongs to the module.
type Result = any

// Module is the capability set the runner drives.
type Module interface {
	FQN() string
	ClassKey() ClassKey
	URN() URN
	Dependencies() []Module

	// Compute returns the module's result, reusing tx.Known when present
	// and recording the result there otherwise.
	Compute(ctx context.Context, tx *Tx) (Result, error)
	// CalculateUserMeta finalizes the module's metadata for this run.
	CalculateUserMeta(ctx context.Context, tx *Tx) error
	// ForcePostAction settles a post-action that no persisting action
	// triggered. It is a no-op if the module is no longer pending.
	ForcePostAction(ctx context.Context, tx *Tx) error
	// PostAction runs the raw post-action. Cascades call it; bookkeeping
	// in tx.NeedPost is theirs.
	PostAction(ctx context.Context) error
	// PersistMeta reports true when the module's metadata was already
	// persisted and its history needs no update.
	PersistMeta(ctx context.Context) (bool, error)

	Result() Result
	Metadata() *metadata.Metadata
	MetadataHistorySize() int

	PersistStrategy() persist.Strategy
	MetaStrategy() persist.Strategy

	Publish(ctx context.Context) error
}
