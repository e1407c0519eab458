package persist

import (
	"context"

	"github.com/kbukum/modkit/errors"
)

// Noop never persists anything. Ephemeral modules use it.
type Noop struct{}

var _ Strategy = Noop{}

func (Noop) Read(context.Context) (any, error) {
	return nil, errors.NotFound("persisted output", "")
}

func (Noop) Write(context.Context, any) error { return nil }

func (Noop) IsPersisted(context.Context) (bool, error) { return false, nil }

func (Noop) Remove(context.Context) error { return nil }

func (Noop) AllOutput() []string { return nil }

// NoopFactory returns Noop for every module.
var NoopFactory Factory = FactoryFunc(func(string, string, Codec) Strategy { return Noop{} })
