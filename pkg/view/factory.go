package view

import (
	"github.com/goliatone/go-viewkit/pkg/engine"
)

// Factory creates Views that share a resolver and a base engine. When the
// base engine implements engine.Forker each View renders through its own
// fork, keeping one request's variables away from the next.
type Factory struct {
	resolver Resolver
	base     engine.Engine
	opts     []Option
}

// NewFactory returns a Factory. opts are applied to every View it creates.
func NewFactory(resolver Resolver, base engine.Engine, opts ...Option) *Factory {
	return &Factory{
		resolver: resolver,
		base:     base,
		opts:     opts,
	}
}

// New returns a View seeded with data. When name is not empty the template is
// resolved immediately and a miss is returned as an error.
func (f *Factory) New(name string, data map[string]any) (*View, error) {
	opts := append(append([]Option(nil), f.opts...), WithData(data))
	v := New(f.resolver, f.engine(), opts...)
	if name == "" {
		return v, nil
	}
	if _, err := v.SetFilename(name); err != nil {
		return nil, err
	}
	return v, nil
}

// Engine returns the base engine views are forked from.
func (f *Factory) Engine() engine.Engine {
	return f.base
}

// Resolver returns the resolver views look their templates up with.
func (f *Factory) Resolver() Resolver {
	return f.resolver
}

func (f *Factory) engine() engine.Engine {
	if forker, ok := f.base.(engine.Forker); ok {
		return forker.Fork()
	}
	return f.base
}
