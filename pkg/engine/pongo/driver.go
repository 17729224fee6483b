package pongo

import (
	"github.com/goliatone/go-viewkit/pkg/engine"
)

// Driver opens pongo2 engines for an engine.Registry.
type Driver struct {
	Options []Option
}

// Name implements engine.Driver.
func (Driver) Name() string { return DriverName }

// Open implements engine.Driver.
func (d Driver) Open(cfg engine.Config) (engine.Engine, error) {
	eng, err := New(cfg, d.Options...)
	if err != nil {
		return nil, err
	}
	return eng, nil
}
