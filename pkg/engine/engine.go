package engine

import (
	"io"
)

// Engine is the seam views render through. Assigned variables persist on the
// engine across Display calls until the engine is discarded or cleared.
type Engine interface {
	Assign(key string, value any)
	Display(path string, out ...io.Writer) (string, error)
}

// Forker is implemented by engines that can hand out siblings sharing their
// configuration and compiled templates but starting with no assignments.
type Forker interface {
	Fork() Engine
}

// Driver constructs engines from a Config. Drivers are registered by name so
// configuration files can select an engine.
type Driver interface {
	Name() string
	Open(cfg Config) (Engine, error)
}
