package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry stores engine drivers by name, providing discovery and duplication
// safeguards.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]Driver
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		drivers: make(map[string]Driver),
	}
}

// Register adds a driver by its Name(). Duplicate names return an error.
func (r *Registry) Register(driver Driver) error {
	if driver == nil {
		return fmt.Errorf("engine: driver is required")
	}
	name := strings.TrimSpace(driver.Name())
	if name == "" {
		return fmt.Errorf("engine: driver name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.drivers[name]; exists {
		return fmt.Errorf("engine: driver %q already registered", name)
	}

	r.drivers[name] = driver
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(driver Driver) {
	if err := r.Register(driver); err != nil {
		panic(err)
	}
}

// Get retrieves a driver by name.
func (r *Registry) Get(name string) (Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	driver, ok := r.drivers[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("engine: driver %q not found", name)
	}
	return driver, nil
}

// MustGet panics if the driver is missing.
func (r *Registry) MustGet(name string) Driver {
	driver, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return driver
}

// Open looks up the named driver and constructs an engine from cfg.
func (r *Registry) Open(name string, cfg Config) (Engine, error) {
	driver, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	eng, err := driver.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("engine: open %q: %w", name, err)
	}
	return eng, nil
}

// List returns a sorted list of driver names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a driver is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.drivers[strings.TrimSpace(name)]
	return ok
}
