package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Config carries the directories an engine is constructed with.
type Config struct {
	// TemplateDir is the root relative template paths are resolved against.
	TemplateDir string
	// CacheDir holds rendered output caches owned by the engine.
	CacheDir string
	// CompileDir holds compiled template artefacts owned by the engine.
	CompileDir string
	// Debug disables template caching so edits show up on the next render.
	Debug bool
	// Globals are exposed to every template rendered by the engine.
	Globals map[string]any
}

// Validate reports configuration errors that would prevent an engine from
// loading templates.
func (c Config) Validate() error {
	if strings.TrimSpace(c.TemplateDir) == "" {
		return errors.New("engine: template dir is required")
	}
	return nil
}

// EnsureDirs creates the cache and compile directories when configured.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{c.CacheDir, c.CompileDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("engine: create dir %q: %w", dir, err)
		}
	}
	return nil
}
