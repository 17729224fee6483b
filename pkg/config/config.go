// Package config holds the settings viewkit is wired from. It replaces a
// process-wide cache root with an explicit struct that is loaded once and
// passed to constructors.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-viewkit/pkg/engine"
)

const (
	DefaultCategory  = "views"
	DefaultExtension = "tpl"
	DefaultEngine    = "pongo2"
	DefaultCacheRoot = "cache"
)

// Config describes where views live, where engines keep their caches, and
// which engine renders them.
type Config struct {
	// ViewPaths are searched in order; the first holding a view wins.
	ViewPaths []string `json:"view_paths" yaml:"view_paths"`
	// CacheRoot is the base directory for engine cache and compile dirs.
	CacheRoot string `json:"cache_root" yaml:"cache_root"`
	// Category is the sub-directory of each view path holding templates.
	Category string `json:"category" yaml:"category"`
	// Extension is the template file extension, without the dot.
	Extension string `json:"extension" yaml:"extension"`
	// Engine names the registered engine driver.
	Engine string `json:"engine" yaml:"engine"`
	// Debug recompiles templates on every render.
	Debug bool `json:"debug" yaml:"debug"`
	// CacheLookups memoises resolved view paths.
	CacheLookups bool `json:"cache_lookups" yaml:"cache_lookups"`
	// Globals are visible to every template.
	Globals map[string]any `json:"globals" yaml:"globals"`
}

// Default returns a Config rooted at the working directory.
func Default() Config {
	return Config{
		ViewPaths: []string{"."},
		CacheRoot: DefaultCacheRoot,
		Category:  DefaultCategory,
		Extension: DefaultExtension,
		Engine:    DefaultEngine,
	}
}

// Load reads a JSON or YAML file and fills unset fields with defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes JSON or YAML. source only labels errors.
func Parse(data []byte, source string) (Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Config{}, fmt.Errorf("config: file %s is empty", source)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		cfg = Config{}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: invalid JSON or YAML: %w", source, err)
		}
	}
	return cfg.WithDefaults(), nil
}

// WithDefaults returns a copy with empty fields set to their defaults.
func (c Config) WithDefaults() Config {
	def := Default()
	out := c
	paths := make([]string, 0, len(c.ViewPaths))
	for _, p := range c.ViewPaths {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paths = append(paths, trimmed)
		}
	}
	if len(paths) == 0 {
		paths = def.ViewPaths
	}
	out.ViewPaths = paths
	if strings.TrimSpace(out.CacheRoot) == "" {
		out.CacheRoot = def.CacheRoot
	}
	if strings.TrimSpace(out.Category) == "" {
		out.Category = def.Category
	}
	out.Extension = strings.TrimPrefix(strings.TrimSpace(out.Extension), ".")
	if out.Extension == "" {
		out.Extension = def.Extension
	}
	if strings.TrimSpace(out.Engine) == "" {
		out.Engine = def.Engine
	}
	return out
}

// Validate reports settings no engine can work with.
func (c Config) Validate() error {
	var errs []error
	if len(c.ViewPaths) == 0 {
		errs = append(errs, errors.New("config: at least one view path is required"))
	}
	if strings.TrimSpace(c.Engine) == "" {
		errs = append(errs, errors.New("config: engine is required"))
	}
	if strings.ContainsAny(c.Category, `\`) || strings.Contains(c.Category, "..") {
		errs = append(errs, fmt.Errorf("config: invalid category %q", c.Category))
	}
	return errors.Join(errs...)
}

// TemplateDir is the category directory of the first view path that has
// one. When none exists yet it falls back to the first view path.
func (c Config) TemplateDir() string {
	if len(c.ViewPaths) == 0 {
		return ""
	}
	for _, p := range c.ViewPaths {
		dir := filepath.Join(p, filepath.FromSlash(c.Category))
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return filepath.Join(c.ViewPaths[0], filepath.FromSlash(c.Category))
}

// CacheDir is where the selected engine keeps rendered output caches.
func (c Config) CacheDir() string {
	return filepath.Join(c.CacheRoot, c.Engine, "cache")
}

// CompileDir is where the selected engine keeps compiled templates.
func (c Config) CompileDir() string {
	return filepath.Join(c.CacheRoot, c.Engine, "compile")
}

// EngineConfig derives the engine construction settings.
func (c Config) EngineConfig() engine.Config {
	return engine.Config{
		TemplateDir: c.TemplateDir(),
		CacheDir:    c.CacheDir(),
		CompileDir:  c.CompileDir(),
		Debug:       c.Debug,
		Globals:     c.Globals,
	}
}
