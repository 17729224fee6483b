// Package htmltmpl implements the engine contract with the standard
// html/template package. Assigned variables form the template dot, so a
// template reads them as {{ .name }}.
package htmltmpl

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-viewkit/pkg/engine"
)

// DriverName is the registry name of the html/template driver.
const DriverName = "html"

// Option configures the engine before construction.
type Option func(*options)

type options struct {
	files  fs.FS
	funcs  template.FuncMap
	logger logrus.FieldLogger
}

// WithFS loads templates from an fs.FS instead of the template directory.
func WithFS(files fs.FS) Option {
	return func(o *options) {
		o.files = files
	}
}

// WithFuncs makes funcs available to every template.
func WithFuncs(funcs template.FuncMap) Option {
	return func(o *options) {
		if len(funcs) == 0 {
			return
		}
		if o.funcs == nil {
			o.funcs = make(template.FuncMap, len(funcs))
		}
		for name, fn := range funcs {
			o.funcs[strings.TrimSpace(name)] = fn
		}
	}
}

// WithLogger enables logging to a logrus-enabled stream.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

type shared struct {
	mu      sync.Mutex
	files   fs.FS
	funcs   template.FuncMap
	globals map[string]any
	debug   bool
	cache   map[string]*template.Template
	logger  logrus.FieldLogger
}

// Engine renders html/template files. Variables assigned with Assign persist
// for every subsequent Display on the same engine.
type Engine struct {
	*shared

	varsMu sync.RWMutex
	vars   map[string]any
}

var (
	_ engine.Engine = (*Engine)(nil)
	_ engine.Forker = (*Engine)(nil)
)

// New constructs an Engine reading templates below cfg.TemplateDir.
func New(cfg engine.Config, opts ...Option) (*Engine, error) {
	o := &options{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(o)
	}

	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("htmltmpl: %w", err)
	}

	files := o.files
	if files == nil {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("htmltmpl: %w", err)
		}
		info, err := os.Stat(cfg.TemplateDir)
		if err != nil {
			return nil, fmt.Errorf("htmltmpl: template dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("htmltmpl: template dir %q is not a directory", cfg.TemplateDir)
		}
		abs, err := filepath.Abs(cfg.TemplateDir)
		if err != nil {
			return nil, fmt.Errorf("htmltmpl: template dir: %w", err)
		}
		files = dirFS(abs)
	}

	globals := make(map[string]any, len(cfg.Globals))
	for key, value := range cfg.Globals {
		if key = strings.TrimSpace(key); key != "" {
			globals[key] = value
		}
	}

	return &Engine{
		shared: &shared{
			files:   files,
			funcs:   o.funcs,
			globals: globals,
			debug:   cfg.Debug,
			cache:   make(map[string]*template.Template),
			logger:  o.logger.WithField("engine", DriverName),
		},
		vars: make(map[string]any),
	}, nil
}

// Assign stores a variable for later Display calls. Empty keys are ignored.
func (e *Engine) Assign(key string, value any) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	e.varsMu.Lock()
	e.vars[key] = value
	e.varsMu.Unlock()
}

// ClearAssign drops every assigned variable.
func (e *Engine) ClearAssign() {
	e.varsMu.Lock()
	e.vars = make(map[string]any)
	e.varsMu.Unlock()
}

// Fork returns an engine sharing parsed templates with an empty variable
// store.
func (e *Engine) Fork() engine.Engine {
	return &Engine{
		shared: e.shared,
		vars:   make(map[string]any),
	}
}

// Display executes the template at path.
func (e *Engine) Display(name string, out ...io.Writer) (string, error) {
	if e == nil || e.shared == nil {
		return "", errors.New("htmltmpl: engine is nil")
	}

	tmpl, err := e.lookup(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, e.data()); err != nil {
		return "", fmt.Errorf("htmltmpl: execute template %q: %w", name, err)
	}

	e.logger.WithField("template", name).Debug("template displayed")

	rendered := buf.String()
	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

func (e *Engine) lookup(name string) (*template.Template, error) {
	key, err := e.key(name)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.cache[key]; ok && !e.debug {
		return tmpl, nil
	}

	var src []byte
	if filepath.IsAbs(key) {
		src, err = os.ReadFile(key)
	} else {
		src, err = fs.ReadFile(e.files, key)
	}
	if err != nil {
		return nil, fmt.Errorf("htmltmpl: load template %q: %w", name, err)
	}

	tmpl := template.New(path.Base(filepath.ToSlash(key)))
	if len(e.funcs) > 0 {
		tmpl = tmpl.Funcs(e.funcs)
	}
	tmpl, err = tmpl.Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("htmltmpl: parse template %q: %w", name, err)
	}

	if !e.debug {
		e.cache[key] = tmpl
	}
	return tmpl, nil
}

// key maps a display path onto a slash path inside the engine's files.
// Absolute paths outside a template directory are read from disk as-is, so
// views resolved from secondary roots still render.
func (e *Engine) key(name string) (string, error) {
	if root, ok := e.files.(dirFS); ok && filepath.IsAbs(name) {
		rel, err := filepath.Rel(string(root), name)
		if err != nil || strings.HasPrefix(rel, "..") {
			return filepath.Clean(name), nil
		}
		name = rel
	}
	rel := filepath.ToSlash(name)
	if !fs.ValidPath(rel) {
		return "", fmt.Errorf("htmltmpl: invalid template path %q: %w", name, fs.ErrNotExist)
	}
	return rel, nil
}

func (e *Engine) data() map[string]any {
	e.varsMu.RLock()
	defer e.varsMu.RUnlock()

	out := make(map[string]any, len(e.globals)+len(e.vars))
	for key, value := range e.globals {
		out[key] = value
	}
	for key, value := range e.vars {
		out[key] = value
	}
	return out
}

// dirFS is an os.DirFS that remembers its root so absolute display paths can
// be mapped back inside it.
type dirFS string

func (d dirFS) Open(name string) (fs.File, error) {
	return os.DirFS(string(d)).Open(name)
}

// Driver opens html/template engines for an engine.Registry.
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
