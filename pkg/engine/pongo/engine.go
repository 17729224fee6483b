package pongo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"reflect"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-viewkit/pkg/engine"
)

// DriverName is the registry name of the pongo2 driver.
const DriverName = "pongo2"

// Option configures the pongo2 engine before construction.
type Option func(*options)

type options struct {
	files      fs.FS
	templateFn map[string]any
	logger     logrus.FieldLogger
	trimBlocks bool
}

// WithFS loads templates from an fs.FS instead of the template directory.
// Display paths are then slash separated paths inside files.
func WithFS(files fs.FS) Option {
	return func(o *options) {
		o.files = files
	}
}

// WithTemplateFunc registers helper functions or filters when the engine loads.
func WithTemplateFunc(funcs map[string]any) Option {
	return func(o *options) {
		if len(funcs) == 0 {
			return
		}
		if o.templateFn == nil {
			o.templateFn = make(map[string]any, len(funcs))
		}
		for name, fn := range funcs {
			o.templateFn[strings.TrimSpace(name)] = fn
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

// WithTrimBlocks strips the first newline after block tags and leading
// whitespace before them.
func WithTrimBlocks() Option {
	return func(o *options) {
		o.trimBlocks = true
	}
}

// shared is the state an engine and its forks have in common.
type shared struct {
	mu      sync.RWMutex
	set     *pongo2.TemplateSet
	loaders []pongo2.TemplateLoader
	logger  logrus.FieldLogger
}

// Engine renders pongo2 templates. Variables assigned with Assign persist for
// every subsequent Display on the same engine.
type Engine struct {
	*shared

	varsMu sync.RWMutex
	vars   pongo2.Context
}

var (
	_ engine.Engine = (*Engine)(nil)
	_ engine.Forker = (*Engine)(nil)
)

// New constructs an Engine rooted at cfg.TemplateDir.
func New(cfg engine.Config, opts ...Option) (*Engine, error) {
	o := &options{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(o)
	}

	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("pongo: %w", err)
	}

	var loaders []pongo2.TemplateLoader
	if o.files != nil {
		loaders = append(loaders, pongo2.NewFSLoader(o.files))
	} else {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("pongo: %w", err)
		}
		local, err := pongo2.NewLocalFileSystemLoader(cfg.TemplateDir)
		if err != nil {
			return nil, fmt.Errorf("pongo: create local loader: %w", err)
		}
		loaders = append(loaders, local)
	}

	set := pongo2.NewSet("viewkit", loaders...)
	set.Debug = cfg.Debug
	set.Options.TrimBlocks = o.trimBlocks
	set.Options.LStripBlocks = o.trimBlocks

	e := &Engine{
		shared: &shared{
			set:     set,
			loaders: loaders,
			logger:  o.logger.WithField("engine", DriverName),
		},
		vars: make(pongo2.Context),
	}
	registerDefaultFilters()

	if err := e.GlobalContext(cfg.Globals); err != nil {
		return nil, fmt.Errorf("pongo: apply global data: %w", err)
	}
	for name, fn := range o.templateFn {
		if err := e.registerTemplateFunc(name, fn); err != nil {
			return nil, fmt.Errorf("pongo: register template func %q: %w", name, err)
		}
	}

	return e, nil
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
	e.vars = make(pongo2.Context)
	e.varsMu.Unlock()
}

// Fork returns an engine sharing this engine's template set with an empty
// variable store.
func (e *Engine) Fork() engine.Engine {
	return &Engine{
		shared: e.shared,
		vars:   make(pongo2.Context),
	}
}

// Display renders the template at path with the assigned variables.
func (e *Engine) Display(path string, out ...io.Writer) (string, error) {
	if e == nil || e.shared == nil || e.set == nil {
		return "", errors.New("pongo: engine is nil")
	}

	tmpl, err := e.set.FromCache(path)
	if err != nil {
		if !e.exists(path) {
			return "", fmt.Errorf("pongo: template %q: %w", path, fs.ErrNotExist)
		}
		return "", fmt.Errorf("pongo: load template %q: %w", path, err)
	}

	var buf bytes.Buffer

	e.mu.RLock()
	err = tmpl.ExecuteWriter(e.snapshot(), &buf)
	e.mu.RUnlock()

	if err != nil {
		return "", fmt.Errorf("pongo: execute template %q: %w", path, err)
	}

	e.logger.WithField("template", path).Debug("template displayed")
	return writeOut(buf.String(), out)
}

// RenderString renders inline template content with the assigned variables.
func (e *Engine) RenderString(templateContent string, out ...io.Writer) (string, error) {
	if e == nil || e.shared == nil || e.set == nil {
		return "", errors.New("pongo: engine is nil")
	}

	tmpl, err := e.set.FromString(templateContent)
	if err != nil {
		return "", fmt.Errorf("pongo: parse template string: %w", err)
	}

	var buf bytes.Buffer

	e.mu.RLock()
	err = tmpl.ExecuteWriter(e.snapshot(), &buf)
	e.mu.RUnlock()

	if err != nil {
		return "", fmt.Errorf("pongo: execute template string: %w", err)
	}
	return writeOut(buf.String(), out)
}

// RegisterFilter registers a template filter. pongo2 filters are process
// wide, so registering an existing name fails.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	if strings.TrimSpace(name) == "" || fn == nil {
		return errors.New("pongo: filter name and function required")
	}

	filter := func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var paramVal any
		if param != nil {
			paramVal = param.Interface()
		}
		result, err := fn(in.Interface(), paramVal)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	}

	if pongo2.FilterExists(name) {
		return fmt.Errorf("pongo: filter %q already exists", name)
	}
	return pongo2.RegisterFilter(name, filter)
}

// GlobalContext seeds values visible to every template rendered by this
// engine and its forks. Structs are flattened through their JSON form.
func (e *Engine) GlobalContext(data any) error {
	if e == nil || e.shared == nil || e.set == nil {
		return errors.New("pongo: engine is nil")
	}
	if data == nil {
		return nil
	}

	globalCtx, err := convertToContext(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.set.Globals == nil {
		e.set.Globals = make(pongo2.Context)
	}
	e.set.Globals.Update(globalCtx)
	return nil
}

func (e *Engine) snapshot() pongo2.Context {
	e.varsMu.RLock()
	defer e.varsMu.RUnlock()

	ctx := make(pongo2.Context, len(e.vars))
	for key, value := range e.vars {
		ctx[key] = value
	}
	return ctx
}

func (e *Engine) exists(path string) bool {
	for _, loader := range e.loaders {
		r, err := loader.Get(loader.Abs("", path))
		if err != nil {
			continue
		}
		if c, ok := r.(io.Closer); ok {
			_ = c.Close()
		}
		return true
	}
	return false
}

func (e *Engine) registerTemplateFunc(name string, fn any) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || fn == nil {
		return nil
	}

	if filter, ok := fn.(pongo2.FilterFunction); ok {
		if pongo2.FilterExists(trimmed) {
			return nil
		}
		return pongo2.RegisterFilter(trimmed, filter)
	}

	if !isCallable(fn) {
		return fmt.Errorf("pongo: %T is not callable", fn)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.set.Globals == nil {
		e.set.Globals = make(pongo2.Context)
	}
	e.set.Globals[trimmed] = fn
	return nil
}

func writeOut(rendered string, out []io.Writer) (string, error) {
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

func isCallable(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.IsValid() && rv.Kind() == reflect.Func
}

func convertToContext(data any) (pongo2.Context, error) {
	switch v := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case pongo2.Context:
		return trimKeys(v), nil
	case map[string]any:
		return trimKeys(v), nil
	default:
		m, err := jsonToMap(v)
		if err != nil {
			return nil, fmt.Errorf("pongo: convert %T: %w", data, err)
		}
		return trimKeys(m), nil
	}
}

func trimKeys(in map[string]any) pongo2.Context {
	out := make(pongo2.Context, len(in))
	for key, value := range in {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[key] = value
	}
	return out
}

func jsonToMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
