package view

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-viewkit/pkg/engine"
)

const (
	// DefaultCategory is the directory name views are looked up under.
	DefaultCategory = "views"
	// DefaultExtension is the template file extension, without the dot.
	DefaultExtension = "tpl"
)

// Resolver maps a logical file name onto a path. Misses must return an error
// wrapping fs.ErrNotExist.
type Resolver interface {
	Find(category, name, ext string) (string, error)
}

// Option customises a View or Factory.
type Option func(*settings)

type settings struct {
	category  string
	extension string
	logger    logrus.FieldLogger
	data      map[string]any
}

func newSettings(opts []Option) settings {
	s := settings{
		category:  DefaultCategory,
		extension: DefaultExtension,
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&s)
	}
	return s
}

// WithCategory overrides the resolver category (default "views").
func WithCategory(category string) Option {
	return func(s *settings) {
		if trimmed := strings.TrimSpace(category); trimmed != "" {
			s.category = trimmed
		}
	}
}

// WithExtension overrides the template extension (default "tpl").
func WithExtension(ext string) Option {
	return func(s *settings) {
		if trimmed := strings.TrimPrefix(strings.TrimSpace(ext), "."); trimmed != "" {
			s.extension = trimmed
		}
	}
}

// WithLogger enables logging to a logrus-enabled stream.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithData seeds the variable bag.
func WithData(data map[string]any) Option {
	return func(s *settings) {
		if len(data) == 0 {
			return
		}
		if s.data == nil {
			s.data = make(map[string]any, len(data))
		}
		for key, value := range data {
			s.data[key] = value
		}
	}
}

// View is a template name, a bag of variables and the engine they are
// rendered with. A View belongs to a single request and is not safe for
// concurrent use.
type View struct {
	file      string
	data      map[string]any
	engine    engine.Engine
	resolver  Resolver
	category  string
	extension string
	logger    logrus.FieldLogger
}

// New returns a View with no template set.
func New(resolver Resolver, eng engine.Engine, opts ...Option) *View {
	s := newSettings(opts)
	v := &View{
		data:      make(map[string]any, len(s.data)),
		engine:    eng,
		resolver:  resolver,
		category:  s.category,
		extension: s.extension,
		logger:    s.logger,
	}
	for key, value := range s.data {
		v.data[key] = value
	}
	return v
}

// SetFilename resolves name and stores the resulting path. On failure the
// previously stored path is kept.
func (v *View) SetFilename(name string) (*View, error) {
	if v.resolver == nil {
		return v, errors.New("view: resolver is nil")
	}

	path, err := v.resolver.Find(v.category, name, v.extension)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return v, &NotFoundError{Name: name, Category: v.category, Err: err}
		}
		return v, fmt.Errorf("view: resolve %q: %w", name, err)
	}

	v.file = path
	v.logger.WithFields(logrus.Fields{
		"view": name,
		"path": path,
	}).Debug("view file set")
	return v, nil
}

// Set stores a variable. A later Set with the same key replaces the value.
func (v *View) Set(key string, value any) *View {
	v.data[key] = value
	return v
}

// SetMap stores every entry of values, as if Set were called once per entry.
func (v *View) SetMap(values map[string]any) *View {
	for key, value := range values {
		v.Set(key, value)
	}
	return v
}

// Filename returns the resolved template path, or "" when none is set.
func (v *View) Filename() string {
	return v.file
}

// Data returns a copy of the variable bag.
func (v *View) Data() map[string]any {
	out := make(map[string]any, len(v.data))
	for key, value := range v.data {
		out[key] = value
	}
	return out
}

// Render assigns every variable to the engine and displays the template. The
// output is returned and also written to each writer in out.
func (v *View) Render(out ...io.Writer) (string, error) {
	if v.file == "" {
		return "", ErrNoTemplate
	}
	if v.engine == nil {
		return "", errors.New("view: engine is nil")
	}

	for key, value := range v.data {
		v.engine.Assign(key, value)
	}

	rendered, err := v.engine.Display(v.file, out...)
	if err != nil {
		return "", fmt.Errorf("view: render %q: %w", v.file, err)
	}
	return rendered, nil
}

// RenderFile sets the template from name and renders it.
func (v *View) RenderFile(name string, out ...io.Writer) (string, error) {
	if _, err := v.SetFilename(name); err != nil {
		return "", err
	}
	return v.Render(out...)
}

// ServeHTTP renders the view as an HTML response. Render failures are logged
// and answered with a 500.
func (v *View) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rendered, err := v.Render()
	if err != nil {
		v.logger.WithFields(logrus.Fields{
			"path":  v.file,
			"url":   r.URL.String(),
			"error": err,
		}).Error("failed to render view")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, rendered)
}
