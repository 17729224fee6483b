package viewkit

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-viewkit/pkg/config"
	"github.com/goliatone/go-viewkit/pkg/engine"
	"github.com/goliatone/go-viewkit/pkg/engine/htmltmpl"
	"github.com/goliatone/go-viewkit/pkg/engine/pongo"
	"github.com/goliatone/go-viewkit/pkg/resolver"
	"github.com/goliatone/go-viewkit/pkg/view"
)

// View aliases view.View for callers importing only the root package.
type View = view.View

// Factory aliases view.Factory.
type Factory = view.Factory

var (
	// ErrTemplateNotFound aliases view.ErrTemplateNotFound.
	ErrTemplateNotFound = view.ErrTemplateNotFound
	// ErrNoTemplate aliases view.ErrNoTemplate.
	ErrNoTemplate = view.ErrNoTemplate
)

// Option customises New.
type Option func(*options)

type options struct {
	registry *engine.Registry
	resolver view.Resolver
	logger   logrus.FieldLogger
}

// WithRegistry replaces the default engine registry.
func WithRegistry(registry *engine.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// WithResolver replaces the directory resolver built from the config.
func WithResolver(res view.Resolver) Option {
	return func(o *options) {
		o.resolver = res
	}
}

// WithLogger enables logging to a logrus-enabled stream for the resolver,
// engine and views.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// DefaultRegistry returns a registry holding the pongo2 and html/template
// drivers. logger is passed to both; nil keeps their default.
func DefaultRegistry(logger logrus.FieldLogger) *engine.Registry {
	registry := engine.NewRegistry()
	registry.MustRegister(pongo.Driver{Options: []pongo.Option{pongo.WithLogger(logger)}})
	registry.MustRegister(htmltmpl.Driver{Options: []htmltmpl.Option{htmltmpl.WithLogger(logger)}})
	return registry
}

// New wires a view factory from cfg: a resolver over cfg.ViewPaths and the
// engine cfg.Engine names, constructed with the derived directories.
func New(cfg config.Config, opts ...Option) (*view.Factory, error) {
	o := &options{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(o)
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res := o.resolver
	if res == nil {
		roots, err := resolver.Dirs(cfg.ViewPaths...)
		if err != nil {
			return nil, fmt.Errorf("viewkit: %w", err)
		}
		resolverOpts := []resolver.Option{resolver.WithLogger(o.logger)}
		if cfg.CacheLookups {
			resolverOpts = append(resolverOpts, resolver.WithCache())
		}
		res = resolver.New(roots, resolverOpts...)
	}

	registry := o.registry
	if registry == nil {
		registry = DefaultRegistry(o.logger)
	}

	eng, err := registry.Open(cfg.Engine, cfg.EngineConfig())
	if err != nil {
		return nil, fmt.Errorf("viewkit: %w", err)
	}

	o.logger.WithFields(logrus.Fields{
		"engine":     cfg.Engine,
		"view_paths": cfg.ViewPaths,
		"cache_root": cfg.CacheRoot,
	}).Debug("view factory ready")

	return view.NewFactory(res, eng,
		view.WithCategory(cfg.Category),
		view.WithExtension(cfg.Extension),
		view.WithLogger(o.logger),
	), nil
}
