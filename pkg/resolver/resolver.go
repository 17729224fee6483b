// Package resolver maps logical template names onto files. A Resolver
// searches an ordered list of roots for <category>/<name>.<ext>; the first
// root holding the file wins, so application roots listed before module
// roots override them.
package resolver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when no root holds the requested file. It wraps
// fs.ErrNotExist so callers can test for either.
var ErrNotFound = fmt.Errorf("resolver: file not found: %w", fs.ErrNotExist)

// Root is one searchable location. Base is prefixed to matches found in FS;
// leave it empty to get slash paths relative to FS.
type Root struct {
	FS   fs.FS
	Base string
}

// Dirs builds roots for directories on disk. Matches are returned as OS paths
// below each directory.
func Dirs(dirs ...string) ([]Root, error) {
	roots := make([]Root, 0, len(dirs))
	for _, dir := range dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolver: root %q: %w", dir, err)
		}
		roots = append(roots, Root{FS: os.DirFS(abs), Base: abs})
	}
	return roots, nil
}

// FS builds a root whose matches are slash paths inside fsys.
func FS(fsys fs.FS) Root {
	return Root{FS: fsys}
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithCache memoises successful lookups until Reset is called.
func WithCache() Option {
	return func(r *Resolver) {
		r.cache = make(map[string]string)
	}
}

// WithLogger enables logging to a logrus-enabled stream.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver searches roots in order.
type Resolver struct {
	roots  []Root
	logger logrus.FieldLogger

	mu    sync.Mutex
	cache map[string]string
}

// New returns a Resolver over roots. Roots with a nil FS are skipped.
func New(roots []Root, opts ...Option) *Resolver {
	r := &Resolver{logger: logrus.StandardLogger()}
	for _, root := range roots {
		if root.FS == nil {
			continue
		}
		r.roots = append(r.roots, root)
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Find returns the path of category/name.ext in the first root that has it.
func (r *Resolver) Find(category, name, ext string) (string, error) {
	rel, err := relativePath(category, name, ext)
	if err != nil {
		return "", err
	}

	if found, ok := r.cached(rel); ok {
		return found, nil
	}

	for _, root := range r.roots {
		info, err := fs.Stat(root.FS, rel)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("resolver: stat %q: %w", rel, err)
		}
		if info.IsDir() {
			continue
		}

		found := rel
		if root.Base != "" {
			found = filepath.Join(root.Base, filepath.FromSlash(rel))
		}
		r.store(rel, found)
		r.logger.WithFields(logrus.Fields{
			"file": rel,
			"path": found,
		}).Debug("resolved file")
		return found, nil
	}

	return "", fmt.Errorf("%w: %s", ErrNotFound, rel)
}

// List returns the logical names of every file with extension ext below
// category across all roots, sorted and without duplicates.
func (r *Resolver) List(category, ext string) ([]string, error) {
	category = strings.Trim(strings.TrimSpace(category), "/")
	suffix := extension(ext)

	pattern := "**/*" + suffix
	if category != "" {
		pattern = category + "/" + pattern
	}

	seen := make(map[string]struct{})
	for _, root := range r.roots {
		matches, err := doublestar.Glob(root.FS, pattern)
		if err != nil {
			return nil, fmt.Errorf("resolver: list %q: %w", pattern, err)
		}
		for _, match := range matches {
			name := strings.TrimSuffix(match, suffix)
			if category != "" {
				name = strings.TrimPrefix(name, category+"/")
			}
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Reset clears cached lookups.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cache != nil {
		r.cache = make(map[string]string)
	}
}

func (r *Resolver) cached(rel string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cache == nil {
		return "", false
	}
	found, ok := r.cache[rel]
	return found, ok
}

func (r *Resolver) store(rel, found string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cache != nil {
		r.cache[rel] = found
	}
}

func relativePath(category, name, ext string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrNotFound)
	}
	slashed := filepath.ToSlash(name)
	if strings.HasPrefix(slashed, "/") {
		return "", fmt.Errorf("%w: invalid name %q", ErrNotFound, name)
	}
	for _, segment := range strings.Split(slashed, "/") {
		if segment == ".." {
			return "", fmt.Errorf("%w: invalid name %q", ErrNotFound, name)
		}
	}
	rel := path.Join(strings.Trim(strings.TrimSpace(category), "/"), slashed) + extension(ext)
	if !fs.ValidPath(rel) {
		return "", fmt.Errorf("%w: invalid name %q", ErrNotFound, name)
	}
	return rel, nil
}

func extension(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
