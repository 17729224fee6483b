package testsupport

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-viewkit/pkg/engine"
)

// Assignment is one recorded Engine.Assign call.
type Assignment struct {
	Key   string
	Value any
}

// RecordingEngine is an engine.Engine that records every call. Display
// returns Output, or Err when set.
type RecordingEngine struct {
	mu          sync.Mutex
	Assignments []Assignment
	Displayed   []string
	Output      string
	Err         error
}

var _ engine.Engine = (*RecordingEngine)(nil)

// Assign records the call.
func (e *RecordingEngine) Assign(key string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Assignments = append(e.Assignments, Assignment{Key: key, Value: value})
}

// Display records the path and returns Output.
func (e *RecordingEngine) Display(path string, out ...io.Writer) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Displayed = append(e.Displayed, path)
	if e.Err != nil {
		return "", e.Err
	}
	for _, w := range out {
		if _, err := io.WriteString(w, e.Output); err != nil {
			return "", err
		}
	}
	return e.Output, nil
}

// Assigned returns the recorded assignments as a map, later keys winning.
func (e *RecordingEngine) Assigned() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]any, len(e.Assignments))
	for _, a := range e.Assignments {
		out[a.Key] = a.Value
	}
	return out
}

// MapResolver resolves "category/name.ext" keys to fixed paths. Misses wrap
// fs.ErrNotExist like a real resolver.
type MapResolver map[string]string

// Find implements view.Resolver.
func (m MapResolver) Find(category, name, ext string) (string, error) {
	key := path.Join(category, name)
	if ext != "" {
		key += "." + strings.TrimPrefix(ext, ".")
	}
	if found, ok := m[key]; ok {
		return found, nil
	}
	return "", fmt.Errorf("testsupport: %s: %w", key, fs.ErrNotExist)
}

// WriteFile creates dir/rel with content, making parent directories, and
// returns the full path.
func WriteFile(t *testing.T, dir, rel, content string) string {
	t.Helper()

	full := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(full), err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", full, err)
	}
	return full
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents. Tests can assert
// the renderer returns and writes the same payload without duplicating buffer
// setup.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
