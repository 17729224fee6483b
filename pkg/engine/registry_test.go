package engine_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-viewkit/pkg/engine"
)

type stubDriver struct {
	name string
	err  error
	got  engine.Config
}

func (d *stubDriver) Name() string { return d.name }

func (d *stubDriver) Open(cfg engine.Config) (engine.Engine, error) {
	d.got = cfg
	if d.err != nil {
		return nil, d.err
	}
	return stubEngine{}, nil
}

type stubEngine struct{}

func (stubEngine) Assign(string, any) {}

func (stubEngine) Display(string, ...io.Writer) (string, error) { return "", nil }

func TestRegistry_RegisterAndList(t *testing.T) {
	reg := engine.NewRegistry()
	reg.MustRegister(&stubDriver{name: "pongo2"})
	reg.MustRegister(&stubDriver{name: "html"})

	if diff := cmp.Diff([]string{"html", "pongo2"}, reg.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if !reg.Has("html") || reg.Has("smarty") {
		t.Fatalf("unexpected Has results")
	}
}

func TestRegistry_RejectsDuplicatesAndEmptyNames(t *testing.T) {
	reg := engine.NewRegistry()
	if err := reg.Register(&stubDriver{name: "pongo2"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register(&stubDriver{name: "pongo2"}); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register(&stubDriver{name: "  "}); err == nil {
		t.Fatal("expected empty name error")
	}
	if err := reg.Register(nil); err == nil {
		t.Fatal("expected nil driver error")
	}
}

func TestRegistry_Open(t *testing.T) {
	reg := engine.NewRegistry()
	driver := &stubDriver{name: "pongo2"}
	reg.MustRegister(driver)

	cfg := engine.Config{TemplateDir: "views", CacheDir: "cache/pongo2/cache"}
	if _, err := reg.Open("pongo2", cfg); err != nil {
		t.Fatalf("open: %v", err)
	}
	if diff := cmp.Diff(cfg, driver.got); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}

	if _, err := reg.Open("smarty", cfg); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}

	boom := errors.New("boom")
	reg.MustRegister(&stubDriver{name: "broken", err: boom})
	if _, err := reg.Open("broken", cfg); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
}

func TestRegistry_MustGetPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	engine.NewRegistry().MustGet("missing")
}

func TestConfig_ValidateAndEnsureDirs(t *testing.T) {
	if err := (engine.Config{}).Validate(); err == nil {
		t.Fatal("expected missing template dir error")
	}

	root := t.TempDir()
	cfg := engine.Config{
		TemplateDir: root,
		CacheDir:    filepath.Join(root, "cache", "pongo2", "cache"),
		CompileDir:  filepath.Join(root, "cache", "pongo2", "compile"),
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	for _, dir := range []string{cfg.CacheDir, cfg.CompileDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("stat %s: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("%s is not a directory", dir)
		}
	}
}
