package view_test

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-viewkit/pkg/testsupport"
	"github.com/goliatone/go-viewkit/pkg/view"
)

func newView(t *testing.T, opts ...view.Option) (*view.View, *testsupport.RecordingEngine) {
	t.Helper()

	eng := &testsupport.RecordingEngine{Output: "rendered"}
	res := testsupport.MapResolver{
		"views/x.tpl":             "/app/views/x.tpl",
		"views/users/profile.tpl": "/app/views/users/profile.tpl",
		"pages/home.html":         "/app/pages/home.html",
	}
	return view.New(res, eng, opts...), eng
}

func TestView_SetThenRenderFileAssignsBeforeDisplay(t *testing.T) {
	v, eng := newView(t)

	out, err := v.Set("foo", "bar").RenderFile("x")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "rendered" {
		t.Fatalf("output mismatch: got %q", out)
	}

	wantAssignments := []testsupport.Assignment{{Key: "foo", Value: "bar"}}
	if diff := cmp.Diff(wantAssignments, eng.Assignments); diff != "" {
		t.Fatalf("assignments mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/app/views/x.tpl"}, eng.Displayed); diff != "" {
		t.Fatalf("displayed mismatch (-want +got):\n%s", diff)
	}
}

func TestView_RenderWithoutTemplate(t *testing.T) {
	v, eng := newView(t)
	v.Set("foo", "bar")

	_, err := v.Render()
	if !errors.Is(err, view.ErrNoTemplate) {
		t.Fatalf("expected ErrNoTemplate, got %v", err)
	}
	if len(eng.Assignments) != 0 || len(eng.Displayed) != 0 {
		t.Fatalf("engine should not be touched, got %d assignments and %d displays", len(eng.Assignments), len(eng.Displayed))
	}
}

func TestView_SetFilenameNotFound(t *testing.T) {
	v, _ := newView(t)

	if _, err := v.SetFilename("x"); err != nil {
		t.Fatalf("set filename: %v", err)
	}

	_, err := v.SetFilename("missing")
	if !errors.Is(err, view.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}

	var notFound *view.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *NotFoundError, got %T", err)
	}
	if notFound.Name != "missing" || notFound.Category != view.DefaultCategory {
		t.Fatalf("unexpected not found details: %+v", notFound)
	}

	if got := v.Filename(); got != "/app/views/x.tpl" {
		t.Fatalf("filename changed after failed lookup: %q", got)
	}
}

func TestView_RenderFileNotFoundSkipsEngine(t *testing.T) {
	v, eng := newView(t)

	_, err := v.Set("foo", "bar").RenderFile("missing")
	if !errors.Is(err, view.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
	if len(eng.Assignments) != 0 {
		t.Fatalf("expected no assignments, got %+v", eng.Assignments)
	}
}

func TestView_SetMapMatchesRepeatedSet(t *testing.T) {
	values := map[string]any{
		"food":     "bread",
		"beverage": "water",
		"count":    3,
	}

	viaMap, mapEngine := newView(t)
	viaMap.SetMap(values)

	viaSet, setEngine := newView(t)
	for key, value := range values {
		viaSet.Set(key, value)
	}

	if diff := cmp.Diff(viaSet.Data(), viaMap.Data()); diff != "" {
		t.Fatalf("data mismatch (-set +map):\n%s", diff)
	}

	for _, v := range []*view.View{viaMap, viaSet} {
		if _, err := v.RenderFile("x"); err != nil {
			t.Fatalf("render: %v", err)
		}
	}
	if diff := cmp.Diff(setEngine.Assigned(), mapEngine.Assigned()); diff != "" {
		t.Fatalf("assigned mismatch (-set +map):\n%s", diff)
	}
}

func TestView_LastWriteWins(t *testing.T) {
	v, eng := newView(t)

	v.Set("title", "first").
		SetMap(map[string]any{"title": "second", "lang": "en"}).
		Set("title", "third")

	if _, err := v.RenderFile("x"); err != nil {
		t.Fatalf("render: %v", err)
	}

	if len(eng.Assignments) != 2 {
		t.Fatalf("expected one assignment per key, got %+v", eng.Assignments)
	}
	want := map[string]any{"title": "third", "lang": "en"}
	if diff := cmp.Diff(want, eng.Assigned()); diff != "" {
		t.Fatalf("assigned mismatch (-want +got):\n%s", diff)
	}
}

func TestView_RenderWritesToWriters(t *testing.T) {
	v, _ := newView(t)
	if _, err := v.SetFilename("users/profile"); err != nil {
		t.Fatalf("set filename: %v", err)
	}

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return v.Render(w)
	})
	if result != "rendered" || written != "rendered" {
		t.Fatalf("expected result and writer to match, got %q and %q", result, written)
	}
}

func TestView_RenderPropagatesEngineError(t *testing.T) {
	v, eng := newView(t)
	boom := errors.New("boom")
	eng.Err = boom

	_, err := v.RenderFile("x")
	if !errors.Is(err, boom) {
		t.Fatalf("expected engine error, got %v", err)
	}
}

type failingResolver struct{ err error }

func (r failingResolver) Find(string, string, string) (string, error) { return "", r.err }

func TestView_ResolverFailureIsNotNotFound(t *testing.T) {
	ioErr := errors.New("permission denied")
	v := view.New(failingResolver{err: ioErr}, &testsupport.RecordingEngine{})

	_, err := v.SetFilename("x")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, view.ErrTemplateNotFound) {
		t.Fatalf("resolver failure reported as not found: %v", err)
	}
	if !errors.Is(err, ioErr) {
		t.Fatalf("expected wrapped resolver error, got %v", err)
	}
}

func TestView_CategoryAndExtensionOptions(t *testing.T) {
	v, eng := newView(t, view.WithCategory("pages"), view.WithExtension(".html"))

	if _, err := v.RenderFile("home"); err != nil {
		t.Fatalf("render: %v", err)
	}
	if diff := cmp.Diff([]string{"/app/pages/home.html"}, eng.Displayed); diff != "" {
		t.Fatalf("displayed mismatch (-want +got):\n%s", diff)
	}
}

func TestView_WithDataSeedsCopy(t *testing.T) {
	seed := map[string]any{"a": 1}
	v, _ := newView(t, view.WithData(seed))
	seed["a"] = 2

	v.Data()["a"] = 3

	if diff := cmp.Diff(map[string]any{"a": 1}, v.Data()); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestView_ServeHTTP(t *testing.T) {
	v, _ := newView(t)
	if _, err := v.SetFilename("x"); err != nil {
		t.Fatalf("set filename: %v", err)
	}

	rec := httptest.NewRecorder()
	v.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", got)
	}
	if rec.Body.String() != "rendered" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestView_ServeHTTPFailure(t *testing.T) {
	v, eng := newView(t)
	eng.Err = fmt.Errorf("template exploded")
	if _, err := v.SetFilename("x"); err != nil {
		t.Fatalf("set filename: %v", err)
	}

	rec := httptest.NewRecorder()
	v.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
