package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/menuboard/pkg/assets"
	"github.com/matzehuels/menuboard/pkg/export"
	"github.com/matzehuels/menuboard/pkg/pipeline"
	"github.com/matzehuels/menuboard/pkg/render"
	"github.com/matzehuels/menuboard/pkg/sheets"
)

const templateSVG = `<svg xmlns="http://www.w3.org/2000/svg">
  <g id="1"><text id="1.1">Margherita</text></g>
  <g id="2"><text id="2.1">Calzone</text></g>
  <text id="price1">old</text>
</svg>`

type fakeRasterizer struct{}

func (fakeRasterizer) Render(_ context.Context, svg []byte, format render.Format) ([]byte, error) {
	return append([]byte("PNG"), svg[:4]...), nil
}

type testEnv struct {
	server  *Server
	runner  *pipeline.Runner
	store   *export.MemoryStore
	history *export.MemoryHistory
	public  string
}

func newTestEnv(t *testing.T, src sheets.Source) *testEnv {
	t.Helper()
	public := t.TempDir()
	writeFile(t, filepath.Join(public, "assets", "menu1.svg"), templateSVG)
	writeFile(t, filepath.Join(public, "index.html"), "<h1>menu</h1>")

	logger := log.New(&bytes.Buffer{})
	runner := pipeline.NewRunner(assets.NewLoader(public, 1), src, logger)
	runner.Rasterizer = fakeRasterizer{}
	store := export.NewMemoryStore()
	history := export.NewMemoryHistory(10)
	runner.Store, runner.History = store, history
	runner.Now = func() time.Time { return time.UnixMilli(1700000000123) }

	srv := New(Config{Runner: runner, PublicDir: public, Logger: logger})
	return &testEnv{server: srv, runner: runner, store: store, history: history, public: public}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func rows() sheets.Static {
	return sheets.Static{
		pipeline.DefaultVisibilityRange: {{"1", "yes"}, {"2", "no"}},
		pipeline.DefaultPriceRange:      {{"25"}},
	}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, rows())

	w := env.do(t, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := decode[healthResponse](t, w); !got.OK {
		t.Errorf("ok = false")
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	env := newTestEnv(t, rows())
	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, r)

	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestVisibility(t *testing.T) {
	env := newTestEnv(t, rows())

	w := env.do(t, http.MethodGet, "/api/visibility?svgUrl=/assets/menu1.svg", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	got := decode[struct {
		VisibleIDs    []string          `json:"visibleIds"`
		RawVisibleIDs []string          `json:"rawVisibleIds"`
		Prices        map[string]string `json:"prices"`
	}](t, w)

	if strings.Join(got.VisibleIDs, ",") != "1,1.1" {
		t.Errorf("visibleIds = %v", got.VisibleIDs)
	}
	if strings.Join(got.RawVisibleIDs, ",") != "1" {
		t.Errorf("rawVisibleIds = %v", got.RawVisibleIDs)
	}
	if got.Prices["price1"] != "25 zł" {
		t.Errorf("prices = %v", got.Prices)
	}
}

func TestVisibilityErrors(t *testing.T) {
	tests := []struct {
		name       string
		src        sheets.Source
		target     string
		wantStatus int
		wantMsg    string
	}{
		{"missing configuration", nil, "/api/visibility", http.StatusInternalServerError, "Failed to load visibility."},
		{"bad url", rows(), "/api/visibility?svgUrl=/etc/passwd", http.StatusBadRequest, ""},
		{"unknown menu", rows(), "/api/visibility?svgUrl=/assets/menu9.svg", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.src)
			w := env.do(t, http.MethodGet, tt.target, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body)
			}
			got := decode[errorResponse](t, w)
			if got.Error == "" || (tt.wantMsg != "" && got.Error != tt.wantMsg) {
				t.Errorf("error = %q, want %q", got.Error, tt.wantMsg)
			}
		})
	}
}

func TestVisibilityTooLarge(t *testing.T) {
	env := newTestEnv(t, rows())
	big := "<svg>" + strings.Repeat(" ", 600<<10) + "</svg>"
	writeFile(t, filepath.Join(env.public, "assets", "big.svg"), big)

	w := env.do(t, http.MethodGet, "/api/visibility?svgUrl=/assets/big.svg", "")
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", w.Code)
	}
	if msg := decode[errorResponse](t, w).Error; !strings.HasPrefix(msg, "big.svg is 1MB. Optimize the SVG") {
		t.Errorf("error = %q", msg)
	}
}

func TestMenus(t *testing.T) {
	env := newTestEnv(t, rows())
	w := env.do(t, http.MethodGet, "/api/menus", "")
	got := decode[[]assets.Menu](t, w)
	if len(got) != 1 || got[0].URL != "/assets/menu1.svg" {
		t.Errorf("menus = %+v", got)
	}
}

func TestPreview(t *testing.T) {
	env := newTestEnv(t, rows())
	w := env.do(t, http.MethodGet, "/api/preview?visibleIds=2,%20,", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), `id="2.1" display="inline"`) {
		t.Errorf("2.1 not shown:\n%s", w.Body)
	}
}

func TestSaveSVG(t *testing.T) {
	env := newTestEnv(t, rows())

	w := env.do(t, http.MethodPost, "/api/save-svg", `{"svgUrl":"/assets/menu1.svg","visibleIds":["1"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	got := decode[saveResponse](t, w)
	if !got.OK || got.FileName != "svg-1700000000123.png" {
		t.Errorf("response = %+v", got)
	}
	if env.store.Len() != 1 {
		t.Errorf("stored %d artifacts, want 1", env.store.Len())
	}

	w = env.do(t, http.MethodGet, "/api/exports?limit=5", "")
	records := decode[[]export.Record](t, w)
	if len(records) != 1 || records[0].FileName != got.FileName {
		t.Errorf("exports = %+v", records)
	}
}

func TestSaveSVGDownload(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/save-svg?download=1", `{"svg":"<svg></svg>"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="svg-1700000000123.png"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := w.Header().Get("X-File-Name"); got != "svg-1700000000123.png" {
		t.Errorf("X-File-Name = %q", got)
	}
	if w.Body.String() != "PNG<svg" {
		t.Errorf("body = %q", w.Body)
	}
}

func TestSaveSVGErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"empty body", "", http.StatusBadRequest, "Missing SVG payload."},
		{"empty object", `{}`, http.StatusBadRequest, "Missing SVG payload."},
		{"not svg", `{"svg":"<html/>"}`, http.StatusBadRequest, "Invalid SVG payload."},
		{"bad json", `{"svg":`, http.StatusBadRequest, "Invalid JSON body."},
		{"too large", `{"svg":"<svg>` + strings.Repeat("x", 256) + `</svg>"}`, http.StatusRequestEntityTooLarge, "Request body too large."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.server.maxBodyBytes = 128
			w := env.do(t, http.MethodPost, "/api/save-svg", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body)
			}
			if got := decode[errorResponse](t, w).Error; got != tt.wantMsg {
				t.Errorf("error = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestLatest(t *testing.T) {
	env := newTestEnv(t, nil)

	if w := env.do(t, http.MethodGet, "/api/latest", ""); w.Code != http.StatusNotFound {
		t.Fatalf("latest before export: status = %d, want 404", w.Code)
	}

	env.do(t, http.MethodPost, "/api/save-svg", `{"svg":"<svg/>"}`)

	w := env.do(t, http.MethodGet, "/api/latest", "")
	if got := decode[latestResponse](t, w); got.FileName != "svg-1700000000123.png" {
		t.Errorf("latest = %+v", got)
	}

	w = env.do(t, http.MethodGet, "/api/latest-png", "")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("latest-png: status %d, type %q", w.Code, w.Header().Get("Content-Type"))
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Error("latest-png must not be cached")
	}
	if w.Body.String() != "PNG<svg" {
		t.Errorf("body = %q", w.Body)
	}
}

func TestExportsLimit(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, q := range []string{"0", "-1", "abc"} {
		if w := env.do(t, http.MethodGet, "/api/exports?limit="+q, ""); w.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", q, w.Code)
		}
	}
	env.runner.History = nil
	w := env.do(t, http.MethodGet, "/api/exports", "")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("without history: body = %q, want []", w.Body)
	}
}

func TestStaticFiles(t *testing.T) {
	env := newTestEnv(t, nil)
	writeFile(t, filepath.Join(env.public, "display.css"), "body{margin:0}")

	tests := []struct {
		path     string
		status   int
		body     string
		location string
	}{
		{path: "/", status: http.StatusOK, body: "<h1>menu</h1>"},
		{path: "/display.css", status: http.StatusOK, body: "body{margin:0}"},
		{path: "/assets/menu1.svg", status: http.StatusOK, body: "<svg"},
		{path: "/index.html", status: http.StatusMovedPermanently, location: "./"},
		{path: "/missing.css", status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := env.do(t, http.MethodGet, tt.path, "")
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.body != "" && !strings.Contains(w.Body.String(), tt.body) {
				t.Errorf("body = %q, want %q", w.Body, tt.body)
			}
			if tt.location != "" && w.Header().Get("Location") != tt.location {
				t.Errorf("Location = %q, want %q", w.Header().Get("Location"), tt.location)
			}
		})
	}
}

func TestServeListenerShutdown(t *testing.T) {
	env := newTestEnv(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.ServeListener(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ServeListener = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
