package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/vaultview/internal/testutil"
)

func testConfig(t *testing.T, vaultPath string) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Vault.Path = vaultPath
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func testRouter(t *testing.T, cfg *Config) http.Handler {
	t.Helper()
	app := newApplication([]Option{WithConfig(cfg)})
	logger := newLogger(&bytes.Buffer{}, cfg.App.LogLevel)
	svc, renderer, err := app.services(logger)
	if err != nil {
		t.Fatal(err)
	}
	return newRouter(cfg, svc, renderer, logger)
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHealthEndpoints(t *testing.T) {
	root, _ := testutil.TestVault(t, testutil.SpecimenVault)
	router := testRouter(t, testConfig(t, root))

	for _, p := range []string{"/health/live", "/health/ready"} {
		w := get(router, p)
		if w.Code != http.StatusOK {
			t.Errorf("%s = %d", p, w.Code)
		}
		if strings.TrimSpace(w.Body.String()) != `{"status":"ok"}` {
			t.Errorf("%s body = %s", p, w.Body.String())
		}
	}
}

func TestReadyReportsMissingVault(t *testing.T) {
	router := testRouter(t, testConfig(t, filepath.Join(t.TempDir(), "not-yet")))

	if w := get(router, "/health/ready"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready = %d, want 503", w.Code)
	}
	if w := get(router, "/health/live"); w.Code != http.StatusOK {
		t.Errorf("live = %d, want 200", w.Code)
	}
	if w := get(router, "/api/files"); w.Code != http.StatusInternalServerError {
		t.Errorf("files = %d, want 500", w.Code)
	}
}

func TestRouterMountsAPI(t *testing.T) {
	root, _ := testutil.TestVault(t, testutil.SpecimenVault)
	router := testRouter(t, testConfig(t, root))

	w := get(router, "/api/files")
	if w.Code != http.StatusOK {
		t.Fatalf("files = %d, body = %s", w.Code, w.Body.String())
	}
	var nodes []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &nodes); err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 {
		t.Errorf("nodes = %v", nodes)
	}

	req := httptest.NewRequest(http.MethodHead, "/api/file?path=assets/pic.png", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Errorf("HEAD image = %d %q", w.Code, w.Header().Get("Content-Type"))
	}
}

func TestPrintTree(t *testing.T) {
	root, _ := testutil.TestVault(t, testutil.SpecimenVault)
	var stdout, stderr bytes.Buffer

	err := PrintTree(context.Background(), WithConfig(testConfig(t, root)), WithIO(nil, &stdout, &stderr))
	if err != nil {
		t.Fatal(err)
	}
	out := stdout.String()
	for _, want := range []string{root, "notes/", "a.md", "readme.md"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "pic.png") || strings.Contains(out, ".obsidian") {
		t.Errorf("output lists non-note entries:\n%s", out)
	}
	if stderr.Len() != 0 {
		t.Errorf("unexpected stderr: %s", stderr.String())
	}
}

func TestPrintTreeMissingVault(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "gone"))
	err := PrintTree(context.Background(), WithConfig(cfg), WithIO(nil, &bytes.Buffer{}, &bytes.Buffer{}))
	if err == nil {
		t.Fatal("expected error for missing vault")
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Error("Run without config should fail")
	}
	if err := RunMCP(context.Background()); err == nil {
		t.Error("RunMCP without config should fail")
	}
	if err := PrintTree(context.Background()); err == nil {
		t.Error("PrintTree without config should fail")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	root, _ := testutil.TestVault(t, nil)
	cfg := testConfig(t, root)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	cfg.App.HTTP.Port = l.Addr().(*net.TCPAddr).Port
	_ = l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Run(ctx, WithConfig(cfg), WithIO(nil, &bytes.Buffer{}, nil)); err != nil {
		t.Fatalf("Run = %v", err)
	}
}
