package serve

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/Dicklesworthstone/expense-e2e/internal/evidence"
	"github.com/Dicklesworthstone/expense-e2e/internal/logging"
)

const shot = "login__happy__page-loaded__SUCCESS__2025-08-19T12-30-45-000Z.png"

func setupTestServer(t *testing.T, resultsPath string) (*Server, evidence.Layout) {
	t.Helper()
	l := evidence.NewLayout(t.TempDir())
	if err := l.Ensure(); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if err := os.WriteFile(l.ScreenshotPath(shot), []byte("png-bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	return New(Config{Layout: l, ResultsPath: resultsPath, Logger: logging.Discard()}), l
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	t.Parallel()
	srv, _ := setupTestServer(t, "")

	rec := get(t, srv, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decode(t, rec)
	if resp["success"] != true || resp["status"] != "ok" {
		t.Errorf("resp = %v", resp)
	}
	if resp["timestamp"] == nil {
		t.Error("expected timestamp")
	}
}

func TestManifestEndpoint(t *testing.T) {
	t.Parallel()
	srv, _ := setupTestServer(t, "")

	rec := get(t, srv, "/api/manifest")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decode(t, rec)
	m, ok := resp["manifest"].(map[string]any)
	if !ok {
		t.Fatalf("manifest = %T", resp["manifest"])
	}
	artifacts, _ := m["artifacts"].([]any)
	if len(artifacts) != 1 {
		t.Fatalf("artifacts = %v", m["artifacts"])
	}
	first := artifacts[0].(map[string]any)
	if first["filename"] != shot || first["sha256"] == "" {
		t.Errorf("artifact = %v", first)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	report := filepath.Join(dir, "junit-results.xml")
	xml := `<testsuites><testsuite name="s">
<testcase name="a"/><testcase name="b"><failure/></testcase><testcase name="c"/>
</testsuite></testsuites>`
	if err := os.WriteFile(report, []byte(xml), 0644); err != nil {
		t.Fatal(err)
	}
	srv, _ := setupTestServer(t, report)

	rec := get(t, srv, "/api/summary")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	summary := decode(t, rec)["summary"].(map[string]any)
	if summary["totalTests"] != float64(3) || summary["passed"] != float64(2) || summary["failed"] != float64(1) {
		t.Errorf("summary = %v", summary)
	}
}

func TestSummaryEndpoint_NoResults(t *testing.T) {
	t.Parallel()
	srv, _ := setupTestServer(t, "")

	rec := get(t, srv, "/api/summary")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if resp := decode(t, rec); resp["success"] != false || resp["error"] == nil {
		t.Errorf("resp = %v", resp)
	}
}

func TestStepsEndpoint(t *testing.T) {
	t.Parallel()
	srv, l := setupTestServer(t, "")

	rec := get(t, srv, "/api/steps")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if steps, _ := decode(t, rec)["steps"].([]any); len(steps) != 0 {
		t.Errorf("steps = %v, want empty", steps)
	}

	sl, err := evidence.OpenStepLog(filepath.Join(l.Reports(), evidence.StepLogFilename))
	if err != nil {
		t.Fatal(err)
	}
	_ = sl.Append(evidence.StepEntry{Step: "Capture evidence: page-loaded", Status: evidence.StepPassed})
	_ = sl.Close()

	rec = get(t, srv, "/api/steps")
	if steps, _ := decode(t, rec)["steps"].([]any); len(steps) != 1 {
		t.Errorf("steps = %v, want 1", steps)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	srv, _ := setupTestServer(t, "")

	rec := get(t, srv, "/api/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "e2e_tests_total") {
		t.Errorf("missing totals:\n%s", body)
	}
	if !strings.Contains(body, `feature="login",status="SUCCESS"} 1`) {
		t.Errorf("missing artifact count:\n%s", body)
	}
}

func TestScreenshotsStatic(t *testing.T) {
	t.Parallel()
	srv, _ := setupTestServer(t, "")

	rec := get(t, srv, "/screenshots/"+shot)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "png-bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if rec := get(t, srv, "/screenshots/missing.png"); rec.Code != http.StatusNotFound {
		t.Errorf("missing file status = %d", rec.Code)
	}
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	t.Parallel()
	srv, _ := setupTestServer(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("ListenAndServe: %v", err)
	}
}
