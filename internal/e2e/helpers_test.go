package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"promptd/internal/device"
	"promptd/internal/httpapi"
	"promptd/internal/manager"
	"promptd/internal/registry"
)

// createTempModelsDir creates a temporary directory populated with small .gguf
// files and returns the directory path and the list of file names.
func createTempModelsDir(t *testing.T, names ...string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte("GGUF"), 0o644); err != nil {
			t.Fatalf("write temp model %s: %v", p, err)
		}
	}
	return dir, names
}

// newManager builds a manager over the given ids (first is default) and backend.
func newManager(t *testing.T, adapter manager.InferenceAdapter, pub manager.EventPublisher, ids ...string) *manager.Manager {
	t.Helper()
	reg, err := registry.New(ids, ids[0])
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	mgr, err := manager.NewWithConfig(manager.ManagerConfig{
		Registry:  reg,
		Adapter:   adapter,
		Prober:    device.Fixed(false),
		Publisher: pub,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

// newServer starts an httptest server over mgr.
func newServer(t *testing.T, mgr *manager.Manager) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(srv.Close)
	return srv
}

// doJSON sends payload (if any) as JSON and decodes the response into out.
func doJSON(t *testing.T, method, url string, payload any, out any) int {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if out != nil && len(b) > 0 {
		if err := json.Unmarshal(b, out); err != nil {
			t.Fatalf("decode %s %s: %v body=%s", method, url, err, string(b))
		}
	}
	return resp.StatusCode
}
