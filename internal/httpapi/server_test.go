package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"promptd/internal/device"
	"promptd/internal/manager"
	"promptd/pkg/types"
)

type mockService struct {
	models    []types.Model
	def       string
	status    types.StatusResponse
	ready     bool
	loadErr   error
	unload    error
	result    manager.Result
	gotModel  string
	gotPrompt string
}

func (m *mockService) ListModels() []types.Model    { return append([]types.Model(nil), m.models...) }
func (m *mockService) DefaultModel() string         { return m.def }
func (m *mockService) Select(choice string) string  { return choice }
func (m *mockService) Status() types.StatusResponse { return m.status }
func (m *mockService) Ready() bool                  { return m.ready }
func (m *mockService) Unload(id string) error       { return m.unload }

func (m *mockService) Load(ctx context.Context, id string) (*manager.Handle, error) {
	m.gotModel = id
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return &manager.Handle{ID: id, Profile: device.ChooseExecutionProfile(true), LoadedAt: time.Unix(1700000000, 0)}, nil
}

func (m *mockService) GenerateFor(ctx context.Context, choice, prompt string) manager.Result {
	m.gotModel, m.gotPrompt = choice, prompt
	r := m.result
	r.Prompt = prompt
	return r
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestModelsHandler(t *testing.T) {
	svc := &mockService{models: []types.Model{{ID: "m1", Default: true}, {ID: "m2"}}, def: "m1"}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/models", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	var body types.ModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Models) != 2 || body.Default != "m1" {
		t.Fatalf("body=%+v", body)
	}
}

func TestStatusHandler(t *testing.T) {
	svc := &mockService{status: types.StatusResponse{Backend: "echo", LoadsTotal: 3}}
	w := httptest.NewRecorder()
	NewMux(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Backend != "echo" || body.LoadsTotal != 3 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHealthAndReady(t *testing.T) {
	svc := &mockService{}
	h := NewMux(svc)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", w.Code, w.Body.String())
	}
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before load: %d", w.Code)
	}
	svc.ready = true
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("readyz after load: %d", w.Code)
	}
}

func TestLoadHandler(t *testing.T) {
	svc := &mockService{def: "base"}
	h := NewMux(svc)

	w := postJSON(h, "/load", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var body types.LoadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Model != "base" || body.Device != "cuda" || body.NumericFormat != "bf16" || body.LoadedAt != 1700000000 {
		t.Fatalf("body=%+v", body)
	}
}

func TestLoadHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"auth", &manager.AuthError{ID: "m", Cause: manager.ErrCredentialsRejected}, http.StatusUnauthorized},
		{"not found", &manager.LoadError{ID: "m", Cause: manager.ErrModelNotFound("m")}, http.StatusNotFound},
		{"dependency", &manager.LoadError{ID: "m", Cause: manager.ErrDependencyUnavailable("no llama")}, http.StatusServiceUnavailable},
		{"timeout", &manager.LoadError{ID: "m", Cause: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"other", &manager.LoadError{ID: "m", Cause: errors.New("boom")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(NewMux(&mockService{loadErr: tc.err}), "/load", `{"model":"m"}`)
			if w.Code != tc.want {
				t.Fatalf("status=%d want %d", w.Code, tc.want)
			}
			var body types.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("json: %v", err)
			}
			if body.Code != tc.want || body.Error == "" {
				t.Fatalf("body=%+v", body)
			}
		})
	}
}

func TestGenerateHandler(t *testing.T) {
	svc := &mockService{result: manager.Result{ID: "r1", ModelID: "alt", Reply: "there!", Latency: 1500 * time.Millisecond}}
	w := postJSON(NewMux(svc), "/generate", `{"model":"alt","prompt":"Hi"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.ID != "r1" || body.Model != "alt" || body.Reply != "there!" || body.LatencySeconds != 1.5 || body.Error != "" {
		t.Fatalf("body=%+v", body)
	}
	if svc.gotModel != "alt" || svc.gotPrompt != "Hi" {
		t.Fatalf("service got model=%q prompt=%q", svc.gotModel, svc.gotPrompt)
	}
}

func TestGenerateHandler_SoftFailureIs200(t *testing.T) {
	svc := &mockService{result: manager.Result{
		ModelID: "m",
		Reply:   manager.NotLoadedReply,
		Err:     &manager.LoadError{ID: "m", Cause: errors.New("no weights")},
	}}
	w := postJSON(NewMux(svc), "/generate", `{"prompt":"Hi"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.GenerateResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Reply != manager.NotLoadedReply || body.LatencySeconds != 0 || !strings.Contains(body.Error, "no weights") {
		t.Fatalf("body=%+v", body)
	}
}

func TestGenerateHandler_BadRequests(t *testing.T) {
	h := NewMux(&mockService{})

	req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewBufferString(`{"prompt":"x"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("missing content type: %d", w.Code)
	}
	if w := postJSON(h, "/generate", `{not json`); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid json: %d", w.Code)
	}
	if w := postJSON(h, "/generate", `{"prompt":"   "}`); w.Code != http.StatusBadRequest {
		t.Fatalf("blank prompt: %d", w.Code)
	}
	SetMaxBodyBytes(16)
	defer SetMaxBodyBytes(0)
	if w := postJSON(h, "/generate", `{"prompt":"`+strings.Repeat("x", 64)+`"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("oversized body: %d", w.Code)
	}
}

func TestGenerateHandler_RateLimited(t *testing.T) {
	SetGenerateRateLimit(0.001, 1)
	defer SetGenerateRateLimit(0, 0)
	h := NewMux(&mockService{result: manager.Result{Reply: "ok"}})
	if w := postJSON(h, "/generate", `{"prompt":"a"}`); w.Code != http.StatusOK {
		t.Fatalf("first request: %d", w.Code)
	}
	w := postJSON(h, "/generate", `{"prompt":"b"}`)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
}

func TestUnloadHandler(t *testing.T) {
	svc := &mockService{}
	h := NewMux(svc)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/models/m1", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status=%d", w.Code)
	}
	svc.unload = manager.ErrModelNotFound("m1")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/models/m1", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	SetCORSOptions(true, []string{"*"}, nil, nil)
	defer SetCORSOptions(false, nil, nil, nil)

	h := NewMux(&mockService{})
	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options=nosniff, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatalf("expected CORS header Access-Control-Allow-Origin to be set, got empty")
	}
}

// TestGenerateWithManager drives the router over a real manager and the echo
// backend.
func TestGenerateWithManager(t *testing.T) {
	reg := mustRegistry(t)
	mgr, err := manager.NewWithConfig(manager.ManagerConfig{
		Registry: reg,
		Adapter:  &manager.EchoAdapter{Suffix: "there!", Delay: time.Millisecond},
		Prober:   device.Fixed(false),
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	defer mgr.Close()
	h := NewMux(mgr)

	w := postJSON(h, "/generate", `{"prompt":"Hi"}`)
	var body types.GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Model != "base-model" || body.Reply != "there!" || body.LatencySeconds <= 0 {
		t.Fatalf("body=%+v", body)
	}
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rw.Code != http.StatusOK {
		t.Fatalf("readyz after generate: %d", rw.Code)
	}
	if w := postJSON(h, "/load", `{"model":"unknown"}`); w.Code != http.StatusNotFound {
		t.Fatalf("load unknown: %d", w.Code)
	}
}
