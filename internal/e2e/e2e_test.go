package e2e

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"promptd/internal/manager"
	"promptd/internal/registry"
	"promptd/pkg/types"
)

// TestE2E_SelectLoadGenerate walks one interaction through the core API:
// choose a model, load it, generate a reply.
func TestE2E_SelectLoadGenerate(t *testing.T) {
	pub := manager.NewMemoryPublisher()
	mgr := newManager(t, &manager.EchoAdapter{Suffix: "there!", Delay: time.Millisecond}, pub, "base-model", "alt-model")
	ctx := context.Background()

	id := mgr.Select("")
	if id != "base-model" {
		t.Fatalf("Select(\"\")=%q", id)
	}
	h, err := mgr.Load(ctx, id)
	if err != nil || h == nil {
		t.Fatalf("load: h=%v err=%v", h, err)
	}
	res := mgr.Generate(ctx, h, "Hi")
	if res.Reply != "there!" {
		t.Fatalf("reply=%q", res.Reply)
	}
	if res.Latency <= 0 {
		t.Fatalf("latency=%v", res.Latency)
	}
	want := []string{"load_start", "device_selected", "load_ready"}
	if got := pub.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events=%v want %v", got, want)
	}
	again, _ := mgr.Load(ctx, id)
	if again != h {
		t.Fatalf("second load returned a different handle")
	}
}

// TestE2E_HTTPFlow exercises the HTTP surface against a registry populated
// from a models directory.
func TestE2E_HTTPFlow(t *testing.T) {
	dir, _ := createTempModelsDir(t, "alpha.gguf", "beta.Q4_K_M.gguf", "stray.gguf")
	files, err := registry.LoadDir(dir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	reg, err := registry.New([]string{"org/alpha", "beta"}, "org/alpha")
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	reg = reg.Attach(files, false)
	mgr, err := manager.NewWithConfig(manager.ManagerConfig{
		Registry: reg,
		Adapter:  &manager.EchoAdapter{Suffix: "pong", Delay: time.Millisecond},
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	defer mgr.Close()
	srv := newServer(t, mgr)

	var models types.ModelsResponse
	if code := doJSON(t, http.MethodGet, srv.URL+"/models", nil, &models); code != http.StatusOK {
		t.Fatalf("/models %d", code)
	}
	if len(models.Models) != 2 || models.Default != "org/alpha" {
		t.Fatalf("models=%+v", models)
	}
	if models.Models[0].SizeBytes != 4 || models.Models[1].Path == "" {
		t.Fatalf("files not attached: %+v", models.Models)
	}

	if code := doJSON(t, http.MethodGet, srv.URL+"/readyz", nil, nil); code != http.StatusServiceUnavailable {
		t.Fatalf("/readyz initial %d", code)
	}

	var load types.LoadResponse
	if code := doJSON(t, http.MethodPost, srv.URL+"/load", types.LoadRequest{Model: "beta"}, &load); code != http.StatusOK {
		t.Fatalf("/load %d", code)
	}
	if load.Model != "beta" || load.Device == "" {
		t.Fatalf("load=%+v", load)
	}

	var gen types.GenerateResponse
	if code := doJSON(t, http.MethodPost, srv.URL+"/generate", types.GenerateRequest{Prompt: "ping"}, &gen); code != http.StatusOK {
		t.Fatalf("/generate %d", code)
	}
	if gen.Model != "org/alpha" || gen.Reply != "pong" || gen.LatencySeconds <= 0 || gen.ID == "" {
		t.Fatalf("generate=%+v", gen)
	}

	var st types.StatusResponse
	doJSON(t, http.MethodGet, srv.URL+"/status", nil, &st)
	if len(st.Handles) != 2 || st.Backend != "echo" || st.LoadsTotal != 2 {
		t.Fatalf("status=%+v", st)
	}

	if code := doJSON(t, http.MethodDelete, srv.URL+"/models/beta", nil, nil); code != http.StatusNoContent {
		t.Fatalf("unload %d", code)
	}
	if code := doJSON(t, http.MethodDelete, srv.URL+"/models/beta", nil, nil); code != http.StatusNotFound {
		t.Fatalf("second unload %d", code)
	}
	var e types.ErrorResponse
	if code := doJSON(t, http.MethodPost, srv.URL+"/load", types.LoadRequest{Model: "stray.gguf"}, &e); code != http.StatusNotFound {
		t.Fatalf("load of unlisted file %d", code)
	}
}

// failingAdapter never produces a session.
type failingAdapter struct{}

func (failingAdapter) Name() string { return "failing" }

func (failingAdapter) Start(ctx context.Context, spec manager.LoadSpec) (manager.InferSession, error) {
	return nil, errors.New("weights unavailable")
}

// TestE2E_LoadFailureDegradesGracefully shows a failed load surfacing as the
// not-loaded reply rather than an HTTP error.
func TestE2E_LoadFailureDegradesGracefully(t *testing.T) {
	pub := manager.NewMemoryPublisher()
	mgr := newManager(t, failingAdapter{}, pub, "base-model")
	srv := newServer(t, mgr)

	var gen types.GenerateResponse
	if code := doJSON(t, http.MethodPost, srv.URL+"/generate", types.GenerateRequest{Prompt: "Hi"}, &gen); code != http.StatusOK {
		t.Fatalf("/generate %d", code)
	}
	if gen.Reply != manager.NotLoadedReply || gen.LatencySeconds != 0 || gen.Error == "" {
		t.Fatalf("generate=%+v", gen)
	}
	evs := pub.Events()
	if last := evs[len(evs)-1]; last.Name != "load_failed" || last.Level != manager.LevelError {
		t.Fatalf("last event=%+v", last)
	}
	if code := doJSON(t, http.MethodGet, srv.URL+"/readyz", nil, nil); code != http.StatusServiceUnavailable {
		t.Fatalf("/readyz %d", code)
	}
}
