package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"promptd/internal/manager"
	"promptd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.Model
	DefaultModel() string
	Select(choice string) string
	Load(ctx context.Context, id string) (*manager.Handle, error)
	GenerateFor(ctx context.Context, choice, prompt string) manager.Result
	Unload(id string) error
	Status() types.StatusResponse
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		methods := corsAllowedMethods
		if len(methods) == 0 {
			methods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
		}
		headers := corsAllowedHeaders
		if len(headers) == 0 {
			headers = []string{"Content-Type", "X-Log-Level"}
		}
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: methods,
			AllowedHeaders: headers,
			MaxAge:         300,
		}))
	}

	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.ModelsResponse{Models: svc.ListModels(), Default: svc.DefaultModel()})
	})

	r.Delete("/models/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := svc.Unload(id); err != nil {
			writeJSONError(w, statusFor(err), err.Error())
			return
		}
		reqLogger(r, LevelInfo).Str("model", id).Msg("model unloaded")
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Post("/load", func(w http.ResponseWriter, r *http.Request) {
		var req types.LoadRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		id := strings.TrimSpace(req.Model)
		if id == "" {
			id = svc.DefaultModel()
		}
		start := time.Now()
		ctx, cancel := requestContext(r)
		defer cancel()
		h, err := svc.Load(ctx, id)
		if err != nil {
			status := statusFor(err)
			reqLogger(r, LevelError).Str("model", id).Int("status", status).Err(err).Msg("load failed")
			writeJSONError(w, status, err.Error())
			return
		}
		reqLogger(r, LevelInfo).Str("model", id).Dur("dur", time.Since(start)).Msg("load ok")
		writeJSON(w, http.StatusOK, types.LoadResponse{
			Model:         h.ID,
			Device:        h.Profile.Device,
			NumericFormat: h.Profile.NumericFormat,
			LoadedAt:      h.LoadedAt.Unix(),
		})
	})

	r.With(rateLimited).Post("/generate", func(w http.ResponseWriter, r *http.Request) {
		var req types.GenerateRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		// Basic validation
		if strings.TrimSpace(req.Prompt) == "" {
			writeJSONError(w, http.StatusBadRequest, "prompt is required")
			return
		}
		reqLogger(r, LevelInfo).Str("model", req.Model).Msg("generate start")
		reqLogger(r, LevelDebug).Str("prompt", req.Prompt).Msg("generate prompt")

		// Join server base context with request context so shutdown cancels work too.
		ctx, cancel := requestContext(r)
		defer cancel()
		res := svc.GenerateFor(ctx, req.Model, req.Prompt)
		resp := types.GenerateResponse{
			ID:             res.ID,
			Model:          res.ModelID,
			Prompt:         res.Prompt,
			Reply:          res.Reply,
			LatencySeconds: res.LatencySeconds(),
		}
		if res.Err != nil {
			resp.Error = res.Err.Error()
		}
		// Client went away; nobody to answer.
		if r.Context().Err() != nil {
			return
		}
		reqLogger(r, LevelInfo).Str("model", res.ModelID).Bool("ok", res.OK()).
			Float64("latency_s", resp.LatencySeconds).Msg("generate end")
		reqLogger(r, LevelDebug).Str("reply", res.Reply).Msg("generate reply")
		writeJSON(w, http.StatusOK, resp)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no model loaded"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

// rateLimited rejects requests with 429 when the /generate bucket is empty.
func rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if lim := currentLimiter(); lim != nil && !lim.Allow() {
			IncrementBackpressure("rate_limit")
			w.Header().Set("Retry-After", "1")
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decodeJSON enforces the content type and body limit and decodes into v.
// It writes the error response and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
