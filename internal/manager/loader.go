package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"promptd/internal/credentials"
	"promptd/internal/device"
	"promptd/internal/registry"
)

// Loader turns a model id into a cached Handle. It hides the credential
// handshake, device selection and backend construction.
type Loader struct {
	registry     *registry.Registry
	cache        *ModelCache
	adapter      InferenceAdapter
	creds        credentials.Source
	prober       device.Prober
	publisher    EventPublisher
	log          zerolog.Logger
	requireToken bool

	mu        sync.Mutex
	loads     uint64
	failures  uint64
	lastError string
}

// Load returns the handle for id, loading it on first use. A second call for
// the same id returns the same handle without repeating any load step. All
// failures come back as *LoadError, with credential failures wrapping an
// *AuthError; Load never panics. The load ignores ctx cancellation because
// concurrent callers for the same id share it.
func (l *Loader) Load(ctx context.Context, id string) (*Handle, error) {
	if h, ok := l.cache.Get(id); ok {
		return h, nil
	}
	lctx := context.WithoutCancel(ctx)
	h, err := l.cache.GetOrLoad(id, func() (*Handle, error) {
		return l.loadOnce(lctx, id)
	})
	if err != nil {
		return nil, err
	}
	cachedHandles.Set(float64(l.cache.Len()))
	return h, nil
}

// loadOnce runs the full sequence: allow-list check, credential handshake,
// device probe, backend construction.
func (l *Loader) loadOnce(ctx context.Context, id string) (h *Handle, err error) {
	start := time.Now()
	l.publish(Event{Name: "load_start", Level: LevelInfo, ModelID: id, Message: fmt.Sprintf("Loading model '%s'", id)})
	defer func() {
		if r := recover(); r != nil {
			h, err = nil, &LoadError{ID: id, Cause: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			l.recordFailure(id, err)
			return
		}
		l.recordSuccess(h, time.Since(start))
	}()

	mdl, ok := l.registry.Lookup(id)
	if !ok {
		return nil, &LoadError{ID: id, Cause: ErrModelNotFound(id)}
	}

	token, err := l.authenticate(ctx, id)
	if err != nil {
		return nil, err
	}

	avail, err := l.prober.AcceleratorAvailable()
	if err != nil {
		return nil, &LoadError{ID: id, Cause: fmt.Errorf("probe accelerator: %w", err)}
	}
	profile := device.ChooseExecutionProfile(avail)
	l.publish(Event{
		Name:    "device_selected",
		Level:   LevelInfo,
		ModelID: id,
		Message: "Using device: " + profile.Device,
		Fields:  map[string]any{"device": profile.Device, "numeric_format": profile.NumericFormat},
	})

	sess, err := l.adapter.Start(ctx, LoadSpec{ModelID: id, Path: mdl.Path, Profile: profile, Token: token})
	if err != nil {
		return nil, &LoadError{ID: id, Cause: err}
	}
	if sess == nil {
		return nil, &LoadError{ID: id, Cause: errors.New("backend returned no session")}
	}
	return newHandle(id, profile, sess), nil
}

// authenticate obtains a token and, when the backend supports it, verifies it
// with the model source.
func (l *Loader) authenticate(ctx context.Context, id string) (string, error) {
	auth, _ := l.adapter.(Authenticator)
	required := l.tokenRequired()

	token, err := l.creds.Token(ctx)
	if err != nil {
		if errors.Is(err, credentials.ErrNoToken) && !required {
			return "", nil
		}
		return "", authFailure(id, err)
	}
	if auth == nil {
		return token, nil
	}
	if err := auth.Authenticate(ctx, id, token); err != nil {
		if errors.Is(err, ErrCredentialsRejected) {
			return "", authFailure(id, err)
		}
		return "", &LoadError{ID: id, Cause: fmt.Errorf("credential handshake: %w", err)}
	}
	return token, nil
}

// tokenRequired reports whether a load without a token must fail.
func (l *Loader) tokenRequired() bool {
	if l.requireToken {
		return true
	}
	auth, ok := l.adapter.(Authenticator)
	return ok && auth.RequiresToken()
}

// authFailure is a LoadError caused by an AuthError.
func authFailure(id string, cause error) error {
	return &LoadError{ID: id, Cause: &AuthError{ID: id, Cause: cause}}
}

func (l *Loader) recordSuccess(h *Handle, dur time.Duration) {
	l.mu.Lock()
	l.loads++
	l.mu.Unlock()
	modelLoadsTotal.WithLabelValues(l.adapter.Name(), "ok").Inc()
	l.log.Info().Str("model", h.ID).Str("device", h.Profile.Device).
		Str("numeric_format", h.Profile.NumericFormat).Dur("dur", dur).Msg("model loaded")
	l.publish(Event{
		Name:    "load_ready",
		Level:   LevelSuccess,
		ModelID: h.ID,
		Message: fmt.Sprintf("Model '%s' loaded successfully.", h.ID),
		Fields:  map[string]any{"dur_ms": int(dur / time.Millisecond)},
	})
}

func (l *Loader) recordFailure(id string, err error) {
	l.mu.Lock()
	l.failures++
	l.lastError = err.Error()
	l.mu.Unlock()
	result := "error"
	if IsAuth(err) {
		result = "auth_error"
	}
	modelLoadsTotal.WithLabelValues(l.adapter.Name(), result).Inc()
	l.log.Error().Str("model", id).Err(err).Msg("model load failed")
	l.publish(Event{
		Name:    "load_failed",
		Level:   LevelError,
		ModelID: id,
		Message: fmt.Sprintf("Failed to load model '%s': %v", id, err),
		Fields:  map[string]any{"error": err.Error()},
	})
}

// publish shields the loader from misbehaving publishers.
func (l *Loader) publish(e Event) {
	defer func() { _ = recover() }()
	l.publisher.Publish(e)
}

// Unload drops id from the cache and closes its session.
func (l *Loader) Unload(id string) error {
	ok, err := l.cache.Invalidate(id)
	if !ok {
		return ErrModelNotFound(id)
	}
	cachedHandles.Set(float64(l.cache.Len()))
	l.publish(Event{Name: "unload_done", Level: LevelInfo, ModelID: id, Message: fmt.Sprintf("Model '%s' unloaded", id)})
	return err
}
