package manager

import (
	"context"

	"promptd/internal/device"
)

// InferenceAdapter abstracts the model runtime used by the Loader.
// Concrete implementations (llama.cpp, OpenAI-compatible servers) satisfy it.
type InferenceAdapter interface {
	// Name identifies the backend in status output and logs.
	Name() string
	// Start constructs a session for one model. It is called once per cached
	// handle; the returned session is reused for every generation.
	Start(ctx context.Context, spec LoadSpec) (InferSession, error)
}

// Authenticator is implemented by adapters whose model source performs a
// credential handshake before loading.
type Authenticator interface {
	// RequiresToken reports whether a load must fail when no token is configured.
	RequiresToken() bool
	// Authenticate validates token against the model source. Rejections wrap
	// ErrCredentialsRejected.
	Authenticate(ctx context.Context, modelID, token string) error
}

// LoadSpec describes what to load and where.
type LoadSpec struct {
	ModelID string
	// Path to local weights, for adapters that load from disk.
	Path    string
	Profile device.Profile
	Token   string
}

// InferSession is a loaded model that can generate completions.
type InferSession interface {
	// Generate returns the raw generated text for prompt. Implementations
	// should return when ctx is canceled.
	Generate(ctx context.Context, prompt string, params SamplingParams) (FinalResult, error)
	// Close releases any resources associated with the session.
	Close() error
}

// FinalResult summarizes one generation.
type FinalResult struct {
	Content      string
	Usage        Usage
	FinishReason string
}

// Usage contains token accounting.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
