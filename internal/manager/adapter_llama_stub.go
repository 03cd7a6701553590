//go:build !llama

package manager

// No-CGO stub for the llama adapter, compiled when the 'llama' build tag is
// NOT set. The real adapter lives in adapter_llama.go.

import "context"

var llamaBuilt = false

type llamaAdapter struct {
	ctxSize   int
	threads   int
	gpuLayers int
}

// NewLlamaAdapter returns a stub whose Start always reports the dependency
// as unavailable.
func NewLlamaAdapter(ctxSize, threads, gpuLayers int) InferenceAdapter {
	return &llamaAdapter{ctxSize: ctxSize, threads: threads, gpuLayers: gpuLayers}
}

func (a *llamaAdapter) Name() string { return "llama" }

func (a *llamaAdapter) Start(ctx context.Context, spec LoadSpec) (InferSession, error) {
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
