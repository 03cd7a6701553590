//go:build llama

package manager

import (
	"context"
	"errors"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = true

// llamaAdapter holds global config used to initialize a model instance.
type llamaAdapter struct {
	ctxSize   int
	threads   int
	gpuLayers int
}

// NewLlamaAdapter returns the in-process go-llama.cpp backend. gpuLayers is
// the number of layers offloaded when the accelerator profile is chosen.
func NewLlamaAdapter(ctxSize, threads, gpuLayers int) InferenceAdapter {
	return &llamaAdapter{ctxSize: ctxSize, threads: threads, gpuLayers: gpuLayers}
}

func (a *llamaAdapter) Name() string { return "llama" }

// llamaSession owns the loaded model. go-llama.cpp contexts are not safe for
// concurrent prediction, so Generate holds mu.
type llamaSession struct {
	mu      sync.Mutex
	model   *llama.LLama
	threads int
}

func (a *llamaAdapter) Start(ctx context.Context, spec LoadSpec) (InferSession, error) {
	if strings.TrimSpace(spec.Path) == "" {
		return nil, errors.New("no local weights file for model " + spec.ModelID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mo := []llama.ModelOption{
		llama.SetContext(a.ctxSize),
	}
	if spec.Profile.Accelerated() {
		mo = append(mo, llama.SetGPULayers(zn(a.gpuLayers, 999)), llama.EnableF16Memory)
	}
	m, err := llama.New(spec.Path, mo...)
	if err != nil {
		return nil, err
	}
	return &llamaSession{model: m, threads: a.threads}, nil
}

func (s *llamaSession) Generate(ctx context.Context, prompt string, params SamplingParams) (FinalResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return FinalResult{}, errors.New("llama model not initialized")
	}
	// Stop generation when the context is canceled.
	s.model.SetTokenCallback(func(string) bool {
		return ctx.Err() == nil
	})
	text, err := s.model.Predict(prompt, mapSamplingToPredictOptions(params, s.threads)...)
	if err != nil {
		if ctx.Err() != nil {
			return FinalResult{}, ctx.Err()
		}
		return FinalResult{}, err
	}
	if ctx.Err() != nil {
		return FinalResult{}, ctx.Err()
	}
	return FinalResult{Content: text, FinishReason: "stop"}, nil
}

func (s *llamaSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model != nil {
		s.model.Free()
		s.model = nil
	}
	return nil
}

func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// mapSamplingToPredictOptions converts sampling params into go-llama.cpp options.
func mapSamplingToPredictOptions(p SamplingParams, threads int) []llama.PredictOption {
	temp := p.Temperature
	if !p.DoSample {
		temp = 0
	}
	return []llama.PredictOption{
		llama.SetTokens(zn(p.MaxNewTokens, 1)),
		llama.SetThreads(zn(threads, 1)),
		llama.SetTopP(p.TopP),
		llama.SetTopK(llama.DefaultOptions.TopK),
		llama.SetTemperature(temp),
		llama.SetPenalty(llama.DefaultOptions.Penalty),
	}
}
