package manager

import (
	"context"
	"time"
)

// EchoAdapter is a deterministic backend: it returns the prompt followed by
// Suffix, the way text-generation pipelines return the prompt plus the
// continuation. Used for demos and dry runs.
type EchoAdapter struct {
	Suffix string
	// Delay simulates generation time.
	Delay time.Duration
}

// NewEchoAdapter returns an EchoAdapter with a fixed suffix.
func NewEchoAdapter() *EchoAdapter {
	return &EchoAdapter{Suffix: "(echo backend: no model attached)", Delay: time.Millisecond}
}

func (a *EchoAdapter) Name() string { return "echo" }

func (a *EchoAdapter) Start(ctx context.Context, spec LoadSpec) (InferSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return echoSession{a: a}, nil
}

type echoSession struct{ a *EchoAdapter }

func (s echoSession) Generate(ctx context.Context, prompt string, params SamplingParams) (FinalResult, error) {
	if s.a.Delay > 0 {
		t := time.NewTimer(s.a.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return FinalResult{}, ctx.Err()
		}
	}
	out := prompt + " " + s.a.Suffix
	return FinalResult{Content: out, FinishReason: "stop"}, nil
}

func (s echoSession) Close() error { return nil }
