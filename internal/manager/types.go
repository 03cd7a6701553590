package manager

import (
	"time"

	"promptd/internal/device"
)

// NotLoadedReply is returned in place of a reply when no handle is available.
const NotLoadedReply = "model not loaded, cannot generate a reply"

// errorReplyPrefix prefixes the cause in soft-failure replies.
const errorReplyPrefix = "an error occurred: "

// SamplingParams are the generation parameters passed to a backend.
type SamplingParams struct {
	MaxNewTokens int
	DoSample     bool
	Temperature  float32
	TopP         float32
}

// DefaultSampling is used for every generation.
var DefaultSampling = SamplingParams{
	MaxNewTokens: 512,
	DoSample:     true,
	Temperature:  0.7,
	TopP:         0.9,
}

// Handle is a loaded, ready-to-invoke model. It is created once per model id
// by the Loader, owned by the ModelCache and never mutated after creation.
type Handle struct {
	ID       string
	Profile  device.Profile
	LoadedAt time.Time

	session InferSession
	// size 1: single in-flight generation per handle
	slot chan struct{}
}

func newHandle(id string, profile device.Profile, sess InferSession) *Handle {
	return &Handle{
		ID:       id,
		Profile:  profile,
		LoadedAt: time.Now(),
		session:  sess,
		slot:     make(chan struct{}, 1),
	}
}

// Result is the outcome of one generation. Err is set on soft failures; Reply
// then carries the user-facing message and Latency is zero.
type Result struct {
	ID      string
	ModelID string
	Prompt  string
	Reply   string
	Latency time.Duration
	Err     error
}

// LatencySeconds returns Latency in seconds.
func (r Result) LatencySeconds() float64 { return r.Latency.Seconds() }

// OK reports whether the result carries a real reply.
func (r Result) OK() bool { return r.Err == nil && r.Reply != NotLoadedReply }
