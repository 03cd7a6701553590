package types

// GenerateRequest is the payload for POST /generate.
type GenerateRequest struct {
	// Optional model identifier. If empty or not in the allow-list, the default is used.
	// example: gpt2
	Model string `json:"model,omitempty" example:"gpt2"`
	// Required prompt text.
	// example: What is the capital of France?
	Prompt string `json:"prompt" example:"What is the capital of France?"`
}

// GenerateResponse carries the reply and its latency. Soft failures (model
// unavailable, runtime error) are still returned here with Error set.
type GenerateResponse struct {
	// Unique id of this generation, usable as a history key.
	// example: 6f1c2a9e-3b7d-4c55-9b0e-2f1d8c7a4e10
	ID string `json:"id" example:"6f1c2a9e-3b7d-4c55-9b0e-2f1d8c7a4e10"`
	// Model that served (or would have served) the request.
	// example: gpt2
	Model string `json:"model" example:"gpt2"`
	// Prompt as received.
	Prompt string `json:"prompt"`
	// Reply text with any echoed prompt removed.
	// example: Paris.
	Reply string `json:"reply" example:"Paris."`
	// Wall-clock generation time in seconds (0 on failure).
	// example: 1.42
	LatencySeconds float64 `json:"latency_seconds" example:"1.42"`
	// Human-readable failure cause, when the reply is a soft failure.
	Error string `json:"error,omitempty"`
}

// LoadRequest is the payload for POST /load.
type LoadRequest struct {
	// example: gpt2
	Model string `json:"model" example:"gpt2"`
}

// LoadResponse describes a ready handle.
type LoadResponse struct {
	// example: gpt2
	Model string `json:"model" example:"gpt2"`
	// Execution device chosen at load time.
	// example: cuda
	Device string `json:"device" example:"cuda"`
	// Numeric format used for weights/activations.
	// example: bf16
	NumericFormat string `json:"numeric_format" example:"bf16"`
	// Load time (unix seconds).
	// example: 1700000000
	LoadedAt int64 `json:"loaded_at_unix" example:"1700000000"`
}

// ModelsResponse wraps the allow-list returned by GET /models.
type ModelsResponse struct {
	// Candidates in configured order.
	Models []Model `json:"models"`
	// Default identifier.
	// example: gpt2
	Default string `json:"default" example:"gpt2"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// HandleStatus summarizes one cached handle for /status.
type HandleStatus struct {
	// example: gpt2
	ModelID string `json:"model_id" example:"gpt2"`
	// example: cpu
	Device string `json:"device" example:"cpu"`
	// example: default
	NumericFormat string `json:"numeric_format" example:"default"`
	// example: 1700000000
	LoadedAt int64 `json:"loaded_at_unix" example:"1700000000"`
	// Whether a generation is currently running on this handle.
	// example: false
	Inflight bool `json:"inflight" example:"false"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Cached handles.
	Handles []HandleStatus `json:"handles"`
	// Configured backend name.
	// example: openai
	Backend string `json:"backend" example:"openai"`
	// Default model id.
	// example: gpt2
	DefaultModel string `json:"default_model" example:"gpt2"`
	// Last load error observed (if any).
	LastError string `json:"last_error,omitempty"`
	// Total successful model loads.
	// example: 2
	LoadsTotal uint64 `json:"loads_total" example:"2"`
	// Total failed model loads.
	// example: 0
	LoadFailuresTotal uint64 `json:"load_failures_total" example:"0"`
	// Uptime in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
