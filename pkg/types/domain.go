package types

// Model describes one selectable model identifier from the allow-list.
type Model struct {
	// Stable identifier for the model; this is what clients send back.
	// example: gpt2
	ID string `json:"id" example:"gpt2"`
	// Human-friendly name.
	// example: GPT-2 (124M)
	Name string `json:"name" example:"GPT-2 (124M)"`
	// Absolute path to a local weights file, when the backend loads from disk.
	// example: /home/user/models/gpt2.Q4_K_M.gguf
	Path string `json:"path,omitempty" example:"/home/user/models/gpt2.Q4_K_M.gguf"`
	// Size of the local weights file in bytes (0 when unknown or remote).
	// example: 81000000
	SizeBytes int64 `json:"size_bytes,omitempty" example:"81000000"`
	// Whether this identifier is the configured default.
	// example: true
	Default bool `json:"default,omitempty" example:"true"`
}
