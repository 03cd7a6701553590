package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. PROMPTD_ADDR.
const EnvPrefix = "promptd"

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr     string `json:"addr" yaml:"addr" toml:"addr" split_words:"true"`
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level" split_words:"true"`

	// Allow-list of model identifiers, in display order.
	Models       []string `json:"models" yaml:"models" toml:"models" split_words:"true"`
	DefaultModel string   `json:"default_model" yaml:"default_model" toml:"default_model" split_words:"true"`
	// Optional directory scanned for *.gguf files (llama backend).
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir" split_words:"true"`

	// Backend is one of: openai, llama, echo.
	Backend    string `json:"backend" yaml:"backend" toml:"backend" split_words:"true"`
	BackendURL string `json:"backend_url" yaml:"backend_url" toml:"backend_url" split_words:"true"`

	// Credential source settings.
	TokenEnv     string `json:"token_env" yaml:"token_env" toml:"token_env" split_words:"true"`
	DotenvPath   string `json:"dotenv_path" yaml:"dotenv_path" toml:"dotenv_path" split_words:"true"`
	SecretsPath  string `json:"secrets_path" yaml:"secrets_path" toml:"secrets_path" split_words:"true"`
	// RequireToken fails loads that have no access token. Unset means true
	// for the openai backend and false for local backends.
	RequireToken *bool `json:"require_token" yaml:"require_token" toml:"require_token" split_words:"true"`

	// Device is auto, cpu or cuda.
	Device         string `json:"device" yaml:"device" toml:"device" split_words:"true"`
	LlamaCtx       int    `json:"llama_ctx" yaml:"llama_ctx" toml:"llama_ctx" split_words:"true"`
	LlamaThreads   int    `json:"llama_threads" yaml:"llama_threads" toml:"llama_threads" split_words:"true"`
	LlamaGPULayers int    `json:"llama_gpu_layers" yaml:"llama_gpu_layers" toml:"llama_gpu_layers" split_words:"true"`

	// HTTP shell.
	RequestTimeoutSeconds int      `json:"request_timeout_seconds" yaml:"request_timeout_seconds" toml:"request_timeout_seconds" split_words:"true"`
	GenerateRPS           float64  `json:"generate_rps" yaml:"generate_rps" toml:"generate_rps" split_words:"true"`
	GenerateBurst         int      `json:"generate_burst" yaml:"generate_burst" toml:"generate_burst" split_words:"true"`
	CORSOrigins           []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins" split_words:"true"`
}

// Defaults.
const (
	DefaultAddr       = ":8080"
	DefaultLogLevel   = "info"
	DefaultBackend    = "openai"
	DefaultBackendURL = "http://127.0.0.1:8081/v1"
	DefaultTokenEnv   = "HF_TOKEN"
	DefaultDevice     = "auto"
	DefaultLlamaCtx   = 2048
)

// DefaultModels is the allow-list used when none is configured. The first
// entry is the default model.
var DefaultModels = []string{
	"google/gemma-2-2b-jpn-it",
	"gpt2",
	"gpt2-medium",
	"distilgpt2",
	"meta-llama/Llama-2-7b-chat-hf",
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyEnv overlays PROMPTD_* environment variables onto cfg, with field
// names split on word boundaries (LlamaGPULayers -> PROMPTD_LLAMA_GPU_LAYERS).
// Unset variables leave the existing value untouched.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("env overrides: %w", err)
	}
	return nil
}

// WithDefaults returns a copy of cfg with unset fields filled in.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if len(c.Models) == 0 {
		c.Models = append([]string(nil), DefaultModels...)
	}
	if c.DefaultModel == "" && len(c.Models) > 0 {
		c.DefaultModel = c.Models[0]
	}
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	if c.BackendURL == "" && c.Backend == "openai" {
		c.BackendURL = DefaultBackendURL
	}
	if c.RequireToken == nil {
		required := c.Backend == "openai"
		c.RequireToken = &required
	}
	if c.TokenEnv == "" {
		c.TokenEnv = DefaultTokenEnv
	}
	if c.Device == "" {
		c.Device = DefaultDevice
	}
	if c.LlamaCtx <= 0 {
		c.LlamaCtx = DefaultLlamaCtx
	}
	return c
}

// TokenRequired reports the effective RequireToken setting.
func (c Config) TokenRequired() bool {
	return c.RequireToken != nil && *c.RequireToken
}

// Validate checks cross-field constraints on a defaulted config.
func (c Config) Validate() error {
	switch c.Backend {
	case "openai", "llama", "echo":
	default:
		return fmt.Errorf("unknown backend %q (expected openai, llama or echo)", c.Backend)
	}
	switch c.Device {
	case "auto", "cpu", "cuda":
	default:
		return fmt.Errorf("unknown device %q (expected auto, cpu or cuda)", c.Device)
	}
	if len(c.Models) == 0 {
		return fmt.Errorf("no models configured")
	}
	found := false
	for _, m := range c.Models {
		if m == c.DefaultModel {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("default model %q is not in the models list", c.DefaultModel)
	}
	if c.GenerateRPS < 0 {
		return fmt.Errorf("generate_rps must be >= 0")
	}
	return nil
}
