package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"promptd/internal/config"
)

// options holds the persistent flags. Only flags the user set override the
// config file and environment.
type options struct {
	configPath   string
	addr         string
	logLevel     string
	models       string
	defaultModel string
	modelsDir    string
	backend      string
	backendURL   string
	device       string
	requireToken bool
	dryRun       bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "promptd",
		Short:         "Load language models on demand and generate replies to prompts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Config file (.yaml, .yml, .json or .toml)")
	pf.StringVar(&opts.addr, "addr", config.DefaultAddr, "HTTP listen address, e.g. :8080")
	pf.StringVar(&opts.logLevel, "log-level", config.DefaultLogLevel, "Log level: debug|info|warn|error")
	pf.StringVar(&opts.models, "models", "", "Comma-separated allow-list of model ids")
	pf.StringVar(&opts.defaultModel, "default-model", "", "Default model id (defaults to the first listed)")
	pf.StringVar(&opts.modelsDir, "models-dir", "", "Directory to scan for *.gguf model files")
	pf.StringVar(&opts.backend, "backend", config.DefaultBackend, "Inference backend: openai|llama|echo")
	pf.StringVar(&opts.backendURL, "backend-url", "", "Base URL of an OpenAI-compatible server")
	pf.StringVar(&opts.device, "device", config.DefaultDevice, "Execution device: auto|cpu|cuda")
	pf.BoolVar(&opts.requireToken, "require-token", false, "Fail loads when no access token is configured (default true for the openai backend)")
	pf.BoolVar(&opts.dryRun, "dry-run", false, "Use the echo backend instead of a real model")

	root.AddCommand(newServeCmd(opts), newChatCmd(opts), newModelsCmd(opts), newDoctorCmd(opts))
	return root
}

// resolveConfig merges, in increasing precedence: config file, PROMPTD_*
// environment, explicitly set flags. Defaults fill what is left.
func resolveConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	var cfg config.Config
	if opts.configPath != "" {
		c, err := config.Load(opts.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = opts.addr
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("models") {
		cfg.Models = splitCSV(opts.models)
	}
	if flags.Changed("default-model") {
		cfg.DefaultModel = opts.defaultModel
	}
	if flags.Changed("models-dir") {
		cfg.ModelsDir = opts.modelsDir
	}
	if flags.Changed("backend") {
		cfg.Backend = opts.backend
	}
	if flags.Changed("backend-url") {
		cfg.BackendURL = opts.backendURL
	}
	if flags.Changed("device") {
		cfg.Device = opts.device
	}
	if flags.Changed("require-token") {
		required := opts.requireToken
		cfg.RequireToken = &required
	}
	if opts.dryRun {
		cfg.Backend = "echo"
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newLogger builds the root logger. console selects the human-readable writer.
func newLogger(level string, w io.Writer, console bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}
	if w == nil {
		w = os.Stderr
	}
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// splitCSV splits a comma-separated list, dropping blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
