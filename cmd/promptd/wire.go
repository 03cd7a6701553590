package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"promptd/internal/config"
	"promptd/internal/credentials"
	"promptd/internal/device"
	"promptd/internal/manager"
	"promptd/internal/registry"
)

// buildRegistry creates the allow-list and, when a models directory is
// configured, attaches local weight files to matching entries.
func buildRegistry(cfg config.Config, log zerolog.Logger) (*registry.Registry, error) {
	reg, err := registry.New(cfg.Models, cfg.DefaultModel)
	if err != nil {
		return nil, err
	}
	if cfg.ModelsDir == "" {
		return reg, nil
	}
	files, err := registry.LoadDir(cfg.ModelsDir)
	if err != nil {
		// a missing directory only matters to the llama backend
		log.Warn().Err(err).Str("dir", cfg.ModelsDir).Msg("models dir not scanned")
		return reg, nil
	}
	log.Debug().Int("files", len(files)).Str("dir", cfg.ModelsDir).Msg("models dir scanned")
	return reg.Attach(files, false), nil
}

// buildCredentials returns the token lookup chain: environment variable,
// dotenv file, secrets file.
func buildCredentials(cfg config.Config) credentials.Source {
	chain := credentials.Chain{credentials.Env{Var: cfg.TokenEnv}}
	if cfg.DotenvPath != "" {
		chain = append(chain, credentials.Dotenv{Path: cfg.DotenvPath, Var: cfg.TokenEnv})
	}
	if cfg.SecretsPath != "" {
		chain = append(chain, credentials.SecretsFile{Path: cfg.SecretsPath})
	}
	return chain
}

func buildAdapter(cfg config.Config) (manager.InferenceAdapter, error) {
	switch cfg.Backend {
	case "openai":
		var opts []manager.OpenAIOption
		if !cfg.TokenRequired() {
			opts = append(opts, manager.AllowAnonymous())
		}
		return manager.NewOpenAIAdapter(cfg.BackendURL, time.Duration(cfg.RequestTimeoutSeconds)*time.Second, 0, opts...), nil
	case "llama":
		return manager.NewLlamaAdapter(cfg.LlamaCtx, cfg.LlamaThreads, cfg.LlamaGPULayers), nil
	case "echo":
		return manager.NewEchoAdapter(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// buildManager wires every collaborator. pub receives load and generation
// notifications in addition to the log.
func buildManager(cfg config.Config, log zerolog.Logger, pub manager.EventPublisher) (*manager.Manager, error) {
	reg, err := buildRegistry(cfg, log)
	if err != nil {
		return nil, err
	}
	adapter, err := buildAdapter(cfg)
	if err != nil {
		return nil, err
	}
	prober, err := device.NewProber(cfg.Device)
	if err != nil {
		return nil, err
	}
	publishers := manager.MultiPublisher{manager.LogPublisher{Logger: log.With().Str("component", "events").Logger()}}
	if pub != nil {
		publishers = append(publishers, pub)
	}
	return manager.NewWithConfig(manager.ManagerConfig{
		Registry:     reg,
		Adapter:      adapter,
		Credentials:  buildCredentials(cfg),
		Prober:       prober,
		Publisher:    publishers,
		Sink:         manager.LogSink{Logger: log},
		Logger:       &log,
		RequireToken: cfg.TokenRequired(),
	})
}
