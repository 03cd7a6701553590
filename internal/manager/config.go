package manager

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"promptd/internal/credentials"
	"promptd/internal/device"
	"promptd/internal/registry"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMaxWait = 5 * time.Minute
)

// ManagerConfig encapsulates all collaborators and tunables for Manager
// construction. Only Registry and Adapter are required.
type ManagerConfig struct {
	Registry *registry.Registry
	Adapter  InferenceAdapter
	// Cache is owned by the caller when provided; otherwise a private cache is
	// created and closed by Manager.Close.
	Cache        *ModelCache
	Credentials  credentials.Source
	Prober       device.Prober
	Publisher    EventPublisher
	Sink         ResultSink
	Logger       *zerolog.Logger
	RequireToken bool
	// MaxWait bounds how long a generation waits for a busy handle.
	MaxWait time.Duration
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) (*Manager, error) {
	if cfg.Registry == nil {
		return nil, errors.New("manager: registry is required")
	}
	if cfg.Adapter == nil {
		return nil, errors.New("manager: inference adapter is required")
	}
	m := &Manager{registry: cfg.Registry, startTime: time.Now()}
	// Apply defaults if unset
	cache := cfg.Cache
	if cache == nil {
		cache = NewModelCache()
		m.ownsCache = true
	}
	creds := cfg.Credentials
	if creds == nil {
		creds = credentials.Static("")
	}
	prober := cfg.Prober
	if prober == nil {
		prober = device.HostProber{}
	}
	pub := cfg.Publisher
	if pub == nil {
		pub = noopPublisher{}
	}
	sink := cfg.Sink
	if sink == nil {
		sink = noopSink{}
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	maxWait := cfg.MaxWait
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}

	m.cache = cache
	m.loader = &Loader{
		registry:     cfg.Registry,
		cache:        cache,
		adapter:      cfg.Adapter,
		creds:        creds,
		prober:       prober,
		publisher:    pub,
		log:          log.With().Str("component", "loader").Logger(),
		requireToken: cfg.RequireToken,
	}
	m.engine = &Engine{
		params:    DefaultSampling,
		maxWait:   maxWait,
		publisher: pub,
		sink:      sink,
		log:       log.With().Str("component", "engine").Logger(),
	}
	return m, nil
}
