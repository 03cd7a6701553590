package manager

import (
	"context"
	"errors"

	"promptd/internal/credentials"
	"promptd/internal/device"
)

// SanityReport describes the runtime environment a load would see.
type SanityReport struct {
	Backend       string `json:"backend"`
	LlamaBuilt    bool   `json:"llama_built"`
	Accelerator   bool   `json:"accelerator"`
	Device        string `json:"device"`
	Format        string `json:"numeric_format"`
	TokenPresent  bool   `json:"token_present"`
	TokenRequired bool   `json:"token_required"`
	Error         string `json:"error,omitempty"`
}

// SanityCheck probes the device and credential source without loading
// anything. It does not mutate state and is safe to call at any time.
func (m *Manager) SanityCheck(ctx context.Context) SanityReport {
	l := m.loader
	r := SanityReport{Backend: l.adapter.Name(), LlamaBuilt: llamaBuilt, TokenRequired: l.tokenRequired()}
	avail, err := l.prober.AcceleratorAvailable()
	if err != nil {
		r.Error = err.Error()
	}
	p := device.ChooseExecutionProfile(avail)
	r.Accelerator, r.Device, r.Format = avail, p.Device, p.NumericFormat
	if _, err := l.creds.Token(ctx); err == nil {
		r.TokenPresent = true
	} else if !errors.Is(err, credentials.ErrNoToken) && r.Error == "" {
		r.Error = err.Error()
	}
	return r
}
