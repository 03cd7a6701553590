package manager

import (
	"time"

	"promptd/pkg/types"
)

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	l := m.loader
	l.mu.Lock()
	resp := types.StatusResponse{
		Backend:           l.adapter.Name(),
		DefaultModel:      m.registry.Default(),
		LastError:         l.lastError,
		LoadsTotal:        l.loads,
		LoadFailuresTotal: l.failures,
	}
	l.mu.Unlock()
	now := time.Now()
	resp.UptimeSeconds = int64(now.Sub(m.startTime) / time.Second)
	resp.ServerTimeUnix = now.Unix()
	hs := m.cache.Handles()
	resp.Handles = make([]types.HandleStatus, 0, len(hs))
	for _, h := range hs {
		resp.Handles = append(resp.Handles, types.HandleStatus{
			ModelID:       h.ID,
			Device:        h.Profile.Device,
			NumericFormat: h.Profile.NumericFormat,
			LoadedAt:      h.LoadedAt.Unix(),
			Inflight:      h.inflight(),
		})
	}
	return resp
}
