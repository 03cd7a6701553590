package manager

import (
	"context"
	"time"
)

// acquire takes the handle's single in-flight slot, waiting up to maxWait.
// Returns a release func to be deferred.
func (h *Handle) acquire(ctx context.Context, maxWait time.Duration) (func(), error) {
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}
	timer := time.NewTimer(maxWait)
	defer timer.Stop()
	select {
	case h.slot <- struct{}{}:
		return func() { <-h.slot }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{modelID: h.ID}
	}
}

// inflight reports whether a generation is running on the handle.
func (h *Handle) inflight() bool { return len(h.slot) > 0 }

func (h *Handle) close() error {
	if h.session == nil {
		return nil
	}
	return h.session.Close()
}
