package httpapi

import (
	"sync"

	"golang.org/x/time/rate"
)

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// generateTimeout bounds a /generate or /load request. Zero means no
// additional timeout beyond server/connection timeouts.
var generateTimeout = int64(0) // seconds

// SetGenerateTimeoutSeconds sets the request timeout in seconds (0 disables).
func SetGenerateTimeoutSeconds(sec int64) {
	if sec < 0 {
		sec = 0
	}
	generateTimeout = sec
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// generateLimiter throttles /generate; nil means unlimited.
var (
	limiterMu       sync.RWMutex
	generateLimiter *rate.Limiter
)

// SetGenerateRateLimit installs a token bucket of rps requests per second with
// the given burst for /generate. rps <= 0 disables limiting.
func SetGenerateRateLimit(rps float64, burst int) {
	limiterMu.Lock()
	defer limiterMu.Unlock()
	if rps <= 0 {
		generateLimiter = nil
		return
	}
	if burst <= 0 {
		burst = 1
	}
	generateLimiter = rate.NewLimiter(rate.Limit(rps), burst)
}

func currentLimiter() *rate.Limiter {
	limiterMu.RLock()
	defer limiterMu.RUnlock()
	return generateLimiter
}
