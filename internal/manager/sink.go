package manager

import "github.com/rs/zerolog"

// ResultSink receives every generation result for persistence (history,
// feedback). Storage is owned by the caller; HandOff must not block for long.
type ResultSink interface {
	HandOff(Result)
}

type noopSink struct{}

func (noopSink) HandOff(Result) {}

// LogSink records hand-offs at debug level.
type LogSink struct {
	Logger zerolog.Logger
}

func (s LogSink) HandOff(r Result) {
	ev := s.Logger.Debug().
		Str("id", r.ID).
		Str("model", r.ModelID).
		Int("prompt_len", len(r.Prompt)).
		Int("reply_len", len(r.Reply)).
		Float64("latency_s", r.LatencySeconds())
	if r.Err != nil {
		ev = ev.AnErr("soft_error", r.Err)
	}
	ev.Msg("generation handed off")
}
