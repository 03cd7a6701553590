package manager

import "github.com/rs/zerolog"

// LogPublisher writes events to a zerolog logger.
type LogPublisher struct {
	Logger zerolog.Logger
}

func (p LogPublisher) Publish(e Event) {
	var ev *zerolog.Event
	switch e.Level {
	case LevelError:
		ev = p.Logger.Error()
	default:
		ev = p.Logger.Info()
	}
	ev = ev.Str("event", e.Name).Str("level_hint", string(e.Level))
	if e.ModelID != "" {
		ev = ev.Str("model", e.ModelID)
	}
	if len(e.Fields) > 0 {
		ev = ev.Fields(e.Fields)
	}
	ev.Msg(e.Message)
}
