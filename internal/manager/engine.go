package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Engine invokes handles and turns their output into user-facing replies.
// It is stateless apart from its collaborators.
type Engine struct {
	params    SamplingParams
	maxWait   time.Duration
	publisher EventPublisher
	sink      ResultSink
	log       zerolog.Logger
}

// Generate produces a reply for prompt. It never returns an error and never
// panics: a nil handle yields NotLoadedReply with zero latency, and a runtime
// failure yields an error description with zero latency and Err set.
func (e *Engine) Generate(ctx context.Context, h *Handle, prompt string) Result {
	res := Result{ID: uuid.NewString(), Prompt: prompt}
	defer func() { e.handOff(res) }()

	if h == nil {
		res.Reply = NotLoadedReply
		generationsTotal.WithLabelValues("not_loaded").Inc()
		return res
	}
	res.ModelID = h.ID

	start := time.Now()
	raw, err := e.invoke(ctx, h, prompt)
	if err != nil {
		gerr := &GenerationError{ID: h.ID, Cause: err}
		res.Reply = errorReplyPrefix + err.Error()
		res.Err = gerr
		generationsTotal.WithLabelValues("error").Inc()
		e.log.Error().Str("model", h.ID).Err(err).Msg("generation failed")
		e.publish(Event{
			Name:    "generate_failed",
			Level:   LevelError,
			ModelID: h.ID,
			Message: "An error occurred while generating a reply: " + err.Error(),
			Fields:  map[string]any{"error": err.Error()},
		})
		return res
	}
	res.Reply = ExtractReply(raw, prompt)
	res.Latency = time.Since(start)
	generationsTotal.WithLabelValues("ok").Inc()
	generationSeconds.WithLabelValues(h.ID).Observe(res.Latency.Seconds())
	e.log.Debug().Str("model", h.ID).Dur("latency", res.Latency).
		Int("raw_len", len(raw)).Int("reply_len", len(res.Reply)).Msg("generation done")
	return res
}

// invoke runs the backend under the handle's in-flight slot and converts
// panics into errors.
func (e *Engine) invoke(ctx context.Context, h *Handle, prompt string) (raw string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if h.session == nil {
		return "", errors.New("handle has no session")
	}
	release, err := h.acquire(ctx, e.maxWait)
	if err != nil {
		return "", err
	}
	defer release()
	final, err := h.session.Generate(ctx, prompt, e.params)
	if err != nil {
		return "", err
	}
	return final.Content, nil
}

func (e *Engine) handOff(r Result) {
	defer func() { _ = recover() }()
	e.sink.HandOff(r)
}

func (e *Engine) publish(ev Event) {
	defer func() { _ = recover() }()
	e.publisher.Publish(ev)
}
