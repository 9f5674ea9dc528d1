package orchestrator

import (
	"context"
	"fmt"

	"github.com/dusk-indust/ensemble/internal/llm"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrorText renders a failed model call as the text of its response slot.
func ErrorText(model string, err error) string {
	return fmt.Sprintf("[Error from %s]: %v", model, err)
}

// FanOut sends one prompt to several models in parallel and collects one
// ModelResponse per model. A failing model never affects its siblings.
type FanOut struct {
	backend    llm.Backend
	onProgress func(ProgressEvent)
	logger     *zap.Logger
}

// NewFanOut creates a FanOut that dispatches through backend.
// onProgress is called from each worker goroutine; it may be nil.
func NewFanOut(backend llm.Backend, onProgress func(ProgressEvent), logger *zap.Logger) *FanOut {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FanOut{
		backend:    backend,
		onProgress: onProgress,
		logger:     logger,
	}
}

// Query dispatches prompt to every model and waits for all of them.
//
// The worker pool is sized to len(models), so every call is in flight
// before any result is awaited. Results keep the order of models. Errors
// are recorded in the model's slot as ErrorText and never returned; the
// plain errgroup (no derived context) keeps one failure from cancelling
// the others.
func (f *FanOut) Query(ctx context.Context, prompt string, models []string, maxTokens int) []ModelResponse {
	results := make([]ModelResponse, len(models))
	if len(models) == 0 {
		return results
	}

	var g errgroup.Group
	g.SetLimit(len(models))

	for i, model := range models {
		f.emit(ProgressEvent{Step: StepQuery, Model: model, Status: ProgressPending})

		g.Go(func() error {
			f.emit(ProgressEvent{Step: StepQuery, Model: model, Status: ProgressWorking})

			text, err := f.backend.Chat(ctx, model, prompt, maxTokens)
			if err != nil {
				f.logger.Warn("model call failed",
					zap.String("backend", f.backend.Name()),
					zap.String("model", model),
					zap.Error(err))
				results[i] = ModelResponse{Model: model, Text: ErrorText(model, err)}
				f.emit(ProgressEvent{Step: StepQuery, Model: model, Status: ProgressFailed, Message: err.Error()})
				return nil
			}

			results[i] = ModelResponse{Model: model, Text: text}
			f.emit(ProgressEvent{Step: StepQuery, Model: model, Status: ProgressComplete})
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// emit sends a progress event if a callback is registered.
func (f *FanOut) emit(ev ProgressEvent) {
	if f.onProgress != nil {
		f.onProgress(ev)
	}
}
