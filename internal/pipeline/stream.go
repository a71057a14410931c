package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/company-k/purchasing-cli/internal/model"
)

// streamBuffer gives the run headroom to keep producing while a slow
// consumer catches up.
const streamBuffer = 64

// Stream executes a run on a background goroutine and returns an ordered
// event channel. The channel carries every progress event followed by
// exactly one terminal event (complete with the run result, or error with a
// message), then closes. The caller must drain the channel: abandoning the
// consumer does not cancel the run, so artifacts of a materialized run are
// still written after a disconnect.
func (p *Pipeline) Stream(ctx context.Context, content []byte, opts RunOptions) <-chan model.ProgressEvent {
	events := make(chan model.ProgressEvent, streamBuffer)
	go func() {
		defer close(events)
		// A panic anywhere in the run must still surface as the terminal
		// error event, so consumers never see the channel close silently.
		defer func() {
			if r := recover(); r != nil {
				zap.L().Error("pipeline: run panicked", zap.Any("panic", r))
				events <- model.ProgressEvent{
					Step:   model.StepError,
					Detail: map[string]any{"error": fmt.Sprintf("internal error: %v", r)},
				}
			}
		}()
		result, err := p.Run(ctx, content, opts, func(e model.ProgressEvent) {
			events <- e
		})
		if err != nil {
			events <- model.ProgressEvent{
				Step:   model.StepError,
				Detail: map[string]any{"error": err.Error()},
			}
			return
		}
		events <- model.ProgressEvent{
			Step:   model.StepComplete,
			Detail: map[string]any{"result": result},
		}
	}()
	return events
}
