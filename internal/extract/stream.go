package extract

import (
	"context"

	"github.com/mcdonaldj/gunzip/internal/model"
)

// progressBuffer bounds the number of undelivered progress events.
const progressBuffer = 64

// Run is an extraction running on its own goroutine.
type Run struct {
	progress chan model.Progress
	done     chan struct{}
	result   Result
	err      error
}

// Extract starts an extraction in the background. The progress channel is
// closed after the terminal event.
func (s *Service) Extract(ctx context.Context, archivePath string, opts Options) *Run {
	r := &Run{
		progress: make(chan model.Progress, progressBuffer),
		done:     make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		defer close(r.progress)
		r.result, r.err = s.Run(ctx, archivePath, opts, r.publish(ctx))
	}()
	return r
}

// publish sends events to the channel. Terminal events are still delivered
// after cancellation when there is buffer room.
func (r *Run) publish(ctx context.Context) Observer {
	return func(p model.Progress) {
		if !p.Stage.Terminal() {
			select {
			case r.progress <- p:
			case <-ctx.Done():
			}
			return
		}
		if ctx.Err() == nil {
			select {
			case r.progress <- p:
				return
			case <-ctx.Done():
			}
		}
		select {
		case r.progress <- p:
		default:
		}
	}
}

// Progress returns the event stream for this run.
func (r *Run) Progress() <-chan model.Progress {
	return r.progress
}

// Wait drains any unread progress and returns the outcome.
func (r *Run) Wait() (Result, error) {
	for range r.progress {
	}
	<-r.done
	return r.result, r.err
}
