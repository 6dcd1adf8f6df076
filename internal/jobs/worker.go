package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// JobProcessor runs one round of background work.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker runs a JobProcessor once at start and then on every tick.
type Worker struct {
	processor    JobProcessor
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
}

func NewWorker(processor JobProcessor, pollInterval time.Duration) *Worker {
	return &Worker{
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start blocks until ctx is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Info().Dur("interval", w.pollInterval).Msg("worker started")
	w.run(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker stopped: context cancelled")
			return
		case <-w.stopChan:
			log.Info().Msg("worker stopped: stop signal received")
			return
		case <-ticker.C:
			w.run(ctx)
		}
	}
}

func (w *Worker) run(ctx context.Context) {
	if err := w.processor.ProcessJobs(ctx); err != nil {
		log.Error().Err(err).Msg("background job failed")
	}
}

// Stop signals the loop and waits for it to exit. It must be called at most
// once, after Start.
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Info().Msg("worker shutdown complete")
}
