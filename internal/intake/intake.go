// Package intake feeds externally queued raw signals into the pipeline.
package intake

import (
	"context"
	"math/rand"
	"time"

	redisinput "cyberguard/internal/input/redis"
	"cyberguard/internal/logger"
	"cyberguard/internal/pipeline"
	"cyberguard/internal/source"
)

// Popper yields decoded signals. A nil signal with nil error means nothing
// usable was queued within the block window.
type Popper interface {
	Pop(ctx context.Context) (*redisinput.Signal, error)
}

// Runner pops signals and runs the resulting threats through the pipeline.
type Runner struct {
	consumer Popper
	pipe     *pipeline.Pipeline
	rng      *rand.Rand
}

// NewRunner creates an intake runner.
func NewRunner(consumer Popper, pipe *pipeline.Pipeline) *Runner {
	return &Runner{
		consumer: consumer,
		pipe:     pipe,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run consumes signals until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	logger.Infof("Signal intake started")
	for {
		sig, err := r.consumer.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Infof("Signal intake stopped")
				return
			}
			logger.Errorf("Failed to pop signal: %v", err)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if sig == nil {
			if ctx.Err() != nil {
				logger.Infof("Signal intake stopped")
				return
			}
			continue
		}

		r.handle(ctx, sig)
	}
}

func (r *Runner) handle(ctx context.Context, sig *redisinput.Signal) {
	in, ok := source.FromFailedLogins(r.rng, sig.Attempts)
	if !ok {
		logger.Debugf("Signal below threat threshold (attempts=%d)", sig.Attempts)
		return
	}

	res, err := r.pipe.Ingest(ctx, in)
	if err != nil {
		logger.Errorf("Signal ingest failed: %v", err)
		return
	}
	logger.Infof("Signal produced threat %s (score %d)", res.Threat.ID, res.Threat.Score)
}
