package source

import (
	"context"
	"math/rand"
	"time"

	"cyberguard/internal/logger"
	"cyberguard/internal/pipeline"
)

// GeneratorConfig controls the background generator cadence.
type GeneratorConfig struct {
	MinInterval time.Duration
	MaxInterval time.Duration
}

// Generator autonomously feeds random threats into the pipeline at
// randomized intervals.
type Generator struct {
	pipe *pipeline.Pipeline
	min  time.Duration
	max  time.Duration
	rng  *rand.Rand
}

// NewGenerator creates a background generator.
func NewGenerator(cfg GeneratorConfig, pipe *pipeline.Pipeline) *Generator {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 10 * time.Second
	}
	if cfg.MaxInterval < cfg.MinInterval {
		cfg.MaxInterval = cfg.MinInterval + 20*time.Second
	}
	return &Generator{
		pipe: pipe,
		min:  cfg.MinInterval,
		max:  cfg.MaxInterval,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run emits threats until ctx is cancelled. Each ingest is atomic: shutdown
// waits out the in-flight call, never leaving a commit half-applied.
func (g *Generator) Run(ctx context.Context) {
	logger.Infof("Background threat generator started")
	timer := time.NewTimer(g.interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Infof("Background threat generator stopped")
			return
		case <-timer.C:
		}

		in := Random(g.rng)
		if res, err := g.pipe.Ingest(ctx, in); err != nil {
			logger.Errorf("Generator ingest failed: %v", err)
		} else {
			logger.Debugf("Generated background threat %s (%s)", res.Threat.ID, res.Threat.Category)
		}

		timer.Reset(g.interval())
	}
}

func (g *Generator) interval() time.Duration {
	span := g.max - g.min
	if span <= 0 {
		return g.min
	}
	return g.min + time.Duration(g.rng.Int63n(int64(span)))
}
