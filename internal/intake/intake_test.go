package intake

import (
	"context"
	"testing"
	"time"

	"cyberguard/internal/hub"
	redisinput "cyberguard/internal/input/redis"
	"cyberguard/internal/notify"
	"cyberguard/internal/pipeline"
	"cyberguard/internal/store"
	"cyberguard/pkg/models"
)

type queuePopper struct {
	signals []*redisinput.Signal
}

func (q *queuePopper) Pop(ctx context.Context) (*redisinput.Signal, error) {
	if len(q.signals) == 0 {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	next := q.signals[0]
	q.signals = q.signals[1:]
	return next, nil
}

func testPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	h := hub.New(16)
	d := notify.NewDispatcher(notify.Config{Enabled: false}, nil)
	t.Cleanup(func() {
		d.Close()
		h.Close()
	})
	return pipeline.New(store.New(store.Config{}, nil), h, d, nil)
}

func runUntilDrained(t *testing.T, r *Runner) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	<-done
}

func TestRunnerIngestsBruteForceSignals(t *testing.T) {
	pipe := testPipeline(t)
	popper := &queuePopper{signals: []*redisinput.Signal{
		{Attempts: 5},
		{Attempts: 4},
	}}

	runUntilDrained(t, NewRunner(popper, pipe))

	recent := pipe.Recent(context.Background(), 10)
	if len(recent) != 2 {
		t.Fatalf("expected 2 ingested threats, got %d", len(recent))
	}
	for _, th := range recent {
		if th.Category != "Brute Force Authentication" {
			t.Fatalf("unexpected category: %s", th.Category)
		}
		if th.Severity != models.SeverityCritical && th.Severity != models.SeverityHigh {
			t.Fatalf("unexpected severity for brute force: %s", th.Severity)
		}
	}
}

func TestRunnerIgnoresBelowThresholdAndEmptyPops(t *testing.T) {
	pipe := testPipeline(t)
	popper := &queuePopper{signals: []*redisinput.Signal{
		{Attempts: 2},
		nil, // discarded or timed-out pop
		{Attempts: 3},
	}}

	runUntilDrained(t, NewRunner(popper, pipe))

	if stats := pipe.Stats(context.Background()); stats.Total != 1 {
		t.Fatalf("expected 1 committed threat, got %d", stats.Total)
	}
}
