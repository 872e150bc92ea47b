package source

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"cyberguard/internal/hub"
	"cyberguard/internal/notify"
	"cyberguard/internal/pipeline"
	"cyberguard/internal/store"
)

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

func TestBruteForceInputShape(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		in := BruteForce(rng)
		if in.Score < 85 || in.Score > 99 {
			t.Fatalf("brute force score %d outside [85,99]", in.Score)
		}
		if in.Category != "Brute Force Authentication" {
			t.Fatalf("unexpected category: %s", in.Category)
		}
		if len(in.Recommendations) != 5 {
			t.Fatalf("expected 5 recommendations, got %d", len(in.Recommendations))
		}
		if in.Factors["frequency"] != 5 || in.Factors["temporal"] != 4 {
			t.Fatalf("unexpected factors: %v", in.Factors)
		}
	}
}

func TestFromFailedLoginsThreshold(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	if _, ok := FromFailedLogins(rng, 2); ok {
		t.Fatalf("2 attempts should not be a threat")
	}
	in, ok := FromFailedLogins(rng, 3)
	if !ok {
		t.Fatalf("3 attempts should be a threat")
	}
	if in.Score < 85 {
		t.Fatalf("brute force score %d too low", in.Score)
	}
}

func TestRandomInputIsAlwaysValid(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	pipe := testPipeline(t)
	for i := 0; i < 200; i++ {
		in := Random(rng)
		if in.Score < 40 || in.Score > 95 {
			t.Fatalf("random score %d outside [40,95]", in.Score)
		}
		if n := len(in.Recommendations); n < 3 || n > 5 {
			t.Fatalf("random recommendations count %d outside [3,5]", n)
		}
		if in.Confidence < 80 || in.Confidence >= 99.5 {
			t.Fatalf("confidence %f out of range", in.Confidence)
		}
		if _, err := pipe.Ingest(context.Background(), in); err != nil {
			t.Fatalf("generated input rejected by pipeline: %v", err)
		}
	}
}

func TestGeneratorStopsCleanlyAndIngests(t *testing.T) {
	pipe := testPipeline(t)
	g := NewGenerator(GeneratorConfig{MinInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}, pipe)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("generator did not stop on cancel")
	}

	if stats := pipe.Stats(context.Background()); stats.Total == 0 {
		t.Fatalf("generator never ingested a threat")
	}
}
