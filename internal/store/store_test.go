package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"cyberguard/pkg/models"
)

type fakeDurable struct {
	mu      sync.Mutex
	failing bool
	inserts []*models.Threat
	nextID  int
}

func (f *fakeDurable) Insert(ctx context.Context, t *models.Threat) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return "", errors.New("connection refused")
	}
	f.inserts = append(f.inserts, t)
	f.nextID++
	return fmt.Sprintf("ext-%d", f.nextID), nil
}

func (f *fakeDurable) Recent(ctx context.Context, limit int) ([]*models.Threat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return nil, errors.New("connection refused")
	}
	out := make([]*models.Threat, 0, limit)
	for i := len(f.inserts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.inserts[i])
	}
	return out, nil
}

func (f *fakeDurable) Get(ctx context.Context, id string) (*models.Threat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return nil, errors.New("connection refused")
	}
	for _, t := range f.inserts {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeDurable) Stats(ctx context.Context) (models.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return models.Stats{}, errors.New("connection refused")
	}
	stats := models.Stats{Total: int64(len(f.inserts))}
	for _, t := range f.inserts {
		if t.Severity == models.SeverityCritical {
			stats.Critical++
		}
	}
	return stats, nil
}

func (f *fakeDurable) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("connection refused")
	}
	return nil
}

func (f *fakeDurable) Close() error { return nil }

func (f *fakeDurable) setFailing(failing bool) {
	f.mu.Lock()
	f.failing = failing
	f.mu.Unlock()
}

func newThreat(id string, sev models.Severity) *models.Threat {
	return &models.Threat{
		ID:              id,
		OccurredAt:      time.Now().UTC(),
		Score:           50,
		Severity:        sev,
		Category:        "Test",
		Description:     "test threat",
		Recommendations: []string{"do nothing"},
	}
}

func TestCommitConnectedSetsPersistedID(t *testing.T) {
	durable := &fakeDurable{}
	s := New(Config{}, durable)

	threat := newThreat("a", models.SeverityLow)
	mode := s.Commit(context.Background(), threat)

	if mode != ModeConnected {
		t.Fatalf("expected connected commit, got %s", mode)
	}
	if threat.PersistedID == "" {
		t.Fatalf("expected persisted id after connected commit")
	}
	if s.Mode() != ModeConnected {
		t.Fatalf("store should remain connected")
	}
}

func TestCommitFailureDegradesAndKeepsEvents(t *testing.T) {
	durable := &fakeDurable{failing: true}
	s := New(Config{}, durable)

	ids := []string{"a", "b", "c"}
	for _, id := range ids {
		mode := s.Commit(context.Background(), newThreat(id, models.SeverityLow))
		if mode != ModeDegraded {
			t.Fatalf("expected degraded commit for %s, got %s", id, mode)
		}
	}

	if s.Mode() != ModeDegraded {
		t.Fatalf("store should be degraded after a failed commit")
	}

	recent := s.Recent(context.Background(), 3)
	if len(recent) != 3 {
		t.Fatalf("expected 3 threats, got %d", len(recent))
	}
	for i, want := range []string{"c", "b", "a"} {
		if recent[i].ID != want {
			t.Fatalf("recent[%d] = %s, want %s (reverse-commit order)", i, recent[i].ID, want)
		}
		if recent[i].PersistedID != "" {
			t.Fatalf("degraded commit must not carry an external identifier")
		}
	}
}

func TestDegradedStoreDoesNotFlapBack(t *testing.T) {
	durable := &fakeDurable{failing: true}
	s := New(Config{}, durable)

	s.Commit(context.Background(), newThreat("a", models.SeverityLow))
	durable.setFailing(false)

	// Backend recovered, but without an explicit Reconnect commits stay local.
	s.Commit(context.Background(), newThreat("b", models.SeverityLow))
	if s.Mode() != ModeDegraded {
		t.Fatalf("store must not silently reconnect")
	}
	if len(durable.inserts) != 0 {
		t.Fatalf("degraded store wrote to durable backend")
	}

	if err := s.Reconnect(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if s.Mode() != ModeConnected {
		t.Fatalf("explicit reconnect should restore connected mode")
	}

	s.Commit(context.Background(), newThreat("c", models.SeverityLow))
	if len(durable.inserts) != 1 {
		t.Fatalf("expected durable write after reconnect, got %d", len(durable.inserts))
	}
}

func TestReconnectFailsWhileBackendDown(t *testing.T) {
	durable := &fakeDurable{failing: true}
	s := New(Config{}, durable)
	s.Commit(context.Background(), newThreat("a", models.SeverityLow))

	if err := s.Reconnect(context.Background()); err == nil {
		t.Fatalf("reconnect should fail while backend is down")
	}
	if s.Mode() != ModeDegraded {
		t.Fatalf("failed reconnect must leave the store degraded")
	}
}

func TestGetNotFoundDoesNotDegrade(t *testing.T) {
	durable := &fakeDurable{}
	s := New(Config{}, durable)

	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if s.Mode() != ModeConnected {
		t.Fatalf("a miss is not a backend failure; store degraded")
	}
}

func TestGetFromFallback(t *testing.T) {
	s := New(Config{}, nil)
	s.Commit(context.Background(), newThreat("a", models.SeverityHigh))

	got, err := s.Get(context.Background(), "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "a" {
		t.Fatalf("unexpected threat: %s", got.ID)
	}

	if _, err := s.Get(context.Background(), "zzz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatsCountLive(t *testing.T) {
	s := New(Config{}, nil)
	s.Commit(context.Background(), newThreat("a", models.SeverityLow))
	s.Commit(context.Background(), newThreat("b", models.SeverityCritical))
	s.Commit(context.Background(), newThreat("c", models.SeverityCritical))

	stats := s.Stats(context.Background())
	if stats.Total != 3 {
		t.Fatalf("total = %d, want 3", stats.Total)
	}
	if stats.Critical != 2 {
		t.Fatalf("critical = %d, want 2", stats.Critical)
	}
}

func TestMemoryCapacityEvictsOldest(t *testing.T) {
	s := New(Config{MemoryCapacity: 2}, nil)
	s.Commit(context.Background(), newThreat("a", models.SeverityLow))
	s.Commit(context.Background(), newThreat("b", models.SeverityLow))
	s.Commit(context.Background(), newThreat("c", models.SeverityLow))

	recent := s.Recent(context.Background(), 10)
	if len(recent) != 2 {
		t.Fatalf("expected 2 retained threats, got %d", len(recent))
	}
	if recent[0].ID != "c" || recent[1].ID != "b" {
		t.Fatalf("unexpected retention order: %s, %s", recent[0].ID, recent[1].ID)
	}
}

func TestConcurrentDegradedCommits(t *testing.T) {
	s := New(Config{MemoryCapacity: 1000}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				s.Commit(context.Background(), newThreat(fmt.Sprintf("%d-%d", n, j), models.SeverityLow))
			}
		}(i)
	}
	wg.Wait()

	if stats := s.Stats(context.Background()); stats.Total != 200 {
		t.Fatalf("total = %d, want 200", stats.Total)
	}
}
