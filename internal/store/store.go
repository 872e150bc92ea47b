// Package store persists committed threats, falling back to a bounded
// in-memory buffer whenever the durable backend fails.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"cyberguard/internal/logger"
	"cyberguard/internal/metrics"
	"cyberguard/pkg/models"
)

// Mode is the operating mode of the store.
type Mode string

const (
	// ModeConnected means commits go to the durable backend.
	ModeConnected Mode = "connected"
	// ModeDegraded means commits go to the in-memory fallback only.
	ModeDegraded Mode = "degraded"
)

// ErrNotFound is returned when a threat id is unknown.
var ErrNotFound = errors.New("threat not found")

// Durable is a durable threat backend.
type Durable interface {
	// Insert writes one threat and returns its external identifier.
	Insert(ctx context.Context, t *models.Threat) (string, error)
	// Recent returns up to limit threats, most recent first.
	Recent(ctx context.Context, limit int) ([]*models.Threat, error)
	// Get returns the threat with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Threat, error)
	// Stats returns live aggregate counts.
	Stats(ctx context.Context) (models.Stats, error)
	// Ping checks backend reachability.
	Ping(ctx context.Context) error
	Close() error
}

// Config controls store behavior.
type Config struct {
	CommitTimeout  time.Duration
	MemoryCapacity int
}

// Store wraps a durable backend with an in-memory fallback. The mode flag
// only moves connected -> degraded at runtime; the way back is an explicit
// Reconnect.
type Store struct {
	mu      sync.Mutex
	mode    Mode
	ring    *ring
	durable Durable
	timeout time.Duration
}

// New creates a store. A nil durable backend starts the store degraded.
func New(cfg Config, durable Durable) *Store {
	if cfg.CommitTimeout <= 0 {
		cfg.CommitTimeout = 5 * time.Second
	}
	if cfg.MemoryCapacity <= 0 {
		cfg.MemoryCapacity = 500
	}

	mode := ModeConnected
	if durable == nil {
		mode = ModeDegraded
		logger.Warnf("No durable backend configured; store starts in memory-only mode")
	}
	metrics.SetDegraded(mode == ModeDegraded)

	return &Store{
		mode:    mode,
		ring:    newRing(cfg.MemoryCapacity),
		durable: durable,
		timeout: cfg.CommitTimeout,
	}
}

// Mode returns the current operating mode.
func (s *Store) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Store) degrade(reason error) {
	s.mu.Lock()
	already := s.mode == ModeDegraded
	s.mode = ModeDegraded
	s.mu.Unlock()

	metrics.SetDegraded(true)
	if !already {
		logger.Errorf("Durable store failed, degrading to in-memory fallback: %v", reason)
	} else {
		logger.Debugf("Durable store still degraded: %v", reason)
	}
}

// Commit persists one threat and returns the mode the commit landed in. A
// durable failure is absorbed: the threat goes to the fallback buffer and the
// store degrades. On durable success the threat's PersistedID is set.
func (s *Store) Commit(ctx context.Context, t *models.Threat) Mode {
	if s.Mode() == ModeConnected {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		id, err := s.durable.Insert(cctx, t)
		cancel()
		if err == nil {
			t.PersistedID = id
			return ModeConnected
		}
		metrics.CommitFailure()
		s.degrade(err)
	}

	s.mu.Lock()
	s.ring.add(t)
	s.mu.Unlock()
	return ModeDegraded
}

// Recent returns up to limit threats, most recent first. Degraded reads are
// served from the fallback buffer.
func (s *Store) Recent(ctx context.Context, limit int) []*models.Threat {
	if limit <= 0 {
		limit = 50
	}

	if s.Mode() == ModeConnected {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		threats, err := s.durable.Recent(cctx, limit)
		cancel()
		if err == nil {
			return threats
		}
		s.degrade(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ring.recent(limit)
}

// Get returns the threat with the given id. An unknown id is ErrNotFound; it
// does not degrade the store.
func (s *Store) Get(ctx context.Context, id string) (*models.Threat, error) {
	if s.Mode() == ModeConnected {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		t, err := s.durable.Get(cctx, id)
		cancel()
		if err == nil {
			return t, nil
		}
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		s.degrade(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.ring.get(id); t != nil {
		return t, nil
	}
	return nil, ErrNotFound
}

// Stats returns live aggregate counts over committed threats.
func (s *Store) Stats(ctx context.Context) models.Stats {
	if s.Mode() == ModeConnected {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		stats, err := s.durable.Stats(cctx)
		cancel()
		if err == nil {
			return stats
		}
		s.degrade(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ring.stats()
}

// Reconnect is the only path back from degraded to connected. It pings the
// durable backend and flips the mode on success. Nothing calls it implicitly.
func (s *Store) Reconnect(ctx context.Context) error {
	if s.durable == nil {
		return errors.New("no durable backend configured")
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	err := s.durable.Ping(cctx)
	cancel()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.mode = ModeConnected
	s.mu.Unlock()
	metrics.SetDegraded(false)
	logger.Infof("Durable store reconnected")
	return nil
}

// Close releases the durable backend.
func (s *Store) Close() error {
	if s.durable == nil {
		return nil
	}
	return s.durable.Close()
}
