package store

import "cyberguard/pkg/models"

// ring is the capped in-memory fallback buffer. Insertion order is
// preserved; the oldest entries are evicted first. Callers synchronize.
type ring struct {
	capacity int
	items    []*models.Threat
}

func newRing(capacity int) *ring {
	return &ring{capacity: capacity}
}

func (r *ring) add(t *models.Threat) {
	r.items = append(r.items, t)
	if len(r.items) > r.capacity {
		over := len(r.items) - r.capacity
		r.items = append(r.items[:0:0], r.items[over:]...)
	}
}

func (r *ring) recent(limit int) []*models.Threat {
	n := len(r.items)
	if limit > n {
		limit = n
	}
	out := make([]*models.Threat, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, r.items[i])
	}
	return out
}

func (r *ring) get(id string) *models.Threat {
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].ID == id {
			return r.items[i]
		}
	}
	return nil
}

func (r *ring) stats() models.Stats {
	var stats models.Stats
	stats.Total = int64(len(r.items))
	for _, t := range r.items {
		if t.Severity == models.SeverityCritical {
			stats.Critical++
		}
	}
	return stats
}
