package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"cyberguard/pkg/models"
)

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// maxKeptThreats caps the Redis recency list.
const maxKeptThreats = 1000

// Redis is a Redis-backed durable store. Threats live in a capped recency
// list plus a by-id hash; aggregate counters are maintained on insert.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis constructs a Redis-backed threat store and verifies connectivity.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if strings.TrimSpace(cfg.KeyPrefix) == "" {
		cfg.KeyPrefix = "cyberguard:threats"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis threat store: %w", err)
	}

	return &Redis{client: client, prefix: strings.TrimSpace(cfg.KeyPrefix)}, nil
}

// Insert writes one threat. The threat's own id doubles as the external
// identifier since Redis has no generated document ids.
func (r *Redis) Insert(ctx context.Context, t *models.Threat) (string, error) {
	payload, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("marshal threat: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.LPush(ctx, r.recentKey(), payload)
	pipe.LTrim(ctx, r.recentKey(), 0, maxKeptThreats-1)
	pipe.HSet(ctx, r.byIDKey(), t.ID, payload)
	pipe.Incr(ctx, r.totalKey())
	if t.Severity == models.SeverityCritical {
		pipe.Incr(ctx, r.criticalKey())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("write threat keys: %w", err)
	}
	return t.ID, nil
}

// Recent returns up to limit threats, most recent first.
func (r *Redis) Recent(ctx context.Context, limit int) ([]*models.Threat, error) {
	raw, err := r.client.LRange(ctx, r.recentKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent threats: %w", err)
	}

	threats := make([]*models.Threat, 0, len(raw))
	for _, item := range raw {
		var t models.Threat
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			continue
		}
		threats = append(threats, &t)
	}
	return threats, nil
}

// Get returns the threat with the given id.
func (r *Redis) Get(ctx context.Context, id string) (*models.Threat, error) {
	raw, err := r.client.HGet(ctx, r.byIDKey(), id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read threat %s: %w", id, err)
	}

	var t models.Threat
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, fmt.Errorf("decode threat %s: %w", id, err)
	}
	return &t, nil
}

// Stats reads the maintained aggregate counters.
func (r *Redis) Stats(ctx context.Context) (models.Stats, error) {
	var stats models.Stats

	total, err := r.client.Get(ctx, r.totalKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return stats, fmt.Errorf("read total counter: %w", err)
	}
	critical, err := r.client.Get(ctx, r.criticalKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return stats, fmt.Errorf("read critical counter: %w", err)
	}

	stats.Total = total
	stats.Critical = critical
	return stats, nil
}

// Ping checks backend reachability.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes Redis resources.
func (r *Redis) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *Redis) recentKey() string   { return r.prefix + ":recent" }
func (r *Redis) byIDKey() string     { return r.prefix + ":by_id" }
func (r *Redis) totalKey() string    { return r.prefix + ":total" }
func (r *Redis) criticalKey() string { return r.prefix + ":critical" }
