// Package redis consumes raw security signals from a Redis list queue.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"cyberguard/internal/logger"
)

// Signal is one raw inbound trigger as queued by an upstream producer,
// e.g. a failed-login report from an authentication frontend.
type Signal struct {
	Attempts int `json:"attempts"`
}

// Config configures the Redis signal consumer.
type Config struct {
	Addr         string
	Password     string
	DB           int
	Key          string
	BlockTimeout time.Duration
}

// Consumer wraps a blocking Redis list popper.
type Consumer struct {
	client       *redis.Client
	key          string
	blockTimeout time.Duration
}

// NewConsumer creates a Redis consumer for list-based signal queues.
func NewConsumer(cfg Config) (*Consumer, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("redis key is required")
	}
	if cfg.BlockTimeout == 0 {
		cfg.BlockTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Consumer{
		client:       client,
		key:          cfg.Key,
		blockTimeout: cfg.BlockTimeout,
	}, nil
}

// Pop pops and decodes one signal from the list. A nil signal with nil
// error means the block timeout elapsed with nothing queued, or the queued
// payload was malformed and got discarded.
func (c *Consumer) Pop(ctx context.Context) (*Signal, error) {
	res, err := c.client.BLPop(ctx, c.blockTimeout, c.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(res) < 2 {
		return nil, nil
	}
	return decodeSignal([]byte(res[1]))
}

func decodeSignal(payload []byte) (*Signal, error) {
	var sig Signal
	if err := json.Unmarshal(payload, &sig); err != nil {
		logger.Warnf("Discarding malformed signal: %v", err)
		return nil, nil
	}
	return &sig, nil
}

// Close closes the consumer.
func (c *Consumer) Close() error {
	return c.client.Close()
}
