// Package notify dispatches best-effort alert notifications for committed
// threats.
package notify

import (
	"context"
	"sync"
	"time"

	"cyberguard/internal/logger"
	"cyberguard/internal/metrics"
	"cyberguard/pkg/models"
)

// Config controls alert dispatch.
type Config struct {
	Enabled bool
	// MinSeverity is the dispatch policy: threats below this tier are
	// skipped. The policy is deterministic per threat.
	MinSeverity models.Severity
	QueueSize   int
	SendTimeout time.Duration
	Recipient   string
}

// Dispatcher accepts threat submissions and delivers notifications from a
// single worker, so dispatch initiation follows submission order. Submit
// never blocks and delivery never affects the submitter.
type Dispatcher struct {
	cfg       Config
	transport Transport
	queue     chan *models.Threat
	wg        sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a dispatcher and starts its worker.
func NewDispatcher(cfg Config, transport Transport) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.MinSeverity == "" {
		cfg.MinSeverity = models.SeverityLow
	}

	d := &Dispatcher{
		cfg:       cfg,
		transport: transport,
		queue:     make(chan *models.Threat, cfg.QueueSize),
	}
	d.wg.Add(1)
	go d.worker()
	return d
}

// Submit queues one dispatch attempt for a committed threat and returns
// immediately. Below-policy threats are skipped; a full queue drops the
// submission rather than blocking.
func (d *Dispatcher) Submit(t *models.Threat) {
	if !d.cfg.Enabled {
		logger.Debugf("Alert dispatch disabled; skipping threat %s", t.ID)
		metrics.AlertSkipped()
		return
	}
	if !t.Severity.AtLeast(d.cfg.MinSeverity) {
		logger.Debugf("Threat %s below alert policy (%s < %s); skipping", t.ID, t.Severity, d.cfg.MinSeverity)
		metrics.AlertSkipped()
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- t:
	default:
		logger.Warnf("Alert queue full; dropping dispatch for threat %s", t.ID)
		metrics.AlertSkipped()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for t := range d.queue {
		d.deliver(t)
	}
}

func (d *Dispatcher) deliver(t *models.Threat) {
	if d.transport == nil || !d.transport.Configured() || d.cfg.Recipient == "" {
		logger.Infof("Alert transport not configured; skipping notification for threat %s", t.ID)
		metrics.AlertSkipped()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()

	msg := Build(t, d.cfg.Recipient)
	if err := d.transport.Send(ctx, msg); err != nil {
		// Not retried: a lost alert is preferable to a duplicate one.
		logger.Errorf("Failed to send %s alert for threat %s via %s: %v", t.Severity, t.ID, d.transport.Name(), err)
		metrics.AlertFailed()
		return
	}

	logger.Infof("Alert sent for threat %s (%s, score %d)", t.ID, t.Severity, t.Score)
	metrics.AlertDispatched()
}

// Close stops accepting submissions, drains the queue and waits for the
// worker to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
