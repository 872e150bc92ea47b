// Package pipeline orchestrates threat ingestion: classify, commit, publish,
// dispatch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cyberguard/internal/hub"
	"cyberguard/internal/logger"
	"cyberguard/internal/metrics"
	"cyberguard/internal/notify"
	"cyberguard/internal/rules"
	"cyberguard/internal/severity"
	"cyberguard/internal/store"
	"cyberguard/pkg/models"
)

// ErrInvalidInput marks a malformed ingestion request. It is surfaced before
// any event is created.
var ErrInvalidInput = errors.New("invalid ingestion input")

// Input is a raw, unclassified event.
type Input struct {
	Score           int            `json:"score"`
	Category        string         `json:"category"`
	Description     string         `json:"description"`
	Recommendations []string       `json:"recommendations"`
	Factors         map[string]int `json:"factors"`
	Confidence      float64        `json:"confidence,omitempty"`
}

// Result is the caller-visible outcome of one ingestion.
type Result struct {
	Status             string         `json:"status"`
	Threat             *models.Threat `json:"threat"`
	AutomatedResponses []string       `json:"automated_responses"`
	StorageMode        store.Mode     `json:"storage_mode"`
}

// Pipeline runs each raw event through classification, a single commit
// attempt, live broadcast and alert dispatch. Persistence failures never
// suppress broadcast or alerting.
type Pipeline struct {
	store      *store.Store
	hub        *hub.Hub
	dispatcher *notify.Dispatcher
	engine     rules.Engine

	now   func() time.Time
	newID func() string
}

// New creates a pipeline. engine may be nil to disable rule tagging.
func New(st *store.Store, h *hub.Hub, d *notify.Dispatcher, engine rules.Engine) *Pipeline {
	return &Pipeline{
		store:      st,
		hub:        h,
		dispatcher: d,
		engine:     engine,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

func validate(in Input) error {
	if in.Score < 0 || in.Score > 100 {
		return fmt.Errorf("%w: score %d outside [0,100]", ErrInvalidInput, in.Score)
	}
	if in.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if len(in.Recommendations) == 0 {
		return fmt.Errorf("%w: at least one recommendation is required", ErrInvalidInput)
	}
	return nil
}

// Ingest turns a raw event into a committed, broadcast and dispatched threat.
// Once validation passes the call always succeeds: storage and notification
// problems are absorbed and only observable through the result's storage mode
// and the logs.
func (p *Pipeline) Ingest(ctx context.Context, in Input) (*Result, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	t := &models.Threat{
		ID:              p.newID(),
		OccurredAt:      p.now().UTC(),
		Score:           in.Score,
		Category:        in.Category,
		Description:     in.Description,
		Recommendations: append([]string(nil), in.Recommendations...),
		Confidence:      in.Confidence,
	}
	if len(in.Factors) > 0 {
		t.Factors = make(map[string]int, len(in.Factors))
		for k, v := range in.Factors {
			t.Factors[k] = v
		}
	}

	if p.engine != nil {
		t.RuleTags = p.engine.Apply(t)
	}

	t.Severity = severity.Classify(t.Score)
	responses := []string{}
	if severity.RequiresMitigation(t.Score) {
		responses = severity.MitigationActions()
		t.Mitigation = &models.Mitigation{Status: "executed", Actions: responses}
	}

	mode := p.store.Commit(ctx, t)
	metrics.ObserveIngest(t.Severity)

	// Broadcast and alerting always run, whatever the storage mode.
	p.hub.Publish(t)
	p.dispatcher.Submit(t)

	logger.Infof("Ingested threat %s: %s score=%d severity=%s storage=%s", t.ID, t.Category, t.Score, t.Severity, mode)

	return &Result{
		Status:             "threat_detected",
		Threat:             t,
		AutomatedResponses: responses,
		StorageMode:        mode,
	}, nil
}

// Recent returns up to limit committed threats, most recent first.
func (p *Pipeline) Recent(ctx context.Context, limit int) []*models.Threat {
	return p.store.Recent(ctx, limit)
}

// Stats returns live aggregate counts.
func (p *Pipeline) Stats(ctx context.Context) models.Stats {
	return p.store.Stats(ctx)
}

// Get returns a committed threat by id, or store.ErrNotFound.
func (p *Pipeline) Get(ctx context.Context, id string) (*models.Threat, error) {
	return p.store.Get(ctx, id)
}

// StorageMode reports the store's current operating mode.
func (p *Pipeline) StorageMode() store.Mode {
	return p.store.Mode()
}
