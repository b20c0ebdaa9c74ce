package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"Omnitrade/internal/domain/models"
	domrepo "Omnitrade/internal/domain/repository"
	"Omnitrade/internal/domain/service"
	"Omnitrade/internal/services/bots"
	"Omnitrade/internal/services/governance"
	"Omnitrade/pkg/id"
	"Omnitrade/pkg/logger"
	"Omnitrade/pkg/metrics"
)

const (
	timestampLayout         = "15:04:05"
	DefaultCycleInterval    = 2 * time.Second
	DefaultCorrelationSpike = 0.8
	seedBot, seedAction     = "VWAP REVERSION", "Entry Detected"
)

// Broadcaster pushes each cycle's payload to connected stream clients.
type Broadcaster interface {
	Broadcast(p *models.Payload)
}

type CycleOption func(*GovernanceCycle)

func WithInterval(d time.Duration) CycleOption {
	return func(g *GovernanceCycle) {
		if d > 0 {
			g.interval = d
		}
	}
}

// WithCorrelationSpike sets the stress index at which sizes are cut back.
func WithCorrelationSpike(threshold float64) CycleOption {
	return func(g *GovernanceCycle) { g.spikeThreshold = threshold }
}

func WithBroadcaster(b Broadcaster) CycleOption {
	return func(g *GovernanceCycle) { g.broadcaster = b }
}

func WithArchive(a domrepo.ActionArchive) CycleOption {
	return func(g *GovernanceCycle) { g.archive = a }
}

func WithMetrics(m domrepo.Metrics) CycleOption {
	return func(g *GovernanceCycle) { g.metrics = m }
}

func WithLogger(l *logger.Logger) CycleOption {
	return func(g *GovernanceCycle) { g.log = l.With("governance") }
}

func WithIDs(ids *id.Generator) CycleOption {
	return func(g *GovernanceCycle) { g.ids = ids }
}

func WithClock(now func() time.Time) CycleOption {
	return func(g *GovernanceCycle) { g.now = now }
}

// GovernanceCycle drives the scan, evaluate and score loop. Cycles run one at
// a time; Latest and Assess are safe to call from other goroutines.
type GovernanceCycle struct {
	source    service.ScannerSource
	registry  *bots.Registry
	evaluator *bots.Evaluator
	actions   domrepo.ActionLog
	risk      domrepo.MetricsStore
	pub       domrepo.Publisher

	archive     domrepo.ActionArchive
	broadcaster Broadcaster
	metrics     domrepo.Metrics
	log         *logger.Logger
	ids         *id.Generator
	now         func() time.Time

	interval       time.Duration
	spikeThreshold float64

	cycleMu sync.Mutex
	evalMu  sync.Mutex

	mu         sync.RWMutex
	latest     *models.Payload
	prior      models.Volatility
	lastHealth *int
}

func NewGovernanceCycle(
	source service.ScannerSource,
	registry *bots.Registry,
	evaluator *bots.Evaluator,
	actions domrepo.ActionLog,
	risk domrepo.MetricsStore,
	pub domrepo.Publisher,
	opts ...CycleOption,
) *GovernanceCycle {
	g := &GovernanceCycle{
		source:         source,
		registry:       registry,
		evaluator:      evaluator,
		actions:        actions,
		risk:           risk,
		pub:            pub,
		metrics:        metrics.Nop{},
		log:            logger.Nop(),
		ids:            id.NewGenerator(),
		now:            time.Now,
		interval:       DefaultCycleInterval,
		spikeThreshold: DefaultCorrelationSpike,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Seed writes the initial log entry when the log is empty.
func (g *GovernanceCycle) Seed(ctx context.Context) error {
	logs, err := g.actions.Recent(ctx)
	if err != nil {
		return err
	}
	if len(logs) > 0 {
		return nil
	}
	return g.actions.Append(ctx, models.ActionRecord{
		ID:        g.ids.New(),
		Timestamp: g.now().Format(timestampLayout),
		Bot:       seedBot,
		Action:    seedAction,
		Status:    models.StatusSuccess,
	})
}

// Run seeds the log, runs a cycle immediately and then one per interval until
// ctx is cancelled. A failed cycle is logged and the loop carries on.
func (g *GovernanceCycle) Run(ctx context.Context) error {
	if err := g.Seed(ctx); err != nil {
		return fmt.Errorf("seed action log: %w", err)
	}
	g.log.Info("governance loop started",
		logger.String("source", g.source.Name()),
		logger.Duration("interval", g.interval))

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		if _, err := g.RunOnce(ctx); err != nil && ctx.Err() == nil {
			g.metrics.RecordError("cycle")
			g.log.Error("governance cycle failed", logger.Error(err))
		}
		select {
		case <-ctx.Done():
			g.log.Info("governance loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce performs one full cycle and returns the payload it published.
func (g *GovernanceCycle) RunOnce(ctx context.Context) (*models.Payload, error) {
	g.cycleMu.Lock()
	defer g.cycleMu.Unlock()
	start := g.now()

	logs, err := g.actions.Recent(ctx)
	if err != nil {
		return nil, err
	}
	scan, err := g.source.Scan(ctx, logs)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", g.source.Name(), err)
	}

	g.mu.RLock()
	prior, override := g.prior, scan.Health
	if override == nil {
		override = g.lastHealth
	}
	g.mu.RUnlock()

	fired, err := g.evaluate(scan.Snapshot(prior, override), g.registry.List())
	if err != nil {
		return nil, err
	}
	if err := g.record(ctx, fired, start); err != nil {
		return nil, err
	}

	if logs, err = g.actions.Recent(ctx); err != nil {
		return nil, err
	}
	risk, err := g.risk.Get(ctx)
	if err != nil {
		return nil, err
	}
	state, rules, err := g.govern(risk, scan.Uncertainty, governance.LossStreak(logs), scan.Correlation.StressIndex)
	if err != nil {
		return nil, err
	}

	payload := &models.Payload{
		Scanners:  scan,
		Bots:      g.registry.List(),
		Health:    state.Health,
		Mode:      state.Mode,
		AutoRules: rules,
		Metrics:   risk,
		Logs:      logs,
		Timestamp: start.Format(timestampLayout),
	}

	g.mu.Lock()
	g.latest = payload
	g.prior = scan.Volatility
	h := state.Health
	g.lastHealth = &h
	g.mu.Unlock()

	if g.broadcaster != nil {
		g.broadcaster.Broadcast(payload)
	}
	if err := g.pub.PublishGovernance(ctx, payload); err != nil {
		g.metrics.RecordError("publish_governance")
		g.log.Warn("publish governance failed", logger.Error(err))
	}

	g.metrics.RecordHealth(state.Health, state.Mode)
	g.metrics.RecordCycle(g.now().Sub(start).Seconds())
	g.log.Debug("cycle complete",
		logger.Int("health", state.Health),
		logger.String("mode", string(state.Mode)),
		logger.Int("actions", len(fired)))
	return payload, nil
}

// record stamps and logs fired actions, then hands them to the publisher and
// the archive. Only the log write can fail the cycle.
func (g *GovernanceCycle) record(ctx context.Context, fired []models.ActionRecord, at time.Time) error {
	if len(fired) == 0 {
		return nil
	}
	ts := at.Format(timestampLayout)
	for i := range fired {
		fired[i].ID = g.ids.New()
		fired[i].Timestamp = ts
	}
	if err := g.actions.Append(ctx, fired...); err != nil {
		return err
	}
	for _, r := range fired {
		g.metrics.RecordAction(r.Bot, r.Status)
	}

	if err := g.pub.PublishActions(ctx, fired); err != nil {
		g.metrics.RecordError("publish_actions")
		g.log.Warn("publish actions failed", logger.Int("count", len(fired)), logger.Error(err))
	}
	if g.archive != nil {
		if err := g.archive.Store(ctx, fired); err != nil {
			g.metrics.RecordError("archive_actions")
			g.log.Warn("archive actions failed", logger.Error(err))
		}
	}
	return nil
}

func (g *GovernanceCycle) evaluate(s models.ScannerSnapshot, list []models.BotDefinition) ([]models.ActionRecord, error) {
	g.evalMu.Lock()
	defer g.evalMu.Unlock()
	return g.evaluator.Evaluate(s, list)
}

func (g *GovernanceCycle) govern(risk models.RiskMetrics, u models.Uncertainty, streak int, stress float64) (models.GovernanceState, models.AutoRuleResult, error) {
	health, err := governance.ScoreHealth(risk, u, streak)
	if err != nil {
		return models.GovernanceState{}, models.AutoRuleResult{}, err
	}
	state := models.GovernanceState{Health: health, Mode: governance.ModeFor(health)}
	return state, governance.ApplyAutoRules(health, stress >= g.spikeThreshold, u), nil
}

// Latest returns the most recent payload, or nil before the first cycle.
func (g *GovernanceCycle) Latest() *models.Payload {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.latest
}

// Registry exposes the bot registry the cycle evaluates.
func (g *GovernanceCycle) Registry() *bots.Registry { return g.registry }

// Assessment is the outcome of evaluating a hypothetical snapshot.
type Assessment struct {
	Actions   []models.ActionRecord `json:"actions"`
	Health    int                   `json:"health"`
	Mode      models.Mode           `json:"mode"`
	AutoRules models.AutoRuleResult `json:"autoRules"`
}

// Assess evaluates a snapshot and metrics against the current registry without
// touching the log, the latest payload or any sink.
func (g *GovernanceCycle) Assess(s models.ScannerSnapshot, risk models.RiskMetrics, lossStreak int, stress float64) (*Assessment, error) {
	fired, err := g.evaluate(s, g.registry.List())
	if err != nil {
		return nil, err
	}
	state, rules, err := g.govern(risk, s.Uncertainty, lossStreak, stress)
	if err != nil {
		return nil, err
	}
	if fired == nil {
		fired = []models.ActionRecord{}
	}
	return &Assessment{Actions: fired, Health: state.Health, Mode: state.Mode, AutoRules: rules}, nil
}
