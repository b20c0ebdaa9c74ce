package repository

import (
	"context"

	"Omnitrade/internal/domain/models"
)

// ActionLog is the bounded recent-action window, newest first.
type ActionLog interface {
	Append(ctx context.Context, records ...models.ActionRecord) error
	Recent(ctx context.Context) ([]models.ActionRecord, error)
	Close() error
}

// MetricsStore holds the externally supplied risk metrics.
type MetricsStore interface {
	Get(ctx context.Context) (models.RiskMetrics, error)
	Set(ctx context.Context, m models.RiskMetrics) error
}

type Publisher interface {
	PublishActions(ctx context.Context, records []models.ActionRecord) error
	PublishGovernance(ctx context.Context, p *models.Payload) error
	Close() error
}

type Metrics interface {
	RecordCycle(seconds float64)
	RecordHealth(health int, mode models.Mode)
	RecordAction(bot string, status models.ActionStatus)
	RecordActivation(botID string)
	RecordError(kind string)
}

// ActionArchive keeps every fired action for later analysis.
type ActionArchive interface {
	Store(ctx context.Context, records []models.ActionRecord) error
}
