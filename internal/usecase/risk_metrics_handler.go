package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"Omnitrade/internal/domain/models"
	domrepo "Omnitrade/internal/domain/repository"
	pkgkafka "Omnitrade/pkg/kafka"
)

// RiskMetricsHandler consumes risk metric updates from Kafka and stores them
// for the next governance cycle.
type RiskMetricsHandler struct {
	topic   string
	store   domrepo.MetricsStore
	metrics domrepo.Metrics
}

func NewRiskMetricsHandler(topic string, store domrepo.MetricsStore, metrics domrepo.Metrics) *RiskMetricsHandler {
	return &RiskMetricsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *RiskMetricsHandler) Topic() string { return h.topic }

// incoming message schema: {drawdown, correlationStress, exposure}
func (h *RiskMetricsHandler) Handle(ctx context.Context, b []byte) error {
	var m models.RiskMetrics
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("risk_metrics_unmarshal")
		return fmt.Errorf("%w: decode risk metrics: %v", pkgkafka.ErrPermanent, err)
	}
	if err := m.Validate(); err != nil {
		h.metrics.RecordError("risk_metrics_invalid")
		return fmt.Errorf("%w: %w", pkgkafka.ErrPermanent, err)
	}
	if err := h.store.Set(ctx, m); err != nil {
		h.metrics.RecordError("risk_metrics_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*RiskMetricsHandler)(nil)
