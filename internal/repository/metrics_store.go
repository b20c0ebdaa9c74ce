package repository

import (
	"context"
	"errors"
	"fmt"

	"Omnitrade/internal/domain/models"
	"Omnitrade/internal/domain/repository"
	"Omnitrade/pkg/cache"
)

const riskMetricsKey = "risk_metrics"

// CacheMetricsStore returns the seed until someone supplies fresh metrics.
type CacheMetricsStore struct {
	store cache.Service
	seed  models.RiskMetrics
}

func NewMetricsStore(store cache.Service, seed models.RiskMetrics) repository.MetricsStore {
	return &CacheMetricsStore{store: store, seed: seed}
}

func (s *CacheMetricsStore) Get(ctx context.Context) (models.RiskMetrics, error) {
	var m models.RiskMetrics
	err := s.store.Get(ctx, riskMetricsKey, &m)
	if errors.Is(err, cache.ErrCacheMiss) {
		return s.seed, nil
	}
	if err != nil {
		return models.RiskMetrics{}, fmt.Errorf("get risk metrics: %w", err)
	}
	return m, nil
}

func (s *CacheMetricsStore) Set(ctx context.Context, m models.RiskMetrics) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if err := s.store.Set(ctx, riskMetricsKey, m, 0); err != nil {
		return fmt.Errorf("set risk metrics: %w", err)
	}
	return nil
}
