package scanners

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"Omnitrade/internal/domain/models"
	"Omnitrade/internal/domain/service"
)

// MarketStateSchema creates the table ClickHouseSource reads.
const MarketStateSchema = `CREATE TABLE IF NOT EXISTS market_state (
	ts DateTime64(3),
	volatility LowCardinality(String),
	trend LowCardinality(String),
	phase LowCardinality(String),
	session LowCardinality(String),
	uncertainty LowCardinality(String),
	health Nullable(UInt8)
) ENGINE = MergeTree ORDER BY ts`

// ClickHouseSource reads the most recent market_state row written by an
// upstream indicator job.
type ClickHouseSource struct {
	db    *sql.DB
	table string
	sim   *MockSource
}

func NewClickHouseSource(db *sql.DB, table string, sim *MockSource) *ClickHouseSource {
	if table == "" {
		table = "market_state"
	}
	if sim == nil {
		sim = NewMockSource()
	}
	return &ClickHouseSource{db: db, table: table, sim: sim}
}

var _ service.ScannerSource = (*ClickHouseSource)(nil)

func (s *ClickHouseSource) Name() string { return "clickhouse" }

func (s *ClickHouseSource) Scan(ctx context.Context, logs []models.ActionRecord) (models.Scan, error) {
	q := fmt.Sprintf("SELECT volatility, trend, phase, session, uncertainty, health FROM %s ORDER BY ts DESC LIMIT 1", s.table)

	var (
		vol, trend, phase, session, uncertainty string
		health                                  sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, q).Scan(&vol, &trend, &phase, &session, &uncertainty, &health)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Scan{}, fmt.Errorf("%s: %w", s.table, models.ErrNotFound)
	}
	if err != nil {
		return models.Scan{}, fmt.Errorf("query %s: %w", s.table, err)
	}

	sim, err := s.sim.Scan(ctx, logs)
	if err != nil {
		return models.Scan{}, err
	}
	scan := models.Scan{Clock: sim.Clock, Cycle: sim.Cycle, Rotation: sim.Rotation, Correlation: sim.Correlation}
	if scan.Volatility, err = models.ParseVolatility(vol); err != nil {
		return models.Scan{}, err
	}
	if scan.Trend, err = models.ParseTrend(trend); err != nil {
		return models.Scan{}, err
	}
	if scan.Phase, err = models.ParsePhase(phase); err != nil {
		return models.Scan{}, err
	}
	if session != "" {
		if scan.Clock, err = models.ParseClock(session); err != nil {
			return models.Scan{}, err
		}
	}
	scan.Uncertainty = UncertaintyFromLogs(logs)
	if uncertainty != "" {
		if scan.Uncertainty, err = models.ParseUncertainty(uncertainty); err != nil {
			return models.Scan{}, err
		}
	}
	if health.Valid {
		h := int(health.Int64)
		scan.Health = &h
	}
	return scan, nil
}
