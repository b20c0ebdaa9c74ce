package scanners

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"Omnitrade/internal/domain/models"
	"Omnitrade/internal/domain/service"
	"Omnitrade/pkg/http"
	"Omnitrade/pkg/logger"
)

const (
	MarketStateRange = "MARKET_STATE!A1:J"
	HealthScoreRange = "HEALTH_SCORE!A1:E2"
)

// valueRange is the body of a spreadsheet values GET.
type valueRange struct {
	Range  string     `json:"range"`
	Values [][]string `json:"values"`
}

// SheetsSource reads the market state a spreadsheet publishes. Rotation and
// correlation are not kept in the sheet and come from the simulator.
type SheetsSource struct {
	client        *http.Client
	spreadsheetID string
	apiKey        string
	sim           *MockSource
	log           *logger.Logger
}

func NewSheetsSource(client *http.Client, spreadsheetID, apiKey string, sim *MockSource, l *logger.Logger) *SheetsSource {
	if sim == nil {
		sim = NewMockSource()
	}
	if l == nil {
		l = logger.Nop()
	}
	return &SheetsSource{
		client:        client,
		spreadsheetID: spreadsheetID,
		apiKey:        apiKey,
		sim:           sim,
		log:           l.With("sheets"),
	}
}

var _ service.ScannerSource = (*SheetsSource)(nil)

func (s *SheetsSource) Name() string { return "sheets" }

func (s *SheetsSource) Scan(ctx context.Context, logs []models.ActionRecord) (models.Scan, error) {
	sim, err := s.sim.Scan(ctx, logs)
	if err != nil {
		return models.Scan{}, err
	}

	state, err := s.values(ctx, MarketStateRange)
	if err != nil {
		return models.Scan{}, err
	}
	scan, err := parseMarketState(state)
	if err != nil {
		return models.Scan{}, err
	}
	scan.Cycle = sim.Cycle
	if scan.Clock == "" {
		scan.Clock = sim.Clock
	}
	if scan.Uncertainty == "" {
		scan.Uncertainty = UncertaintyFromLogs(logs)
	}
	scan.Rotation = sim.Rotation
	scan.Correlation = sim.Correlation

	health, err := s.values(ctx, HealthScoreRange)
	if err != nil {
		return models.Scan{}, err
	}
	if scan.Health, err = parseHealth(health); err != nil {
		return models.Scan{}, err
	}
	return scan, nil
}

// values fetches one range. When the sheet cannot be reached the built-in
// sample rows are used instead.
func (s *SheetsSource) values(ctx context.Context, rng string) ([][]string, error) {
	var vr valueRange
	path := "/" + url.PathEscape(s.spreadsheetID) + "/values/" + url.PathEscape(rng)
	var query map[string][]string
	if s.apiKey != "" {
		query = map[string][]string{"key": {s.apiKey}}
	}
	if err := s.client.GetJSON(ctx, path, query, &vr); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.Warn("sheet unreachable, using sample rows", logger.String("range", rng), logger.Error(err))
		return sampleRows(rng), nil
	}
	return vr.Values, nil
}

// parseMarketState reads the first data row under the header row. Columns are
// located by header name so the sheet may reorder them.
func parseMarketState(rows [][]string) (models.Scan, error) {
	row, col, err := firstRow(rows, "MARKET_STATE")
	if err != nil {
		return models.Scan{}, err
	}
	var s models.Scan
	if s.Volatility, err = models.ParseVolatility(col(row, "volatility")); err != nil {
		return models.Scan{}, err
	}
	if s.Trend, err = models.ParseTrend(col(row, "trend")); err != nil {
		return models.Scan{}, err
	}
	if s.Phase, err = models.ParsePhase(col(row, "phase")); err != nil {
		return models.Scan{}, err
	}
	if v := col(row, "session"); v != "" {
		if s.Clock, err = models.ParseClock(v); err != nil {
			return models.Scan{}, err
		}
	}
	if v := col(row, "uncertainty"); v != "" {
		if s.Uncertainty, err = models.ParseUncertainty(v); err != nil {
			return models.Scan{}, err
		}
	}
	return s, nil
}

func parseHealth(rows [][]string) (*int, error) {
	if len(rows) < 2 {
		return nil, nil
	}
	row, col, err := firstRow(rows, "HEALTH_SCORE")
	if err != nil {
		return nil, err
	}
	v := col(row, "health")
	if v == "" {
		return nil, nil
	}
	h, err := strconv.Atoi(v)
	if err != nil || h < 0 || h > 100 {
		return nil, fmt.Errorf("%w: health %q", models.ErrInvalidInput, v)
	}
	return &h, nil
}

func firstRow(rows [][]string, tab string) ([]string, func([]string, string) string, error) {
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("%w: %s has no data row", models.ErrInvalidInput, tab)
	}
	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	col := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	return rows[1], col, nil
}

func sampleRows(rng string) [][]string {
	switch {
	case strings.HasPrefix(rng, "MARKET_STATE"):
		return [][]string{
			{"Token", "TF", "ATR %", "BB Width", "Volatility", "Trend", "Phase", "Session", "BTC.D Bias", "Uncertainty"},
			{"BTC", "15m", "1.2", "0.05", "LOW", "UP", "ACCUMULATION", "LONDON", "NEUTRAL", "LOW"},
			{"ETH", "15m", "1.5", "0.06", "LOW", "UP", "EXPANSION", "LONDON", "BULLISH", "LOW"},
		}
	case strings.HasPrefix(rng, "HEALTH_SCORE"):
		return [][]string{
			{"Health", "DD", "Losses", "Stress", "Uncertainty"},
			{"98", "0.4", "0", "0.1", "LOW"},
		}
	default:
		return nil
	}
}
