package scanners

import (
	"time"

	"Omnitrade/internal/domain/models"
)

// SessionFor maps a UTC hour onto the trading session and where in that
// eight-hour session the hour sits.
func SessionFor(t time.Time) (models.Clock, models.Cycle) {
	hour := t.UTC().Hour()

	clock := models.ClockNY
	switch {
	case hour < 8:
		clock = models.ClockAsia
	case hour < 16:
		clock = models.ClockLondon
	}

	cycle := models.CycleMid
	switch h := hour % 8; {
	case h < 2:
		cycle = models.CycleEarly
	case h > 6:
		cycle = models.CycleLate
	}
	return clock, cycle
}

// UncertaintyFromLogs rises with the number of ERROR records in the window.
func UncertaintyFromLogs(logs []models.ActionRecord) models.Uncertainty {
	errs := 0
	for _, r := range logs {
		if r.Status == models.StatusError {
			errs++
		}
	}
	switch {
	case errs > 3:
		return models.UncertaintyCritical
	case errs > 1:
		return models.UncertaintyHigh
	default:
		return models.UncertaintyLow
	}
}
