package service

import (
	"context"

	"Omnitrade/internal/domain/models"
)

// ScannerSource produces one cycle's scan. logs is the current recent-action
// window, newest first, used to derive uncertainty.
type ScannerSource interface {
	Name() string
	Scan(ctx context.Context, logs []models.ActionRecord) (models.Scan, error)
}
