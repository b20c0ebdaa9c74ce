package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"Omnitrade/internal/domain/models"
	"Omnitrade/internal/domain/repository"
	"Omnitrade/pkg/cache"
)

const (
	actionLogKey     = "actions:recent"
	DefaultLogWindow = 20
)

// CacheActionLog keeps the recent-action window in a capped list. Redis and
// the in-process cache both implement the list operations.
type CacheActionLog struct {
	store  cache.ListService
	window int
}

// NewActionLog creates an action log over store holding at most window records.
func NewActionLog(store cache.ListService, window int) repository.ActionLog {
	if window <= 0 {
		window = DefaultLogWindow
	}
	return &CacheActionLog{store: store, window: window}
}

// Append prepends records in order, so the last record becomes the newest.
func (l *CacheActionLog) Append(ctx context.Context, records ...models.ActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
		values = append(values, r)
	}
	if err := l.store.PushCapped(ctx, actionLogKey, l.window, values...); err != nil {
		return fmt.Errorf("append action log: %w", err)
	}
	return nil
}

func (l *CacheActionLog) Recent(ctx context.Context) ([]models.ActionRecord, error) {
	raw, err := l.store.Range(ctx, actionLogKey, l.window)
	if err != nil {
		return nil, fmt.Errorf("read action log: %w", err)
	}
	out := make([]models.ActionRecord, 0, len(raw))
	for _, s := range raw {
		var r models.ActionRecord
		if err := json.Unmarshal([]byte(s), &r); err != nil {
			return nil, fmt.Errorf("decode action record: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (l *CacheActionLog) Close() error {
	return l.store.Close()
}
