package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"Omnitrade/internal/domain/models"
	"Omnitrade/internal/domain/repository"
)

// ActionArchiveSchema creates the archive table.
const ActionArchiveSchema = `CREATE TABLE IF NOT EXISTS bot_actions (
	ts DateTime64(3),
	id String,
	bot LowCardinality(String),
	action String,
	status LowCardinality(String)
) ENGINE = MergeTree ORDER BY (bot, ts)`

// ClickHouseActionArchive appends fired actions to ClickHouse.
type ClickHouseActionArchive struct {
	db    *sql.DB
	table string
	now   func() time.Time
}

func NewClickHouseActionArchive(db *sql.DB, table string) repository.ActionArchive {
	if table == "" {
		table = "bot_actions"
	}
	return &ClickHouseActionArchive{db: db, table: table, now: time.Now}
}

func (a *ClickHouseActionArchive) Store(ctx context.Context, records []models.ActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	ts := a.now().UTC()
	values := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*5)
	for _, r := range records {
		values = append(values, "(?, ?, ?, ?, ?)")
		args = append(args, ts, r.ID, r.Bot, r.Action, string(r.Status))
	}
	q := fmt.Sprintf("INSERT INTO %s (ts, id, bot, action, status) VALUES %s", a.table, strings.Join(values, ","))
	if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("archive %d actions: %w", len(records), err)
	}
	return nil
}
