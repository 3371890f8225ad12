package logger

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
)

// QueryLogger times a single repository operation.
type QueryLogger struct {
	Operation string
	Table     string
	StartTime time.Time
}

func NewQueryLogger(operation, table string) *QueryLogger {
	return &QueryLogger{
		Operation: operation,
		Table:     table,
		StartTime: time.Now(),
	}
}

// Log records the outcome. sql.ErrNoRows is not a failure.
func (l *QueryLogger) Log(err error, rows int64) {
	took := time.Since(l.StartTime)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		slog.Error("Query failed",
			slog.String("type", "db"),
			slog.String("operation", l.Operation),
			slog.String("table", l.Table),
			slog.Duration("took", took),
			slog.Any("error", err),
		)
		return
	}

	slog.Debug("Query executed",
		slog.String("type", "db"),
		slog.String("operation", l.Operation),
		slog.String("table", l.Table),
		slog.Duration("took", took),
		slog.Int64("rows", rows),
	)
}

// SlowQueryHook warns about bun queries slower than Threshold.
type SlowQueryHook struct {
	Threshold time.Duration
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	took := time.Since(event.StartTime)
	if h.Threshold <= 0 || took < h.Threshold {
		return
	}
	slog.Warn("Slow query",
		slog.String("type", "db"),
		slog.String("operation", event.Operation()),
		slog.String("query", event.Query),
		slog.Duration("took", took),
	)
}
