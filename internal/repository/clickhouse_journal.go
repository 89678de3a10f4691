package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"CandleScope/internal/domain/models"
	domrepo "CandleScope/internal/domain/repository"
	pkgch "CandleScope/pkg/clickhouse"
	applogger "CandleScope/pkg/logger"
	"CandleScope/pkg/util"
)

// CHJournal stores analysis events in a ClickHouse MergeTree table.
type CHJournal struct {
	ch    *pkgch.Client
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHJournal(ch *pkgch.Client, table string, l *applogger.Logger) *CHJournal {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHJournal{ch: ch, db: ch.DB(), table: table, l: l}
}

func journalSchema(table string) string {
	return fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            at          DateTime64(3, 'UTC'),
            session_id  String,
            method      LowCardinality(String),
            exchange    LowCardinality(String),
            currency    LowCardinality(String),
            start_date  Date,
            end_date    Date,
            outcome     LowCardinality(String),
            anomalies   UInt32,
            error       String,
            duration_ms UInt32,
            stale       UInt8
        )
        ENGINE = MergeTree
        PARTITION BY toYYYYMM(at)
        ORDER BY (exchange, currency, at)
    `, table)
}

// Init creates the table if needed.
func (j *CHJournal) Init(ctx context.Context) error {
	return j.ch.InitSchema(ctx, []string{journalSchema(j.table)})
}

func (j *CHJournal) Record(ctx context.Context, ev *models.AnalysisEvent) error {
	q := fmt.Sprintf(`
        INSERT INTO %s (at, session_id, method, exchange, currency, start_date, end_date,
            outcome, anomalies, error, duration_ms, stale)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, j.table)
	var stale uint8
	if ev.Stale {
		stale = 1
	}
	_, err := j.db.ExecContext(ctx, q,
		ev.At,
		ev.SessionID,
		ev.Method,
		ev.Exchange.String(),
		ev.Currency.String(),
		dateOrZero(ev.StartDate),
		dateOrZero(ev.EndDate),
		ev.Outcome,
		uint32(ev.Anomalies),
		ev.Error,
		uint32(ev.DurationMs),
		stale,
	)
	if err != nil {
		j.l.Error("clickhouse journal insert error",
			applogger.String("table", j.table),
			applogger.String("session", ev.SessionID),
			applogger.Error(err),
		)
		return fmt.Errorf("insert analysis event: %w", err)
	}
	return nil
}

func dateOrZero(s string) time.Time {
	t, err := util.ParseDate(s)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return t
}

func (j *CHJournal) Close() error {
	return j.ch.Close()
}

var _ domrepo.Journal = (*CHJournal)(nil)
