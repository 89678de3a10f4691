package repository

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"CandleScope/internal/domain/models"
	domrepo "CandleScope/internal/domain/repository"
	applogger "CandleScope/pkg/logger"

	_ "github.com/lib/pq"
)

// PGParams holds PostgreSQL connection parameters.
type PGParams struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// dsn builds a postgres:// URL so credentials with spaces or quotes stay
// intact.
func (p PGParams) dsn() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:   "/" + p.DBName,
	}
	if p.Password != "" {
		u.User = url.UserPassword(p.User, p.Password)
	} else if p.User != "" {
		u.User = url.User(p.User)
	}
	if p.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {p.SSLMode}}.Encode()
	}
	return u.String()
}

// PGJournal stores analysis events in a PostgreSQL table.
type PGJournal struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// OpenPGJournal connects and creates the table if needed.
func OpenPGJournal(ctx context.Context, params PGParams, table string, l *applogger.Logger) (*PGJournal, error) {
	db, err := sql.Open("postgres", params.dsn())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	j := NewPGJournal(db, table, l)
	if _, err := db.ExecContext(ctx, pgJournalSchema(table)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create %s: %w", table, err)
	}
	return j, nil
}

func NewPGJournal(db *sql.DB, table string, l *applogger.Logger) *PGJournal {
	if l == nil {
		l = applogger.Nop()
	}
	return &PGJournal{db: db, table: table, l: l}
}

func pgJournalSchema(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id          BIGSERIAL PRIMARY KEY,
			at          TIMESTAMPTZ NOT NULL,
			session_id  UUID NOT NULL,
			method      TEXT NOT NULL,
			exchange    TEXT NOT NULL,
			currency    TEXT NOT NULL,
			start_date  DATE,
			end_date    DATE,
			outcome     TEXT NOT NULL,
			anomalies   INTEGER NOT NULL,
			error       TEXT NOT NULL DEFAULT '',
			duration_ms BIGINT NOT NULL,
			stale       BOOLEAN NOT NULL
		)
	`, table)
}

func pgInsert(table string) string {
	return fmt.Sprintf(`
		INSERT INTO %s (at, session_id, method, exchange, currency, start_date, end_date,
			outcome, anomalies, error, duration_ms, stale)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, table)
}

func (j *PGJournal) Record(ctx context.Context, ev *models.AnalysisEvent) error {
	_, err := j.db.ExecContext(ctx, pgInsert(j.table),
		ev.At,
		ev.SessionID,
		ev.Method,
		ev.Exchange.String(),
		ev.Currency.String(),
		nullDate(ev.StartDate),
		nullDate(ev.EndDate),
		ev.Outcome,
		ev.Anomalies,
		ev.Error,
		ev.DurationMs,
		ev.Stale,
	)
	if err != nil {
		j.l.Error("postgres journal insert error",
			applogger.String("table", j.table),
			applogger.String("session", ev.SessionID),
			applogger.Error(err),
		)
		return fmt.Errorf("insert analysis event: %w", err)
	}
	return nil
}

// nullDate keeps an unset bound NULL rather than the epoch.
func nullDate(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (j *PGJournal) Close() error {
	return j.db.Close()
}

var _ domrepo.Journal = (*PGJournal)(nil)
