package usecase

import (
	"context"
	"fmt"
	"time"

	"CandleScope/internal/domain/models"
	"CandleScope/internal/service/cache"
	"CandleScope/pkg/config"
	applogger "CandleScope/pkg/logger"
	"CandleScope/pkg/util"

	"github.com/google/uuid"
)

// SessionManager owns every live session. Sessions that go unused for the
// idle TTL are dropped by the janitor.
type SessionManager struct {
	store    cache.Store[*Session]
	deps     SessionDeps
	defaults models.Selection
	idleTTL  time.Duration
	l        *applogger.Logger
}

func NewSessionManager(cfg *config.Config, store cache.Store[*Session], deps SessionDeps) (*SessionManager, error) {
	def, err := defaultSelection(cfg)
	if err != nil {
		return nil, err
	}
	l := deps.Logger
	if l == nil {
		l = applogger.Nop()
	}
	return &SessionManager{
		store:    store,
		deps:     deps,
		defaults: def,
		idleTTL:  cfg.Session.IdleTTL,
		l:        l,
	}, nil
}

func defaultSelection(cfg *config.Config) (models.Selection, error) {
	sel := models.Selection{
		Exchange: models.Exchange(cfg.Session.DefaultExchange),
		Currency: models.Currency(cfg.Session.DefaultCurrency),
	}
	if !sel.Exchange.IsValid() {
		return sel, fmt.Errorf("session.default_exchange: unknown exchange %q", sel.Exchange)
	}
	if !sel.Currency.IsValid() {
		return sel, fmt.Errorf("session.default_currency: unknown currency %q", sel.Currency)
	}
	var err error
	if sel.StartDate, err = util.ParseDate(cfg.Session.DefaultStart); err != nil {
		return sel, fmt.Errorf("session.default_start: %w", err)
	}
	if sel.EndDate, err = util.ParseDate(cfg.Session.DefaultEnd); err != nil {
		return sel, fmt.Errorf("session.default_end: %w", err)
	}
	return sel, nil
}

// Defaults is the selection new sessions start with.
func (m *SessionManager) Defaults() models.Selection { return m.defaults }

// Create registers a new session with the default selection. Prices are not
// fetched yet; callers follow up with Refresh.
func (m *SessionManager) Create() *Session {
	id := uuid.NewString()
	s := newSession(id, m.defaults, m.deps)
	m.store.Set(id, s, m.idleTTL)
	m.reportActive()
	m.l.Info("session created", applogger.String("session", id))
	return s
}

// Get returns a live session and resets its idle timer.
func (m *SessionManager) Get(id string) (*Session, bool) {
	return m.store.Get(id)
}

// SnapshotOf returns the current snapshot of a live session.
func (m *SessionManager) SnapshotOf(id string) (*models.Snapshot, bool) {
	s, ok := m.store.Get(id)
	if !ok {
		return nil, false
	}
	return s.Snapshot(), true
}

func (m *SessionManager) Len() int { return m.store.Len() }

// Sweep drops idle sessions.
func (m *SessionManager) Sweep() int {
	n := m.store.Sweep(func(id string, _ *Session) {
		m.l.Debug("session expired", applogger.String("session", id))
	})
	if n > 0 {
		m.l.Info("sessions swept", applogger.Int("count", n), applogger.Int("active", m.store.Len()))
	}
	m.reportActive()
	return n
}

// Run sweeps on every tick until ctx is done.
func (m *SessionManager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Sweep()
		}
	}
}

func (m *SessionManager) reportActive() {
	if m.deps.Metrics != nil {
		m.deps.Metrics.SetActiveSessions(m.store.Len())
	}
}
