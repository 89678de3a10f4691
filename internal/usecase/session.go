package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"CandleScope/internal/domain/models"
	domrepo "CandleScope/internal/domain/repository"
	"CandleScope/internal/service/pricing"
	applogger "CandleScope/pkg/logger"
	"CandleScope/pkg/util"
)

var (
	// ErrDateRange is returned by Analyze when the end date precedes the
	// start date. No request is sent in that case.
	ErrDateRange = errors.New("end date is before start date")
	// ErrUpstream wraps every failure of the analysis service.
	ErrUpstream = errors.New("analysis service request failed")
)

const journalTimeout = 5 * time.Second

// Reloader is implemented by rates sources that can bypass their cache.
type Reloader interface {
	Reload(ctx context.Context, currency models.Currency, exchange models.Exchange) ([]models.PriceRecord, error)
}

// SessionDeps are the collaborators shared by every session.
type SessionDeps struct {
	Rates     domrepo.RatesSource
	Analyzer  domrepo.AnomalyAnalyzer
	Journal   domrepo.Journal
	Publisher domrepo.SnapshotPublisher
	Metrics   domrepo.Metrics
	Logger    *applogger.Logger
}

// Session is the server side of one open dashboard page: the selection, the
// chart built from it and the request tokens that decide which completed
// request may still change the chart.
type Session struct {
	id   string
	deps SessionDeps
	l    *applogger.Logger

	mu          sync.Mutex
	sel         models.Selection
	chart       models.ChartState
	version     uint64
	fetchSeq    uint64
	analysisSeq uint64
}

func newSession(id string, sel models.Selection, deps SessionDeps) *Session {
	l := deps.Logger
	if l == nil {
		l = applogger.Nop()
	}
	return &Session{
		id:    id,
		deps:  deps,
		l:     l.With(applogger.String("session", id)),
		sel:   sel,
		chart: models.NewChartState(),
	}
}

func (s *Session) ID() string { return s.id }

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() *models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() *models.Snapshot {
	return &models.Snapshot{
		SessionID: s.id,
		Selection: s.sel,
		Chart:     s.chart.Clone(),
		Version:   s.version,
	}
}

// commitLocked bumps the version and returns the snapshot to publish once
// the lock is released.
func (s *Session) commitLocked() *models.Snapshot {
	s.version++
	return s.snapshotLocked()
}

func (s *Session) publish(snap *models.Snapshot) {
	if s.deps.Publisher != nil {
		s.deps.Publisher.Publish(s.id, snap)
	}
}

// SetExchange switches the market and refetches prices. Picking the value
// that is already selected does nothing.
func (s *Session) SetExchange(ctx context.Context, e models.Exchange) (*models.Snapshot, error) {
	if !e.IsValid() {
		return nil, fmt.Errorf("unknown exchange %q", e)
	}
	return s.changeSelection(ctx, func(sel *models.Selection) bool {
		if sel.Exchange == e {
			return false
		}
		sel.Exchange = e
		return true
	})
}

// SetCurrency switches the currency and refetches prices. Picking the value
// that is already selected does nothing.
func (s *Session) SetCurrency(ctx context.Context, c models.Currency) (*models.Snapshot, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("unknown currency %q", c)
	}
	return s.changeSelection(ctx, func(sel *models.Selection) bool {
		if sel.Currency == c {
			return false
		}
		sel.Currency = c
		return true
	})
}

func (s *Session) changeSelection(ctx context.Context, apply func(sel *models.Selection) bool) (*models.Snapshot, error) {
	s.mu.Lock()
	if !apply(&s.sel) {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	// markers belong to the old pair
	s.chart.ClearAnnotations()
	s.analysisSeq++
	s.mu.Unlock()

	return s.fetch(ctx, false)
}

// SetDates updates the analysis range. Nil leaves a bound unchanged. Dates
// only matter to the next Analyze, so nothing is fetched.
func (s *Session) SetDates(start, end *time.Time) *models.Snapshot {
	s.mu.Lock()
	if start != nil {
		s.sel.StartDate = util.TruncateDay(*start)
	}
	if end != nil {
		s.sel.EndDate = util.TruncateDay(*end)
	}
	snap := s.commitLocked()
	s.mu.Unlock()

	s.publish(snap)
	return snap
}

// Load fetches prices for the current selection through the rates cache.
// It is used when a page first mounts.
func (s *Session) Load(ctx context.Context) (*models.Snapshot, error) {
	return s.fetch(ctx, false)
}

// Refresh refetches prices for the current selection, bypassing any rates
// cache.
func (s *Session) Refresh(ctx context.Context) (*models.Snapshot, error) {
	return s.fetch(ctx, true)
}

func (s *Session) fetch(ctx context.Context, reload bool) (*models.Snapshot, error) {
	s.mu.Lock()
	s.fetchSeq++
	token := s.fetchSeq
	sel := s.sel
	s.chart.SetPending(models.StatusLoading)
	pending := s.commitLocked()
	s.mu.Unlock()
	s.publish(pending)

	candles, err := s.loadCandles(ctx, sel, reload)

	s.mu.Lock()
	if token != s.fetchSeq {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.stale("fetch", applogger.Uint64("token", token))
		return snap, nil
	}
	if err != nil {
		s.chart.SetError("Failed to load prices: " + err.Error())
	} else {
		// drops the markers present now; an analysis still in flight for
		// this pair applies when it lands
		s.chart.ReplaceSeries(candles)
	}
	snap := s.commitLocked()
	s.mu.Unlock()
	s.publish(snap)

	if err != nil {
		s.l.Warn("rates fetch failed",
			applogger.String("exchange", sel.Exchange.String()),
			applogger.String("currency", sel.Currency.String()),
			applogger.Error(err))
		return snap, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	s.l.Debug("rates applied", applogger.Int("candles", len(candles)))
	return snap, nil
}

func (s *Session) loadCandles(ctx context.Context, sel models.Selection, reload bool) ([]models.Candle, error) {
	var (
		recs []models.PriceRecord
		err  error
	)
	if r, ok := s.deps.Rates.(Reloader); ok && reload {
		recs, err = r.Reload(ctx, sel.Currency, sel.Exchange)
	} else {
		recs, err = s.deps.Rates.Rates(ctx, sel.Currency, sel.Exchange)
	}
	if err != nil {
		return nil, err
	}
	return pricing.ToCandles(recs)
}

// Analyze runs method over the selected date range and replaces the
// markers with its result.
func (s *Session) Analyze(ctx context.Context, method models.AnalysisMethod) (*models.Snapshot, error) {
	s.mu.Lock()
	sel := s.sel
	if !sel.ValidRange() {
		s.chart.SetError(fmt.Sprintf("Invalid date range: %s is after %s",
			util.FormatDate(sel.StartDate), util.FormatDate(sel.EndDate)))
		snap := s.commitLocked()
		s.mu.Unlock()
		s.publish(snap)
		return snap, ErrDateRange
	}
	s.analysisSeq++
	token := s.analysisSeq
	s.chart.SetPending(models.StatusAnalyzing)
	pending := s.commitLocked()
	s.mu.Unlock()
	s.publish(pending)

	start := time.Now()
	markers, err := s.runAnalysis(ctx, method, sel.Query())

	ev := &models.AnalysisEvent{
		SessionID:  s.id,
		Method:     method.Name,
		Exchange:   sel.Exchange,
		Currency:   sel.Currency,
		StartDate:  util.FormatDate(sel.StartDate),
		EndDate:    util.FormatDate(sel.EndDate),
		Anomalies:  len(markers),
		DurationMs: time.Since(start).Milliseconds(),
		At:         start.UTC(),
	}

	s.mu.Lock()
	if token != s.analysisSeq {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		ev.Stale = true
		ev.Outcome = outcomeOf(markers, err)
		if err != nil {
			ev.Error = err.Error()
		}
		s.record(ctx, ev)
		s.stale("analysis", applogger.String("method", method.Name), applogger.Uint64("token", token))
		return snap, nil
	}
	if err != nil {
		s.chart.SetError("Analysis failed: " + err.Error())
	} else {
		s.chart.SetAnnotations(markers)
	}
	snap := s.commitLocked()
	s.mu.Unlock()
	s.publish(snap)

	ev.Outcome = outcomeOf(markers, err)
	if err != nil {
		ev.Error = err.Error()
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordAnalysis(method.Name, ev.Outcome, ev.Anomalies)
	}
	s.record(ctx, ev)

	if err != nil {
		s.l.Warn("analysis failed", applogger.String("method", method.Name), applogger.Error(err))
		return snap, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	s.l.Debug("analysis applied",
		applogger.String("method", method.Name),
		applogger.Int("anomalies", len(markers)))
	return snap, nil
}

func (s *Session) runAnalysis(ctx context.Context, method models.AnalysisMethod, q models.AnalysisQuery) ([]models.Annotation, error) {
	anomalies, err := s.deps.Analyzer.Analyze(ctx, method, q)
	if err != nil {
		return nil, err
	}
	markers := make([]models.Annotation, 0, len(anomalies))
	for _, a := range anomalies {
		ts, err := util.ParseDate(a.Date)
		if err != nil {
			return nil, fmt.Errorf("anomaly date: %w", err)
		}
		markers = append(markers, models.NewMarker(ts, method.Label))
	}
	return markers, nil
}

func outcomeOf(markers []models.Annotation, err error) string {
	switch {
	case err != nil:
		return string(models.StatusError)
	case len(markers) == 0:
		return string(models.StatusNoAnomalies)
	default:
		return string(models.StatusAnomalies)
	}
}

func (s *Session) record(ctx context.Context, ev *models.AnalysisEvent) {
	if s.deps.Journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()
	if err := s.deps.Journal.Record(ctx, ev); err != nil {
		s.l.Warn("journal record failed", applogger.Error(err))
	}
}

func (s *Session) stale(kind string, fields ...applogger.Field) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordStale(kind)
	}
	s.l.Debug("discarded stale "+kind+" result", fields...)
}
