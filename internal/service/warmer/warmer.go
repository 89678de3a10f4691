package warmer

import (
	"context"
	"fmt"
	"time"

	"CandleScope/internal/domain/models"
	svcmetrics "CandleScope/internal/service/metrics"
	"CandleScope/pkg/cache"
	applogger "CandleScope/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"
)

const (
	lockKey      = "lock:warmer"
	pairRetries  = 2
	pairMaxDelay = 30 * time.Second
)

// Reloader fetches one pair fresh and stores it in the rates cache.
type Reloader interface {
	Reload(ctx context.Context, currency models.Currency, exchange models.Exchange) ([]models.PriceRecord, error)
}

// Warmer prefetches every exchange/currency pair on a cron schedule so that
// the first page load after a cache expiry does not wait on the service.
type Warmer struct {
	cron     *cron.Cron
	rates    Reloader
	lock     cache.Service
	lockTTL  time.Duration
	schedule string
	l        *applogger.Logger
	ctx      context.Context
	cancel   context.CancelFunc

	// newBackOff builds the retry policy for one pair
	newBackOff func() backoff.BackOff
}

// New builds a warmer. lock may be nil; with a shared cache it keeps several
// instances from warming at once.
func New(rates Reloader, lock cache.Service, schedule string, lockTTL time.Duration, l *applogger.Logger) *Warmer {
	if l == nil {
		l = applogger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Warmer{
		cron:     cron.New(),
		rates:    rates,
		lock:     lock,
		lockTTL:  lockTTL,
		schedule: schedule,
		l:        l,
		ctx:      ctx,
		cancel:   cancel,

		newBackOff: defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = pairMaxDelay
	return backoff.WithMaxRetries(b, pairRetries)
}

// Start registers the job and starts the scheduler.
func (w *Warmer) Start() error {
	if _, err := w.cron.AddFunc(w.schedule, func() { w.RunOnce(w.ctx) }); err != nil {
		return fmt.Errorf("register warmer %q: %w", w.schedule, err)
	}
	w.cron.Start()
	w.l.Info("warmer started", applogger.String("schedule", w.schedule))
	return nil
}

// Stop cancels a running pass and waits for it to return.
func (w *Warmer) Stop() {
	w.cancel()
	<-w.cron.Stop().Done()
	w.l.Info("warmer stopped")
}

// RunOnce refreshes every pair and returns how many failed. A pass that
// cannot take the lock is skipped.
func (w *Warmer) RunOnce(ctx context.Context) int {
	if w.lock != nil {
		ok, err := w.lock.TryLock(ctx, lockKey, w.lockTTL)
		if err != nil {
			w.l.Warn("warmer lock error", applogger.Error(err))
			return 0
		}
		if !ok {
			svcmetrics.WarmerRuns.WithLabelValues("skipped").Inc()
			w.l.Debug("warmer skipped: lock held elsewhere")
			return 0
		}
		defer func() {
			if err := w.lock.Unlock(context.WithoutCancel(ctx), lockKey); err != nil {
				w.l.Warn("warmer unlock error", applogger.Error(err))
			}
		}()
	}

	start := time.Now()
	failed := 0
	for _, p := range models.AllPairs() {
		if ctx.Err() != nil {
			break
		}
		if err := w.reload(ctx, p); err != nil {
			failed++
			w.l.Warn("warmer reload failed",
				applogger.String("exchange", p.Exchange.String()),
				applogger.String("currency", p.Currency.String()),
				applogger.Error(err))
		}
	}
	svcmetrics.WarmerDuration.Observe(time.Since(start).Seconds())

	outcome := "ok"
	if failed > 0 {
		outcome = "partial"
	}
	svcmetrics.WarmerRuns.WithLabelValues(outcome).Inc()
	w.l.Info("warmer pass done",
		applogger.Int("failed", failed),
		applogger.Duration("took", time.Since(start)))
	return failed
}

// reload retries a pair with backoff. Page requests never retry; only the
// background pass does.
func (w *Warmer) reload(ctx context.Context, p models.Pair) error {
	op := func() error {
		_, err := w.rates.Reload(ctx, p.Currency, p.Exchange)
		return err
	}
	notify := func(err error, next time.Duration) {
		w.l.Debug("warmer retry",
			applogger.String("pair", p.String()),
			applogger.Duration("in", next),
			applogger.Error(err))
	}
	return backoff.RetryNotify(op, backoff.WithContext(w.newBackOff(), ctx), notify)
}
