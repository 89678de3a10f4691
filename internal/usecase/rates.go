package usecase

import (
	"context"
	"errors"
	"time"

	"CandleScope/internal/domain/models"
	domrepo "CandleScope/internal/domain/repository"
	svcmetrics "CandleScope/internal/service/metrics"
	"CandleScope/pkg/cache"
	applogger "CandleScope/pkg/logger"
)

const ratesKeyPrefix = "rates"

// CachedRates is a read-through cache in front of a RatesSource. Only
// successful responses are cached. A nil cache turns it into a passthrough.
type CachedRates struct {
	src   domrepo.RatesSource
	cache cache.Service
	ttl   time.Duration
	l     *applogger.Logger
}

func NewCachedRates(src domrepo.RatesSource, c cache.Service, ttl time.Duration, l *applogger.Logger) *CachedRates {
	if l == nil {
		l = applogger.Nop()
	}
	return &CachedRates{src: src, cache: c, ttl: ttl, l: l}
}

func ratesKey(currency models.Currency, exchange models.Exchange) string {
	return cache.GenerateKeyWithParams(ratesKeyPrefix, exchange, currency)
}

// Rates implements domrepo.RatesSource.
func (r *CachedRates) Rates(ctx context.Context, currency models.Currency, exchange models.Exchange) ([]models.PriceRecord, error) {
	if r.cache == nil {
		return r.src.Rates(ctx, currency, exchange)
	}

	key := ratesKey(currency, exchange)
	var recs []models.PriceRecord
	err := r.cache.Get(ctx, key, &recs)
	switch {
	case err == nil:
		svcmetrics.RatesCacheLookups.WithLabelValues("hit").Inc()
		r.l.Debug("rates cache_hit", applogger.String("key", key))
		return recs, nil
	case errors.Is(err, cache.ErrCacheMiss):
		svcmetrics.RatesCacheLookups.WithLabelValues("miss").Inc()
		r.l.Debug("rates cache_miss", applogger.String("key", key))
	default:
		svcmetrics.RatesCacheLookups.WithLabelValues("error").Inc()
		r.l.Warn("rates cache_get_error", applogger.String("key", key), applogger.Error(err))
	}

	return r.Reload(ctx, currency, exchange)
}

// Reload skips the cached copy, fetches from the source and stores the
// result.
func (r *CachedRates) Reload(ctx context.Context, currency models.Currency, exchange models.Exchange) ([]models.PriceRecord, error) {
	recs, err := r.src.Rates(ctx, currency, exchange)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		key := ratesKey(currency, exchange)
		if err := r.cache.Set(ctx, key, recs, r.ttl); err != nil {
			r.l.Warn("rates cache_set_error", applogger.String("key", key), applogger.Error(err))
		}
	}
	return recs, nil
}

var _ domrepo.RatesSource = (*CachedRates)(nil)
