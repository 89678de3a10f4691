package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"CandleScope/internal/domain/models"
	"CandleScope/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedRatesReadThrough(t *testing.T) {
	src := newFakeRates()
	pair := models.Pair{Exchange: models.ExchangeKucoin, Currency: models.CurrencyBNB}
	src.data[pair] = []models.PriceRecord{record("2024-01-01", "$300.00", "$310.00", "$290.00", "$305.50")}

	mc := cache.NewMemoryCache()
	defer mc.Close()
	r := NewCachedRates(src, mc, time.Minute, nil)
	ctx := context.Background()

	first, err := r.Rates(ctx, pair.Currency, pair.Exchange)
	require.NoError(t, err)
	second, err := r.Rates(ctx, pair.Currency, pair.Exchange)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.callCount())

	ok, err := mc.Exists(ctx, "rates:Kucoin:BNB")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = r.Reload(ctx, pair.Currency, pair.Exchange)
	require.NoError(t, err)
	assert.Equal(t, 2, src.callCount())
}

func TestCachedRatesDoesNotCacheErrors(t *testing.T) {
	src := newFakeRates()
	src.err = errors.New("down")

	mc := cache.NewMemoryCache()
	defer mc.Close()
	r := NewCachedRates(src, mc, time.Minute, nil)

	_, err := r.Rates(context.Background(), models.CurrencyBitcoin, models.ExchangeBinance)
	require.Error(t, err)
	_, err = r.Rates(context.Background(), models.CurrencyBitcoin, models.ExchangeBinance)
	require.Error(t, err)
	assert.Equal(t, 2, src.callCount())
}

func TestCachedRatesWithoutCache(t *testing.T) {
	src := newFakeRates()
	r := NewCachedRates(src, nil, time.Minute, nil)
	for i := 0; i < 3; i++ {
		_, err := r.Rates(context.Background(), models.CurrencyRipple, models.ExchangeBinance)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, src.callCount())
}

func TestRefreshBypassesCache(t *testing.T) {
	src := newFakeRates()
	mc := cache.NewMemoryCache()
	defer mc.Close()

	s := newSession("s", models.DefaultSelection(), SessionDeps{
		Rates:    NewCachedRates(src, mc, time.Minute, nil),
		Analyzer: newFakeAnalyzer(),
	})
	_, err := s.Refresh(context.Background())
	require.NoError(t, err)
	_, err = s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.callCount())

	// a selection round trip goes through the cache
	_, err = s.SetCurrency(context.Background(), models.CurrencyRipple)
	require.NoError(t, err)
	_, err = s.SetCurrency(context.Background(), models.CurrencyBitcoin)
	require.NoError(t, err)
	assert.Equal(t, 3, src.callCount())
}
