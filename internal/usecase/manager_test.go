package usecase

import (
	"context"
	"testing"
	"time"

	"CandleScope/internal/domain/models"
	"CandleScope/internal/service/cache"
	"CandleScope/pkg/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, mutate func(c *config.Config)) *SessionManager {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	if mutate != nil {
		mutate(cfg)
	}
	m, err := NewSessionManager(cfg, cache.NewTTLCache[*Session](), SessionDeps{
		Rates:    newFakeRates(),
		Analyzer: newFakeAnalyzer(),
	})
	require.NoError(t, err)
	return m
}

func TestManagerCreateUsesDefaults(t *testing.T) {
	m := newTestManager(t, nil)

	s := m.Create()
	_, err := uuid.Parse(s.ID())
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, models.ExchangeBinance, snap.Selection.Exchange)
	assert.Equal(t, models.CurrencyBitcoin, snap.Selection.Currency)
	assert.Equal(t, "2017-08-01", snap.Selection.Query().StartDate)
	assert.Equal(t, "2024-03-01", snap.Selection.Query().EndDate)
	assert.Equal(t, models.StatusIdle, snap.Chart.Status)

	got, ok := m.Get(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, m.Len())
}

func TestManagerRejectsBadDefaults(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Session.DefaultCurrency = "Dogecoin"
	_, err = NewSessionManager(cfg, cache.NewTTLCache[*Session](), SessionDeps{})
	assert.Error(t, err)

	cfg.Session.DefaultCurrency = "Bitcoin"
	cfg.Session.DefaultEnd = "someday"
	_, err = NewSessionManager(cfg, cache.NewTTLCache[*Session](), SessionDeps{})
	assert.Error(t, err)
}

func TestManagerSweepsIdleSessions(t *testing.T) {
	m := newTestManager(t, func(c *config.Config) { c.Session.IdleTTL = 20 * time.Millisecond })

	s := m.Create()
	time.Sleep(40 * time.Millisecond)

	assert.Equal(t, 1, m.Sweep())
	_, ok := m.Get(s.ID())
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestManagerRunStopsWithContext(t *testing.T) {
	m := newTestManager(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
