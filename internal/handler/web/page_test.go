package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"CandleScope/internal/domain/models"
	"CandleScope/internal/service/cache"
	"CandleScope/internal/usecase"
	"CandleScope/pkg/config"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyRates struct{}

func (emptyRates) Rates(_ context.Context, _ models.Currency, _ models.Exchange) ([]models.PriceRecord, error) {
	return nil, nil
}

var sessionIDRe = regexp.MustCompile(`const sessionId = "([0-9a-f-]{36})"`)

func TestIndexCreatesSession(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	sessions, err := usecase.NewSessionManager(cfg, cache.NewTTLCache[*usecase.Session](), usecase.SessionDeps{
		Rates: emptyRates{},
	})
	require.NoError(t, err)

	e := echo.New()
	NewPageHandler(nil, sessions).RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	m := sessionIDRe.FindStringSubmatch(body)
	require.Len(t, m, 2, "session id not embedded")
	_, ok := sessions.Get(m[1])
	assert.True(t, ok)

	assert.Contains(t, body, `title="Market"`)
	assert.Contains(t, body, `title="Currency"`)
	assert.Contains(t, body, `value="2017-08-01"`)
	assert.Contains(t, body, `value="2024-03-01"`)
	assert.Contains(t, body, "Analyze (Z-Score)")
	assert.Contains(t, body, "Analyze (IQR)")
	assert.Contains(t, body, "too far from the median in terms of interquartile range.")
	assert.Contains(t, body, `data-value="Kucoin"`)
	assert.Contains(t, body, `data-value="Ripple"`)
	assert.Contains(t, body, "Copyright © 2024 Insony")
}
