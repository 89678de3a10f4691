package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"CandleScope/internal/domain/models"
	"CandleScope/pkg/config"
	xhttp "CandleScope/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstreamCall struct {
	endpoint, result string
}

type fakeMetrics struct {
	calls []upstreamCall
}

func (f *fakeMetrics) RecordUpstream(endpoint, result string, _ float64) {
	f.calls = append(f.calls, upstreamCall{endpoint, result})
}
func (f *fakeMetrics) RecordStale(string) {}
func (f *fakeMetrics) RecordAnalysis(string, string, int) {}
func (f *fakeMetrics) SetActiveSessions(int) {}

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *fakeMetrics) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Analysis.BaseURL = srv.URL + "/"
	m := &fakeMetrics{}
	return NewClient(cfg, m), m
}

func TestRatesQuery(t *testing.T) {
	c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rates", r.URL.Path)
		assert.Equal(t, "Ethereum", r.URL.Query().Get("currency_name"))
		assert.Equal(t, "Kucoin", r.URL.Query().Get("market_name"))
		_, _ = w.Write([]byte(`[
			{"date":"2024-01-02","open_price":"$2,300.10","high_price":"$2,400.00","low_price":"$2,250.00","close_price":"$2,350.75"},
			{"date":"2024-01-01","open_price":"$2,200.00","high_price":"$2,310.00","low_price":"$2,190.00","close_price":"$2,300.10"}
		]`))
	})

	recs, err := c.Rates(context.Background(), models.CurrencyEthereum, models.ExchangeKucoin)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "2024-01-02", recs[0].Date)
	assert.Equal(t, "$2,350.75", recs[0].ClosePrice)
	assert.Equal(t, []upstreamCall{{"/rates", "ok"}}, m.calls)
}

func TestRatesEmptyBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	recs, err := c.Rates(context.Background(), models.CurrencyBitcoin, models.ExchangeBinance)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestAnalyzeRequestBody(t *testing.T) {
	for _, method := range models.Methods {
		t.Run(method.Name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, method.Path, r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var q models.AnalysisQuery
				require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
				assert.Equal(t, models.AnalysisQuery{
					Currency: "Bitcoin", Market: "Binance",
					StartDate: "2020-01-01", EndDate: "2020-02-01",
				}, q)
				_, _ = w.Write([]byte(`{"anomalies":[{"date":"2020-01-10"},{"date":"2020-01-20","close_price":"$8,000"}]}`))
			})

			got, err := c.Analyze(context.Background(), method, models.AnalysisQuery{
				Currency: "Bitcoin", Market: "Binance",
				StartDate: "2020-01-01", EndDate: "2020-02-01",
			})
			require.NoError(t, err)
			assert.Equal(t, []models.Anomaly{{Date: "2020-01-10"}, {Date: "2020-01-20"}}, got)
		})
	}
}

func TestAnalyzeEmptyList(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"anomalies":[]}`))
	})
	got, err := c.Analyze(context.Background(), models.MethodZScore, models.AnalysisQuery{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAnalyzeMissingField(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	_, err := c.Analyze(context.Background(), models.MethodIQR, models.AnalysisQuery{})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestUpstreamFailure(t *testing.T) {
	c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "db down", http.StatusInternalServerError)
	})
	_, err := c.Analyze(context.Background(), models.MethodZScore, models.AnalysisQuery{})
	require.Error(t, err)
	assert.True(t, xhttp.IsStatus(err, http.StatusInternalServerError))
	assert.Contains(t, err.Error(), "db down")
	assert.Equal(t, []upstreamCall{{"/analyze", "error"}}, m.calls)
}
