package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartStateTransitions(t *testing.T) {
	s := NewChartState()
	assert.Equal(t, StatusIdle, s.Status)

	day := time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC)
	s.ReplaceSeries([]Candle{{Time: day, Open: 1, High: 2, Low: 0.5, Close: 1.5}})
	assert.Equal(t, StatusReady, s.Status)
	assert.Len(t, s.Series, 1)

	s.SetAnnotations([]Annotation{NewMarker(day, MethodZScore.Label)})
	assert.Equal(t, StatusAnomalies, s.Status)
	assert.False(t, s.NoAnomalies)
	require.Len(t, s.Annotations, 1)
	assert.Equal(t, day.UnixMilli(), s.Annotations[0].X)
	assert.Equal(t, "#ff0000", s.Annotations[0].BorderColor)
	assert.Equal(t, "#fff", s.Annotations[0].Label.Style.Color)
	assert.Equal(t, "#ff0000", s.Annotations[0].Label.Style.Background)
	assert.Equal(t, "Anomaly Z-Score", s.Annotations[0].Label.Text)

	s.SetAnnotations(nil)
	assert.Equal(t, StatusNoAnomalies, s.Status)
	assert.True(t, s.NoAnomalies)
	assert.Empty(t, s.Annotations)
	assert.Equal(t, "No anomalies were detected.", s.Message)

	s.SetError("Analysis failed: boom")
	assert.Equal(t, StatusError, s.Status)
	assert.False(t, s.NoAnomalies)
	assert.Len(t, s.Series, 1)

	s.SetAnnotations([]Annotation{NewMarker(day, MethodIQR.Label)})
	s.ReplaceSeries(nil)
	assert.Empty(t, s.Annotations)
	assert.NotNil(t, s.Series)
	assert.False(t, s.NoAnomalies)
}

func TestSetPendingClearsNoAnomalies(t *testing.T) {
	s := NewChartState()
	s.SetNoAnomalies()
	s.SetPending(StatusAnalyzing)
	assert.Equal(t, StatusAnalyzing, s.Status)
	assert.False(t, s.NoAnomalies)
	assert.Empty(t, s.Message)

	s.SetNoAnomalies()
	s.SetPending(StatusLoading)
	assert.False(t, s.NoAnomalies)
}

func TestChartStateCloneIsIndependent(t *testing.T) {
	s := NewChartState()
	s.ReplaceSeries([]Candle{{Close: 1}})
	c := s.Clone()
	c.Series[0].Close = 99
	assert.Equal(t, 1.0, s.Series[0].Close)
}

func TestCandleJSON(t *testing.T) {
	c := Candle{Time: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Open: 1, High: 2, Low: 0.5, Close: 1.25}
	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1709251200000,"y":[1,2,0.5,1.25]}`, string(b))
}

func TestSelection(t *testing.T) {
	s := DefaultSelection()
	assert.Equal(t, ExchangeBinance, s.Exchange)
	assert.Equal(t, CurrencyBitcoin, s.Currency)
	assert.True(t, s.ValidRange())

	q := s.Query()
	assert.Equal(t, AnalysisQuery{Currency: "Bitcoin", Market: "Binance", StartDate: "2017-08-01", EndDate: "2024-03-01"}, q)

	s.EndDate = s.StartDate.AddDate(0, 0, -1)
	assert.False(t, s.ValidRange())

	b, err := json.Marshal(DefaultSelection())
	require.NoError(t, err)
	assert.JSONEq(t, `{"exchange":"Binance","currency":"Bitcoin","start_date":"2017-08-01","end_date":"2024-03-01"}`, string(b))
}

func TestMethodByName(t *testing.T) {
	m, ok := MethodByName("iqr")
	require.True(t, ok)
	assert.Equal(t, "/analyze_iqr", m.Path)
	assert.Equal(t, "Anomaly IQR", m.Label)

	_, ok = MethodByName("mad")
	assert.False(t, ok)

	assert.Len(t, AllPairs(), 10)
	assert.True(t, ExchangeKucoin.IsValid())
	assert.False(t, Currency("Dogecoin").IsValid())
}
