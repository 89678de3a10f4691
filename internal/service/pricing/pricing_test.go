package pricing

import (
	"testing"
	"time"

	"CandleScope/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"$42,000.50", 42000.50},
		{"42000.5", 42000.5},
		{"$0.3412", 0.3412},
		{"€ 1 234,00", 123400},
		{".5", 0.5},
		{"7.", 7},
		{"1.2.3", 1.2},
		{"$1,000", 1000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePrice(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParsePriceRejectsEmpty(t *testing.T) {
	for _, in := range []string{"", "$", "N/A", "."} {
		_, err := ParsePrice(in)
		assert.Error(t, err, in)
	}
}

func TestToCandlesKeepsOrder(t *testing.T) {
	recs := []models.PriceRecord{
		{Date: "2024-01-02", OpenPrice: "$2.00", HighPrice: "$3.00", LowPrice: "$1.50", ClosePrice: "$2.50"},
		{Date: "2024-01-01", OpenPrice: "$1.00", HighPrice: "$2.10", LowPrice: "$0.90", ClosePrice: "$2.00"},
	}
	got, err := ToCandles(recs)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), got[0].Time)
	assert.Equal(t, models.Candle{
		Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Open: 1, High: 2.1, Low: 0.9, Close: 2,
	}, got[1])
}

func TestToCandlesBadRow(t *testing.T) {
	_, err := ToCandles([]models.PriceRecord{
		{Date: "2024-01-01", OpenPrice: "1", HighPrice: "1", LowPrice: "1", ClosePrice: "1"},
		{Date: "yesterday", OpenPrice: "1", HighPrice: "1", LowPrice: "1", ClosePrice: "1"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 1")

	_, err = ToCandles([]models.PriceRecord{{Date: "2024-01-01", OpenPrice: "-", HighPrice: "1", LowPrice: "1", ClosePrice: "1"}})
	assert.Error(t, err)
}
