package models

import (
	"encoding/json"
	"time"
)

// PriceRecord is one row of GET /rates as the analysis service returns it.
// Prices are display strings such as "$42,000.50".
type PriceRecord struct {
	Date       string `json:"date"`
	OpenPrice  string `json:"open_price"`
	HighPrice  string `json:"high_price"`
	LowPrice   string `json:"low_price"`
	ClosePrice string `json:"close_price"`
}

// Candle is one parsed OHLC point.
type Candle struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// MarshalJSON renders the candle in the {x, y:[o,h,l,c]} shape the chart
// widget consumes, with x in epoch milliseconds.
func (c Candle) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		X int64      `json:"x"`
		Y [4]float64 `json:"y"`
	}{
		X: c.Time.UnixMilli(),
		Y: [4]float64{c.Open, c.High, c.Low, c.Close},
	})
}
