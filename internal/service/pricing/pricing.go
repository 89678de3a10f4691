package pricing

import (
	"fmt"
	"strings"

	"CandleScope/internal/domain/models"
	"CandleScope/pkg/util"

	"github.com/shopspring/decimal"
)

// ParsePrice converts a display price such as "$42,000.50" to a number.
// Every character other than a digit or '.' is dropped; anything after a
// second '.' is ignored.
func ParsePrice(raw string) (float64, error) {
	var b strings.Builder
	b.Grow(len(raw))
	dots := 0
scan:
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.':
			dots++
			if dots == 2 {
				break scan
			}
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" || s == "." {
		return 0, fmt.Errorf("price %q has no digits", raw)
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	s = strings.TrimSuffix(s, ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("price %q: %w", raw, err)
	}
	f, _ := d.Float64()
	return f, nil
}

// ToCandle parses one rates row.
func ToCandle(rec models.PriceRecord) (models.Candle, error) {
	ts, err := util.ParseDate(rec.Date)
	if err != nil {
		return models.Candle{}, err
	}
	var c models.Candle
	c.Time = ts
	fields := []struct {
		dst *float64
		raw string
	}{
		{&c.Open, rec.OpenPrice},
		{&c.High, rec.HighPrice},
		{&c.Low, rec.LowPrice},
		{&c.Close, rec.ClosePrice},
	}
	for _, f := range fields {
		v, err := ParsePrice(f.raw)
		if err != nil {
			return models.Candle{}, fmt.Errorf("%s: %w", rec.Date, err)
		}
		*f.dst = v
	}
	return c, nil
}

// ToCandles parses a rates response, keeping its order. One bad row fails
// the whole series.
func ToCandles(recs []models.PriceRecord) ([]models.Candle, error) {
	out := make([]models.Candle, 0, len(recs))
	for i, rec := range recs {
		c, err := ToCandle(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}
