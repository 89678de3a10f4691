package models

import (
	"encoding/json"
	"time"

	"CandleScope/pkg/util"
)

// Selection is what the user currently has picked on the dashboard.
// Dates are calendar days at UTC midnight.
type Selection struct {
	Exchange  Exchange
	Currency  Currency
	StartDate time.Time
	EndDate   time.Time
}

// DefaultSelection is the selection a new session starts with.
func DefaultSelection() Selection {
	return Selection{
		Exchange:  ExchangeBinance,
		Currency:  CurrencyBitcoin,
		StartDate: util.MustParseDate("2017-08-01"),
		EndDate:   util.MustParseDate("2024-03-01"),
	}
}

// Query builds the analysis request body for the selection.
func (s Selection) Query() AnalysisQuery {
	return AnalysisQuery{
		Currency:  s.Currency,
		Market:    s.Exchange,
		StartDate: util.FormatDate(s.StartDate),
		EndDate:   util.FormatDate(s.EndDate),
	}
}

// ValidRange reports whether the end date is not before the start date.
func (s Selection) ValidRange() bool {
	return !s.EndDate.Before(s.StartDate)
}

func (s Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Exchange  Exchange `json:"exchange"`
		Currency  Currency `json:"currency"`
		StartDate string   `json:"start_date"`
		EndDate   string   `json:"end_date"`
	}{
		Exchange:  s.Exchange,
		Currency:  s.Currency,
		StartDate: util.FormatDate(s.StartDate),
		EndDate:   util.FormatDate(s.EndDate),
	})
}
