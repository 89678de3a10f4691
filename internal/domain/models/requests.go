package models

// Requests for the dashboard HTTP endpoints.

type SessionRequest struct {
	ID string `param:"id" validate:"required,uuid4"`
}

type SetExchangeRequest struct {
	ID    string `param:"id" validate:"required,uuid4"`
	Value string `json:"value" validate:"required,oneof=Binance Kucoin"`
}

type SetCurrencyRequest struct {
	ID    string `param:"id" validate:"required,uuid4"`
	Value string `json:"value" validate:"required,oneof=Bitcoin Ethereum BNB Cardano Ripple"`
}

// SetDatesRequest accepts YYYY-MM-DD or RFC3339; an omitted field keeps
// the current value.
type SetDatesRequest struct {
	ID        string `param:"id" validate:"required,uuid4"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type AnalyzeRequest struct {
	ID     string `param:"id" validate:"required,uuid4"`
	Method string `param:"method" validate:"required,oneof=zscore iqr"`
}

type ChartImageRequest struct {
	ID     string `param:"id" validate:"required,uuid4"`
	Width  int    `query:"width" default:"1200" validate:"gte=200,lte=4000"`
	Height int    `query:"height" default:"600" validate:"gte=150,lte=3000"`
}

// OptionsResponse lists what the dashboard controls can offer.
type OptionsResponse struct {
	Exchanges  []Exchange       `json:"exchanges"`
	Currencies []Currency       `json:"currencies"`
	Methods    []AnalysisMethod `json:"methods"`
	Defaults   Selection        `json:"defaults"`
}
