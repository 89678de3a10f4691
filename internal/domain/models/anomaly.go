package models

import "time"

// Anomaly is one flagged date returned by an analysis.
type Anomaly struct {
	Date string `json:"date"`
}

// AnalysisResponse is the body of POST /analyze and POST /analyze_iqr.
type AnalysisResponse struct {
	Anomalies []Anomaly `json:"anomalies"`
}

// AnalysisQuery is the request body sent to an analysis endpoint.
type AnalysisQuery struct {
	Currency  Currency `json:"currency"`
	Market    Exchange `json:"market"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
}

// AnalysisMethod describes one anomaly detector exposed by the analysis
// service. All methods share request and response shapes.
type AnalysisMethod struct {
	Name    string `json:"name"`
	Path    string `json:"-"`
	Label   string `json:"label"`
	Button  string `json:"button"`
	Tooltip string `json:"tooltip"`
}

var (
	MethodZScore = AnalysisMethod{
		Name:    "zscore",
		Path:    "/analyze",
		Label:   "Anomaly Z-Score",
		Button:  "Analyze (Z-Score)",
		Tooltip: "Identifies anomalies by finding data points that are too far from the mean.",
	}
	MethodIQR = AnalysisMethod{
		Name:    "iqr",
		Path:    "/analyze_iqr",
		Label:   "Anomaly IQR",
		Button:  "Analyze (IQR)",
		Tooltip: "Identifies anomalies by finding data points that are too far from the median in terms of interquartile range.",
	}
)

// Methods lists the analysis methods in button order.
var Methods = []AnalysisMethod{MethodZScore, MethodIQR}

// MethodByName looks a method up by its short name.
func MethodByName(name string) (AnalysisMethod, bool) {
	for _, m := range Methods {
		if m.Name == name {
			return m, true
		}
	}
	return AnalysisMethod{}, false
}

// AnalysisEvent is the journal record of one completed analysis.
type AnalysisEvent struct {
	SessionID  string    `json:"session_id"`
	Method     string    `json:"method"`
	Exchange   Exchange  `json:"exchange"`
	Currency   Currency  `json:"currency"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	Outcome    string    `json:"outcome"`
	Anomalies  int       `json:"anomalies"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Stale      bool      `json:"stale"`
	At         time.Time `json:"at"`
}
