package models

import "time"

// Status is the outcome of the most recent action applied to a chart.
type Status string

const (
	StatusIdle        Status = "idle"
	StatusLoading     Status = "loading"
	StatusAnalyzing   Status = "analyzing"
	StatusReady       Status = "ready"
	StatusAnomalies   Status = "anomalies"
	StatusNoAnomalies Status = "no_anomalies"
	StatusError       Status = "error"
)

const (
	MarkerColor     = "#ff0000"
	MarkerTextColor = "#fff"
	NoAnomaliesText = "No anomalies were detected."
)

type LabelStyle struct {
	Color      string `json:"color"`
	Background string `json:"background"`
}

type Label struct {
	Style LabelStyle `json:"style"`
	Text  string     `json:"text"`
}

// Annotation is a vertical x-axis marker in the chart widget's shape.
type Annotation struct {
	X           int64  `json:"x"`
	BorderColor string `json:"borderColor"`
	Label       Label  `json:"label"`
}

// NewMarker builds the marker for an anomaly at t.
func NewMarker(t time.Time, text string) Annotation {
	return Annotation{
		X:           t.UnixMilli(),
		BorderColor: MarkerColor,
		Label: Label{
			Style: LabelStyle{Color: MarkerTextColor, Background: MarkerColor},
			Text:  text,
		},
	}
}

// ChartState is everything the page needs to draw the chart and the status
// line. It is only changed through the setters below.
type ChartState struct {
	Series      []Candle     `json:"series"`
	Annotations []Annotation `json:"annotations"`
	Status      Status       `json:"status"`
	Message     string       `json:"message,omitempty"`
	NoAnomalies bool         `json:"no_anomalies"`
}

// NewChartState returns an empty idle chart.
func NewChartState() ChartState {
	return ChartState{
		Series:      []Candle{},
		Annotations: []Annotation{},
		Status:      StatusIdle,
	}
}

// SetPending marks an action as in flight without touching series or
// markers. The outcome of the previous analysis no longer describes the
// chart, so the no-anomalies flag is cleared.
func (s *ChartState) SetPending(st Status) {
	s.Status = st
	s.Message = ""
	s.NoAnomalies = false
}

// ReplaceSeries swaps in a freshly fetched series and clears every
// analysis result.
func (s *ChartState) ReplaceSeries(series []Candle) {
	if series == nil {
		series = []Candle{}
	}
	s.Series = series
	s.ClearAnnotations()
	s.Status = StatusReady
	s.Message = ""
}

// ClearAnnotations drops all markers and the no-anomalies flag.
func (s *ChartState) ClearAnnotations() {
	s.Annotations = []Annotation{}
	s.NoAnomalies = false
}

// SetAnnotations replaces the markers with the result of one analysis.
// An empty set means the analysis found nothing.
func (s *ChartState) SetAnnotations(markers []Annotation) {
	if len(markers) == 0 {
		s.SetNoAnomalies()
		return
	}
	s.Annotations = markers
	s.NoAnomalies = false
	s.Status = StatusAnomalies
	s.Message = ""
}

// SetNoAnomalies records an analysis that returned an empty list.
func (s *ChartState) SetNoAnomalies() {
	s.Annotations = []Annotation{}
	s.NoAnomalies = true
	s.Status = StatusNoAnomalies
	s.Message = NoAnomaliesText
}

// SetError records a failed action. Series and markers stay as they were.
func (s *ChartState) SetError(msg string) {
	s.Status = StatusError
	s.Message = msg
	s.NoAnomalies = false
}

// Clone returns a deep copy safe to hand to other goroutines.
func (s ChartState) Clone() ChartState {
	out := s
	out.Series = append([]Candle(nil), s.Series...)
	out.Annotations = append([]Annotation(nil), s.Annotations...)
	if out.Series == nil {
		out.Series = []Candle{}
	}
	if out.Annotations == nil {
		out.Annotations = []Annotation{}
	}
	return out
}

// Snapshot is the view of one session pushed to the page.
type Snapshot struct {
	SessionID string     `json:"session_id"`
	Selection Selection  `json:"selection"`
	Chart     ChartState `json:"chart"`
	Version   uint64     `json:"version"`
}
