package repository

import (
	"context"

	"CandleScope/internal/domain/models"
)

// RatesSource returns the full price history of one currency on one market,
// in the order the analysis service reports it.
type RatesSource interface {
	Rates(ctx context.Context, currency models.Currency, exchange models.Exchange) ([]models.PriceRecord, error)
}

// AnomalyAnalyzer runs one analysis method over a date range.
type AnomalyAnalyzer interface {
	Analyze(ctx context.Context, method models.AnalysisMethod, q models.AnalysisQuery) ([]models.Anomaly, error)
}

// Journal stores completed analyses for later inspection.
type Journal interface {
	Record(ctx context.Context, ev *models.AnalysisEvent) error
	Close() error
}

// SnapshotPublisher pushes session state to connected pages.
type SnapshotPublisher interface {
	Publish(sessionID string, snap *models.Snapshot)
}

type Metrics interface {
	RecordUpstream(endpoint, result string, seconds float64)
	RecordStale(kind string)
	RecordAnalysis(method, outcome string, anomalies int)
	SetActiveSessions(n int)
}
