package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"CandleScope/internal/domain/models"
	"CandleScope/internal/domain/repository"
	"CandleScope/pkg/config"
	xhttp "CandleScope/pkg/http"
)

const ratesPath = "/rates"

// ErrMalformedResponse is returned when the service answers 2xx with a body
// that lacks the expected fields.
var ErrMalformedResponse = errors.New("analysis: malformed response")

// Client talks to the external analysis service. It serves both as the
// rates source and as the anomaly analyzer.
type Client struct {
	baseURL string
	client  *xhttp.Client
	metrics repository.Metrics
}

// NewClient builds a client with timeout and base URL from config.
func NewClient(cfg *config.Config, metrics repository.Metrics, opts ...xhttp.ClientOption) *Client {
	timeout := cfg.Analysis.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	opts = append([]xhttp.ClientOption{xhttp.WithTimeout(timeout)}, opts...)
	return &Client{
		baseURL: strings.TrimRight(cfg.Analysis.BaseURL, "/"),
		client:  xhttp.NewClient(opts...),
		metrics: metrics,
	}
}

// Rates implements repository.RatesSource.
func (c *Client) Rates(ctx context.Context, currency models.Currency, exchange models.Exchange) ([]models.PriceRecord, error) {
	var out []models.PriceRecord
	q := url.Values{}
	q.Set("currency_name", currency.String())
	q.Set("market_name", exchange.String())
	if err := c.GetJSON(ctx, ratesPath, q, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.PriceRecord{}
	}
	return out, nil
}

// Analyze implements repository.AnomalyAnalyzer.
func (c *Client) Analyze(ctx context.Context, method models.AnalysisMethod, q models.AnalysisQuery) ([]models.Anomaly, error) {
	var resp struct {
		Anomalies *[]models.Anomaly `json:"anomalies"`
	}
	if err := c.PostJSON(ctx, method.Path, q, &resp); err != nil {
		return nil, err
	}
	if resp.Anomalies == nil {
		return nil, fmt.Errorf("post %s: %w: no anomalies field", method.Path, ErrMalformedResponse)
	}
	return *resp.Anomalies, nil
}

// GetJSON issues a GET to path under baseURL and decodes JSON into dest.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, dest interface{}) error {
	start := time.Now()
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + path,
		QueryParams: query,
	}, dest)
	c.observe(path, start, err)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	return nil
}

// PostJSON posts payload to path under baseURL and decodes JSON into dest.
func (c *Client) PostJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	start := time.Now()
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + path,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: payload,
	}, dest)
	c.observe(path, start, err)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

func (c *Client) observe(path string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.metrics.RecordUpstream(path, result, time.Since(start).Seconds())
}

var (
	_ repository.RatesSource     = (*Client)(nil)
	_ repository.AnomalyAnalyzer = (*Client)(nil)
)
