package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"CandleScope/internal/domain/models"
	domsvc "CandleScope/internal/domain/service"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNotEnoughData is returned when there are fewer than two candles to
// draw.
var ErrNotEnoughData = errors.New("render: at least two candles are required")

var (
	closeColor  = drawing.ColorFromHex("1f77b4")
	rangeColor  = drawing.ColorFromHex("aec7e8")
	markerColor = drawing.ColorFromHex(models.MarkerColor[1:])
)

// PNGRenderer draws the close-price line of a snapshot with its anomaly
// markers as red vertical lines.
type PNGRenderer struct{}

func NewPNGRenderer() *PNGRenderer { return &PNGRenderer{} }

func (r *PNGRenderer) RenderPNG(ctx context.Context, snap *models.Snapshot, width, height int) ([]byte, error) {
	series := snap.Chart.Series
	if len(series) < 2 {
		return nil, ErrNotEnoughData
	}

	xs := make([]time.Time, len(series))
	closes := make([]float64, len(series))
	highs := make([]float64, len(series))
	lows := make([]float64, len(series))
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i, c := range series {
		xs[i] = c.Time
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
		minY = math.Min(minY, c.Low)
		maxY = math.Max(maxY, c.High)
	}
	minY, maxY = padRange(minY, maxY)

	all := []chart.Series{
		chart.TimeSeries{
			Name:    "High",
			XValues: xs,
			YValues: highs,
			Style:   chart.Style{StrokeColor: rangeColor, StrokeWidth: 1},
		},
		chart.TimeSeries{
			Name:    "Low",
			XValues: xs,
			YValues: lows,
			Style:   chart.Style{StrokeColor: rangeColor, StrokeWidth: 1},
		},
		chart.TimeSeries{
			Name:    "Close",
			XValues: xs,
			YValues: closes,
			Style:   chart.Style{StrokeColor: closeColor, StrokeWidth: 2},
		},
	}
	for _, a := range snap.Chart.Annotations {
		at := time.UnixMilli(a.X).UTC()
		all = append(all, chart.TimeSeries{
			Name:    a.Label.Text,
			XValues: []time.Time{at, at},
			YValues: []float64{minY, maxY},
			Style:   chart.Style{StrokeColor: markerColor, StrokeWidth: 1.5},
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s / %s", snap.Selection.Currency, snap.Selection.Exchange),
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: minY, Max: maxY},
		},
		Series: all,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render png: %w", err)
	}
	return buf.Bytes(), nil
}

// padRange widens a zero-width range so a flat series still gets an axis.
func padRange(lo, hi float64) (float64, float64) {
	if hi > lo {
		return lo, hi
	}
	pad := math.Abs(lo) * 0.01
	if pad == 0 {
		pad = 1
	}
	return lo - pad, hi + pad
}

var _ domsvc.ChartRenderer = (*PNGRenderer)(nil)
