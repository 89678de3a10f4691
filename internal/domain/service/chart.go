package service

import (
	"context"

	"CandleScope/internal/domain/models"
)

// ChartRenderer draws a static image of a session's chart.
type ChartRenderer interface {
	RenderPNG(ctx context.Context, snap *models.Snapshot, width, height int) ([]byte, error)
}
