package service

import (
	"context"

	"VolServe/internal/domain/models"
)

// VolatilityFitter fits a conditional variance model and projects it forward.
type VolatilityFitter interface {
	Fit(ctx context.Context, ticker string, series models.ReturnSeries, p, q int) (*models.FittedModel, error)
	// ForecastVariance returns horizon variance steps following the fitting window.
	ForecastVariance(m *models.FittedModel, horizon int) ([]float64, error)
}
