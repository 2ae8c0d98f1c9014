package usecase

import (
	"fmt"
	"math"

	"VolServe/internal/domain/models"
	domsvc "VolServe/internal/domain/service"
	"VolServe/pkg/util"
)

// FormatForecast projects m horizon business days past its last fitted date
// and returns volatility (the square root of variance) keyed by midnight
// timestamps.
func FormatForecast(fitter domsvc.VolatilityFitter, m *models.FittedModel, horizon int) (models.Forecast, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("%w: horizon must be >= 1, got %d", models.ErrInvalidInput, horizon)
	}
	variances, err := fitter.ForecastVariance(m, horizon)
	if err != nil {
		return nil, err
	}
	if len(variances) != horizon {
		return nil, fmt.Errorf("%w: expected %d variance steps, got %d", models.ErrFitFailure, horizon, len(variances))
	}

	days := util.BusinessDaysAfter(m.LastDate, horizon)
	out := make(models.Forecast, horizon)
	for i, v := range variances {
		out[i] = models.ForecastPoint{
			Timestamp:  days[i].Format(util.TimestampLayout),
			Volatility: math.Sqrt(math.Max(v, 0)),
		}
	}
	return out, nil
}
