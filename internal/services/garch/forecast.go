package garch

import (
	"fmt"
	"math"

	"VolServe/internal/domain/models"
)

// ForecastVariance projects the conditional variance horizon steps past the
// last fitted observation. Future squared residuals are replaced by their
// expectation, the forecast variance of the same step.
func (f *Fitter) ForecastVariance(m *models.FittedModel, horizon int) ([]float64, error) {
	return ForecastVariance(m, horizon)
}

func ForecastVariance(m *models.FittedModel, horizon int) ([]float64, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil model", models.ErrInvalidInput)
	}
	if horizon < 1 {
		return nil, fmt.Errorf("%w: horizon must be >= 1, got %d", models.ErrInvalidInput, horizon)
	}
	if len(m.Alpha) != m.P || len(m.Beta) != m.Q {
		return nil, fmt.Errorf("%w: coefficient count does not match order (%d,%d)", models.ErrInvalidInput, m.P, m.Q)
	}
	if len(m.TailResiduals) < m.P || len(m.TailVariances) < m.Q {
		return nil, fmt.Errorf("%w: model is missing tail state", models.ErrInvalidInput)
	}

	e2 := make([]float64, 0, len(m.TailResiduals)+horizon)
	for _, r := range m.TailResiduals {
		e2 = append(e2, r*r)
	}
	s2 := make([]float64, 0, len(m.TailVariances)+horizon)
	s2 = append(s2, m.TailVariances...)

	out := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		v := m.Omega
		for i, a := range m.Alpha {
			v += a * e2[len(e2)-1-i]
		}
		for j, b := range m.Beta {
			v += b * s2[len(s2)-1-j]
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, fmt.Errorf("%w: non-finite variance at step %d", models.ErrFitFailure, h+1)
		}
		out[h] = v
		e2 = append(e2, v)
		s2 = append(s2, v)
	}
	return out, nil
}
