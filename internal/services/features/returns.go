package features

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"VolServe/internal/domain/models"
)

// PercentReturns computes r_t = (C_t / C_{t-1} - 1) * 100 for ascending rows.
// It returns len(rows)-1 points dated at the later row, or nil if there are
// fewer than two rows.
func PercentReturns(rows []models.PriceRecord) models.ReturnSeries {
	if len(rows) < 2 {
		return nil
	}
	out := make(models.ReturnSeries, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		prev := rows[i-1].Close
		cur := rows[i].Close
		r := math.NaN()
		if prev != 0 {
			r = (cur/prev - 1) * 100
		}
		out = append(out, models.ReturnPoint{Date: rows[i].Date, Return: r})
	}
	return out
}

// RealizedVolatility is the sample standard deviation of the last window
// returns, in the same units as the returns. Returns 0 when the window is
// larger than the series or too small to estimate.
func RealizedVolatility(returns []float64, window int) float64 {
	if window <= 1 || len(returns) < window {
		return 0
	}
	return stat.StdDev(returns[len(returns)-window:], nil)
}
