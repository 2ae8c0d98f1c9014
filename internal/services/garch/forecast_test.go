package garch

import (
	"errors"
	"math"
	"testing"

	"VolServe/internal/domain/models"
)

func TestForecastVarianceFirstStep(t *testing.T) {
	m := &models.FittedModel{
		P: 1, Q: 1,
		Omega: 0.1, Alpha: []float64{0.1}, Beta: []float64{0.8},
		TailResiduals: []float64{2},
		TailVariances: []float64{1.5},
	}
	got, err := ForecastVariance(m, 3)
	if err != nil {
		t.Fatalf("ForecastVariance: %v", err)
	}
	first := 0.1 + 0.1*4 + 0.8*1.5
	if math.Abs(got[0]-first) > 1e-12 {
		t.Fatalf("step 1 = %v, want %v", got[0], first)
	}
	second := 0.1 + 0.9*first
	if math.Abs(got[1]-second) > 1e-12 {
		t.Fatalf("step 2 = %v, want %v", got[1], second)
	}
}

func TestForecastVarianceConvergesToUnconditional(t *testing.T) {
	m := &models.FittedModel{
		P: 1, Q: 1,
		Omega: 0.05, Alpha: []float64{0.1}, Beta: []float64{0.85},
		TailResiduals: []float64{3},
		TailVariances: []float64{4},
	}
	got, err := ForecastVariance(m, 500)
	if err != nil {
		t.Fatal(err)
	}
	longRun := 0.05 / (1 - 0.95)
	if math.Abs(got[len(got)-1]-longRun) > 1e-6 {
		t.Fatalf("last step %v, want %v", got[len(got)-1], longRun)
	}
}

func TestForecastVarianceHigherOrderUsesLags(t *testing.T) {
	m := &models.FittedModel{
		P: 2, Q: 2,
		Omega: 0.1, Alpha: []float64{0.1, 0.05}, Beta: []float64{0.5, 0.2},
		TailResiduals: []float64{1, 2}, // e[T-1], e[T]
		TailVariances: []float64{3, 4}, // s2[T-1], s2[T]
	}
	got, err := ForecastVariance(m, 2)
	if err != nil {
		t.Fatal(err)
	}
	first := 0.1 + 0.1*4 + 0.05*1 + 0.5*4 + 0.2*3
	if math.Abs(got[0]-first) > 1e-12 {
		t.Fatalf("step 1 = %v, want %v", got[0], first)
	}
	second := 0.1 + 0.1*first + 0.05*4 + 0.5*first + 0.2*4
	if math.Abs(got[1]-second) > 1e-12 {
		t.Fatalf("step 2 = %v, want %v", got[1], second)
	}
}

func TestForecastVarianceRejectsBadInput(t *testing.T) {
	ok := &models.FittedModel{P: 1, Q: 1, Omega: 1, Alpha: []float64{0.1}, Beta: []float64{0.1},
		TailResiduals: []float64{1}, TailVariances: []float64{1}}
	if _, err := ForecastVariance(ok, 0); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("horizon 0: %v", err)
	}
	if _, err := ForecastVariance(nil, 1); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("nil model: %v", err)
	}
	broken := *ok
	broken.TailVariances = nil
	if _, err := ForecastVariance(&broken, 1); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("missing tail: %v", err)
	}
}
