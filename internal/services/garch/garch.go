// Package garch fits constant-mean GARCH(p,q) models with normal innovations
// by maximum likelihood and projects their conditional variance forward.
package garch

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"VolServe/internal/domain/models"
	domsvc "VolServe/internal/domain/service"
)

const (
	backcastDecay  = 0.94
	backcastWindow = 75
	// objective value returned for parameter vectors that produce a
	// non-finite likelihood
	penalty = 1e12
)

type Config struct {
	MaxIterations int     `yaml:"max_iterations" default:"10000"`
	Tolerance     float64 `yaml:"tolerance" default:"1e-9"`
	Restarts      int     `yaml:"restarts" default:"2"`
}

// Fitter implements domsvc.VolatilityFitter.
type Fitter struct {
	cfg Config
	now func() time.Time
}

func NewFitter(cfg Config) *Fitter {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 10000
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 1e-9
	}
	if cfg.Restarts < 0 {
		cfg.Restarts = 0
	}
	return &Fitter{cfg: cfg, now: time.Now}
}

// Fit estimates mu, omega, alpha[p] and beta[q] on the series. p counts ARCH
// lags (squared residuals) and q counts GARCH lags (variances).
//
// p=0 is accepted. With no ARCH term the variance path ignores the data, so
// omega and beta are only weakly identified and the forecast decays
// geometrically toward omega/(1-beta).
func (f *Fitter) Fit(ctx context.Context, ticker string, series models.ReturnSeries, p, q int) (*models.FittedModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p < 0 || q < 0 || p+q == 0 {
		return nil, fmt.Errorf("%w: invalid order p=%d q=%d", models.ErrFitFailure, p, q)
	}
	y := series.Values()
	if err := checkSeries(y, p, q); err != nil {
		return nil, err
	}

	mean, variance := stat.MeanVariance(y, nil)
	lik := newLikelihood(y, p, q)
	x := lik.startValues(mean, variance)

	res, err := f.minimize(lik, x)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	par := lik.unpack(res.X)
	sigma2 := lik.variances(par)
	if sigma2 == nil {
		return nil, fmt.Errorf("%w: converged to an invalid variance path", models.ErrFitFailure)
	}
	ll := -lik.nll(par, sigma2)
	if math.IsNaN(ll) || math.IsInf(ll, 0) {
		return nil, fmt.Errorf("%w: non-finite log-likelihood", models.ErrFitFailure)
	}

	n := len(y)
	resid := make([]float64, n)
	for i, v := range y {
		resid[i] = v - par.mu
	}

	return &models.FittedModel{
		Ticker:        ticker,
		P:             p,
		Q:             q,
		FittedAt:      f.now().UTC(),
		Mu:            par.mu,
		Omega:         par.omega,
		Alpha:         par.alpha,
		Beta:          par.beta,
		LogLikelihood: ll,
		NObs:          n,
		LastDate:      series.LastDate(),
		TailResiduals: tail(resid, max(p, 1)),
		TailVariances: tail(sigma2, max(q, 1)),
	}, nil
}

// minimize runs Nelder-Mead from x0 and restarts it from the best point found
// so far, which lets a collapsed simplex re-expand.
func (f *Fitter) minimize(lik *likelihood, x0 []float64) (*optimize.Location, error) {
	problem := optimize.Problem{Func: lik.objective}

	var best *optimize.Location
	x := x0
	for i := 0; i <= f.cfg.Restarts; i++ {
		settings := &optimize.Settings{
			MajorIterations: f.cfg.MaxIterations,
			Converger: &optimize.FunctionConverge{
				Absolute:   f.cfg.Tolerance,
				Iterations: 200,
			},
		}
		res, err := optimize.Minimize(problem, x, settings, &optimize.NelderMead{SimplexSize: 0.1})
		if err != nil {
			return nil, fmt.Errorf("%w: optimizer: %v", models.ErrFitFailure, err)
		}
		if math.IsNaN(res.F) || math.IsInf(res.F, 0) || res.F >= penalty {
			return nil, fmt.Errorf("%w: optimizer returned a non-finite objective", models.ErrFitFailure)
		}
		if best != nil && best.F-res.F < f.cfg.Tolerance {
			if res.F < best.F {
				best = &res.Location
			}
			break
		}
		best = &res.Location
		x = res.X
	}
	return best, nil
}

func checkSeries(y []float64, p, q int) error {
	need := max(p, q) + 1
	if len(y) < need {
		return fmt.Errorf("%w: %d observations, need at least %d", models.ErrFitFailure, len(y), need)
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite return at index %d", models.ErrFitFailure, i)
		}
	}
	if stat.Variance(y, nil) <= 0 {
		return fmt.Errorf("%w: constant return series", models.ErrFitFailure)
	}
	return nil
}

func tail(xs []float64, n int) []float64 {
	if n > len(xs) {
		n = len(xs)
	}
	out := make([]float64, n)
	copy(out, xs[len(xs)-n:])
	return out
}

var _ domsvc.VolatilityFitter = (*Fitter)(nil)
