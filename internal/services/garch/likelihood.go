package garch

import "math"

var log2Pi = math.Log(2 * math.Pi)

// params is the natural-scale parameter set.
type params struct {
	mu    float64
	omega float64
	alpha []float64
	beta  []float64
}

// likelihood evaluates the normal GARCH(p,q) negative log-likelihood for a
// fixed return series. The optimiser works on an unconstrained vector
//
//	x = [mu, log(omega), z_alpha..., z_beta...]
//
// and each coefficient is exp(z_k) / (1 + sum_j exp(z_j)), so omega > 0,
// every coefficient is positive and their sum stays below one.
type likelihood struct {
	y    []float64
	p, q int

	resid []float64
	e2    []float64
	s2    []float64
}

func newLikelihood(y []float64, p, q int) *likelihood {
	n := len(y)
	return &likelihood{
		y:     y,
		p:     p,
		q:     q,
		resid: make([]float64, n),
		e2:    make([]float64, n),
		s2:    make([]float64, n),
	}
}

func (l *likelihood) dim() int { return 2 + l.p + l.q }

// startValues places alpha at 0.1 and beta at 0.8 (split evenly across lags)
// and sets omega so the implied unconditional variance matches the sample.
func (l *likelihood) startValues(mean, variance float64) []float64 {
	x := make([]float64, l.dim())
	x[0] = mean

	coefs := make([]float64, 0, l.p+l.q)
	for i := 0; i < l.p; i++ {
		coefs = append(coefs, 0.1/float64(l.p))
	}
	for j := 0; j < l.q; j++ {
		coefs = append(coefs, 0.8/float64(l.q))
	}
	var persistence float64
	for _, c := range coefs {
		persistence += c
	}
	omega := variance * (1 - persistence)
	if omega <= 0 {
		omega = variance * 0.1
	}
	x[1] = math.Log(omega)
	for k, c := range coefs {
		x[2+k] = math.Log(c / (1 - persistence))
	}
	return x
}

func (l *likelihood) unpack(x []float64) params {
	par := params{
		mu:    x[0],
		omega: math.Exp(x[1]),
		alpha: make([]float64, l.p),
		beta:  make([]float64, l.q),
	}
	denom := 1.0
	for _, z := range x[2:] {
		denom += math.Exp(z)
	}
	for i := 0; i < l.p; i++ {
		par.alpha[i] = math.Exp(x[2+i]) / denom
	}
	for j := 0; j < l.q; j++ {
		par.beta[j] = math.Exp(x[2+l.p+j]) / denom
	}
	return par
}

// objective is the function handed to the optimiser.
func (l *likelihood) objective(x []float64) float64 {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return penalty
		}
	}
	par := l.unpack(x)
	sigma2 := l.variances(par)
	if sigma2 == nil {
		return penalty
	}
	v := l.nll(par, sigma2)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return penalty
	}
	return v
}

// variances runs the conditional variance recursion and returns the path, or
// nil if any variance is non-positive or non-finite. The returned slice is
// scratch space owned by l.
func (l *likelihood) variances(par params) []float64 {
	n := len(l.y)
	for t, v := range l.y {
		r := v - par.mu
		l.resid[t] = r
		l.e2[t] = r * r
	}
	bc := backcast(l.e2)

	for t := 0; t < n; t++ {
		s := par.omega
		for i, a := range par.alpha {
			lag := t - i - 1
			if lag >= 0 {
				s += a * l.e2[lag]
			} else {
				s += a * bc
			}
		}
		for j, b := range par.beta {
			lag := t - j - 1
			if lag >= 0 {
				s += b * l.s2[lag]
			} else {
				s += b * bc
			}
		}
		if !(s > 0) || math.IsInf(s, 0) {
			return nil
		}
		l.s2[t] = s
	}
	return l.s2
}

func (l *likelihood) nll(par params, sigma2 []float64) float64 {
	var sum float64
	for t, s := range sigma2 {
		sum += log2Pi + math.Log(s) + l.e2[t]/s
	}
	return 0.5 * sum
}

// backcast is an exponentially weighted mean of the first squared residuals,
// used for every pre-sample lag.
func backcast(e2 []float64) float64 {
	tau := min(backcastWindow, len(e2))
	var num, den float64
	w := 1.0
	for i := 0; i < tau; i++ {
		num += w * e2[i]
		den += w
		w *= backcastDecay
	}
	return num / den
}
