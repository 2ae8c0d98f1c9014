package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// FittedModel holds converged GARCH(p,q) estimates plus the tail state needed
// to forecast variance forward from the end of the fitting window.
type FittedModel struct {
	Ticker   string    `json:"ticker"`
	P        int       `json:"p"`
	Q        int       `json:"q"`
	FittedAt time.Time `json:"fitted_at"`

	Mu    float64   `json:"mu"`
	Omega float64   `json:"omega"`
	Alpha []float64 `json:"alpha"`
	Beta  []float64 `json:"beta"`

	LogLikelihood float64   `json:"log_likelihood"`
	NObs          int       `json:"nobs"`
	LastDate      time.Time `json:"last_date"`

	// Most recent residuals and conditional variances, oldest first.
	TailResiduals []float64 `json:"tail_residuals"`
	TailVariances []float64 `json:"tail_variances"`
}

// Persistence is sum(alpha) + sum(beta).
func (m *FittedModel) Persistence() float64 {
	var s float64
	for _, a := range m.Alpha {
		s += a
	}
	for _, b := range m.Beta {
		s += b
	}
	return s
}

// ForecastPoint is one business day of forecast volatility.
type ForecastPoint struct {
	Timestamp  string
	Volatility float64
}

// Forecast is an ordered, date-keyed volatility path. It marshals to a JSON
// object whose keys keep chronological order.
type Forecast []ForecastPoint

// MarshalJSON writes {"<timestamp>": <volatility>, ...} in slice order.
func (f Forecast) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p.Timestamp)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.Volatility)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object back, preserving key order as written.
func (f *Forecast) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("forecast: expected JSON object")
	}
	out := Forecast{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)
		var v float64
		if err := dec.Decode(&v); err != nil {
			return err
		}
		out = append(out, ForecastPoint{Timestamp: key, Volatility: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*f = out
	return nil
}

// Map returns the forecast as a plain lookup map. Ordering is lost.
func (f Forecast) Map() map[string]float64 {
	m := make(map[string]float64, len(f))
	for _, p := range f {
		m[p.Timestamp] = p.Volatility
	}
	return m
}
