package models

import "time"

// PriceRecord is one daily OHLCV row for a ticker.
type PriceRecord struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// ReturnPoint is a single percentage return observed at Date.
type ReturnPoint struct {
	Date   time.Time
	Return float64
}

// ReturnSeries is an ascending sequence of percentage returns.
type ReturnSeries []ReturnPoint

// Values returns the bare return values in order.
func (s ReturnSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Return
	}
	return out
}

// LastDate returns the date of the final observation, or the zero time for an empty series.
func (s ReturnSeries) LastDate() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Date
}
