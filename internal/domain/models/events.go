package models

import "time"

// ModelTrainedEvent is published after a fitted model is persisted.
type ModelTrainedEvent struct {
	ID            string    `json:"id"`
	Ticker        string    `json:"ticker"`
	Filename      string    `json:"filename"`
	P             int       `json:"p"`
	Q             int       `json:"q"`
	NObs          int       `json:"nobs"`
	LogLikelihood float64   `json:"log_likelihood"`
	Persistence   float64   `json:"persistence"`
	LastDate      time.Time `json:"last_date"`
	FittedAt      time.Time `json:"fitted_at"`
}
