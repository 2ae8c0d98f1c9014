package models

import (
	"errors"
	"fmt"
)

var (
	ErrDataUnavailable = errors.New("data unavailable")
	ErrFitFailure      = errors.New("fit failure")
	ErrModelNotFound   = errors.New("model not found")
	ErrStore           = errors.New("store error")
	ErrInvalidInput    = errors.New("invalid input")
)

// Pipeline steps, used in error messages and metric labels.
const (
	StepValidate = "validate"
	StepPrepare  = "prepare data"
	StepFit      = "fit"
	StepSave     = "save model"
	StepLoad     = "load model"
	StepForecast = "forecast"
)

// PipelineError classifies a failure of one workflow step for one ticker.
type PipelineError struct {
	Kind   error // one of the Err* sentinels
	Ticker string
	Step   string
	Err    error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Ticker, e.Step, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Ticker, e.Step, e.Kind)
}

// Unwrap exposes both the sentinel kind and the underlying cause.
func (e *PipelineError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// NewPipelineError builds a PipelineError, inferring Kind from err when it
// already wraps one of the sentinels and falling back to def otherwise.
func NewPipelineError(ticker, step string, def, err error) *PipelineError {
	kind := def
	for _, k := range []error{ErrDataUnavailable, ErrFitFailure, ErrModelNotFound, ErrStore, ErrInvalidInput} {
		if errors.Is(err, k) {
			kind = k
			break
		}
	}
	return &PipelineError{Kind: kind, Ticker: ticker, Step: step, Err: err}
}

// KindLabel is a short stable label for the error kind.
func KindLabel(err error) string {
	switch {
	case errors.Is(err, ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, ErrFitFailure):
		return "fit_failure"
	case errors.Is(err, ErrModelNotFound):
		return "model_not_found"
	case errors.Is(err, ErrStore):
		return "store_error"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "unknown"
	}
}
