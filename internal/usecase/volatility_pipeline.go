package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"VolServe/internal/domain/models"
	drepo "VolServe/internal/domain/repository"
	domsvc "VolServe/internal/domain/service"
	"VolServe/pkg/cache"
	"VolServe/pkg/logger"
)

const (
	WorkflowTrain    = "train"
	WorkflowForecast = "forecast"
)

type TrainParams struct {
	Ticker      string
	RefreshData bool
	NPoints     int
	P           int
	Q           int
}

type TrainResult struct {
	Success  bool
	Message  string
	Filename string
}

type ForecastParams struct {
	Ticker string
	Days   int
}

type ForecastResult struct {
	Success  bool
	Forecast models.Forecast
	Message  string
}

// VolatilityPipeline runs the train (prepare, fit, save) and forecast
// (resolve, load, format) workflows. Every failure is reported in the
// result rather than returned; nothing is retried.
type VolatilityPipeline struct {
	preparer *ReturnPreparer
	fitter   domsvc.VolatilityFitter
	store    drepo.ModelStore
	events   drepo.EventPublisher
	cache    cache.Service
	cacheTTL time.Duration
	metrics  drepo.Metrics
	log      *logger.Logger
	newID    func() string
}

func NewVolatilityPipeline(
	preparer *ReturnPreparer,
	fitter domsvc.VolatilityFitter,
	store drepo.ModelStore,
	events drepo.EventPublisher,
	forecastCache cache.Service,
	cacheTTL time.Duration,
	metrics drepo.Metrics,
	log *logger.Logger,
) *VolatilityPipeline {
	return &VolatilityPipeline{
		preparer: preparer,
		fitter:   fitter,
		store:    store,
		events:   events,
		cache:    forecastCache,
		cacheTTL: cacheTTL,
		metrics:  metrics,
		log:      log.With(logger.String("component", "pipeline")),
		newID:    uuid.NewString,
	}
}

// Train fits a GARCH(p,q) model on the latest NPoints returns and saves it.
func (vp *VolatilityPipeline) Train(ctx context.Context, in TrainParams) TrainResult {
	start := time.Now()
	defer func() { vp.metrics.RecordLatency(WorkflowTrain, time.Since(start).Seconds()) }()

	ticker, err := models.NormalizeTicker(in.Ticker)
	if err != nil {
		return TrainResult{Message: vp.fail(WorkflowTrain, in.Ticker, models.StepValidate, models.ErrInvalidInput, err)}
	}
	if err := validateTrain(in); err != nil {
		return TrainResult{Message: vp.fail(WorkflowTrain, ticker, models.StepValidate, models.ErrInvalidInput, err)}
	}

	series, err := vp.preparer.Prepare(ctx, ticker, in.RefreshData, in.NPoints)
	if err != nil {
		return TrainResult{Message: vp.fail(WorkflowTrain, ticker, models.StepPrepare, models.ErrDataUnavailable, err)}
	}

	fitStart := time.Now()
	m, err := vp.fitter.Fit(ctx, ticker, series, in.P, in.Q)
	vp.metrics.RecordLatency("fit", time.Since(fitStart).Seconds())
	if err != nil {
		return TrainResult{Message: vp.fail(WorkflowTrain, ticker, models.StepFit, models.ErrFitFailure, err)}
	}

	filename, err := vp.store.Save(ctx, m, ticker)
	if err != nil {
		return TrainResult{Message: vp.fail(WorkflowTrain, ticker, models.StepSave, models.ErrStore, err)}
	}

	vp.metrics.RecordFit(ticker, m.Persistence(), m.NObs)
	vp.metrics.RecordWorkflow(WorkflowTrain, "success")
	vp.log.Info("model trained",
		logger.String("ticker", ticker),
		logger.String("filename", filename),
		logger.Int("p", in.P),
		logger.Int("q", in.Q),
		logger.Int("nobs", m.NObs),
		logger.Float64("log_likelihood", m.LogLikelihood),
		logger.Float64("persistence", m.Persistence()),
		logger.Duration("elapsed_ms", time.Since(start)),
	)
	vp.publishTrained(ctx, m, filename)

	return TrainResult{
		Success:  true,
		Message:  fmt.Sprintf("Model saved as %s.", filename),
		Filename: filename,
	}
}

// Forecast serves days business days of volatility from the latest model.
func (vp *VolatilityPipeline) Forecast(ctx context.Context, in ForecastParams) ForecastResult {
	start := time.Now()
	defer func() { vp.metrics.RecordLatency(WorkflowForecast, time.Since(start).Seconds()) }()

	failed := func(msg string) ForecastResult {
		return ForecastResult{Forecast: models.Forecast{}, Message: msg}
	}

	ticker, err := models.NormalizeTicker(in.Ticker)
	if err != nil {
		return failed(vp.fail(WorkflowForecast, in.Ticker, models.StepValidate, models.ErrInvalidInput, err))
	}
	if in.Days < 1 {
		err := fmt.Errorf("%w: days must be >= 1, got %d", models.ErrInvalidInput, in.Days)
		return failed(vp.fail(WorkflowForecast, ticker, models.StepValidate, models.ErrInvalidInput, err))
	}

	path, err := vp.store.LatestPath(ctx, ticker)
	if err != nil {
		return failed(vp.fail(WorkflowForecast, ticker, models.StepLoad, models.ErrModelNotFound, err))
	}

	// Model files are immutable, so a key naming the file never goes stale.
	key := cache.GenerateKeyWithParams("forecast", filepath.Base(path), in.Days)
	var cached models.Forecast
	switch err := vp.cache.Get(ctx, key, &cached); {
	case err == nil:
		vp.metrics.RecordCache("hit")
		vp.metrics.RecordWorkflow(WorkflowForecast, "success")
		return ForecastResult{Success: true, Forecast: cached}
	case errors.Is(err, cache.ErrCacheMiss):
		vp.metrics.RecordCache("miss")
	default:
		vp.metrics.RecordCache("error")
		vp.log.Warn("forecast cache read failed", logger.String("key", key), logger.Error(err))
	}

	m, err := vp.store.Load(ctx, path)
	if err != nil {
		return failed(vp.fail(WorkflowForecast, ticker, models.StepLoad, models.ErrStore, err))
	}
	fc, err := FormatForecast(vp.fitter, m, in.Days)
	if err != nil {
		return failed(vp.fail(WorkflowForecast, ticker, models.StepForecast, models.ErrFitFailure, err))
	}

	if err := vp.cache.Set(ctx, key, fc, vp.cacheTTL); err != nil {
		vp.log.Warn("forecast cache write failed", logger.String("key", key), logger.Error(err))
	}
	vp.metrics.RecordWorkflow(WorkflowForecast, "success")
	vp.log.Debug("forecast served",
		logger.String("ticker", ticker),
		logger.String("model", filepath.Base(path)),
		logger.Int("days", in.Days),
	)
	return ForecastResult{Success: true, Forecast: fc}
}

// fail classifies err, records it and returns the user-facing message.
func (vp *VolatilityPipeline) fail(workflow, ticker, step string, def, err error) string {
	perr := models.NewPipelineError(ticker, step, def, err)
	kind := models.KindLabel(perr)
	vp.metrics.RecordWorkflow(workflow, "failure")
	vp.metrics.RecordStepError(workflow, step, kind)
	vp.log.Warn(workflow+" failed",
		logger.String("ticker", ticker),
		logger.String("step", step),
		logger.String("kind", kind),
		logger.Error(err),
	)
	return fmt.Sprintf("%s %s", workflow, perr.Error())
}

func (vp *VolatilityPipeline) publishTrained(ctx context.Context, m *models.FittedModel, filename string) {
	evt := &models.ModelTrainedEvent{
		ID:            vp.newID(),
		Ticker:        m.Ticker,
		Filename:      filename,
		P:             m.P,
		Q:             m.Q,
		NObs:          m.NObs,
		LogLikelihood: m.LogLikelihood,
		Persistence:   m.Persistence(),
		LastDate:      m.LastDate,
		FittedAt:      m.FittedAt,
	}
	if err := vp.events.PublishModelTrained(ctx, evt); err != nil {
		vp.log.Warn("model.trained publish failed",
			logger.String("ticker", m.Ticker),
			logger.String("event_id", evt.ID),
			logger.Error(err),
		)
	}
}

func validateTrain(in TrainParams) error {
	if in.NPoints < 1 {
		return fmt.Errorf("%w: n_points must be >= 1, got %d", models.ErrInvalidInput, in.NPoints)
	}
	if in.P < 0 || in.Q < 0 {
		return fmt.Errorf("%w: p and q must be >= 0, got p=%d q=%d", models.ErrInvalidInput, in.P, in.Q)
	}
	if in.P+in.Q == 0 {
		return fmt.Errorf("%w: p and q cannot both be zero", models.ErrInvalidInput)
	}
	return nil
}
