package usecase

import (
	"context"
	"fmt"
	"time"

	"VolServe/internal/domain/models"
	drepo "VolServe/internal/domain/repository"
	"VolServe/internal/services/features"
	"VolServe/pkg/logger"
)

// ReturnPreparer turns stored (and optionally refreshed) daily prices into
// a percentage return series.
type ReturnPreparer struct {
	provider   drepo.PriceProvider
	store      drepo.PriceStore
	metrics    drepo.Metrics
	log        *logger.Logger
	outputSize string
}

func NewReturnPreparer(
	provider drepo.PriceProvider,
	store drepo.PriceStore,
	metrics drepo.Metrics,
	log *logger.Logger,
	outputSize string,
) *ReturnPreparer {
	if outputSize == "" {
		outputSize = "full"
	}
	return &ReturnPreparer{
		provider:   provider,
		store:      store,
		metrics:    metrics,
		log:        log,
		outputSize: outputSize,
	}
}

// Prepare returns at most n returns for ticker, ascending by date. When
// refresh is set the stored table is replaced with a fresh download first.
func (p *ReturnPreparer) Prepare(ctx context.Context, ticker string, refresh bool, n int) (models.ReturnSeries, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: n_points must be >= 1, got %d", models.ErrInvalidInput, n)
	}

	if refresh {
		if err := p.refresh(ctx, ticker); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	rows, err := p.store.ReadTable(ctx, ticker, n+1)
	p.metrics.RecordLatency("read_prices", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("read prices: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %d stored price rows for %s, need at least 2", models.ErrDataUnavailable, len(rows), ticker)
	}
	return features.PercentReturns(rows), nil
}

func (p *ReturnPreparer) refresh(ctx context.Context, ticker string) error {
	start := time.Now()
	rows, err := p.provider.FetchDaily(ctx, ticker, p.outputSize)
	p.metrics.RecordLatency("fetch_prices", time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("fetch %s from %s: %w", ticker, p.provider.Name(), err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: %s returned no rows for %s", models.ErrDataUnavailable, p.provider.Name(), ticker)
	}
	if err := p.store.ReplaceTable(ctx, ticker, rows); err != nil {
		return fmt.Errorf("replace prices: %w", err)
	}
	p.log.Info("price table refreshed",
		logger.String("ticker", ticker),
		logger.String("provider", p.provider.Name()),
		logger.Int("rows", len(rows)),
	)
	return nil
}
