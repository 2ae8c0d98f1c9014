package repository

import (
	"context"

	"VolServe/internal/domain/models"
)

// PriceProvider fetches raw daily price history from an external source.
type PriceProvider interface {
	// FetchDaily returns rows ascending by date. size is provider specific
	// ("compact" or "full" for Alpha Vantage).
	FetchDaily(ctx context.Context, ticker, size string) ([]models.PriceRecord, error)
	Name() string
}

// PriceStore persists per-ticker price tables.
type PriceStore interface {
	// ReplaceTable drops every stored row for ticker and writes rows in its place.
	ReplaceTable(ctx context.Context, ticker string, rows []models.PriceRecord) error
	// ReadTable returns up to limit of the most recent rows, ascending by date.
	ReadTable(ctx context.Context, ticker string, limit int) ([]models.PriceRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// ModelStore persists fitted models and resolves the latest per ticker.
type ModelStore interface {
	Save(ctx context.Context, m *models.FittedModel, ticker string) (string, error)
	LatestPath(ctx context.Context, ticker string) (string, error)
	Load(ctx context.Context, path string) (*models.FittedModel, error)
	LoadLatest(ctx context.Context, ticker string) (*models.FittedModel, error)
}

// EventPublisher announces lifecycle events to downstream consumers.
type EventPublisher interface {
	PublishModelTrained(ctx context.Context, evt *models.ModelTrainedEvent) error
	Close() error
}

type Metrics interface {
	RecordWorkflow(workflow, result string)
	RecordStepError(workflow, step, kind string)
	RecordLatency(op string, seconds float64)
	RecordFit(ticker string, persistence float64, nobs int)
	RecordCache(result string)
}
