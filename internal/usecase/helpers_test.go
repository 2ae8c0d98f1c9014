package usecase

import (
	"context"
	"math"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"VolServe/internal/domain/models"
	"VolServe/internal/repository"
	"VolServe/internal/services/garch"
	"VolServe/pkg/cache"
	"VolServe/pkg/logger"
	"VolServe/pkg/metrics"
)

type fakeProvider struct {
	rows  map[string][]models.PriceRecord
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) FetchDaily(_ context.Context, ticker, _ string) ([]models.PriceRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[ticker], nil
}

type recordingEvents struct {
	mu     sync.Mutex
	events []*models.ModelTrainedEvent
	err    error
}

func (r *recordingEvents) PublishModelTrained(_ context.Context, evt *models.ModelTrainedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return r.err
}

func (r *recordingEvents) Close() error { return nil }

// syntheticPrices produces n business-day closes from a random walk whose
// volatility clusters, starting on Monday 2023-01-02.
func syntheticPrices(seed int64, n int) []models.PriceRecord {
	rng := rand.New(rand.NewSource(seed))
	day := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	price := 100.0
	s2 := 1.0
	var e float64
	out := make([]models.PriceRecord, 0, n)
	for len(out) < n {
		if day.Weekday() != time.Saturday && day.Weekday() != time.Sunday {
			s2 = 0.05 + 0.1*e*e + 0.85*s2
			e = math.Sqrt(s2) * rng.NormFloat64()
			price *= 1 + e/100
			out = append(out, models.PriceRecord{Date: day, Open: price, High: price * 1.01, Low: price * 0.99, Close: price, Volume: 1e6})
		}
		day = day.AddDate(0, 0, 1)
	}
	return out
}

type harness struct {
	pipeline *VolatilityPipeline
	provider *fakeProvider
	prices   *repository.SQLitePriceStore
	models   *repository.FileModelStore
	events   *recordingEvents
	cache    *cache.MemoryCache
	fitter   *garch.Fitter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	prices, err := repository.NewSQLitePriceStore(filepath.Join(dir, "stock_data.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = prices.Close() })
	store, err := repository.NewFileModelStore(filepath.Join(dir, "models"), "json")
	if err != nil {
		t.Fatal(err)
	}
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })

	h := &harness{
		provider: &fakeProvider{rows: map[string][]models.PriceRecord{}},
		prices:   prices,
		models:   store,
		events:   &recordingEvents{},
		cache:    mc,
		fitter:   garch.NewFitter(garch.Config{}),
	}
	preparer := NewReturnPreparer(h.provider, prices, metrics.Nop{}, logger.Nop(), "full")
	h.pipeline = NewVolatilityPipeline(preparer, h.fitter, store, h.events, mc, time.Hour, metrics.Nop{}, logger.Nop())
	return h
}
