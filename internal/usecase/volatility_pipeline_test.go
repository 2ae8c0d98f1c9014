package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"VolServe/internal/domain/models"
)

func TestTrainWithoutStoredRowsFails(t *testing.T) {
	h := newHarness(t)
	res := h.pipeline.Train(context.Background(), TrainParams{Ticker: "AAA", NPoints: 100, P: 1, Q: 1})
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Message, "AAA") {
		t.Fatalf("message %q does not name the ticker", res.Message)
	}
	if !strings.HasPrefix(res.Message, "train AAA: prepare data:") {
		t.Fatalf("message %q does not name the step", res.Message)
	}
	if len(h.events.events) != 0 {
		t.Fatal("failed train published an event")
	}
	entries, _ := os.ReadDir(h.models.Dir())
	if len(entries) != 0 {
		t.Fatalf("failed train wrote %d files", len(entries))
	}
}

func TestTrainThenForecastBBB(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	if err := h.prices.ReplaceTable(ctx, "BBB", syntheticPrices(99, 50)); err != nil {
		t.Fatal(err)
	}

	res := h.pipeline.Train(ctx, TrainParams{Ticker: "BBB", NPoints: 30, P: 1, Q: 1})
	if !res.Success {
		t.Fatalf("train failed: %s", res.Message)
	}
	if res.Message != "Model saved as "+res.Filename+"." {
		t.Fatalf("message = %q", res.Message)
	}
	matches, err := filepath.Glob(filepath.Join(h.models.Dir(), "*BBB*"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("model files = %v, %v", matches, err)
	}
	if filepath.Base(matches[0]) != res.Filename {
		t.Fatalf("filename %s does not match file on disk %s", res.Filename, matches[0])
	}
	if len(h.events.events) != 1 || h.events.events[0].Ticker != "BBB" || h.events.events[0].ID == "" {
		t.Fatalf("events = %+v", h.events.events)
	}

	fc := h.pipeline.Forecast(ctx, ForecastParams{Ticker: "BBB", Days: 5})
	if !fc.Success {
		t.Fatalf("forecast failed: %s", fc.Message)
	}
	if fc.Message != "" {
		t.Fatalf("success message = %q", fc.Message)
	}
	if len(fc.Forecast) != 5 {
		t.Fatalf("forecast len = %d", len(fc.Forecast))
	}
	for i, p := range fc.Forecast {
		if p.Volatility < 0 {
			t.Fatalf("negative value %v", p.Volatility)
		}
		if i > 0 && p.Timestamp <= fc.Forecast[i-1].Timestamp {
			t.Fatalf("keys not increasing: %v", fc.Forecast)
		}
	}
}

func TestRoundTripMatchesDirectForecast(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	if err := h.prices.ReplaceTable(ctx, "RT", syntheticPrices(2024, 400)); err != nil {
		t.Fatal(err)
	}
	series, err := h.pipeline.preparer.Prepare(ctx, "RT", false, 300)
	if err != nil {
		t.Fatal(err)
	}
	fitted, err := h.fitter.Fit(ctx, "RT", series, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	direct, err := FormatForecast(h.fitter, fitted, 10)
	if err != nil {
		t.Fatal(err)
	}

	name, err := h.models.Save(ctx, fitted, "RT")
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := h.models.Load(ctx, filepath.Join(h.models.Dir(), name))
	if err != nil {
		t.Fatal(err)
	}
	viaDisk, err := FormatForecast(h.fitter, loaded, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(direct, viaDisk) {
		t.Fatalf("round trip changed the forecast:\n%v\n%v", direct, viaDisk)
	}

	served := h.pipeline.Forecast(ctx, ForecastParams{Ticker: "RT", Days: 10})
	if !served.Success || !reflect.DeepEqual(served.Forecast, direct) {
		t.Fatalf("pipeline forecast differs: %+v", served)
	}
}

func TestForecastIsCachedPerModelFile(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	if err := h.prices.ReplaceTable(ctx, "CCC", syntheticPrices(5, 120)); err != nil {
		t.Fatal(err)
	}
	res := h.pipeline.Train(ctx, TrainParams{Ticker: "CCC", NPoints: 100, P: 1, Q: 1})
	if !res.Success {
		t.Fatal(res.Message)
	}

	first := h.pipeline.Forecast(ctx, ForecastParams{Ticker: "CCC", Days: 3})
	if !first.Success {
		t.Fatal(first.Message)
	}
	key := "forecast:" + res.Filename + ":3"
	if ok, _ := h.cache.Exists(ctx, key); !ok {
		t.Fatalf("cache key %s not written", key)
	}

	// A hit must not need the file any more.
	if err := os.Remove(filepath.Join(h.models.Dir(), res.Filename)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(h.models.Dir(), res.Filename), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	second := h.pipeline.Forecast(ctx, ForecastParams{Ticker: "CCC", Days: 3})
	if !second.Success || !reflect.DeepEqual(first.Forecast, second.Forecast) {
		t.Fatalf("cached forecast differs: %+v", second)
	}
}

func TestForecastUnknownTicker(t *testing.T) {
	h := newHarness(t)
	res := h.pipeline.Forecast(context.Background(), ForecastParams{Ticker: "ZZZ", Days: 5})
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.HasPrefix(res.Message, "forecast ZZZ: load model:") {
		t.Fatalf("message = %q", res.Message)
	}
	if res.Forecast == nil || len(res.Forecast) != 0 {
		t.Fatalf("failed forecast should carry an empty mapping, got %#v", res.Forecast)
	}
}

func TestValidationFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cases := []struct {
		name string
		in   TrainParams
	}{
		{"bad ticker", TrainParams{Ticker: "../etc", NPoints: 10, P: 1, Q: 1}},
		{"zero order", TrainParams{Ticker: "AAA", NPoints: 10}},
		{"negative p", TrainParams{Ticker: "AAA", NPoints: 10, P: -1, Q: 1}},
		{"no points", TrainParams{Ticker: "AAA", NPoints: 0, P: 1, Q: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := h.pipeline.Train(ctx, tc.in)
			if res.Success || !strings.Contains(res.Message, ": validate:") {
				t.Fatalf("result = %+v", res)
			}
		})
	}
	if res := h.pipeline.Forecast(ctx, ForecastParams{Ticker: "AAA", Days: 0}); res.Success || !strings.Contains(res.Message, "validate") {
		t.Fatalf("days=0 result = %+v", res)
	}
}

func TestPublishFailureDoesNotFailTrain(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.events.err = errors.New("broker down")
	if err := h.prices.ReplaceTable(ctx, "DDD", syntheticPrices(8, 60)); err != nil {
		t.Fatal(err)
	}
	if res := h.pipeline.Train(ctx, TrainParams{Ticker: "ddd", NPoints: 50, P: 1, Q: 1}); !res.Success {
		t.Fatalf("train failed: %s", res.Message)
	}
}

func TestTrainWithRefreshUsesProvider(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.provider.rows["EEE"] = syntheticPrices(12, 80)
	res := h.pipeline.Train(ctx, TrainParams{Ticker: "EEE", RefreshData: true, NPoints: 60, P: 1, Q: 1})
	if !res.Success {
		t.Fatalf("train failed: %s", res.Message)
	}
	if h.provider.calls != 1 {
		t.Fatalf("provider calls = %d", h.provider.calls)
	}

	h.provider.err = models.ErrDataUnavailable
	res = h.pipeline.Train(ctx, TrainParams{Ticker: "EEE", RefreshData: true, NPoints: 60, P: 1, Q: 1})
	if res.Success || !strings.Contains(res.Message, "data unavailable") {
		t.Fatalf("result = %+v", res)
	}
}
