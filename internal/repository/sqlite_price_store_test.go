package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"VolServe/internal/domain/models"
)

func newSQLiteStore(t *testing.T) *SQLitePriceStore {
	t.Helper()
	s, err := NewSQLitePriceStore(filepath.Join(t.TempDir(), "prices.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func priceRows(start time.Time, closes ...float64) []models.PriceRecord {
	out := make([]models.PriceRecord, len(closes))
	for i, c := range closes {
		out[i] = models.PriceRecord{Date: start.AddDate(0, 0, i), Open: c - 1, High: c + 1, Low: c - 2, Close: c, Volume: 1000 + float64(i)}
	}
	return out
}

func TestSQLiteReplaceAndRead(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := s.ReplaceTable(ctx, "AAA", priceRows(start, 10, 11, 12, 13, 14)); err != nil {
		t.Fatalf("ReplaceTable: %v", err)
	}
	got, err := s.ReadTable(ctx, "AAA", 3)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	want := []float64{12, 13, 14}
	for i, r := range got {
		if r.Close != want[i] {
			t.Fatalf("row %d close = %v, want %v", i, r.Close, want[i])
		}
	}
	if !got[2].Date.Equal(start.AddDate(0, 0, 4)) {
		t.Fatalf("last date = %v", got[2].Date)
	}
	if got[0].Volume != 1002 || got[0].High != 13 {
		t.Fatalf("columns not round-tripped: %+v", got[0])
	}
}

func TestSQLiteReplaceIsDestructive(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := s.ReplaceTable(ctx, "AAA", priceRows(start, 1, 2, 3, 4)); err != nil {
		t.Fatal(err)
	}
	if err := s.ReplaceTable(ctx, "BBB", priceRows(start, 50, 51)); err != nil {
		t.Fatal(err)
	}
	if err := s.ReplaceTable(ctx, "AAA", priceRows(start.AddDate(0, 1, 0), 7, 8)); err != nil {
		t.Fatal(err)
	}

	got, err := s.ReadTable(ctx, "AAA", 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Close != 7 {
		t.Fatalf("old rows survived replace: %+v", got)
	}
	other, err := s.ReadTable(ctx, "BBB", 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 2 {
		t.Fatalf("replace touched another ticker: %d rows", len(other))
	}
}

func TestSQLiteReadUnknownTicker(t *testing.T) {
	s := newSQLiteStore(t)
	got, err := s.ReadTable(context.Background(), "NONE", 10)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no rows, got %d", len(got))
	}
	if err := s.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}
