package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"VolServe/internal/domain/models"
	"VolServe/internal/repository"
	"VolServe/pkg/logger"
	"VolServe/pkg/metrics"
)

func newPreparer(t *testing.T) (*ReturnPreparer, *fakeProvider, *repository.SQLitePriceStore) {
	t.Helper()
	store, err := repository.NewSQLitePriceStore(filepath.Join(t.TempDir(), "p.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	prov := &fakeProvider{rows: map[string][]models.PriceRecord{}}
	return NewReturnPreparer(prov, store, metrics.Nop{}, logger.Nop(), "full"), prov, store
}

func TestPrepareKRowsGiveKMinusOneReturns(t *testing.T) {
	ctx := context.Background()
	p, _, store := newPreparer(t)
	for _, k := range []int{2, 3, 10, 25} {
		if err := store.ReplaceTable(ctx, "AAA", syntheticPrices(int64(k), k)); err != nil {
			t.Fatal(err)
		}
		got, err := p.Prepare(ctx, "AAA", false, 1000)
		if err != nil {
			t.Fatalf("k=%d: %v", k, err)
		}
		if len(got) != k-1 {
			t.Fatalf("k=%d: len = %d, want %d", k, len(got), k-1)
		}
	}
}

func TestPrepareCapsAtNPoints(t *testing.T) {
	ctx := context.Background()
	p, _, store := newPreparer(t)
	rows := syntheticPrices(3, 50)
	if err := store.ReplaceTable(ctx, "BBB", rows); err != nil {
		t.Fatal(err)
	}
	got, err := p.Prepare(ctx, "BBB", false, 30)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 30 {
		t.Fatalf("len = %d, want 30", len(got))
	}
	if !got.LastDate().Equal(rows[len(rows)-1].Date) {
		t.Fatalf("last date = %v, want most recent row", got.LastDate())
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Date.After(got[i-1].Date) {
			t.Fatalf("series not ascending at %d", i)
		}
	}
}

func TestPrepareNotEnoughRows(t *testing.T) {
	ctx := context.Background()
	p, _, store := newPreparer(t)
	if _, err := p.Prepare(ctx, "AAA", false, 10); !errors.Is(err, models.ErrDataUnavailable) {
		t.Fatalf("no rows: err = %v", err)
	}
	if err := store.ReplaceTable(ctx, "ONE", syntheticPrices(1, 1)); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Prepare(ctx, "ONE", false, 10); !errors.Is(err, models.ErrDataUnavailable) {
		t.Fatalf("one row: err = %v", err)
	}
}

func TestPrepareRefreshReplacesTable(t *testing.T) {
	ctx := context.Background()
	p, prov, store := newPreparer(t)
	if err := store.ReplaceTable(ctx, "CCC", syntheticPrices(1, 40)); err != nil {
		t.Fatal(err)
	}
	prov.rows["CCC"] = syntheticPrices(2, 12)

	got, err := p.Prepare(ctx, "CCC", true, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if prov.calls != 1 {
		t.Fatalf("provider calls = %d", prov.calls)
	}
	if len(got) != 11 {
		t.Fatalf("len = %d, want 11 after replace", len(got))
	}
}

func TestPrepareRefreshErrors(t *testing.T) {
	ctx := context.Background()
	p, prov, store := newPreparer(t)
	if err := store.ReplaceTable(ctx, "DDD", syntheticPrices(1, 20)); err != nil {
		t.Fatal(err)
	}

	prov.err = models.ErrDataUnavailable
	if _, err := p.Prepare(ctx, "DDD", true, 10); !errors.Is(err, models.ErrDataUnavailable) {
		t.Fatalf("err = %v", err)
	}

	prov.err = nil // empty download must not wipe the table
	if _, err := p.Prepare(ctx, "DDD", true, 10); !errors.Is(err, models.ErrDataUnavailable) {
		t.Fatalf("empty fetch err = %v", err)
	}
	rows, err := store.ReadTable(ctx, "DDD", 100)
	if err != nil || len(rows) != 20 {
		t.Fatalf("stored rows = %d, %v", len(rows), err)
	}
}

func TestPrepareRejectsNonPositiveN(t *testing.T) {
	p, _, _ := newPreparer(t)
	if _, err := p.Prepare(context.Background(), "AAA", false, 0); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
}
