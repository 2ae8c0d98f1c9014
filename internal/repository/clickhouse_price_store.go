package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"VolServe/internal/domain/models"
	drepo "VolServe/internal/domain/repository"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ClickHousePriceStore implements PriceStore on a ReplacingMergeTree table.
type ClickHousePriceStore struct {
	db    *sql.DB
	table string
}

func NewClickHousePriceStore(db *sql.DB, table string) (*ClickHousePriceStore, error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid clickhouse table name %q", table)
	}
	return &ClickHousePriceStore{db: db, table: table}, nil
}

// Schema returns the DDL for the price table.
func (s *ClickHousePriceStore) Schema() []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ticker LowCardinality(String),
		date   Date,
		open   Float64,
		high   Float64,
		low    Float64,
		close  Float64,
		volume Float64
	) ENGINE = ReplacingMergeTree
	ORDER BY (ticker, date)`, s.table)}
}

// ReplaceTable deletes the ticker's rows and inserts the new set as one
// batch. ClickHouse has no multi-statement transactions, so a reader can
// briefly observe the ticker with no rows.
func (s *ClickHousePriceStore) ReplaceTable(ctx context.Context, ticker string, rows []models.PriceRecord) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE ticker = ?", s.table), ticker); err != nil {
		return fmt.Errorf("%w: delete %s: %v", models.ErrStore, ticker, err)
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin batch: %v", models.ErrStore, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (ticker, date, open, high, low, close, volume)", s.table))
	if err != nil {
		return fmt.Errorf("%w: prepare batch: %v", models.ErrStore, err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, ticker, r.Date.UTC(), r.Open, r.High, r.Low, r.Close, r.Volume); err != nil {
			return fmt.Errorf("%w: append %s: %v", models.ErrStore, ticker, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: send batch: %v", models.ErrStore, err)
	}
	return nil
}

func (s *ClickHousePriceStore) ReadTable(ctx context.Context, ticker string, limit int) ([]models.PriceRecord, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be >= 1", models.ErrInvalidInput)
	}
	q := fmt.Sprintf(`SELECT date, open, high, low, close, volume
		FROM %s FINAL WHERE ticker = ? ORDER BY date DESC LIMIT ?`, s.table)
	rs, err := s.db.QueryContext(ctx, q, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", models.ErrStore, ticker, err)
	}
	defer rs.Close()

	var out []models.PriceRecord
	for rs.Next() {
		var (
			r models.PriceRecord
			d time.Time
		)
		if err := rs.Scan(&d, &r.Open, &r.High, &r.Low, &r.Close, &r.Volume); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %v", models.ErrStore, ticker, err)
		}
		r.Date = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		out = append(out, r)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows %s: %v", models.ErrStore, ticker, err)
	}
	reverse(out)
	return out, nil
}

func (s *ClickHousePriceStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to the clickhouse client.
func (s *ClickHousePriceStore) Close() error { return nil }

var _ drepo.PriceStore = (*ClickHousePriceStore)(nil)
