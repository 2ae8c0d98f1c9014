package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"VolServe/internal/domain/models"
	drepo "VolServe/internal/domain/repository"
)

const sqliteDateLayout = "2006-01-02"

// SQLitePriceStore keeps daily prices for every ticker in a single
// daily_prices table keyed by (ticker, date).
type SQLitePriceStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLitePriceStore opens (or creates) the database file and runs migrations.
func NewSQLitePriceStore(path string) (*SQLitePriceStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps :memory: databases shared across calls and
	// serialises writers at the driver level too.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLitePriceStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLitePriceStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS daily_prices (
			ticker TEXT NOT NULL,
			date   TEXT NOT NULL,
			open   REAL,
			high   REAL,
			low    REAL,
			close  REAL NOT NULL,
			volume REAL,
			PRIMARY KEY (ticker, date)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceTable deletes every row for ticker and inserts rows, in one transaction.
func (s *SQLitePriceStore) ReplaceTable(ctx context.Context, ticker string, rows []models.PriceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", models.ErrStore, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_prices WHERE ticker = ?`, ticker); err != nil {
		return fmt.Errorf("%w: delete %s: %v", models.ErrStore, ticker, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO daily_prices
		(ticker, date, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", models.ErrStore, err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, ticker, r.Date.UTC().Format(sqliteDateLayout),
			r.Open, r.High, r.Low, r.Close, r.Volume); err != nil {
			return fmt.Errorf("%w: insert %s %s: %v", models.ErrStore, ticker, r.Date.Format(sqliteDateLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", models.ErrStore, err)
	}
	return nil
}

// ReadTable returns the limit most recent rows for ticker, ascending by date.
// A ticker that was never stored yields an empty slice.
func (s *SQLitePriceStore) ReadTable(ctx context.Context, ticker string, limit int) ([]models.PriceRecord, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be >= 1", models.ErrInvalidInput)
	}
	rs, err := s.db.QueryContext(ctx, `SELECT date, open, high, low, close, volume
		FROM daily_prices WHERE ticker = ? ORDER BY date DESC LIMIT ?`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", models.ErrStore, ticker, err)
	}
	defer rs.Close()

	var out []models.PriceRecord
	for rs.Next() {
		var (
			day                          string
			open, high, low, cls, volume sql.NullFloat64
		)
		if err := rs.Scan(&day, &open, &high, &low, &cls, &volume); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %v", models.ErrStore, ticker, err)
		}
		d, err := time.Parse(sqliteDateLayout, day)
		if err != nil {
			return nil, fmt.Errorf("%w: bad date %q: %v", models.ErrStore, day, err)
		}
		out = append(out, models.PriceRecord{
			Date:   d,
			Open:   open.Float64,
			High:   high.Float64,
			Low:    low.Float64,
			Close:  cls.Float64,
			Volume: volume.Float64,
		})
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows %s: %v", models.ErrStore, ticker, err)
	}
	reverse(out)
	return out, nil
}

func (s *SQLitePriceStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLitePriceStore) Close() error {
	return s.db.Close()
}

func reverse(rows []models.PriceRecord) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

var _ drepo.PriceStore = (*SQLitePriceStore)(nil)
