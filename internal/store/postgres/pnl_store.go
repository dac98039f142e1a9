package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/moonfolio/moonfolio/internal/domain"
)

// PnLStore implements domain.PnLStore using PostgreSQL. Events append only;
// totals are upserts keyed on (wallet, asset, currency) with the incoming
// value added to the running sum.
type PnLStore struct {
	db DB
}

// NewPnLStore creates a PnLStore over the given pool or transaction.
func NewPnLStore(db DB) *PnLStore {
	return &PnLStore{db: db}
}

// FindEvents returns the wallet's realized PnL events matching the filter,
// ascending by timestamp.
func (s *PnLStore) FindEvents(ctx context.Context, walletID int64, f domain.PnLFilter) ([]domain.PnLEvent, error) {
	query := `SELECT ts, asset, value::text, currency FROM pnl WHERE id_wallet = $1`
	args := []any{walletID}
	argIdx := 2

	if f.Asset != "" {
		query += fmt.Sprintf(" AND asset = $%d", argIdx)
		args = append(args, f.Asset)
		argIdx++
	}
	if f.Begin != nil {
		query += fmt.Sprintf(" AND ts >= $%d", argIdx)
		args = append(args, *f.Begin)
		argIdx++
	}
	if f.End != nil {
		query += fmt.Sprintf(" AND ts <= $%d", argIdx)
		args = append(args, *f.End)
		argIdx++
	}
	if f.Currency != "" {
		query += fmt.Sprintf(" AND currency = $%d", argIdx)
		args = append(args, f.Currency)
	}
	query += " ORDER BY ts"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: find pnl events: %w", err)
	}
	defer rows.Close()

	var events []domain.PnLEvent
	for rows.Next() {
		var (
			e     domain.PnLEvent
			value string
		)
		if err := rows.Scan(&e.Timestamp, &e.Asset, &value, &e.Currency); err != nil {
			return nil, fmt.Errorf("postgres: scan pnl event: %w", err)
		}
		if e.Value, err = decimal.NewFromString(value); err != nil {
			return nil, fmt.Errorf("postgres: parse pnl value %q: %w", value, err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// SaveEvents appends realized PnL events for the wallet.
func (s *PnLStore) SaveEvents(ctx context.Context, walletID int64, events []domain.PnLEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(`
			INSERT INTO pnl (id_wallet, ts, asset, value, currency)
			VALUES ($1, $2, $3, $4::numeric, $5)`,
			walletID, e.Timestamp, e.Asset, e.Value.String(), e.Currency)
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for i := range events {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: save pnl event %d: %w", i, err)
		}
	}
	return nil
}

// FindTotals returns the wallet's cumulative PnL buckets, sorted by asset
// then currency.
func (s *PnLStore) FindTotals(ctx context.Context, walletID int64) ([]domain.PnLTotal, error) {
	rows, err := s.db.Query(ctx,
		`SELECT asset, value::text, currency FROM pnl_total
		 WHERE id_wallet = $1 ORDER BY asset, currency`, walletID)
	if err != nil {
		return nil, fmt.Errorf("postgres: find pnl totals: %w", err)
	}
	defer rows.Close()

	var totals []domain.PnLTotal
	for rows.Next() {
		var (
			t     domain.PnLTotal
			value string
		)
		if err := rows.Scan(&t.Asset, &value, &t.Currency); err != nil {
			return nil, fmt.Errorf("postgres: scan pnl total: %w", err)
		}
		if t.Value, err = decimal.NewFromString(value); err != nil {
			return nil, fmt.Errorf("postgres: parse pnl total %q: %w", value, err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// SaveTotals writes the full merged totals for the wallet. Because the caller
// already carries the running sums, each bucket is replaced by value rather
// than re-accumulated.
func (s *PnLStore) SaveTotals(ctx context.Context, walletID int64, totals []domain.PnLTotal) error {
	if len(totals) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, t := range totals {
		batch.Queue(`
			INSERT INTO pnl_total (id_wallet, asset, value, currency)
			VALUES ($1, $2, $3::numeric, $4)
			ON CONFLICT (id_wallet, asset, currency)
			DO UPDATE SET value = EXCLUDED.value`,
			walletID, t.Asset, t.Value.String(), t.Currency)
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for i := range totals {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: save pnl total %d: %w", i, err)
		}
	}
	return nil
}

// DeleteByWallet removes every PnL event and total of the wallet.
func (s *PnLStore) DeleteByWallet(ctx context.Context, walletID int64) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM pnl WHERE id_wallet = $1`, walletID); err != nil {
		return fmt.Errorf("postgres: delete pnl events: %w", err)
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM pnl_total WHERE id_wallet = $1`, walletID); err != nil {
		return fmt.Errorf("postgres: delete pnl totals: %w", err)
	}
	return nil
}
