package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/moonfolio/moonfolio/internal/domain"
)

// TradeStore implements domain.TradeStore using PostgreSQL.
type TradeStore struct {
	db DB
}

// NewTradeStore creates a TradeStore over the given pool or transaction.
func NewTradeStore(db DB) *TradeStore {
	return &TradeStore{db: db}
}

const tradeSelectCols = `id, pair, side, qty::text, price::text, total::text,
	ts, fee::text, fee_asset, origin_id, origin`

func scanTrade(row pgx.Row) (domain.Trade, error) {
	var (
		t                      domain.Trade
		qty, price, total, fee string
	)
	if err := row.Scan(
		&t.ID, &t.Pair, &t.Side, &qty, &price, &total,
		&t.Timestamp, &fee, &t.FeeAsset, &t.OriginID, &t.Origin,
	); err != nil {
		return domain.Trade{}, err
	}

	var err error
	if t.Quantity, err = decimal.NewFromString(qty); err != nil {
		return domain.Trade{}, fmt.Errorf("parse qty %q: %w", qty, err)
	}
	if t.Price, err = decimal.NewFromString(price); err != nil {
		return domain.Trade{}, fmt.Errorf("parse price %q: %w", price, err)
	}
	if t.Total, err = decimal.NewFromString(total); err != nil {
		return domain.Trade{}, fmt.Errorf("parse total %q: %w", total, err)
	}
	if t.Fee, err = decimal.NewFromString(fee); err != nil {
		return domain.Trade{}, fmt.Errorf("parse fee %q: %w", fee, err)
	}
	return t, nil
}

// Find returns the wallet's trades matching the filter, ascending by
// timestamp. All criteria are optional; date bounds are inclusive and the
// pair supports '*' wildcards.
func (s *TradeStore) Find(ctx context.Context, walletID int64, f domain.TradeFilter) ([]domain.Trade, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trade WHERE id_wallet = $1`
	args := []any{walletID}
	argIdx := 2

	if f.Pair != "" {
		if strings.Contains(f.Pair, "*") {
			query += fmt.Sprintf(" AND pair LIKE $%d", argIdx)
			args = append(args, strings.ReplaceAll(f.Pair, "*", "%"))
		} else {
			query += fmt.Sprintf(" AND pair = $%d", argIdx)
			args = append(args, f.Pair)
		}
		argIdx++
	}
	if f.Side != nil {
		query += fmt.Sprintf(" AND side = $%d", argIdx)
		args = append(args, *f.Side)
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
	if f.Origin != nil {
		query += fmt.Sprintf(" AND origin = $%d", argIdx)
		args = append(args, *f.Origin)
	}

	query += " ORDER BY ts"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: find trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Read returns the trade with the given id, or domain.ErrNotFound.
func (s *TradeStore) Read(ctx context.Context, id int64) (domain.Trade, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+tradeSelectCols+` FROM trade WHERE id = $1`, id)
	t, err := scanTrade(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Trade{}, fmt.Errorf("postgres: read trade %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Trade{}, fmt.Errorf("postgres: read trade %d: %w", id, err)
	}
	return t, nil
}

const tradeInsertSQL = `
	INSERT INTO trade (id_wallet, pair, side, qty, price, total, ts, fee, fee_asset, origin_id, origin)
	VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7, $8::numeric, $9, $10, $11)`

func tradeInsertArgs(walletID int64, t domain.Trade) []any {
	return []any{
		walletID, t.Pair, t.Side,
		t.Quantity.String(), t.Price.String(), t.Total.String(),
		t.Timestamp, t.Fee.String(), t.FeeAsset, t.OriginID, t.Origin,
	}
}

// Save validates the trade, then inserts it when it has no id yet and
// updates it otherwise. The persisted trade (with id) is returned.
func (s *TradeStore) Save(ctx context.Context, walletID int64, t domain.Trade) (domain.Trade, error) {
	if err := t.Validate(); err != nil {
		return domain.Trade{}, err
	}

	if t.ID == nil {
		var id int64
		err := s.db.QueryRow(ctx, tradeInsertSQL+" RETURNING id", tradeInsertArgs(walletID, t)...).Scan(&id)
		if err != nil {
			return domain.Trade{}, fmt.Errorf("postgres: insert trade: %w", err)
		}
		t.ID = &id
		return t, nil
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE trade SET id_wallet = $1, pair = $2, side = $3, qty = $4::numeric,
			price = $5::numeric, total = $6::numeric, ts = $7, fee = $8::numeric,
			fee_asset = $9, origin_id = $10, origin = $11
		WHERE id = $12`,
		append(tradeInsertArgs(walletID, t), *t.ID)...)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("postgres: update trade %d: %w", *t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Trade{}, fmt.Errorf("postgres: update trade %d: %w", *t.ID, domain.ErrNotFound)
	}
	return t, nil
}

// SaveAll inserts every trade without an id in one batch. Trades that already
// carry an id are updated.
func (s *TradeStore) SaveAll(ctx context.Context, walletID int64, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	for i, t := range trades {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("postgres: trade %d: %w", i, err)
		}
	}

	batch := &pgx.Batch{}
	for _, t := range trades {
		if t.ID == nil {
			batch.Queue(tradeInsertSQL, tradeInsertArgs(walletID, t)...)
		} else {
			batch.Queue(`
				UPDATE trade SET id_wallet = $1, pair = $2, side = $3, qty = $4::numeric,
					price = $5::numeric, total = $6::numeric, ts = $7, fee = $8::numeric,
					fee_asset = $9, origin_id = $10, origin = $11
				WHERE id = $12`,
				append(tradeInsertArgs(walletID, t), *t.ID)...)
		}
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for i := range trades {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: save trade batch item %d: %w", i, err)
		}
	}
	return nil
}

// Delete removes the trade with the given id. It reads first so deleting a
// missing trade surfaces domain.ErrNotFound.
func (s *TradeStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.Read(ctx, id); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM trade WHERE id = $1`, id); err != nil {
		return fmt.Errorf("postgres: delete trade %d: %w", id, err)
	}
	return nil
}

// Pairs returns the distinct pairs traded in the wallet.
func (s *TradeStore) Pairs(ctx context.Context, walletID int64) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT DISTINCT pair FROM trade WHERE id_wallet = $1 ORDER BY pair`, walletID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list pairs: %w", err)
	}
	defer rows.Close()

	var pairs []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("postgres: scan pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}
