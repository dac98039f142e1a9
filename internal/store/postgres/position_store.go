package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/moonfolio/moonfolio/internal/domain"
)

// PositionStore implements domain.PositionStore using PostgreSQL. Positions
// are keyed on (wallet, asset), so saving is an upsert.
type PositionStore struct {
	db DB
}

// NewPositionStore creates a PositionStore over the given pool or transaction.
func NewPositionStore(db DB) *PositionStore {
	return &PositionStore{db: db}
}

// FindByWallet returns the wallet's position map. An empty map means the
// wallet holds nothing.
func (s *PositionStore) FindByWallet(ctx context.Context, walletID int64) (map[string]domain.Position, error) {
	rows, err := s.db.Query(ctx,
		`SELECT asset, qty::text, pru::text, currency FROM position WHERE id_wallet = $1`,
		walletID)
	if err != nil {
		return nil, fmt.Errorf("postgres: find positions: %w", err)
	}
	defer rows.Close()

	positions := make(map[string]domain.Position)
	for rows.Next() {
		var (
			asset, qty, pru, currency string
		)
		if err := rows.Scan(&asset, &qty, &pru, &currency); err != nil {
			return nil, fmt.Errorf("postgres: scan position: %w", err)
		}

		var pos domain.Position
		if pos.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("postgres: parse qty %q: %w", qty, err)
		}
		if pos.AverageCost, err = decimal.NewFromString(pru); err != nil {
			return nil, fmt.Errorf("postgres: parse pru %q: %w", pru, err)
		}
		pos.Currency = currency
		positions[asset] = pos
	}
	return positions, rows.Err()
}

// SaveAll reconciles the stored positions with the given map: every entry is
// upserted and assets no longer present are removed.
func (s *PositionStore) SaveAll(ctx context.Context, walletID int64, positions map[string]domain.Position) error {
	batch := &pgx.Batch{}

	assets := make([]string, 0, len(positions))
	for asset, pos := range positions {
		assets = append(assets, asset)
		batch.Queue(`
			INSERT INTO position (id_wallet, asset, qty, pru, currency)
			VALUES ($1, $2, $3::numeric, $4::numeric, $5)
			ON CONFLICT (id_wallet, asset)
			DO UPDATE SET qty = EXCLUDED.qty, pru = EXCLUDED.pru, currency = EXCLUDED.currency`,
			walletID, asset, pos.Quantity.String(), pos.AverageCost.String(), pos.Currency)
	}
	batch.Queue(`DELETE FROM position WHERE id_wallet = $1 AND asset != ALL($2)`,
		walletID, assets)

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: save position batch item %d: %w", i, err)
		}
	}
	return nil
}

// DeleteByWallet removes every position of the wallet.
func (s *PositionStore) DeleteByWallet(ctx context.Context, walletID int64) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM position WHERE id_wallet = $1`, walletID); err != nil {
		return fmt.Errorf("postgres: delete positions: %w", err)
	}
	return nil
}
