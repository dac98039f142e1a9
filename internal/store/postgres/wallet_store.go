package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/moonfolio/moonfolio/internal/domain"
)

// WalletStore implements domain.WalletStore using PostgreSQL.
type WalletStore struct {
	db DB
}

// NewWalletStore creates a WalletStore over the given pool or transaction.
func NewWalletStore(db DB) *WalletStore {
	return &WalletStore{db: db}
}

// Read returns the wallet with the given id, or domain.ErrNotFound.
func (s *WalletStore) Read(ctx context.Context, id int64) (domain.Wallet, error) {
	var w domain.Wallet
	err := s.db.QueryRow(ctx,
		`SELECT id, name, description FROM wallet WHERE id = $1`, id,
	).Scan(&w.ID, &w.Name, &w.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Wallet{}, fmt.Errorf("postgres: read wallet %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Wallet{}, fmt.Errorf("postgres: read wallet %d: %w", id, err)
	}
	return w, nil
}

// Find returns all wallets ordered by id.
func (s *WalletStore) Find(ctx context.Context) ([]domain.Wallet, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, description FROM wallet ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: find wallets: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		var w domain.Wallet
		if err := rows.Scan(&w.ID, &w.Name, &w.Description); err != nil {
			return nil, fmt.Errorf("postgres: scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// Save validates the wallet, inserts it when it has no id yet and updates it
// otherwise.
func (s *WalletStore) Save(ctx context.Context, w domain.Wallet) (domain.Wallet, error) {
	if err := w.Validate(); err != nil {
		return domain.Wallet{}, err
	}

	if w.ID == 0 {
		err := s.db.QueryRow(ctx,
			`INSERT INTO wallet (name, description) VALUES ($1, $2) RETURNING id`,
			w.Name, w.Description,
		).Scan(&w.ID)
		if err != nil {
			return domain.Wallet{}, fmt.Errorf("postgres: insert wallet: %w", err)
		}
		return w, nil
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE wallet SET name = $1, description = $2 WHERE id = $3`,
		w.Name, w.Description, w.ID)
	if err != nil {
		return domain.Wallet{}, fmt.Errorf("postgres: update wallet %d: %w", w.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Wallet{}, fmt.Errorf("postgres: update wallet %d: %w", w.ID, domain.ErrNotFound)
	}
	return w, nil
}

// Delete removes a wallet. It reads first so a missing id surfaces
// domain.ErrNotFound. Owned positions, trades and PnL rows cascade.
func (s *WalletStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.Read(ctx, id); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM wallet WHERE id = $1`, id); err != nil {
		return fmt.Errorf("postgres: delete wallet %d: %w", id, err)
	}
	return nil
}
