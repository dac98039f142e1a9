package postgres

import (
	"context"
	"fmt"

	"github.com/moonfolio/moonfolio/internal/domain"
)

// ImportUnit implements domain.ImportUnit: the new trades, replaced
// positions, appended PnL events and upserted totals of one import batch are
// committed in a single transaction.
type ImportUnit struct {
	client *Client
}

// NewImportUnit creates an ImportUnit over the given client.
func NewImportUnit(client *Client) *ImportUnit {
	return &ImportUnit{client: client}
}

// SaveImport persists the batch atomically. A failure in any step rolls the
// whole import back, so stored positions can never disagree with stored
// trades.
func (u *ImportUnit) SaveImport(ctx context.Context, walletID int64, batch domain.ImportBatch) error {
	tx, err := u.client.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin import tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := NewTradeStore(tx).SaveAll(ctx, walletID, batch.Trades); err != nil {
		return fmt.Errorf("postgres: import trades: %w", err)
	}
	if err := NewPositionStore(tx).SaveAll(ctx, walletID, batch.Positions); err != nil {
		return fmt.Errorf("postgres: import positions: %w", err)
	}
	if err := NewPnLStore(tx).SaveEvents(ctx, walletID, batch.Events); err != nil {
		return fmt.Errorf("postgres: import pnl events: %w", err)
	}
	if err := NewPnLStore(tx).SaveTotals(ctx, walletID, batch.Totals); err != nil {
		return fmt.Errorf("postgres: import pnl totals: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit import tx: %w", err)
	}
	return nil
}
