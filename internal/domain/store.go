package domain

import (
	"context"
	"io"
	"time"
)

// TradeFilter narrows a trade search. All criteria are independently
// optional; date bounds are inclusive. Pair supports '*' wildcard matching.
type TradeFilter struct {
	Pair   string
	Side   *Side
	Begin  *time.Time
	End    *time.Time
	Origin *Origin
}

// PnLFilter narrows a PnL event search.
type PnLFilter struct {
	Asset    string
	Begin    *time.Time
	End      *time.Time
	Currency string
}

// WalletStore persists wallets.
type WalletStore interface {
	Read(ctx context.Context, id int64) (Wallet, error)
	Find(ctx context.Context) ([]Wallet, error)
	// Save inserts when the wallet has no id yet, updates otherwise, and
	// returns the persisted wallet.
	Save(ctx context.Context, w Wallet) (Wallet, error)
	// Delete reads first so a missing id surfaces ErrNotFound.
	Delete(ctx context.Context, id int64) error
}

// TradeStore persists trades for a wallet.
type TradeStore interface {
	Find(ctx context.Context, walletID int64, f TradeFilter) ([]Trade, error)
	Read(ctx context.Context, id int64) (Trade, error)
	Save(ctx context.Context, walletID int64, t Trade) (Trade, error)
	SaveAll(ctx context.Context, walletID int64, trades []Trade) error
	// Delete reads first so a missing id surfaces ErrNotFound.
	Delete(ctx context.Context, id int64) error
}

// PositionStore persists the per-asset position map of a wallet.
type PositionStore interface {
	FindByWallet(ctx context.Context, walletID int64) (map[string]Position, error)
	// SaveAll reconciles the stored map with the given one: upserts every
	// entry and removes assets no longer present.
	SaveAll(ctx context.Context, walletID int64, positions map[string]Position) error
	DeleteByWallet(ctx context.Context, walletID int64) error
}

// PnLStore persists realized PnL events and their cumulative totals.
type PnLStore interface {
	FindEvents(ctx context.Context, walletID int64, f PnLFilter) ([]PnLEvent, error)
	SaveEvents(ctx context.Context, walletID int64, events []PnLEvent) error
	FindTotals(ctx context.Context, walletID int64) ([]PnLTotal, error)
	SaveTotals(ctx context.Context, walletID int64, totals []PnLTotal) error
	DeleteByWallet(ctx context.Context, walletID int64) error
}

// ImportBatch is the outcome of folding one batch of new trades, merged with
// the previously persisted state of the wallet.
type ImportBatch struct {
	Trades    []Trade             // new trades only, ascending by timestamp
	Positions map[string]Position // full merged position map
	Events    []PnLEvent          // new events only, ascending by timestamp
	Totals    []PnLTotal          // full merged totals
}

// ImportUnit persists one import batch atomically: the new trades, the
// replaced position map, the appended PnL events and the upserted totals are
// committed as one unit so a partial import cannot leave positions
// inconsistent with stored trades.
type ImportUnit interface {
	SaveImport(ctx context.Context, walletID int64, batch ImportBatch) error
}

// PositionCache caches the position map of a wallet for cheap reads between
// imports.
type PositionCache interface {
	Get(ctx context.Context, walletID int64) (map[string]Position, error)
	Set(ctx context.Context, walletID int64, positions map[string]Position) error
	Invalidate(ctx context.Context, walletID int64) error
}

// BlobWriter archives raw import files to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}
