// Package service orchestrates the portfolio aggregate: CSV import with
// deduplication, folding, merging with persisted state, atomic persistence,
// cache refresh, archiving, and notification.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/moonfolio/moonfolio/internal/csvfile"
	"github.com/moonfolio/moonfolio/internal/domain"
	"github.com/moonfolio/moonfolio/internal/fold"
	"github.com/moonfolio/moonfolio/internal/notify"
)

// ImportResult summarises one CSV import.
type ImportResult struct {
	BatchID   string
	Candidate int // trades parsed from the file
	Imported  int // trades actually new
	Positions map[string]domain.Position
	Events    []domain.PnLEvent
	Totals    []domain.PnLTotal
}

// WalletService owns the accounting workflow of one wallet at a time. The
// archiver, cache, and notifier are optional; a nil dependency disables that
// step.
type WalletService struct {
	wallets   domain.WalletStore
	trades    domain.TradeStore
	positions domain.PositionStore
	pnl       domain.PnLStore
	importer  domain.ImportUnit
	cache     domain.PositionCache
	archiver  domain.BlobWriter
	notifier  *notify.Notifier
	assets    []string // ordered pair-decomposition priority list
	logger    *slog.Logger
}

// NewWalletService creates a WalletService with all dependencies.
func NewWalletService(
	wallets domain.WalletStore,
	trades domain.TradeStore,
	positions domain.PositionStore,
	pnl domain.PnLStore,
	importer domain.ImportUnit,
	cache domain.PositionCache,
	archiver domain.BlobWriter,
	notifier *notify.Notifier,
	assets []string,
	logger *slog.Logger,
) *WalletService {
	return &WalletService{
		wallets:   wallets,
		trades:    trades,
		positions: positions,
		pnl:       pnl,
		importer:  importer,
		cache:     cache,
		archiver:  archiver,
		notifier:  notifier,
		assets:    assets,
		logger:    logger.With(slog.String("component", "wallet_service")),
	}
}

// ImportCSV ingests a trade history file into the wallet: parse, filter out
// trades already stored, fold the new ones, merge with the persisted
// aggregate, and persist everything in one transaction. The cache refresh,
// file archiving, and mail notification that follow are best effort.
func (s *WalletService) ImportCSV(ctx context.Context, walletID int64, path string) (ImportResult, error) {
	wallet, err := s.wallets.Read(ctx, walletID)
	if err != nil {
		return ImportResult{}, fmt.Errorf("wallet_service: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("wallet_service: read csv %s: %w", path, err)
	}

	candidates, err := csvfile.ReadTrades(bytes.NewReader(data))
	if err != nil {
		return ImportResult{}, fmt.Errorf("wallet_service: parse csv %s: %w", path, err)
	}

	batchID := uuid.NewString()
	logger := s.logger.With(
		slog.String("batch_id", batchID),
		slog.Int64("wallet_id", walletID),
	)
	logger.InfoContext(ctx, "import started",
		slog.String("file", path),
		slog.Int("candidates", len(candidates)),
	)

	newTrades, err := fold.FilterNew(ctx, walletID, candidates, s.trades)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyBatch) {
			return ImportResult{}, fmt.Errorf("wallet_service: file %s holds no trades: %w", path, err)
		}
		return ImportResult{}, fmt.Errorf("wallet_service: %w", err)
	}

	result := ImportResult{BatchID: batchID, Candidate: len(candidates)}
	if len(newTrades) == 0 {
		logger.InfoContext(ctx, "import finished, nothing new")
		existing, err := s.Positions(ctx, walletID)
		if err != nil {
			return ImportResult{}, err
		}
		result.Positions = existing
		return result, nil
	}

	folded, err := fold.Fold(newTrades, s.assets)
	if err != nil {
		return ImportResult{}, fmt.Errorf("wallet_service: fold batch %s: %w", batchID, err)
	}

	existingPositions, err := s.positions.FindByWallet(ctx, walletID)
	if err != nil {
		return ImportResult{}, fmt.Errorf("wallet_service: %w", err)
	}
	existingTotals, err := s.pnl.FindTotals(ctx, walletID)
	if err != nil {
		return ImportResult{}, fmt.Errorf("wallet_service: %w", err)
	}

	mergedPositions, err := fold.MergePositions(existingPositions, folded.Positions)
	if err != nil {
		return ImportResult{}, fmt.Errorf("wallet_service: merge positions: %w", err)
	}
	mergedTotals := fold.MergeTotals(existingTotals, folded.Totals)

	batch := domain.ImportBatch{
		Trades:    newTrades,
		Positions: mergedPositions,
		Events:    folded.Events,
		Totals:    mergedTotals,
	}
	if err := s.importer.SaveImport(ctx, walletID, batch); err != nil {
		return ImportResult{}, fmt.Errorf("wallet_service: persist batch %s: %w", batchID, err)
	}

	result.Imported = len(newTrades)
	result.Positions = mergedPositions
	result.Events = folded.Events
	result.Totals = mergedTotals

	s.refreshCache(ctx, walletID, mergedPositions, logger)
	s.archiveFile(ctx, walletID, batchID, path, data, logger)
	s.notifyImport(ctx, wallet, result, logger)

	logger.InfoContext(ctx, "import finished",
		slog.Int("imported", result.Imported),
		slog.Int("pnl_events", len(result.Events)),
	)
	return result, nil
}

// Positions returns the wallet's position map, serving from the cache when it
// holds an entry and falling back to the store.
func (s *WalletService) Positions(ctx context.Context, walletID int64) (map[string]domain.Position, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, walletID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "position cache read failed",
				slog.Int64("wallet_id", walletID),
				slog.String("error", err.Error()),
			)
		}
	}

	positions, err := s.positions.FindByWallet(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("wallet_service: %w", err)
	}

	if s.cache != nil && len(positions) > 0 {
		if err := s.cache.Set(ctx, walletID, positions); err != nil {
			s.logger.WarnContext(ctx, "position cache refresh failed",
				slog.Int64("wallet_id", walletID),
				slog.String("error", err.Error()),
			)
		}
	}
	return positions, nil
}

// Report gathers the wallet's full accounting state for export.
func (s *WalletService) Report(ctx context.Context, walletID int64) (map[string]domain.Position, []domain.PnLEvent, []domain.PnLTotal, error) {
	positions, err := s.Positions(ctx, walletID)
	if err != nil {
		return nil, nil, nil, err
	}
	events, err := s.pnl.FindEvents(ctx, walletID, domain.PnLFilter{})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("wallet_service: %w", err)
	}
	totals, err := s.pnl.FindTotals(ctx, walletID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("wallet_service: %w", err)
	}
	return positions, events, totals, nil
}

// Trades returns the wallet's trades matching the filter.
func (s *WalletService) Trades(ctx context.Context, walletID int64, f domain.TradeFilter) ([]domain.Trade, error) {
	trades, err := s.trades.Find(ctx, walletID, f)
	if err != nil {
		return nil, fmt.Errorf("wallet_service: %w", err)
	}
	return trades, nil
}

func (s *WalletService) refreshCache(ctx context.Context, walletID int64, positions map[string]domain.Position, logger *slog.Logger) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, walletID, positions); err != nil {
		logger.WarnContext(ctx, "position cache refresh failed", slog.String("error", err.Error()))
	}
}

func (s *WalletService) archiveFile(ctx context.Context, walletID int64, batchID, path string, data []byte, logger *slog.Logger) {
	if s.archiver == nil {
		return
	}
	key := fmt.Sprintf("imports/%d/%s-%s-%s",
		walletID,
		time.Now().UTC().Format("20060102T150405Z"),
		batchID,
		filepath.Base(path),
	)
	if err := s.archiver.Put(ctx, key, bytes.NewReader(data), "text/csv"); err != nil {
		logger.WarnContext(ctx, "import file archive failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}
	logger.InfoContext(ctx, "import file archived", slog.String("key", key))
}

func (s *WalletService) notifyImport(ctx context.Context, wallet domain.Wallet, result ImportResult, logger *slog.Logger) {
	if s.notifier == nil {
		return
	}
	subject := fmt.Sprintf("[%s] %d trade(s) imported", wallet.Name, result.Imported)
	body := notify.PositionsHTML(result.Positions)
	if err := s.notifier.Notify(ctx, notify.EventImportDone, subject, body); err != nil {
		logger.WarnContext(ctx, "import notification failed", slog.String("error", err.Error()))
	}
}
