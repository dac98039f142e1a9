package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/moonfolio/moonfolio/internal/export"
)

// Import ingests a CSV trade history into the wallet given in opts.
func (a *App) Import(ctx context.Context, deps *Dependencies, opts Options) error {
	if opts.WalletID == 0 {
		return fmt.Errorf("app: import requires -wallet")
	}
	if opts.File == "" {
		return fmt.Errorf("app: import requires -file")
	}

	result, err := deps.Wallets.ImportCSV(ctx, opts.WalletID, opts.File)
	if err != nil {
		return err
	}

	a.logger.InfoContext(ctx, "import summary",
		slog.String("batch_id", result.BatchID),
		slog.Int("candidates", result.Candidate),
		slog.Int("imported", result.Imported),
		slog.Int("positions", len(result.Positions)),
		slog.Int("pnl_events", len(result.Events)),
	)
	return nil
}

// Export writes the wallet's positions, PnL events and PnL totals as three
// flat files into opts.OutDir.
func (a *App) Export(ctx context.Context, deps *Dependencies, opts Options) error {
	if opts.WalletID == 0 {
		return fmt.Errorf("app: export requires -wallet")
	}
	if opts.OutDir == "" {
		return fmt.Errorf("app: export requires -out")
	}

	positions, events, totals, err := deps.Wallets.Report(ctx, opts.WalletID)
	if err != nil {
		return err
	}

	if err := export.Write(opts.OutDir, export.Report{
		Positions: positions,
		Events:    events,
		Totals:    totals,
	}); err != nil {
		return err
	}

	a.logger.InfoContext(ctx, "export written",
		slog.String("dir", opts.OutDir),
		slog.Int("positions", len(positions)),
		slog.Int("pnl_events", len(events)),
		slog.Int("pnl_totals", len(totals)),
	)
	return nil
}

// ShowPositions prints the wallet's position map on stdout.
func (a *App) ShowPositions(ctx context.Context, deps *Dependencies, opts Options) error {
	if opts.WalletID == 0 {
		return fmt.Errorf("app: positions requires -wallet")
	}

	positions, err := deps.Wallets.Positions(ctx, opts.WalletID)
	if err != nil {
		return err
	}

	assets := make([]string, 0, len(positions))
	for asset := range positions {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ASSET\tQTY\tPRU\tCURRENCY\tINVESTED")
	for _, asset := range assets {
		pos := positions[asset]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			asset,
			pos.Quantity.String(),
			pos.AverageCost.String(),
			pos.Currency,
			pos.Invested().Round(6).String(),
		)
	}
	return w.Flush()
}

// ListWallets prints all wallets on stdout.
func (a *App) ListWallets(ctx context.Context, deps *Dependencies) error {
	wallets, err := deps.WalletStore.Find(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	for _, wal := range wallets {
		fmt.Fprintf(w, "%d\t%s\t%s\n", wal.ID, wal.Name, wal.Description)
	}
	return w.Flush()
}
