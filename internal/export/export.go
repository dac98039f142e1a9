// Package export writes a wallet's accounting state as three semicolon flat
// files: asset positions, realized PnL events, and cumulative PnL totals.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/moonfolio/moonfolio/internal/domain"
)

// File names created inside the output directory.
const (
	PositionsFile = "positions.csv"
	PnLFile       = "pnl.csv"
	PnLTotalsFile = "pnl_totals.csv"
)

// timeLayout matches the import format so exported files round-trip.
const timeLayout = "2006-01-02 15:04:05"

// Report bundles everything a wallet export needs.
type Report struct {
	Positions map[string]domain.Position
	Events    []domain.PnLEvent
	Totals    []domain.PnLTotal
}

// Write creates the three report files in dir, writing them concurrently.
// Position rows carry asset;qty;average_cost;invested_total with 6-decimal
// rounding; events and totals carry exact values.
func Write(dir string, report Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: create dir %s: %w", dir, err)
	}

	var g errgroup.Group
	g.Go(func() error { return writePositions(filepath.Join(dir, PositionsFile), report.Positions) })
	g.Go(func() error { return writeEvents(filepath.Join(dir, PnLFile), report.Events) })
	g.Go(func() error { return writeTotals(filepath.Join(dir, PnLTotalsFile), report.Totals) })
	return g.Wait()
}

func writeFile(path string, write func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = ';'
	if err := write(w); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return f.Close()
}

func writePositions(path string, positions map[string]domain.Position) error {
	assets := make([]string, 0, len(positions))
	for asset := range positions {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	return writeFile(path, func(w *csv.Writer) error {
		for _, asset := range assets {
			pos := positions[asset]
			record := []string{
				asset,
				pos.Quantity.Round(6).String(),
				pos.AverageCost.Round(6).String(),
				pos.Invested().Round(6).String(),
			}
			if err := w.Write(record); err != nil {
				return fmt.Errorf("export: position row %s: %w", asset, err)
			}
		}
		return nil
	})
}

func writeEvents(path string, events []domain.PnLEvent) error {
	return writeFile(path, func(w *csv.Writer) error {
		for i, e := range events {
			record := []string{
				e.Timestamp.Format(timeLayout),
				e.Asset,
				e.Value.String(),
				e.Currency,
			}
			if err := w.Write(record); err != nil {
				return fmt.Errorf("export: pnl row %d: %w", i, err)
			}
		}
		return nil
	})
}

func writeTotals(path string, totals []domain.PnLTotal) error {
	return writeFile(path, func(w *csv.Writer) error {
		for i, t := range totals {
			record := []string{t.Asset, t.Value.String(), t.Currency}
			if err := w.Write(record); err != nil {
				return fmt.Errorf("export: pnl total row %d: %w", i, err)
			}
		}
		return nil
	})
}
