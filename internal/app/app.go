// Package app provides top-level application lifecycle management: it wires
// the stores, cache, blob archiver and notifier together and dispatches the
// requested one-shot command.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/moonfolio/moonfolio/internal/config"
)

// Options are the command-line parameters of one invocation.
type Options struct {
	Mode     string // import | export | positions | wallets | migrate
	WalletID int64
	File     string // CSV file for import
	OutDir   string // output directory for export
}

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies, executes the requested command, and runs the
// registered cleanup functions on return.
func (a *App) Run(ctx context.Context, opts Options) error {
	a.logger.InfoContext(ctx, "starting",
		slog.String("mode", opts.Mode),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	switch strings.ToLower(opts.Mode) {
	case "import":
		return a.Import(ctx, deps, opts)
	case "export":
		return a.Export(ctx, deps, opts)
	case "positions":
		return a.ShowPositions(ctx, deps, opts)
	case "wallets":
		return a.ListWallets(ctx, deps)
	case "migrate":
		// Wire already ran migrations when enabled; nothing else to do.
		a.logger.InfoContext(ctx, "migrations applied")
		return nil
	default:
		return fmt.Errorf("app: unsupported mode %q", opts.Mode)
	}
}

// Close tears down all resources in reverse registration order. Safe to call
// multiple times.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
