package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/moonfolio/moonfolio/internal/blob/s3"
	"github.com/moonfolio/moonfolio/internal/cache/redis"
	"github.com/moonfolio/moonfolio/internal/config"
	"github.com/moonfolio/moonfolio/internal/domain"
	"github.com/moonfolio/moonfolio/internal/notify"
	"github.com/moonfolio/moonfolio/internal/service"
	"github.com/moonfolio/moonfolio/internal/store/postgres"
)

// Dependencies bundles everything the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	WalletStore   domain.WalletStore
	TradeStore    domain.TradeStore
	PositionStore domain.PositionStore
	PnLStore      domain.PnLStore

	PositionCache domain.PositionCache
	Archiver      domain.BlobWriter
	Notifier      *notify.Notifier

	Wallets *service.WalletService
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function to be
// called on shutdown.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Database.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.WalletStore = postgres.NewWalletStore(pool)
	deps.TradeStore = postgres.NewTradeStore(pool)
	deps.PositionStore = postgres.NewPositionStore(pool)
	deps.PnLStore = postgres.NewPnLStore(pool)
	importUnit := postgres.NewImportUnit(pgClient)

	// --- Redis (optional position cache) ---
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.PositionCache = redis.NewPositionCache(redisClient)
	}

	// --- S3 (optional import archive) ---
	if cfg.S3.Bucket != "" {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewWriter(s3Client)
	}

	// --- Mail (optional import reports) ---
	var senders []notify.Sender
	if cfg.Mail.Host != "" {
		senders = append(senders, notify.NewMailSender(
			cfg.Mail.Host, cfg.Mail.Port,
			cfg.Mail.User, cfg.Mail.Password,
			cfg.Mail.From, cfg.Mail.To,
		))
	}
	if len(senders) > 0 {
		deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	}

	deps.Wallets = service.NewWalletService(
		deps.WalletStore,
		deps.TradeStore,
		deps.PositionStore,
		deps.PnLStore,
		importUnit,
		deps.PositionCache,
		deps.Archiver,
		deps.Notifier,
		cfg.Import.Assets,
		logger,
	)

	return deps, cleanup, nil
}
