package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/moonfolio/moonfolio/internal/domain"
)

// PositionCache implements domain.PositionCache using one Redis hash per
// wallet. Each asset is a hash field holding "qty|pru|currency"; decimals are
// stored as their exact string form so nothing is lost in the cache.
type PositionCache struct {
	rdb *redis.Client
}

// NewPositionCache creates a PositionCache backed by the given Client.
func NewPositionCache(c *Client) *PositionCache {
	return &PositionCache{rdb: c.Underlying()}
}

func positionsKey(walletID int64) string {
	return "positions:" + strconv.FormatInt(walletID, 10)
}

// Get returns the cached position map for a wallet, or domain.ErrNotFound
// when the wallet has no cache entry.
func (pc *PositionCache) Get(ctx context.Context, walletID int64) (map[string]domain.Position, error) {
	key := positionsKey(walletID)
	vals, err := pc.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get positions %d: %w", walletID, err)
	}
	if len(vals) == 0 {
		return nil, domain.ErrNotFound
	}

	positions := make(map[string]domain.Position, len(vals))
	for asset, packed := range vals {
		pos, err := unpackPosition(packed)
		if err != nil {
			return nil, fmt.Errorf("redis: positions %d asset %s: %w", walletID, asset, err)
		}
		positions[asset] = pos
	}
	return positions, nil
}

// Set replaces the cached position map for a wallet.
func (pc *PositionCache) Set(ctx context.Context, walletID int64, positions map[string]domain.Position) error {
	key := positionsKey(walletID)

	fields := make(map[string]any, len(positions))
	for asset, pos := range positions {
		fields[asset] = packPosition(pos)
	}

	pipe := pc.rdb.TxPipeline()
	pipe.Del(ctx, key)
	if len(fields) > 0 {
		pipe.HSet(ctx, key, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set positions %d: %w", walletID, err)
	}
	return nil
}

// Invalidate drops the cached position map for a wallet.
func (pc *PositionCache) Invalidate(ctx context.Context, walletID int64) error {
	if err := pc.rdb.Del(ctx, positionsKey(walletID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate positions %d: %w", walletID, err)
	}
	return nil
}

func packPosition(pos domain.Position) string {
	return pos.Quantity.String() + "|" + pos.AverageCost.String() + "|" + pos.Currency
}

func unpackPosition(packed string) (domain.Position, error) {
	parts := strings.SplitN(packed, "|", 3)
	if len(parts) != 3 {
		return domain.Position{}, fmt.Errorf("malformed cache entry %q", packed)
	}

	qty, err := decimal.NewFromString(parts[0])
	if err != nil {
		return domain.Position{}, fmt.Errorf("parse qty %q: %w", parts[0], err)
	}
	pru, err := decimal.NewFromString(parts[1])
	if err != nil {
		return domain.Position{}, fmt.Errorf("parse pru %q: %w", parts[1], err)
	}
	return domain.Position{Quantity: qty, AverageCost: pru, Currency: parts[2]}, nil
}
