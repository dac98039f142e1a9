package fold

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonfolio/moonfolio/internal/domain"
)

type fakeFinder struct {
	trades []domain.Trade
	filter domain.TradeFilter
	err    error
}

func (f *fakeFinder) Find(_ context.Context, _ int64, filter domain.TradeFilter) ([]domain.Trade, error) {
	f.filter = filter
	return f.trades, f.err
}

func TestFilterNewEmptyBatch(t *testing.T) {
	_, err := FilterNew(context.Background(), 1, nil, &fakeFinder{})
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)
}

func TestFilterNewRemovesStoredTwins(t *testing.T) {
	stored := tradeAt(2, "BTCEUR", domain.SideBuy, "200", "3", "600", "0.10", "EUR")
	id := int64(42)
	stored.ID = &id

	candidates := []domain.Trade{
		tradeAt(3, "BTCEUR", domain.SideSell, "50", "4", "200", "0.10", "EUR"),
		tradeAt(2, "BTCEUR", domain.SideBuy, "200", "3", "600", "0.10", "EUR"),
		tradeAt(1, "BTCEUR", domain.SideBuy, "100", "2.5", "250", "0.10", "EUR"),
	}

	finder := &fakeFinder{trades: []domain.Trade{stored}}
	fresh, err := FilterNew(context.Background(), 1, candidates, finder)
	require.NoError(t, err)

	// The stored twin is removed even though it carries an ID and the
	// candidate does not.
	require.Len(t, fresh, 2)
	assert.True(t, fresh[0].Timestamp.Before(fresh[1].Timestamp), "result must be sorted ascending")
	assert.Equal(t, domain.SideBuy, fresh[0].Side)
	assert.Equal(t, domain.SideSell, fresh[1].Side)

	// The lookup range must cover the candidates' min and max timestamps.
	require.NotNil(t, finder.filter.Begin)
	require.NotNil(t, finder.filter.End)
	assert.True(t, finder.filter.Begin.Equal(candidates[2].Timestamp))
	assert.True(t, finder.filter.End.Equal(candidates[0].Timestamp))
}

func TestFilterNewIdempotent(t *testing.T) {
	candidates := []domain.Trade{
		tradeAt(1, "BTCEUR", domain.SideBuy, "100", "2.5", "250", "0.10", "EUR"),
		tradeAt(2, "BTCEUR", domain.SideBuy, "200", "3", "600", "0.10", "EUR"),
	}

	// First import: store is empty, everything is new.
	fresh, err := FilterNew(context.Background(), 1, candidates, &fakeFinder{})
	require.NoError(t, err)
	require.Len(t, fresh, 2)

	// Second import of the same file: everything is already stored.
	fresh, err = FilterNew(context.Background(), 1, candidates, &fakeFinder{trades: fresh})
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestFilterNewCollapsesInBatchDuplicates(t *testing.T) {
	dup := tradeAt(1, "BTCEUR", domain.SideBuy, "100", "2.5", "250", "0.10", "EUR")
	fresh, err := FilterNew(context.Background(), 1, []domain.Trade{dup, dup}, &fakeFinder{})
	require.NoError(t, err)
	assert.Len(t, fresh, 1)
}

func TestFilterNewNormalisedDecimals(t *testing.T) {
	stored := tradeAt(1, "BTCEUR", domain.SideBuy, "100", "2.5", "250", "0.10", "EUR")
	candidate := tradeAt(1, "BTCEUR", domain.SideBuy, "100.00", "2.50", "250.0", "0.1", "EUR")

	fresh, err := FilterNew(context.Background(), 1, []domain.Trade{candidate}, &fakeFinder{trades: []domain.Trade{stored}})
	require.NoError(t, err)
	assert.Empty(t, fresh, "trailing zeros must not defeat deduplication")
}

func TestFilterNewStoreError(t *testing.T) {
	boom := errors.New("connection reset")
	candidates := []domain.Trade{
		tradeAt(1, "BTCEUR", domain.SideBuy, "100", "2.5", "250", "0", ""),
	}

	_, err := FilterNew(context.Background(), 1, candidates, &fakeFinder{err: boom})
	assert.ErrorIs(t, err, boom)
}
