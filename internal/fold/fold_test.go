package fold

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonfolio/moonfolio/internal/domain"
)

var testAssets = []string{"BTC", "ETH", "ADA", "EUR", "USDT"}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func tradeAt(day int, pair string, side domain.Side, qty, price, total, fee, feeAsset string) domain.Trade {
	return domain.NewTrade(
		pair, side, d(qty), d(price), d(total),
		time.Date(2021, time.March, day, 10, 0, 0, 0, time.UTC),
		d(fee), feeAsset, "", domain.OriginBinance,
	)
}

func TestFoldBuysAndSell(t *testing.T) {
	trades := []domain.Trade{
		tradeAt(1, "BTCEUR", domain.SideBuy, "100", "2.5", "250", "0.10", "EUR"),
		tradeAt(2, "BTCEUR", domain.SideBuy, "200", "3", "600", "0.10", "EUR"),
		tradeAt(3, "BTCEUR", domain.SideSell, "50", "4", "200", "0.10", "EUR"),
	}

	result, err := Fold(trades, testAssets)
	require.NoError(t, err)

	btc := result.Positions["BTC"]
	assert.True(t, btc.Quantity.Equal(d("250")), "BTC qty = %s", btc.Quantity)
	// (250 + 600) / 300
	wantPRU := d("850").Div(d("300"))
	assert.True(t, btc.AverageCost.Equal(wantPRU), "BTC pru = %s, want %s", btc.AverageCost, wantPRU)
	assert.Equal(t, "EUR", btc.Currency)

	// -250 - 600 + 200 - 3*0.10
	eur := result.Positions["EUR"]
	assert.True(t, eur.Quantity.Equal(d("-650.30")), "EUR qty = %s", eur.Quantity)

	require.Len(t, result.Events, 1)
	evt := result.Events[0]
	assert.Equal(t, "BTC", evt.Asset)
	assert.Equal(t, "EUR", evt.Currency)
	// 200 - 50 * 850/300
	wantPnL := d("200").Sub(d("50").Mul(wantPRU))
	assert.True(t, evt.Value.Equal(wantPnL), "pnl = %s, want %s", evt.Value, wantPnL)

	require.Len(t, result.Totals, 1)
	assert.Equal(t, "BTC", result.Totals[0].Asset)
	assert.True(t, result.Totals[0].Value.Equal(wantPnL))
}

func TestFoldEmptyInput(t *testing.T) {
	result, err := Fold(nil, testAssets)
	require.NoError(t, err)
	assert.Empty(t, result.Positions)
	assert.Empty(t, result.Events)
	assert.Empty(t, result.Totals)
}

func TestFoldWeightedAverageInvariant(t *testing.T) {
	// After BUYs only, the average cost is total spent over total bought,
	// whatever the order of the lots.
	trades := []domain.Trade{
		tradeAt(1, "ETHEUR", domain.SideBuy, "10", "100", "1000", "0", ""),
		tradeAt(2, "ETHEUR", domain.SideBuy, "5", "130", "650", "0", ""),
		tradeAt(3, "ETHEUR", domain.SideBuy, "25", "90", "2250", "0", ""),
	}

	result, err := Fold(trades, testAssets)
	require.NoError(t, err)

	eth := result.Positions["ETH"]
	want := d("3900").Div(d("40"))
	assert.True(t, eth.AverageCost.Equal(want), "pru = %s, want %s", eth.AverageCost, want)
	assert.True(t, eth.Quantity.Equal(d("40")))
	assert.Empty(t, result.Events)
}

func TestFoldZeroQuantityCleanup(t *testing.T) {
	trades := []domain.Trade{
		tradeAt(1, "ADAEUR", domain.SideBuy, "100", "1.2", "120", "0", ""),
		tradeAt(2, "ADAEUR", domain.SideSell, "100", "1.5", "150", "0", ""),
	}

	result, err := Fold(trades, testAssets)
	require.NoError(t, err)

	_, held := result.Positions["ADA"]
	assert.False(t, held, "net-zero ADA must be dropped")

	// EUR keeps its running balance: -120 + 150.
	eur := result.Positions["EUR"]
	assert.True(t, eur.Quantity.Equal(d("30")))

	require.Len(t, result.Events, 1)
	assert.True(t, result.Events[0].Value.Equal(d("30")))
}

func TestFoldFeeIsolation(t *testing.T) {
	withFees := []domain.Trade{
		tradeAt(1, "BTCEUR", domain.SideBuy, "2", "100", "200", "0.25", "BTC"),
		tradeAt(2, "BTCEUR", domain.SideSell, "1", "150", "150", "0.25", "BTC"),
	}
	withoutFees := []domain.Trade{
		tradeAt(1, "BTCEUR", domain.SideBuy, "2", "100", "200", "0", ""),
		tradeAt(2, "BTCEUR", domain.SideSell, "1", "150", "150", "0", ""),
	}

	feeResult, err := Fold(withFees, testAssets)
	require.NoError(t, err)
	plainResult, err := Fold(withoutFees, testAssets)
	require.NoError(t, err)

	// Fees shift the fee asset's quantity, nothing else.
	feeBTC := feeResult.Positions["BTC"]
	plainBTC := plainResult.Positions["BTC"]
	assert.True(t, feeBTC.AverageCost.Equal(plainBTC.AverageCost), "fees must not touch average cost")
	assert.True(t, feeBTC.Quantity.Equal(plainBTC.Quantity.Sub(d("0.5"))))

	require.Len(t, feeResult.Events, 1)
	require.Len(t, plainResult.Events, 1)
	assert.True(t, feeResult.Events[0].Value.Equal(plainResult.Events[0].Value))
}

func TestFoldSellResetsAverageCostAtZero(t *testing.T) {
	trades := []domain.Trade{
		tradeAt(1, "ETHUSDT", domain.SideBuy, "4", "1000", "4000", "0", ""),
		tradeAt(2, "ETHUSDT", domain.SideSell, "4", "1100", "4400", "1", "USDT"),
		tradeAt(3, "ETHUSDT", domain.SideBuy, "2", "900", "1800", "0", ""),
	}

	result, err := Fold(trades, testAssets)
	require.NoError(t, err)

	// The basis of the emptied position must not bleed into the new lot.
	eth := result.Positions["ETH"]
	assert.True(t, eth.Quantity.Equal(d("2")))
	assert.True(t, eth.AverageCost.Equal(d("900")), "pru = %s", eth.AverageCost)
}

func TestFoldMultiCurrencyTotals(t *testing.T) {
	trades := []domain.Trade{
		tradeAt(1, "BTCEUR", domain.SideBuy, "1", "100", "100", "0", ""),
		tradeAt(2, "BTCUSDT", domain.SideBuy, "1", "110", "110", "0", ""),
		tradeAt(3, "BTCEUR", domain.SideSell, "1", "120", "120", "0", ""),
		tradeAt(4, "BTCUSDT", domain.SideSell, "1", "100", "100", "0", ""),
	}

	result, err := Fold(trades, testAssets)
	require.NoError(t, err)

	require.Len(t, result.Totals, 2)
	// Sorted by asset then currency. The average cost is blended across both
	// quote currencies: after the two buys it is (100+110)/2 = 105, so the
	// EUR sell realizes 120-105 and the USDT sell realizes 100-105.
	assert.Equal(t, "EUR", result.Totals[0].Currency)
	assert.Equal(t, "USDT", result.Totals[1].Currency)
	assert.True(t, result.Totals[0].Value.Equal(d("15")), "EUR total = %s", result.Totals[0].Value)
	assert.True(t, result.Totals[1].Value.Equal(d("-5")), "USDT total = %s", result.Totals[1].Value)
}

func TestFoldTotalsAccumulateInMatchedBucket(t *testing.T) {
	trades := []domain.Trade{
		tradeAt(1, "ETHEUR", domain.SideBuy, "10", "100", "1000", "0", ""),
		tradeAt(2, "BTCEUR", domain.SideBuy, "1", "50", "50", "0", ""),
		tradeAt(3, "ETHEUR", domain.SideSell, "1", "110", "110", "0", ""),
		tradeAt(4, "BTCEUR", domain.SideSell, "1", "60", "60", "0", ""),
		tradeAt(5, "ETHEUR", domain.SideSell, "1", "120", "120", "0", ""),
	}

	result, err := Fold(trades, testAssets)
	require.NoError(t, err)

	require.Len(t, result.Totals, 2)
	assert.Equal(t, "BTC", result.Totals[0].Asset)
	assert.True(t, result.Totals[0].Value.Equal(d("10")))
	assert.Equal(t, "ETH", result.Totals[1].Asset)
	// 10 + 20, both ETH sells land in the same bucket.
	assert.True(t, result.Totals[1].Value.Equal(d("30")), "ETH total = %s", result.Totals[1].Value)
}

func TestFoldEventsSortedByTimestamp(t *testing.T) {
	trades := []domain.Trade{
		tradeAt(1, "BTCEUR", domain.SideBuy, "10", "10", "100", "0", ""),
		tradeAt(5, "BTCEUR", domain.SideSell, "1", "12", "12", "0", ""),
		tradeAt(3, "BTCEUR", domain.SideSell, "1", "11", "11", "0", ""),
	}

	result, err := Fold(trades, testAssets)
	require.NoError(t, err)

	require.Len(t, result.Events, 2)
	assert.True(t, result.Events[0].Timestamp.Before(result.Events[1].Timestamp))
}

func TestFoldUnknownPairFailsBatch(t *testing.T) {
	trades := []domain.Trade{
		tradeAt(1, "BTCEUR", domain.SideBuy, "1", "10", "10", "0", ""),
		tradeAt(2, "XYZABC", domain.SideBuy, "1", "10", "10", "0", ""),
	}

	_, err := Fold(trades, testAssets)
	require.Error(t, err)

	var dq *domain.DataQualityError
	assert.ErrorAs(t, err, &dq)
}
