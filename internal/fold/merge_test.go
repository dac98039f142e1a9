package fold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonfolio/moonfolio/internal/domain"
)

func TestMergePositions(t *testing.T) {
	existing := map[string]domain.Position{
		"BTC": {Quantity: d("2"), AverageCost: d("100"), Currency: "EUR"},
		"EUR": {Quantity: d("-200")},
	}
	incoming := map[string]domain.Position{
		"BTC": {Quantity: d("1"), AverageCost: d("130"), Currency: "EUR"},
		"ETH": {Quantity: d("5"), AverageCost: d("50"), Currency: "EUR"},
	}

	merged, err := MergePositions(existing, incoming)
	require.NoError(t, err)
	require.Len(t, merged, 3)

	btc := merged["BTC"]
	assert.True(t, btc.Quantity.Equal(d("3")))
	// (2*100 + 1*130) / 3
	want := d("330").Div(d("3"))
	assert.True(t, btc.AverageCost.Equal(want), "pru = %s, want %s", btc.AverageCost, want)

	// Assets present on one side only pass through untouched.
	assert.True(t, merged["ETH"].Quantity.Equal(d("5")))
	assert.True(t, merged["EUR"].Quantity.Equal(d("-200")))
}

func TestMergePositionsCurrencyMismatch(t *testing.T) {
	existing := map[string]domain.Position{
		"BTC": {Quantity: d("1"), AverageCost: d("100"), Currency: "EUR"},
	}
	incoming := map[string]domain.Position{
		"BTC": {Quantity: d("1"), AverageCost: d("100"), Currency: "USDT"},
	}

	_, err := MergePositions(existing, incoming)
	require.Error(t, err)

	var dq *domain.DataQualityError
	assert.ErrorAs(t, err, &dq)
}

func TestMergePositionsFillsEmptyCurrency(t *testing.T) {
	// Quote balances carry no currency of their own until a priced position
	// for the same asset shows up.
	existing := map[string]domain.Position{
		"BNB": {Quantity: d("-0.5")},
	}
	incoming := map[string]domain.Position{
		"BNB": {Quantity: d("2"), AverageCost: d("300"), Currency: "EUR"},
	}

	merged, err := MergePositions(existing, incoming)
	require.NoError(t, err)
	assert.Equal(t, "EUR", merged["BNB"].Currency)
	assert.True(t, merged["BNB"].Quantity.Equal(d("1.5")))
}

func TestMergePositionsCancellingQuantities(t *testing.T) {
	existing := map[string]domain.Position{
		"ADA": {Quantity: d("10"), AverageCost: d("1.2"), Currency: "EUR"},
	}
	incoming := map[string]domain.Position{
		"ADA": {Quantity: d("-10"), AverageCost: d("1.2"), Currency: "EUR"},
	}

	merged, err := MergePositions(existing, incoming)
	require.NoError(t, err)
	assert.True(t, merged["ADA"].Quantity.IsZero())
	assert.True(t, merged["ADA"].AverageCost.IsZero(), "a zero holding has no basis")
}

func TestMergeTotals(t *testing.T) {
	existing := []domain.PnLTotal{
		{Asset: "BTC", Value: d("100"), Currency: "EUR"},
		{Asset: "ETH", Value: d("-20"), Currency: "EUR"},
	}
	incoming := []domain.PnLTotal{
		{Asset: "BTC", Value: d("25"), Currency: "EUR"},
		{Asset: "ADA", Value: d("7"), Currency: "EUR"},
	}

	merged := MergeTotals(existing, incoming)
	require.Len(t, merged, 3)

	assert.Equal(t, "ADA", merged[0].Asset)
	assert.Equal(t, "BTC", merged[1].Asset)
	assert.Equal(t, "ETH", merged[2].Asset)
	assert.True(t, merged[1].Value.Equal(d("125")))
	assert.True(t, merged[2].Value.Equal(d("-20")))
}

func TestMergeTotalsKeepsCurrencyBucketsApart(t *testing.T) {
	existing := []domain.PnLTotal{
		{Asset: "BTC", Value: d("100"), Currency: "EUR"},
	}
	incoming := []domain.PnLTotal{
		{Asset: "BTC", Value: d("40"), Currency: "USDT"},
	}

	merged := MergeTotals(existing, incoming)
	require.Len(t, merged, 2)
	assert.Equal(t, "EUR", merged[0].Currency)
	assert.Equal(t, "USDT", merged[1].Currency)
	assert.True(t, merged[0].Value.Equal(d("100")))
	assert.True(t, merged[1].Value.Equal(d("40")))
}

func TestMergeTotalsDoesNotMutateExisting(t *testing.T) {
	existing := []domain.PnLTotal{
		{Asset: "BTC", Value: d("100"), Currency: "EUR"},
	}
	_ = MergeTotals(existing, []domain.PnLTotal{{Asset: "BTC", Value: d("1"), Currency: "EUR"}})
	assert.True(t, existing[0].Value.Equal(d("100")))
}
