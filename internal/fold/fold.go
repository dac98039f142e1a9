package fold

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/moonfolio/moonfolio/internal/domain"
)

// Result is the outcome of folding an ordered trade list: the per-asset
// position map, the realized PnL events in ascending timestamp order, and the
// cumulative PnL totals sorted by asset then currency.
type Result struct {
	Positions map[string]domain.Position
	Events    []domain.PnLEvent
	Totals    []domain.PnLTotal
}

// Fold reduces an ordered sequence of trades into positions and realized PnL.
// Trades must be given in ascending timestamp order: the weighted-average
// cost recurrence is path-dependent.
//
// On a BUY the base asset's average cost blends the old holding's basis with
// the new lot, weighted by quantity, and the quote asset is debited by the
// trade total. On a SELL the realized PnL is the proceeds minus the sold
// quantity valued at the pre-sell average cost; the average cost itself is
// unchanged unless the quantity reaches exactly zero, where it resets. Fees
// are debited from the fee asset's quantity and never touch any average cost.
//
// Positions whose final quantity is exactly zero are dropped. An empty input
// yields an empty result. A pair that cannot be decomposed fails the whole
// batch; skipping a trade would silently corrupt the aggregates.
func Fold(trades []domain.Trade, assets []string) (Result, error) {
	positions := make(map[string]domain.Position)
	var events []domain.PnLEvent
	var totals []domain.PnLTotal

	for _, trade := range trades {
		base, quote, err := DecomposePair(trade.Pair, assets)
		if err != nil {
			return Result{}, err
		}

		switch trade.Side {
		case domain.SideBuy:
			pos := positions[base]
			qty := pos.Quantity.Add(trade.Quantity)
			cost := decimal.Zero
			if !qty.IsZero() {
				cost = pos.Quantity.Mul(pos.AverageCost).Add(trade.Total).Div(qty)
			}
			positions[base] = domain.Position{Quantity: qty, AverageCost: cost, Currency: quote}

			quotePos := positions[quote]
			quotePos.Quantity = quotePos.Quantity.Sub(trade.Total)
			positions[quote] = quotePos

		case domain.SideSell:
			pos := positions[base]
			qty := pos.Quantity.Sub(trade.Quantity)
			realized := trade.Total.Sub(trade.Quantity.Mul(pos.AverageCost))

			events = append(events, domain.PnLEvent{
				Timestamp: trade.Timestamp,
				Asset:     base,
				Value:     realized,
				Currency:  quote,
			})
			totals = accumulateTotal(totals, base, quote, realized)

			cost := pos.AverageCost
			if qty.IsZero() {
				cost = decimal.Zero
			}
			positions[base] = domain.Position{Quantity: qty, AverageCost: cost, Currency: quote}

			quotePos := positions[quote]
			quotePos.Quantity = quotePos.Quantity.Add(trade.Total)
			positions[quote] = quotePos

		default:
			return Result{}, domain.DataQualityf("trade on pair %q has unknown side %q", trade.Pair, trade.Side)
		}

		if trade.FeeAsset != "" && !trade.Fee.IsZero() {
			feePos := positions[trade.FeeAsset]
			feePos.Quantity = feePos.Quantity.Sub(trade.Fee)
			positions[trade.FeeAsset] = feePos
		}
	}

	// A zero balance carries no meaningful cost basis.
	for asset, pos := range positions {
		if pos.Quantity.IsZero() {
			delete(positions, asset)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	sortTotals(totals)

	return Result{Positions: positions, Events: events, Totals: totals}, nil
}

// accumulateTotal adds value into the (asset, currency) bucket, creating it
// when absent. The matched bucket is updated in place.
func accumulateTotal(totals []domain.PnLTotal, asset, currency string, value decimal.Decimal) []domain.PnLTotal {
	for i := range totals {
		if totals[i].Asset == asset && totals[i].Currency == currency {
			totals[i].Value = totals[i].Value.Add(value)
			return totals
		}
	}
	return append(totals, domain.PnLTotal{Asset: asset, Value: value, Currency: currency})
}

// sortTotals orders buckets by asset symbol ascending, then currency.
func sortTotals(totals []domain.PnLTotal) {
	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].Asset != totals[j].Asset {
			return totals[i].Asset < totals[j].Asset
		}
		return totals[i].Currency < totals[j].Currency
	})
}
