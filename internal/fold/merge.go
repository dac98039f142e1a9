package fold

import (
	"github.com/moonfolio/moonfolio/internal/domain"
	"github.com/shopspring/decimal"
)

// MergePositions folds an incoming position map into the existing one.
// Assets absent from existing are inserted as-is; for assets present in both,
// the quantities add and the average cost is re-weighted, mirroring the BUY
// recurrence applied to two already-aggregated holdings. Meeting the same
// asset in two different currencies is a caller error, not something to
// resolve silently.
func MergePositions(existing, incoming map[string]domain.Position) (map[string]domain.Position, error) {
	merged := make(map[string]domain.Position, len(existing)+len(incoming))
	for asset, pos := range existing {
		merged[asset] = pos
	}

	for asset, in := range incoming {
		cur, ok := merged[asset]
		if !ok {
			merged[asset] = in
			continue
		}
		if cur.Currency != "" && in.Currency != "" && cur.Currency != in.Currency {
			return nil, domain.DataQualityf("asset %q held in %q cannot merge with incoming %q", asset, cur.Currency, in.Currency)
		}

		qty := cur.Quantity.Add(in.Quantity)
		cost := decimal.Zero
		if !qty.IsZero() {
			cost = cur.Quantity.Mul(cur.AverageCost).Add(in.Quantity.Mul(in.AverageCost)).Div(qty)
		}
		currency := cur.Currency
		if currency == "" {
			currency = in.Currency
		}
		merged[asset] = domain.Position{Quantity: qty, AverageCost: cost, Currency: currency}
	}

	return merged, nil
}

// MergeTotals accumulates incoming PnL totals into the existing buckets:
// a matching (asset, currency) bucket keeps its identity and gains the
// incoming value, a new bucket is appended. The result is sorted by asset
// then currency, consistent with Fold.
func MergeTotals(existing, incoming []domain.PnLTotal) []domain.PnLTotal {
	merged := make([]domain.PnLTotal, len(existing))
	copy(merged, existing)

	for _, in := range incoming {
		merged = accumulateTotal(merged, in.Asset, in.Currency, in.Value)
	}
	sortTotals(merged)
	return merged
}
