package fold

import (
	"context"
	"fmt"
	"sort"

	"github.com/moonfolio/moonfolio/internal/domain"
)

// TradeFinder is the narrow store lookup the dedup filter needs.
type TradeFinder interface {
	Find(ctx context.Context, walletID int64, f domain.TradeFilter) ([]domain.Trade, error)
}

// FilterNew returns the candidate trades not already persisted for the
// wallet: it loads the stored trades in the candidates' inclusive timestamp
// range and removes every candidate with a stored business-field twin
// (persisted ids excluded from the comparison). The result is sorted
// ascending by timestamp.
//
// An empty candidate batch is a precondition violation: the date range would
// be undefined.
func FilterNew(ctx context.Context, walletID int64, candidates []domain.Trade, finder TradeFinder) ([]domain.Trade, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("fold: filter new trades: %w", domain.ErrEmptyBatch)
	}

	begin := candidates[0].Timestamp
	end := candidates[0].Timestamp
	for _, t := range candidates[1:] {
		if t.Timestamp.Before(begin) {
			begin = t.Timestamp
		}
		if t.Timestamp.After(end) {
			end = t.Timestamp
		}
	}

	existing, err := finder.Find(ctx, walletID, domain.TradeFilter{Begin: &begin, End: &end})
	if err != nil {
		return nil, fmt.Errorf("fold: load existing trades: %w", err)
	}

	seen := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		seen[t.Key()] = struct{}{}
	}

	var fresh []domain.Trade
	for _, t := range candidates {
		key := t.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		// Also collapse duplicates inside the candidate batch itself.
		seen[key] = struct{}{}
		fresh = append(fresh, t)
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].Timestamp.Before(fresh[j].Timestamp)
	})
	return fresh, nil
}
