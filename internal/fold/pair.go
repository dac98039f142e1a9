// Package fold implements the trade-to-position reduction: pair
// decomposition, the weighted-average-cost folding engine, the new-trade
// dedup filter, and the merge of folded results into previously persisted
// wallet state. Everything here is pure computation over exact decimals.
package fold

import (
	"strings"

	"github.com/moonfolio/moonfolio/internal/domain"
)

// DecomposePair splits a concatenated pair symbol such as "BTCEUR" into its
// base and quote assets by scanning the known asset list in order: the first
// entry that is a prefix of the pair is the base, the first that is a suffix
// is the quote. The list is an ordered priority list owned by configuration;
// symbols that are substrings of other symbols must be ordered so the more
// specific one wins.
//
// A miss on either side is a data-quality error: an undefined asset key
// would corrupt the fold, so the caller must fail the batch rather than skip.
func DecomposePair(pair string, assets []string) (base, quote string, err error) {
	for _, asset := range assets {
		if base == "" && strings.HasPrefix(pair, asset) {
			base = asset
		}
		if quote == "" && strings.HasSuffix(pair, asset) {
			quote = asset
		}
		if base != "" && quote != "" {
			break
		}
	}
	if base == "" || quote == "" {
		return "", "", domain.DataQualityf("pair %q cannot be decomposed against the known asset list", pair)
	}
	return base, quote, nil
}
