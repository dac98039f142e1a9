package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side indicates whether a trade acquired or disposed of the base asset.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Origin identifies the exchange a trade came from.
type Origin string

const (
	OriginBinance Origin = "BINANCE"
	OriginOther   Origin = "OTHER"
)

// Trade represents one executed transaction on a trading pair. A trade is
// created without an ID (CSV import, manual entry) and receives one on first
// persistence. Quantities and amounts are exact decimals; repeated
// weighted-average updates over thousands of trades drift visibly with binary
// floating point.
type Trade struct {
	ID        *int64
	Pair      string // concatenated symbol, e.g. "BTCEUR"
	Side      Side
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	Total     decimal.Decimal // quote amount; defaults to Quantity*Price
	Timestamp time.Time
	Fee       decimal.Decimal
	FeeAsset  string
	OriginID  string // external reference id, may be empty
	Origin    Origin
}

// NewTrade builds a trade with Total defaulted to Quantity*Price when the
// given total is zero.
func NewTrade(pair string, side Side, qty, price, total decimal.Decimal, ts time.Time, fee decimal.Decimal, feeAsset, originID string, origin Origin) Trade {
	if total.IsZero() {
		total = qty.Mul(price)
	}
	return Trade{
		Pair:      pair,
		Side:      side,
		Quantity:  qty,
		Price:     price,
		Total:     total,
		Timestamp: ts,
		Fee:       fee,
		FeeAsset:  feeAsset,
		OriginID:  originID,
		Origin:    origin,
	}
}

// Validate checks every field and collects all violations so a caller can
// surface them at once. It returns a *ValidationError or nil.
func (t Trade) Validate() error {
	var ve ValidationError

	if t.ID != nil && *t.ID < 0 {
		ve.Add("id", "id must be a positive integer")
	}
	if t.Pair == "" {
		ve.Add("pair", "pair is required")
	}
	if t.Side != SideBuy && t.Side != SideSell {
		ve.Add("side", "side must be BUY or SELL")
	}
	if t.Quantity.IsNegative() {
		ve.Add("quantity", "quantity must be a decimal greater than or equal to 0")
	}
	if t.Price.IsNegative() {
		ve.Add("price", "price must be a decimal greater than or equal to 0")
	}
	if t.Total.IsNegative() {
		ve.Add("total", "total must be a decimal greater than or equal to 0")
	}
	if t.Timestamp.IsZero() {
		ve.Add("timestamp", "timestamp is required")
	}
	if t.Fee.IsNegative() {
		ve.Add("fee", "fee must be a decimal greater than or equal to 0")
	}
	if t.Origin != OriginBinance && t.Origin != OriginOther {
		ve.Add("origin", "origin must be BINANCE or OTHER")
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// SameTrade reports whether two trades describe the same executed
// transaction. Every business field participates; the persisted ID does not,
// since freshly imported trades have none yet.
func (t Trade) SameTrade(other Trade) bool {
	return t.Pair == other.Pair &&
		t.Side == other.Side &&
		t.Quantity.Equal(other.Quantity) &&
		t.Price.Equal(other.Price) &&
		t.Total.Equal(other.Total) &&
		t.Timestamp.Equal(other.Timestamp) &&
		t.Fee.Equal(other.Fee) &&
		t.FeeAsset == other.FeeAsset &&
		t.OriginID == other.OriginID &&
		t.Origin == other.Origin
}

// Key returns a string identity built from the business fields, suitable for
// set-difference deduplication. Decimal fields are normalised so that e.g.
// "2.50" and "2.5" produce the same key.
func (t Trade) Key() string {
	return t.Pair + "|" + string(t.Side) + "|" +
		t.Quantity.String() + "|" + t.Price.String() + "|" + t.Total.String() + "|" +
		t.Timestamp.UTC().Format(time.RFC3339Nano) + "|" +
		t.Fee.String() + "|" + t.FeeAsset + "|" + t.OriginID + "|" + string(t.Origin)
}
