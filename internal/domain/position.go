package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the running holding of one asset inside a wallet: the
// cumulative quantity and the volume-weighted average acquisition price
// ("PRU"), denominated in Currency. Quantity may go negative; quote-currency
// balances are tracked as running debits.
type Position struct {
	Quantity    decimal.Decimal
	AverageCost decimal.Decimal // zero whenever Quantity is zero
	Currency    string          // quote asset the average cost is expressed in
}

// Equal reports exact field equality, with decimal comparison by value.
func (p Position) Equal(other Position) bool {
	return p.Quantity.Equal(other.Quantity) &&
		p.AverageCost.Equal(other.AverageCost) &&
		p.Currency == other.Currency
}

// Invested returns the total acquisition cost of the holding
// (quantity * average cost).
func (p Position) Invested() decimal.Decimal {
	return p.Quantity.Mul(p.AverageCost)
}

// PnLEvent is the realized profit or loss booked by one SELL trade,
// in the sell's quote currency. Events are immutable and presented in
// ascending timestamp order.
type PnLEvent struct {
	Timestamp time.Time
	Asset     string
	Value     decimal.Decimal // signed
	Currency  string
}

// PnLTotal is the cumulative realized PnL for one (asset, currency) pair.
// Buckets accumulate; they are never replaced wholesale once values merge in.
type PnLTotal struct {
	Asset    string
	Value    decimal.Decimal // signed running sum
	Currency string
}
