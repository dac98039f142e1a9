package domain

// Wallet is a named portfolio. Positions, PnL events and PnL totals are owned
// by exactly one wallet; trades reference a wallet by id but are persisted
// independently.
type Wallet struct {
	ID          int64
	Name        string
	Description string
}

// Validate collects all field violations into a *ValidationError.
func (w Wallet) Validate() error {
	var ve ValidationError
	if w.Name == "" {
		ve.Add("name", "wallet name is required")
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}
