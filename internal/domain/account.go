package domain

// CurrencyCNY is the only account currency.
const CurrencyCNY = "CNY"

// Account is the cash account of a simulated trading account.
//
// Invariants maintained by the engine:
//
//	Available = Balance - Margin - FrozenMargin - FrozenCommission - FrozenPremium
//	Balance   = PreBalance + Deposit - Withdraw + CloseProfit + PositionProfit - Commission
//	StaticBalance = PreBalance + Deposit - Withdraw
type Account struct {
	Currency         string
	PreBalance       float64
	StaticBalance    float64
	Balance          float64
	Available        float64
	Deposit          float64
	Withdraw         float64
	Margin           float64
	FrozenMargin     float64
	FrozenCommission float64
	FrozenPremium    float64
	Commission       float64
	FloatProfit      float64
	PositionProfit   float64
	CloseProfit      float64
	RiskRatio        float64
}

// NewAccount returns a fresh account holding initBalance.
func NewAccount(initBalance float64) Account {
	return Account{
		Currency:      CurrencyCNY,
		PreBalance:    initBalance,
		StaticBalance: initBalance,
		Balance:       initBalance,
		Available:     initBalance,
	}
}

// MarshalJSON encodes the account with every field present.
func (a Account) MarshalJSON() ([]byte, error) {
	return DiffAccount(nil, &a).MarshalJSON()
}
