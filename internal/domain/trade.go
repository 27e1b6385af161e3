package domain

import "strconv"

// Trade is an execution of an order. Trades are append-only.
type Trade struct {
	TradeID       string
	OrderID       string
	UserID        string
	ExchangeID    string
	InstrumentID  string
	Direction     Direction
	Offset        Offset
	Price         float64
	Volume        int64
	TradeDateTime int64 // ns since epoch
	Commission    float64
}

// TradeID builds the trade identifier for a fill of volume lots of orderID.
func TradeID(orderID string, volume int64) string {
	return orderID + "|" + strconv.FormatInt(volume, 10)
}

// MarshalJSON encodes the trade with every field present.
func (t Trade) MarshalJSON() ([]byte, error) {
	return DiffTrade(nil, &t).MarshalJSON()
}
