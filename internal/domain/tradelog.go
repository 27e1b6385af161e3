package domain

// TradeLog is the settlement statement of one trading day: the trades made
// during the day and the account and positions with the day's position
// profit realized, before today lots roll into history.
type TradeLog struct {
	TradingDay string              `json:"trading_day"` // YYYYMMDD
	Trades     []Trade             `json:"trades"`
	Account    Account             `json:"account"`
	Positions  map[string]Position `json:"positions"`
}
