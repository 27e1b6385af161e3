package domain

import "strings"

// Exchange identifiers.
const (
	ExchangeSHFE  = "SHFE"
	ExchangeINE   = "INE"
	ExchangeDCE   = "DCE"
	ExchangeCZCE  = "CZCE"
	ExchangeCFFEX = "CFFEX"
	ExchangeKQ    = "KQ" // index and continuous series
)

// Symbol joins an exchange and an instrument into the EXCHANGE.INSTRUMENT key
// used for quotes and positions.
func Symbol(exchangeID, instrumentID string) string {
	return exchangeID + "." + instrumentID
}

// SplitSymbol is the inverse of Symbol. A symbol without a dot yields an
// empty exchange.
func SplitSymbol(symbol string) (exchangeID, instrumentID string) {
	i := strings.IndexByte(symbol, '.')
	if i < 0 {
		return "", symbol
	}
	return symbol[:i], symbol[i+1:]
}

// SeparatesCloseToday reports whether the exchange distinguishes CLOSE
// (history lots only) from CLOSETODAY (today lots only).
func SeparatesCloseToday(exchangeID string) bool {
	return exchangeID == ExchangeSHFE || exchangeID == ExchangeINE
}
