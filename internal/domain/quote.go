package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// InsClass is the instrument class reported with a quote.
type InsClass string

const (
	InsClassFuture      InsClass = "FUTURE"
	InsClassFutureIndex InsClass = "FUTURE_INDEX"
	InsClassFutureCont  InsClass = "FUTURE_CONT"
	InsClassOption      InsClass = "OPTION"
	InsClassCombine     InsClass = "COMBINE"
	InsClassStock       InsClass = "STOCK"
)

// TradingTime lists the day and night sessions of an instrument as
// ["HH:MM:SS", "HH:MM:SS"] pairs. Night sessions may end past 24:00:00.
type TradingTime struct {
	Day   [][]string `json:"day"`
	Night [][]string `json:"night"`
}

// Empty reports whether no session is defined.
func (t TradingTime) Empty() bool {
	return len(t.Day) == 0 && len(t.Night) == 0
}

// Quote is the latest known market data for one instrument. Price fields are
// NaN while no price is available.
type Quote struct {
	Symbol         string
	Datetime       string
	AskPrice1      float64
	BidPrice1      float64
	LastPrice      float64
	PriceTick      float64
	VolumeMultiple int64
	Margin         float64
	Commission     float64
	InsClass       InsClass
	ExchangeID     string
	TradingTime    TradingTime
}

// NewQuote returns an empty quote for symbol with every price unavailable.
func NewQuote(symbol string) *Quote {
	exchangeID, _ := SplitSymbol(symbol)
	return &Quote{
		Symbol:     symbol,
		AskPrice1:  math.NaN(),
		BidPrice1:  math.NaN(),
		LastPrice:  math.NaN(),
		PriceTick:  math.NaN(),
		Margin:     math.NaN(),
		Commission: math.NaN(),
		ExchangeID: exchangeID,
	}
}

// Apply merges the fields present in u into q.
func (q *Quote) Apply(u QuoteUpdate) {
	if u.Datetime != nil {
		q.Datetime = *u.Datetime
	}
	if u.AskPrice1 != nil {
		q.AskPrice1 = *u.AskPrice1
	}
	if u.BidPrice1 != nil {
		q.BidPrice1 = *u.BidPrice1
	}
	if u.LastPrice != nil {
		q.LastPrice = *u.LastPrice
	}
	if u.PriceTick != nil {
		q.PriceTick = *u.PriceTick
	}
	if u.VolumeMultiple != nil {
		q.VolumeMultiple = *u.VolumeMultiple
	}
	if u.Margin != nil {
		q.Margin = *u.Margin
	}
	if u.Commission != nil {
		q.Commission = *u.Commission
	}
	if u.InsClass != nil {
		q.InsClass = *u.InsClass
	}
	if u.ExchangeID != nil {
		q.ExchangeID = *u.ExchangeID
	}
	if u.TradingTime != nil {
		q.TradingTime = *u.TradingTime
	}
}

// QuoteUpdate is a partial quote. Nil fields are absent from the update; a
// present price may be NaN, meaning the price became unavailable.
type QuoteUpdate struct {
	Datetime       *string
	AskPrice1      *float64
	BidPrice1      *float64
	LastPrice      *float64
	PriceTick      *float64
	VolumeMultiple *int64
	Margin         *float64
	Commission     *float64
	InsClass       *InsClass
	ExchangeID     *string
	TradingTime    *TradingTime
}

// UnmarshalJSON decodes a partial quote. Unknown keys are ignored. Price
// fields accept a number, null or the string "NaN"; the latter two decode to
// NaN.
func (u *QuoteUpdate) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	floats := map[string]**float64{
		"ask_price1": &u.AskPrice1,
		"bid_price1": &u.BidPrice1,
		"last_price": &u.LastPrice,
		"price_tick": &u.PriceTick,
		"margin":     &u.Margin,
		"commission": &u.Commission,
	}
	for key, dst := range floats {
		v, ok := raw[key]
		if !ok {
			continue
		}
		f, err := decodeFloat(v)
		if err != nil {
			return fmt.Errorf("quote field %s: %w", key, err)
		}
		*dst = &f
	}
	if v, ok := raw["volume_multiple"]; ok {
		var n int64
		if err := json.Unmarshal(v, &n); err != nil {
			return fmt.Errorf("quote field volume_multiple: %w", err)
		}
		u.VolumeMultiple = &n
	}
	if v, ok := raw["datetime"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("quote field datetime: %w", err)
		}
		u.Datetime = &s
	}
	if v, ok := raw["ins_class"]; ok {
		var c InsClass
		if err := json.Unmarshal(v, &c); err != nil {
			return fmt.Errorf("quote field ins_class: %w", err)
		}
		u.InsClass = &c
	}
	if v, ok := raw["exchange_id"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("quote field exchange_id: %w", err)
		}
		u.ExchangeID = &s
	}
	if v, ok := raw["trading_time"]; ok {
		var tt TradingTime
		if err := json.Unmarshal(v, &tt); err != nil {
			return fmt.Errorf("quote field trading_time: %w", err)
		}
		u.TradingTime = &tt
	}
	return nil
}

// MarshalJSON encodes the present fields of the update; NaN prices encode as
// null.
func (u QuoteUpdate) MarshalJSON() ([]byte, error) {
	f := fields{}
	f.str("datetime", u.Datetime)
	f.float("ask_price1", u.AskPrice1)
	f.float("bid_price1", u.BidPrice1)
	f.float("last_price", u.LastPrice)
	f.float("price_tick", u.PriceTick)
	f.int("volume_multiple", u.VolumeMultiple)
	f.float("margin", u.Margin)
	f.float("commission", u.Commission)
	if u.InsClass != nil {
		f["ins_class"] = *u.InsClass
	}
	f.str("exchange_id", u.ExchangeID)
	if u.TradingTime != nil {
		f["trading_time"] = *u.TradingTime
	}
	return json.Marshal(map[string]any(f))
}

// Merge copies the fields present in o over u.
func (u *QuoteUpdate) Merge(o QuoteUpdate) {
	if o.Datetime != nil {
		u.Datetime = o.Datetime
	}
	if o.AskPrice1 != nil {
		u.AskPrice1 = o.AskPrice1
	}
	if o.BidPrice1 != nil {
		u.BidPrice1 = o.BidPrice1
	}
	if o.LastPrice != nil {
		u.LastPrice = o.LastPrice
	}
	if o.PriceTick != nil {
		u.PriceTick = o.PriceTick
	}
	if o.VolumeMultiple != nil {
		u.VolumeMultiple = o.VolumeMultiple
	}
	if o.Margin != nil {
		u.Margin = o.Margin
	}
	if o.Commission != nil {
		u.Commission = o.Commission
	}
	if o.InsClass != nil {
		u.InsClass = o.InsClass
	}
	if o.ExchangeID != nil {
		u.ExchangeID = o.ExchangeID
	}
	if o.TradingTime != nil {
		u.TradingTime = o.TradingTime
	}
}
