package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Message kinds ("aid") accepted by the transports.
const (
	AidRtnQuote    = "rtn_quote"
	AidInsertOrder = "insert_order"
	AidCancelOrder = "cancel_order"
	AidSettle      = "settle"
	AidDeposit     = "deposit"
	AidWithdraw    = "withdraw"
)

// InsertOrder is an order-insert command. LimitPrice is NaN when absent.
type InsertOrder struct {
	UserID          string          `json:"user_id"`
	OrderID         string          `json:"order_id"`
	ExchangeID      string          `json:"exchange_id"`
	InstrumentID    string          `json:"instrument_id"`
	Direction       Direction       `json:"direction"`
	Offset          Offset          `json:"offset"`
	Volume          int64           `json:"volume"`
	PriceType       PriceType       `json:"price_type"`
	LimitPrice      float64         `json:"limit_price"`
	TimeCondition   TimeCondition   `json:"time_condition"`
	VolumeCondition VolumeCondition `json:"volume_condition"`
}

// Symbol returns the EXCHANGE.INSTRUMENT key of the order's instrument.
func (c *InsertOrder) Symbol() string {
	return Symbol(c.ExchangeID, c.InstrumentID)
}

// UnmarshalJSON decodes an insert command; a missing or null limit_price
// decodes to NaN.
func (c *InsertOrder) UnmarshalJSON(data []byte) error {
	type plain InsertOrder
	aux := struct {
		*plain
		LimitPrice json.RawMessage `json:"limit_price"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.LimitPrice = math.NaN()
	if aux.LimitPrice != nil {
		f, err := decodeFloat(aux.LimitPrice)
		if err != nil {
			return fmt.Errorf("limit_price: %w", err)
		}
		c.LimitPrice = f
	}
	return nil
}

// MarshalJSON encodes the command with aid "insert_order".
func (c InsertOrder) MarshalJSON() ([]byte, error) {
	type plain InsertOrder
	return json.Marshal(struct {
		Aid string `json:"aid"`
		plain
		LimitPrice any `json:"limit_price"`
	}{Aid: AidInsertOrder, plain: plain(c), LimitPrice: jsonFloat(c.LimitPrice)})
}

// Validate checks the enumerations of the command. Volume and price checks
// are order outcomes and are left to the engine.
func (c *InsertOrder) Validate() error {
	if c.OrderID == "" {
		return &ValidationError{Message: "order_id is required"}
	}
	if c.ExchangeID == "" || c.InstrumentID == "" {
		return &ValidationError{Message: "exchange_id and instrument_id are required"}
	}
	switch c.Direction {
	case DirectionBuy, DirectionSell:
	default:
		return &ValidationError{Message: fmt.Sprintf("direction must be BUY or SELL, got %q", c.Direction)}
	}
	switch c.Offset {
	case OffsetOpen, OffsetClose, OffsetCloseToday:
	default:
		return &ValidationError{Message: fmt.Sprintf("offset must be OPEN, CLOSE or CLOSETODAY, got %q", c.Offset)}
	}
	switch c.PriceType {
	case PriceTypeAny, PriceTypeLimit:
	default:
		return &ValidationError{Message: fmt.Sprintf("price_type must be ANY or LIMIT, got %q", c.PriceType)}
	}
	switch c.TimeCondition {
	case TimeConditionIOC, TimeConditionGFD:
	default:
		return &ValidationError{Message: fmt.Sprintf("time_condition must be IOC or GFD, got %q", c.TimeCondition)}
	}
	switch c.VolumeCondition {
	case VolumeConditionAny, VolumeConditionMin, VolumeConditionAll, "":
	default:
		return &ValidationError{Message: fmt.Sprintf("volume_condition must be ANY, MIN or ALL, got %q", c.VolumeCondition)}
	}
	return nil
}

// CancelOrder is an order-cancel command.
type CancelOrder struct {
	UserID  string `json:"user_id,omitempty"`
	OrderID string `json:"order_id"`
}

// QuoteMessage is a quote update for one or more instruments.
type QuoteMessage struct {
	InstrumentID string                 `json:"instrument_id,omitempty"`
	Quotes       map[string]QuoteUpdate `json:"quotes"`
}

// Command is one decoded inbound message addressed to an account. Exactly
// one payload matching Aid is set; settle carries none.
type Command struct {
	Account string
	Aid     string
	Insert  *InsertOrder
	Cancel  *CancelOrder
	Quotes  *QuoteMessage
	Amount  float64
}

// ParseCommand decodes a message of the form {"account":..., "aid":..., ...}.
// Quote messages need no account; they are fanned out by the caller.
func ParseCommand(data []byte) (Command, error) {
	var head struct {
		Account string  `json:"account"`
		Aid     string  `json:"aid"`
		Amount  float64 `json:"amount"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Command{}, &ValidationError{Message: "malformed command: " + err.Error()}
	}
	cmd := Command{Account: head.Account, Aid: head.Aid}
	if head.Aid != AidRtnQuote && head.Account == "" {
		return Command{}, &ValidationError{Message: "account is required"}
	}

	switch head.Aid {
	case AidRtnQuote:
		var m QuoteMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return Command{}, &ValidationError{Message: "malformed quote: " + err.Error()}
		}
		cmd.Quotes = &m
	case AidInsertOrder:
		var in InsertOrder
		if err := json.Unmarshal(data, &in); err != nil {
			return Command{}, &ValidationError{Message: "malformed insert_order: " + err.Error()}
		}
		if err := in.Validate(); err != nil {
			return Command{}, err
		}
		cmd.Insert = &in
	case AidCancelOrder:
		var c CancelOrder
		if err := json.Unmarshal(data, &c); err != nil {
			return Command{}, &ValidationError{Message: "malformed cancel_order: " + err.Error()}
		}
		if c.OrderID == "" {
			return Command{}, &ValidationError{Message: "order_id is required"}
		}
		cmd.Cancel = &c
	case AidDeposit, AidWithdraw:
		if !(head.Amount > 0) {
			return Command{}, &ValidationError{Message: "amount must be > 0"}
		}
		cmd.Amount = head.Amount
	case AidSettle:
	default:
		return Command{}, fmt.Errorf("aid %q: %w", head.Aid, ErrUnknownCommand)
	}
	return cmd, nil
}
