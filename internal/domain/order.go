package domain

// Direction is the side of an order or trade.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// Offset tells whether an order opens a new position or closes an existing one.
type Offset string

const (
	OffsetOpen       Offset = "OPEN"
	OffsetClose      Offset = "CLOSE"
	OffsetCloseToday Offset = "CLOSETODAY"
)

// PriceType distinguishes market (ANY) from limit orders.
type PriceType string

const (
	PriceTypeAny   PriceType = "ANY"
	PriceTypeLimit PriceType = "LIMIT"
)

// TimeCondition is the order's time-in-force.
type TimeCondition string

const (
	TimeConditionIOC TimeCondition = "IOC"
	TimeConditionGFD TimeCondition = "GFD"
)

// VolumeCondition is carried on the order for the client; fills are always
// for the full remaining volume.
type VolumeCondition string

const (
	VolumeConditionAny VolumeCondition = "ANY"
	VolumeConditionMin VolumeCondition = "MIN"
	VolumeConditionAll VolumeCondition = "ALL"
)

// OrderStatus is the lifecycle state of an order. An order moves from ALIVE
// to FINISHED exactly once, or is created FINISHED when rejected outright.
type OrderStatus string

const (
	OrderStatusAlive    OrderStatus = "ALIVE"
	OrderStatusFinished OrderStatus = "FINISHED"
)

// Reasons carried in Order.LastMsg.
const (
	MsgAccepted            = "order accepted"
	MsgFilled              = "fully filled"
	MsgCancelled           = "cancelled"
	MsgSettlementCancelled = "trading day ended, GFD order auto-cancelled"

	MsgUnsupportedInstrument = "unsupported instrument type"
	MsgNotTradableTime       = "not in tradable time"
	MsgInvalidVolume         = "invalid order volume"
	MsgInvalidLimitPrice     = "invalid limit price"
	MsgInsufficientFunds     = "insufficient opening funds"
	MsgInsufficientPosition  = "insufficient position to close"
	MsgInsufficientToday     = "insufficient today position to close"
	MsgInsufficientHistory   = "insufficient history position to close"

	MsgIOCNoLiquidity   = "IOC order: no counter-liquidity, residual cancelled"
	MsgIOCNoMatch       = "no immediate match, IOC cancelled"
	MsgIOCNotTradedTime = "not in tradable time, IOC order cancelled"
)

// Order is the client-visible state of an order.
type Order struct {
	OrderID         string
	UserID          string
	ExchangeID      string
	InstrumentID    string
	Direction       Direction
	Offset          Offset
	PriceType       PriceType
	LimitPrice      float64
	TimeCondition   TimeCondition
	VolumeCondition VolumeCondition
	VolumeOrign     int64
	VolumeLeft      int64
	Status          OrderStatus
	LastMsg         string
	FrozenMargin    float64
	FrozenPremium   float64
	InsertDateTime  int64 // ns since epoch, from the quote clock
}

// Symbol returns the EXCHANGE.INSTRUMENT key of the order's instrument.
func (o *Order) Symbol() string {
	return Symbol(o.ExchangeID, o.InstrumentID)
}

// IsBuy reports whether the order buys.
func (o *Order) IsBuy() bool {
	return o.Direction == DirectionBuy
}

// MarshalJSON encodes the order with every field present.
func (o Order) MarshalJSON() ([]byte, error) {
	return DiffOrder(nil, &o).MarshalJSON()
}
