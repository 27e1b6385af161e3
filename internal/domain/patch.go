package domain

import "encoding/json"

// PatchKind names the state sub-tree a patch touches.
type PatchKind string

const (
	PatchAccount  PatchKind = "accounts"
	PatchPosition PatchKind = "positions"
	PatchOrder    PatchKind = "orders"
	PatchTrade    PatchKind = "trades"
)

// Patch is one incremental state change. Exactly one of the entity patches is
// set, matching Kind. Key is the currency code for accounts, the
// EXCHANGE.INSTRUMENT symbol for positions, the order id for orders and the
// trade id for trades.
type Patch struct {
	Kind     PatchKind
	Key      string
	Account  *AccountPatch
	Position *PositionPatch
	Order    *OrderPatch
	Trade    *TradePatch
}

// MarshalJSON encodes the patch as {"<kind>": {"<key>": {changed leaves}}}.
func (p Patch) MarshalJSON() ([]byte, error) {
	var leaves fields
	switch p.Kind {
	case PatchAccount:
		leaves = p.Account.fields()
	case PatchPosition:
		leaves = p.Position.fields()
	case PatchOrder:
		leaves = p.Order.fields()
	case PatchTrade:
		leaves = p.Trade.fields()
	}
	return json.Marshal(map[string]any{
		string(p.Kind): map[string]any{p.Key: map[string]any(leaves)},
	})
}

func changed[T comparable](full bool, prev, cur T) *T {
	if full || prev != cur {
		v := cur
		return &v
	}
	return nil
}

func changedFloat(full bool, prev, cur float64) *float64 {
	if full || !sameFloat(prev, cur) {
		v := cur
		return &v
	}
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// AccountPatch holds the changed leaves of an Account. Nil means unchanged.
type AccountPatch struct {
	Currency         *string
	PreBalance       *float64
	StaticBalance    *float64
	Balance          *float64
	Available        *float64
	Deposit          *float64
	Withdraw         *float64
	Margin           *float64
	FrozenMargin     *float64
	FrozenCommission *float64
	FrozenPremium    *float64
	Commission       *float64
	FloatProfit      *float64
	PositionProfit   *float64
	CloseProfit      *float64
	RiskRatio        *float64
}

// DiffAccount returns the leaves of cur that differ from prev. A nil prev
// yields every field.
func DiffAccount(prev, cur *Account) AccountPatch {
	full := prev == nil
	if full {
		prev = &Account{}
	}
	return AccountPatch{
		Currency:         changed(full, prev.Currency, cur.Currency),
		PreBalance:       changedFloat(full, prev.PreBalance, cur.PreBalance),
		StaticBalance:    changedFloat(full, prev.StaticBalance, cur.StaticBalance),
		Balance:          changedFloat(full, prev.Balance, cur.Balance),
		Available:        changedFloat(full, prev.Available, cur.Available),
		Deposit:          changedFloat(full, prev.Deposit, cur.Deposit),
		Withdraw:         changedFloat(full, prev.Withdraw, cur.Withdraw),
		Margin:           changedFloat(full, prev.Margin, cur.Margin),
		FrozenMargin:     changedFloat(full, prev.FrozenMargin, cur.FrozenMargin),
		FrozenCommission: changedFloat(full, prev.FrozenCommission, cur.FrozenCommission),
		FrozenPremium:    changedFloat(full, prev.FrozenPremium, cur.FrozenPremium),
		Commission:       changedFloat(full, prev.Commission, cur.Commission),
		FloatProfit:      changedFloat(full, prev.FloatProfit, cur.FloatProfit),
		PositionProfit:   changedFloat(full, prev.PositionProfit, cur.PositionProfit),
		CloseProfit:      changedFloat(full, prev.CloseProfit, cur.CloseProfit),
		RiskRatio:        changedFloat(full, prev.RiskRatio, cur.RiskRatio),
	}
}

// Apply writes the present leaves into a.
func (p *AccountPatch) Apply(a *Account) {
	set(&a.Currency, p.Currency)
	set(&a.PreBalance, p.PreBalance)
	set(&a.StaticBalance, p.StaticBalance)
	set(&a.Balance, p.Balance)
	set(&a.Available, p.Available)
	set(&a.Deposit, p.Deposit)
	set(&a.Withdraw, p.Withdraw)
	set(&a.Margin, p.Margin)
	set(&a.FrozenMargin, p.FrozenMargin)
	set(&a.FrozenCommission, p.FrozenCommission)
	set(&a.FrozenPremium, p.FrozenPremium)
	set(&a.Commission, p.Commission)
	set(&a.FloatProfit, p.FloatProfit)
	set(&a.PositionProfit, p.PositionProfit)
	set(&a.CloseProfit, p.CloseProfit)
	set(&a.RiskRatio, p.RiskRatio)
}

// Empty reports whether no leaf changed.
func (p *AccountPatch) Empty() bool { return len(p.fields()) == 0 }

// MarshalJSON encodes the present leaves.
func (p AccountPatch) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(p.fields()))
}

func (p *AccountPatch) fields() fields {
	f := fields{}
	f.str("currency", p.Currency)
	f.float("pre_balance", p.PreBalance)
	f.float("static_balance", p.StaticBalance)
	f.float("balance", p.Balance)
	f.float("available", p.Available)
	f.float("deposit", p.Deposit)
	f.float("withdraw", p.Withdraw)
	f.float("margin", p.Margin)
	f.float("frozen_margin", p.FrozenMargin)
	f.float("frozen_commission", p.FrozenCommission)
	f.float("frozen_premium", p.FrozenPremium)
	f.float("commission", p.Commission)
	f.float("float_profit", p.FloatProfit)
	f.float("position_profit", p.PositionProfit)
	f.float("close_profit", p.CloseProfit)
	f.float("risk_ratio", p.RiskRatio)
	return f
}

// PositionPatch holds the changed leaves of a Position.
type PositionPatch struct {
	ExchangeID   *string
	InstrumentID *string

	VolumeLongHis         *int64
	VolumeLongToday       *int64
	VolumeLong            *int64
	VolumeLongFrozenHis   *int64
	VolumeLongFrozenToday *int64
	VolumeLongFrozen      *int64

	VolumeShortHis         *int64
	VolumeShortToday       *int64
	VolumeShort            *int64
	VolumeShortFrozenHis   *int64
	VolumeShortFrozenToday *int64
	VolumeShortFrozen      *int64

	OpenPriceLong      *float64
	OpenPriceShort     *float64
	OpenCostLong       *float64
	OpenCostShort      *float64
	PositionPriceLong  *float64
	PositionPriceShort *float64
	PositionCostLong   *float64
	PositionCostShort  *float64

	FloatProfitLong     *float64
	FloatProfitShort    *float64
	FloatProfit         *float64
	PositionProfitLong  *float64
	PositionProfitShort *float64
	PositionProfit      *float64

	MarginLong  *float64
	MarginShort *float64
	Margin      *float64

	LastPrice *float64
}

// DiffPosition returns the leaves of cur that differ from prev. A nil prev
// yields every field.
func DiffPosition(prev, cur *Position) PositionPatch {
	full := prev == nil
	if full {
		prev = &Position{}
	}
	return PositionPatch{
		ExchangeID:   changed(full, prev.ExchangeID, cur.ExchangeID),
		InstrumentID: changed(full, prev.InstrumentID, cur.InstrumentID),

		VolumeLongHis:         changed(full, prev.VolumeLongHis, cur.VolumeLongHis),
		VolumeLongToday:       changed(full, prev.VolumeLongToday, cur.VolumeLongToday),
		VolumeLong:            changed(full, prev.VolumeLong, cur.VolumeLong),
		VolumeLongFrozenHis:   changed(full, prev.VolumeLongFrozenHis, cur.VolumeLongFrozenHis),
		VolumeLongFrozenToday: changed(full, prev.VolumeLongFrozenToday, cur.VolumeLongFrozenToday),
		VolumeLongFrozen:      changed(full, prev.VolumeLongFrozen, cur.VolumeLongFrozen),

		VolumeShortHis:         changed(full, prev.VolumeShortHis, cur.VolumeShortHis),
		VolumeShortToday:       changed(full, prev.VolumeShortToday, cur.VolumeShortToday),
		VolumeShort:            changed(full, prev.VolumeShort, cur.VolumeShort),
		VolumeShortFrozenHis:   changed(full, prev.VolumeShortFrozenHis, cur.VolumeShortFrozenHis),
		VolumeShortFrozenToday: changed(full, prev.VolumeShortFrozenToday, cur.VolumeShortFrozenToday),
		VolumeShortFrozen:      changed(full, prev.VolumeShortFrozen, cur.VolumeShortFrozen),

		OpenPriceLong:      changedFloat(full, prev.OpenPriceLong, cur.OpenPriceLong),
		OpenPriceShort:     changedFloat(full, prev.OpenPriceShort, cur.OpenPriceShort),
		OpenCostLong:       changedFloat(full, prev.OpenCostLong, cur.OpenCostLong),
		OpenCostShort:      changedFloat(full, prev.OpenCostShort, cur.OpenCostShort),
		PositionPriceLong:  changedFloat(full, prev.PositionPriceLong, cur.PositionPriceLong),
		PositionPriceShort: changedFloat(full, prev.PositionPriceShort, cur.PositionPriceShort),
		PositionCostLong:   changedFloat(full, prev.PositionCostLong, cur.PositionCostLong),
		PositionCostShort:  changedFloat(full, prev.PositionCostShort, cur.PositionCostShort),

		FloatProfitLong:     changedFloat(full, prev.FloatProfitLong, cur.FloatProfitLong),
		FloatProfitShort:    changedFloat(full, prev.FloatProfitShort, cur.FloatProfitShort),
		FloatProfit:         changedFloat(full, prev.FloatProfit, cur.FloatProfit),
		PositionProfitLong:  changedFloat(full, prev.PositionProfitLong, cur.PositionProfitLong),
		PositionProfitShort: changedFloat(full, prev.PositionProfitShort, cur.PositionProfitShort),
		PositionProfit:      changedFloat(full, prev.PositionProfit, cur.PositionProfit),

		MarginLong:  changedFloat(full, prev.MarginLong, cur.MarginLong),
		MarginShort: changedFloat(full, prev.MarginShort, cur.MarginShort),
		Margin:      changedFloat(full, prev.Margin, cur.Margin),

		LastPrice: changedFloat(full, prev.LastPrice, cur.LastPrice),
	}
}

// Apply writes the present leaves into pos.
func (p *PositionPatch) Apply(pos *Position) {
	set(&pos.ExchangeID, p.ExchangeID)
	set(&pos.InstrumentID, p.InstrumentID)

	set(&pos.VolumeLongHis, p.VolumeLongHis)
	set(&pos.VolumeLongToday, p.VolumeLongToday)
	set(&pos.VolumeLong, p.VolumeLong)
	set(&pos.VolumeLongFrozenHis, p.VolumeLongFrozenHis)
	set(&pos.VolumeLongFrozenToday, p.VolumeLongFrozenToday)
	set(&pos.VolumeLongFrozen, p.VolumeLongFrozen)

	set(&pos.VolumeShortHis, p.VolumeShortHis)
	set(&pos.VolumeShortToday, p.VolumeShortToday)
	set(&pos.VolumeShort, p.VolumeShort)
	set(&pos.VolumeShortFrozenHis, p.VolumeShortFrozenHis)
	set(&pos.VolumeShortFrozenToday, p.VolumeShortFrozenToday)
	set(&pos.VolumeShortFrozen, p.VolumeShortFrozen)

	set(&pos.OpenPriceLong, p.OpenPriceLong)
	set(&pos.OpenPriceShort, p.OpenPriceShort)
	set(&pos.OpenCostLong, p.OpenCostLong)
	set(&pos.OpenCostShort, p.OpenCostShort)
	set(&pos.PositionPriceLong, p.PositionPriceLong)
	set(&pos.PositionPriceShort, p.PositionPriceShort)
	set(&pos.PositionCostLong, p.PositionCostLong)
	set(&pos.PositionCostShort, p.PositionCostShort)

	set(&pos.FloatProfitLong, p.FloatProfitLong)
	set(&pos.FloatProfitShort, p.FloatProfitShort)
	set(&pos.FloatProfit, p.FloatProfit)
	set(&pos.PositionProfitLong, p.PositionProfitLong)
	set(&pos.PositionProfitShort, p.PositionProfitShort)
	set(&pos.PositionProfit, p.PositionProfit)

	set(&pos.MarginLong, p.MarginLong)
	set(&pos.MarginShort, p.MarginShort)
	set(&pos.Margin, p.Margin)

	set(&pos.LastPrice, p.LastPrice)
}

// Empty reports whether no leaf changed.
func (p *PositionPatch) Empty() bool { return len(p.fields()) == 0 }

// MarshalJSON encodes the present leaves.
func (p PositionPatch) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(p.fields()))
}

func (p *PositionPatch) fields() fields {
	f := fields{}
	f.str("exchange_id", p.ExchangeID)
	f.str("instrument_id", p.InstrumentID)

	f.int("volume_long_his", p.VolumeLongHis)
	f.int("volume_long_today", p.VolumeLongToday)
	f.int("volume_long", p.VolumeLong)
	f.int("volume_long_frozen_his", p.VolumeLongFrozenHis)
	f.int("volume_long_frozen_today", p.VolumeLongFrozenToday)
	f.int("volume_long_frozen", p.VolumeLongFrozen)

	f.int("volume_short_his", p.VolumeShortHis)
	f.int("volume_short_today", p.VolumeShortToday)
	f.int("volume_short", p.VolumeShort)
	f.int("volume_short_frozen_his", p.VolumeShortFrozenHis)
	f.int("volume_short_frozen_today", p.VolumeShortFrozenToday)
	f.int("volume_short_frozen", p.VolumeShortFrozen)

	f.float("open_price_long", p.OpenPriceLong)
	f.float("open_price_short", p.OpenPriceShort)
	f.float("open_cost_long", p.OpenCostLong)
	f.float("open_cost_short", p.OpenCostShort)
	f.float("position_price_long", p.PositionPriceLong)
	f.float("position_price_short", p.PositionPriceShort)
	f.float("position_cost_long", p.PositionCostLong)
	f.float("position_cost_short", p.PositionCostShort)

	f.float("float_profit_long", p.FloatProfitLong)
	f.float("float_profit_short", p.FloatProfitShort)
	f.float("float_profit", p.FloatProfit)
	f.float("position_profit_long", p.PositionProfitLong)
	f.float("position_profit_short", p.PositionProfitShort)
	f.float("position_profit", p.PositionProfit)

	f.float("margin_long", p.MarginLong)
	f.float("margin_short", p.MarginShort)
	f.float("margin", p.Margin)

	f.float("last_price", p.LastPrice)
	return f
}

// OrderPatch holds the changed leaves of an Order.
type OrderPatch struct {
	OrderID         *string
	UserID          *string
	ExchangeID      *string
	InstrumentID    *string
	Direction       *Direction
	Offset          *Offset
	PriceType       *PriceType
	LimitPrice      *float64
	TimeCondition   *TimeCondition
	VolumeCondition *VolumeCondition
	VolumeOrign     *int64
	VolumeLeft      *int64
	Status          *OrderStatus
	LastMsg         *string
	FrozenMargin    *float64
	FrozenPremium   *float64
	InsertDateTime  *int64
}

// DiffOrder returns the leaves of cur that differ from prev. A nil prev
// yields every field.
func DiffOrder(prev, cur *Order) OrderPatch {
	full := prev == nil
	if full {
		prev = &Order{}
	}
	return OrderPatch{
		OrderID:         changed(full, prev.OrderID, cur.OrderID),
		UserID:          changed(full, prev.UserID, cur.UserID),
		ExchangeID:      changed(full, prev.ExchangeID, cur.ExchangeID),
		InstrumentID:    changed(full, prev.InstrumentID, cur.InstrumentID),
		Direction:       changed(full, prev.Direction, cur.Direction),
		Offset:          changed(full, prev.Offset, cur.Offset),
		PriceType:       changed(full, prev.PriceType, cur.PriceType),
		LimitPrice:      changedFloat(full, prev.LimitPrice, cur.LimitPrice),
		TimeCondition:   changed(full, prev.TimeCondition, cur.TimeCondition),
		VolumeCondition: changed(full, prev.VolumeCondition, cur.VolumeCondition),
		VolumeOrign:     changed(full, prev.VolumeOrign, cur.VolumeOrign),
		VolumeLeft:      changed(full, prev.VolumeLeft, cur.VolumeLeft),
		Status:          changed(full, prev.Status, cur.Status),
		LastMsg:         changed(full, prev.LastMsg, cur.LastMsg),
		FrozenMargin:    changedFloat(full, prev.FrozenMargin, cur.FrozenMargin),
		FrozenPremium:   changedFloat(full, prev.FrozenPremium, cur.FrozenPremium),
		InsertDateTime:  changed(full, prev.InsertDateTime, cur.InsertDateTime),
	}
}

// Apply writes the present leaves into o.
func (p *OrderPatch) Apply(o *Order) {
	set(&o.OrderID, p.OrderID)
	set(&o.UserID, p.UserID)
	set(&o.ExchangeID, p.ExchangeID)
	set(&o.InstrumentID, p.InstrumentID)
	set(&o.Direction, p.Direction)
	set(&o.Offset, p.Offset)
	set(&o.PriceType, p.PriceType)
	set(&o.LimitPrice, p.LimitPrice)
	set(&o.TimeCondition, p.TimeCondition)
	set(&o.VolumeCondition, p.VolumeCondition)
	set(&o.VolumeOrign, p.VolumeOrign)
	set(&o.VolumeLeft, p.VolumeLeft)
	set(&o.Status, p.Status)
	set(&o.LastMsg, p.LastMsg)
	set(&o.FrozenMargin, p.FrozenMargin)
	set(&o.FrozenPremium, p.FrozenPremium)
	set(&o.InsertDateTime, p.InsertDateTime)
}

// Empty reports whether no leaf changed.
func (p *OrderPatch) Empty() bool { return len(p.fields()) == 0 }

// MarshalJSON encodes the present leaves.
func (p OrderPatch) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(p.fields()))
}

func (p *OrderPatch) fields() fields {
	f := fields{}
	f.str("order_id", p.OrderID)
	f.str("user_id", p.UserID)
	f.str("exchange_id", p.ExchangeID)
	f.str("instrument_id", p.InstrumentID)
	if p.Direction != nil {
		f["direction"] = *p.Direction
	}
	if p.Offset != nil {
		f["offset"] = *p.Offset
	}
	if p.PriceType != nil {
		f["price_type"] = *p.PriceType
	}
	f.float("limit_price", p.LimitPrice)
	if p.TimeCondition != nil {
		f["time_condition"] = *p.TimeCondition
	}
	if p.VolumeCondition != nil {
		f["volume_condition"] = *p.VolumeCondition
	}
	f.int("volume_orign", p.VolumeOrign)
	f.int("volume_left", p.VolumeLeft)
	if p.Status != nil {
		f["status"] = *p.Status
	}
	f.str("last_msg", p.LastMsg)
	f.float("frozen_margin", p.FrozenMargin)
	f.float("frozen_premium", p.FrozenPremium)
	f.int("insert_date_time", p.InsertDateTime)
	return f
}

// TradePatch holds the leaves of a Trade. Trades never change after
// creation, so a trade patch always carries every field.
type TradePatch struct {
	TradeID       *string
	OrderID       *string
	UserID        *string
	ExchangeID    *string
	InstrumentID  *string
	Direction     *Direction
	Offset        *Offset
	Price         *float64
	Volume        *int64
	TradeDateTime *int64
	Commission    *float64
}

// DiffTrade returns the leaves of cur that differ from prev. A nil prev
// yields every field.
func DiffTrade(prev, cur *Trade) TradePatch {
	full := prev == nil
	if full {
		prev = &Trade{}
	}
	return TradePatch{
		TradeID:       changed(full, prev.TradeID, cur.TradeID),
		OrderID:       changed(full, prev.OrderID, cur.OrderID),
		UserID:        changed(full, prev.UserID, cur.UserID),
		ExchangeID:    changed(full, prev.ExchangeID, cur.ExchangeID),
		InstrumentID:  changed(full, prev.InstrumentID, cur.InstrumentID),
		Direction:     changed(full, prev.Direction, cur.Direction),
		Offset:        changed(full, prev.Offset, cur.Offset),
		Price:         changedFloat(full, prev.Price, cur.Price),
		Volume:        changed(full, prev.Volume, cur.Volume),
		TradeDateTime: changed(full, prev.TradeDateTime, cur.TradeDateTime),
		Commission:    changedFloat(full, prev.Commission, cur.Commission),
	}
}

// Apply writes the present leaves into t.
func (p *TradePatch) Apply(t *Trade) {
	set(&t.TradeID, p.TradeID)
	set(&t.OrderID, p.OrderID)
	set(&t.UserID, p.UserID)
	set(&t.ExchangeID, p.ExchangeID)
	set(&t.InstrumentID, p.InstrumentID)
	set(&t.Direction, p.Direction)
	set(&t.Offset, p.Offset)
	set(&t.Price, p.Price)
	set(&t.Volume, p.Volume)
	set(&t.TradeDateTime, p.TradeDateTime)
	set(&t.Commission, p.Commission)
}

// Empty reports whether no leaf changed.
func (p *TradePatch) Empty() bool { return len(p.fields()) == 0 }

// MarshalJSON encodes the present leaves.
func (p TradePatch) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(p.fields()))
}

func (p *TradePatch) fields() fields {
	f := fields{}
	f.str("trade_id", p.TradeID)
	f.str("order_id", p.OrderID)
	f.str("user_id", p.UserID)
	f.str("exchange_id", p.ExchangeID)
	f.str("instrument_id", p.InstrumentID)
	if p.Direction != nil {
		f["direction"] = *p.Direction
	}
	if p.Offset != nil {
		f["offset"] = *p.Offset
	}
	f.float("price", p.Price)
	f.int("volume", p.Volume)
	f.int("trade_date_time", p.TradeDateTime)
	f.float("commission", p.Commission)
	return f
}
