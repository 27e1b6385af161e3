package domain

import (
	"encoding/json"
	"math"
	"testing"
)

func TestOrder_Symbol(t *testing.T) {
	o := &Order{ExchangeID: "SHFE", InstrumentID: "cu2105", Direction: DirectionSell}
	if o.Symbol() != "SHFE.cu2105" {
		t.Errorf("Symbol() = %q, want SHFE.cu2105", o.Symbol())
	}
	if o.IsBuy() {
		t.Error("IsBuy() = true for a SELL order")
	}
}

func TestOrder_MarshalJSON_NaNLimitPrice(t *testing.T) {
	o := Order{
		OrderID:       "o1",
		ExchangeID:    "CZCE",
		InstrumentID:  "MA105",
		Direction:     DirectionBuy,
		Offset:        OffsetOpen,
		PriceType:     PriceTypeAny,
		LimitPrice:    math.NaN(),
		TimeCondition: TimeConditionIOC,
		VolumeOrign:   3,
		VolumeLeft:    3,
		Status:        OrderStatusAlive,
		LastMsg:       MsgAccepted,
	}
	data, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v, ok := got["limit_price"]; !ok || v != nil {
		t.Errorf("limit_price = %v (present=%v), want null", v, ok)
	}
	if got["status"] != "ALIVE" {
		t.Errorf("status = %v, want ALIVE", got["status"])
	}
	if got["volume_orign"] != float64(3) {
		t.Errorf("volume_orign = %v, want 3", got["volume_orign"])
	}
}

func TestTradeID(t *testing.T) {
	if got := TradeID("abc", 5); got != "abc|5" {
		t.Errorf("TradeID = %q, want abc|5", got)
	}
}
