package domain

import (
	"encoding/json"
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestDiffAccount_NoChangeIsEmpty(t *testing.T) {
	a := NewAccount(1_000_000)
	p := DiffAccount(&a, &a)
	if !p.Empty() {
		t.Errorf("diff of identical accounts should be empty, got %+v", p.fields())
	}
}

func TestDiffAccount_OnlyChangedLeaves(t *testing.T) {
	prev := NewAccount(1_000_000)
	cur := prev
	cur.Margin = 5155.5
	cur.Available = 994_838.5

	p := DiffAccount(&prev, &cur)
	f := p.fields()
	if len(f) != 2 {
		t.Fatalf("expected 2 changed leaves, got %v", f)
	}
	if f["margin"] != 5155.5 || f["available"] != 994_838.5 {
		t.Errorf("unexpected leaves %v", f)
	}
}

func TestDiffPosition_NaNUnchanged(t *testing.T) {
	prev := Position{ExchangeID: "CZCE", InstrumentID: "MA105", LastPrice: math.NaN()}
	cur := prev
	if p := DiffPosition(&prev, &cur); !p.Empty() {
		t.Errorf("NaN to NaN should not produce a patch, got %v", p.fields())
	}
	cur.LastPrice = 2471
	p := DiffPosition(&prev, &cur)
	if p.LastPrice == nil || *p.LastPrice != 2471 {
		t.Errorf("LastPrice patch = %v, want 2471", p.LastPrice)
	}
}

func TestDiffOrder_NilPrevIsFull(t *testing.T) {
	o := Order{OrderID: "o1", Status: OrderStatusAlive}
	p := DiffOrder(nil, &o)
	if got := len(p.fields()); got != 17 {
		t.Errorf("full order patch has %d leaves, want 17", got)
	}
}

func TestPatch_MarshalJSON_Shape(t *testing.T) {
	prev := NewAccount(100)
	cur := prev
	cur.Balance = 90
	ap := DiffAccount(&prev, &cur)
	data, err := json.Marshal(Patch{Kind: PatchAccount, Key: CurrencyCNY, Account: &ap})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"accounts":{"CNY":{"balance":90}}}` {
		t.Errorf("got %s", data)
	}
}

func TestSnapshot_ApplyTrade(t *testing.T) {
	tr := Trade{TradeID: "o1|3", OrderID: "o1", Price: 2470, Volume: 3, Commission: 6}
	tp := DiffTrade(nil, &tr)
	s := NewSnapshot()
	s.Apply(Patch{Kind: PatchTrade, Key: tr.TradeID, Trade: &tp})
	if s.Trades["o1|3"] != tr {
		t.Errorf("snapshot trade = %+v, want %+v", s.Trades["o1|3"], tr)
	}
}

func drawFloat(t *rapid.T, label string) float64 {
	if rapid.IntRange(0, 9).Draw(t, label+"_nan") == 0 {
		return math.NaN()
	}
	return rapid.Float64Range(-1e7, 1e7).Draw(t, label)
}

func drawPosition(t *rapid.T, label string) Position {
	return Position{
		ExchangeID:            "SHFE",
		InstrumentID:          "cu2105",
		VolumeLongHis:         rapid.Int64Range(0, 50).Draw(t, label+"_vlh"),
		VolumeLongToday:       rapid.Int64Range(0, 50).Draw(t, label+"_vlt"),
		VolumeShortToday:      rapid.Int64Range(0, 50).Draw(t, label+"_vst"),
		VolumeShortFrozenHis:  rapid.Int64Range(0, 50).Draw(t, label+"_vsfh"),
		OpenCostLong:          drawFloat(t, label+"_ocl"),
		PositionPriceShort:    drawFloat(t, label+"_pps"),
		FloatProfit:           drawFloat(t, label+"_fp"),
		MarginLong:            drawFloat(t, label+"_ml"),
		LastPrice:             drawFloat(t, label+"_lp"),
		VolumeLongFrozenToday: rapid.Int64Range(0, 50).Draw(t, label+"_vlft"),
	}
}

func mustJSON(t *rapid.T, v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return string(data)
}

// Feature: simtrade, Property 1: Applying DiffX(prev, cur) to prev yields cur

func TestProperty_DiffApplyRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		prev := drawPosition(t, "prev")
		cur := drawPosition(t, "cur")

		p := DiffPosition(&prev, &cur)
		got := prev
		p.Apply(&got)
		if mustJSON(t, got) != mustJSON(t, cur) {
			t.Fatalf("position round trip mismatch:\n got %s\nwant %s", mustJSON(t, got), mustJSON(t, cur))
		}

		pa := NewAccount(rapid.Float64Range(0, 1e7).Draw(t, "init"))
		ca := pa
		ca.Balance = drawFloat(t, "balance")
		ca.RiskRatio = drawFloat(t, "risk")
		ap := DiffAccount(&pa, &ca)
		gotA := pa
		ap.Apply(&gotA)
		if mustJSON(t, gotA) != mustJSON(t, ca) {
			t.Fatalf("account round trip mismatch:\n got %s\nwant %s", mustJSON(t, gotA), mustJSON(t, ca))
		}
	})
}
