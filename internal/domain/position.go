package domain

// Position is the client-visible holding in one instrument. Volumes are split
// into history (carried over the last settlement) and today lots per side.
type Position struct {
	ExchangeID   string
	InstrumentID string

	VolumeLongHis         int64
	VolumeLongToday       int64
	VolumeLong            int64
	VolumeLongFrozenHis   int64
	VolumeLongFrozenToday int64
	VolumeLongFrozen      int64

	VolumeShortHis         int64
	VolumeShortToday       int64
	VolumeShort            int64
	VolumeShortFrozenHis   int64
	VolumeShortFrozenToday int64
	VolumeShortFrozen      int64

	OpenPriceLong      float64
	OpenPriceShort     float64
	OpenCostLong       float64
	OpenCostShort      float64
	PositionPriceLong  float64
	PositionPriceShort float64
	PositionCostLong   float64
	PositionCostShort  float64

	FloatProfitLong     float64
	FloatProfitShort    float64
	FloatProfit         float64
	PositionProfitLong  float64
	PositionProfitShort float64
	PositionProfit      float64

	MarginLong  float64
	MarginShort float64
	Margin      float64

	LastPrice float64
}

// Symbol returns the EXCHANGE.INSTRUMENT key of the position.
func (p *Position) Symbol() string {
	return Symbol(p.ExchangeID, p.InstrumentID)
}

// MarshalJSON encodes the position with every field present.
func (p Position) MarshalJSON() ([]byte, error) {
	return DiffPosition(nil, &p).MarshalJSON()
}
