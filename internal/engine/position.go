package engine

import (
	"math"

	"github.com/efreitasn/simtrade/internal/domain"
)

// bucket is one lot bucket of a position (long/short × history/today). All
// lots in a bucket share one average open and position cost.
type bucket struct {
	volume       int64
	frozen       int64
	openCost     float64
	positionCost float64
}

// open adds v lots bought or sold at price.
func (b *bucket) open(v int64, price float64, mult float64) {
	cost := price * float64(v) * mult
	b.volume += v
	b.openCost += cost
	b.positionCost += cost
}

// close removes v frozen lots at price and returns the realized profit. Costs
// shrink in proportion to the closed volume.
func (b *bucket) close(v int64, price float64, mult float64, sign float64) float64 {
	if v <= 0 || b.volume <= 0 {
		return 0
	}
	positionPrice := b.positionCost / (float64(b.volume) * mult)
	profit := (price - positionPrice) * float64(v) * mult * sign

	ratio := float64(v) / float64(b.volume)
	b.openCost -= b.openCost * ratio
	b.positionCost -= b.positionCost * ratio
	b.volume -= v
	b.frozen -= v
	if b.volume == 0 {
		b.openCost = 0
		b.positionCost = 0
	}
	return profit
}

// available is the volume that can still be frozen by a close order.
func (b *bucket) available() int64 {
	return b.volume - b.frozen
}

// side is one direction of a position.
type side struct {
	his, today     bucket
	floatProfit    float64
	positionProfit float64
	margin         float64
}

func (s *side) volume() int64 { return s.his.volume + s.today.volume }

// markToMarket recomputes the float profit of the side at price.
func (s *side) markToMarket(price, mult, sign float64) {
	vol := s.volume()
	if vol == 0 || math.IsNaN(price) {
		s.floatProfit = 0
		return
	}
	cost := s.his.positionCost + s.today.positionCost
	s.floatProfit = (price*float64(vol)*mult - cost) * sign
}

// positionState is the engine's view of a holding in one instrument.
type positionState struct {
	exchangeID   string
	instrumentID string

	long, short side

	mult         float64
	marginPerLot float64
	lastPrice    float64 // mirrors the quote, NaN when unavailable
	markPrice    float64 // latest finite last price
}

func newPositionState(symbol string) *positionState {
	ex, ins := domain.SplitSymbol(symbol)
	return &positionState{
		exchangeID:   ex,
		instrumentID: ins,
		mult:         1,
		lastPrice:    math.NaN(),
		markPrice:    math.NaN(),
	}
}

// sideFor returns the side an order direction opens (BUY opens long) or, for
// closes, the side it closes (BUY closes short).
func (p *positionState) sideFor(dir domain.Direction, offset domain.Offset) (*side, float64) {
	long := dir == domain.DirectionBuy
	if offset != domain.OffsetOpen {
		long = !long
	}
	if long {
		return &p.long, 1
	}
	return &p.short, -1
}

// observe records instrument constants and prices carried by q.
func (p *positionState) observe(q *domain.Quote) {
	if q.VolumeMultiple > 0 {
		p.mult = float64(q.VolumeMultiple)
	}
	if isFinite(q.Margin) {
		p.marginPerLot = q.Margin
	}
	p.lastPrice = q.LastPrice
	if isFinite(q.LastPrice) {
		p.markPrice = q.LastPrice
	}
}

// mark refreshes margin and float profit from the latest observed quote.
func (p *positionState) mark() {
	p.long.margin = float64(p.long.volume()) * p.marginPerLot
	p.short.margin = float64(p.short.volume()) * p.marginPerLot
	p.long.markToMarket(p.markPrice, p.mult, 1)
	p.short.markToMarket(p.markPrice, p.mult, -1)
}

func (p *positionState) empty() bool {
	return p.long.volume() == 0 && p.short.volume() == 0
}

// averagePrice returns cost per unit for vol lots, or NaN when flat.
func averagePrice(cost float64, vol int64, mult float64) float64 {
	if vol == 0 {
		return math.NaN()
	}
	return cost / (float64(vol) * mult)
}

// view builds the client-visible position.
func (p *positionState) view() domain.Position {
	l, s := &p.long, &p.short
	volLong, volShort := l.volume(), s.volume()
	openCostLong := l.his.openCost + l.today.openCost
	openCostShort := s.his.openCost + s.today.openCost
	posCostLong := l.his.positionCost + l.today.positionCost
	posCostShort := s.his.positionCost + s.today.positionCost

	return domain.Position{
		ExchangeID:   p.exchangeID,
		InstrumentID: p.instrumentID,

		VolumeLongHis:         l.his.volume,
		VolumeLongToday:       l.today.volume,
		VolumeLong:            volLong,
		VolumeLongFrozenHis:   l.his.frozen,
		VolumeLongFrozenToday: l.today.frozen,
		VolumeLongFrozen:      l.his.frozen + l.today.frozen,

		VolumeShortHis:         s.his.volume,
		VolumeShortToday:       s.today.volume,
		VolumeShort:            volShort,
		VolumeShortFrozenHis:   s.his.frozen,
		VolumeShortFrozenToday: s.today.frozen,
		VolumeShortFrozen:      s.his.frozen + s.today.frozen,

		OpenPriceLong:      averagePrice(openCostLong, volLong, p.mult),
		OpenPriceShort:     averagePrice(openCostShort, volShort, p.mult),
		OpenCostLong:       openCostLong,
		OpenCostShort:      openCostShort,
		PositionPriceLong:  averagePrice(posCostLong, volLong, p.mult),
		PositionPriceShort: averagePrice(posCostShort, volShort, p.mult),
		PositionCostLong:   posCostLong,
		PositionCostShort:  posCostShort,

		FloatProfitLong:     l.floatProfit,
		FloatProfitShort:    s.floatProfit,
		FloatProfit:         l.floatProfit + s.floatProfit,
		PositionProfitLong:  l.positionProfit,
		PositionProfitShort: s.positionProfit,
		PositionProfit:      l.positionProfit + s.positionProfit,

		MarginLong:  l.margin,
		MarginShort: s.margin,
		Margin:      l.margin + s.margin,

		LastPrice: p.lastPrice,
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
