package engine

import (
	"slices"

	"github.com/efreitasn/simtrade/internal/domain"
)

// Settle ends the trading day. It cancels every ALIVE order, realizes the
// day's position profit at the latest last price, captures the day's
// statement, rolls today lots into history and starts a new day from the
// settled balance. Settlement cannot fail.
func (s *Simulator) Settle() (Result, domain.TradeLog) {
	s.begin()

	for _, e := range s.book.All() {
		s.finish(s.orders[e.OrderID], domain.MsgSettlementCancelled)
	}

	symbols := sortedKeys(s.positions)
	for _, sym := range symbols {
		p := s.positions[sym]
		settleSide(&p.long, p.markPrice, p.mult, 1)
		settleSide(&p.short, p.markPrice, p.mult, -1)
		p.mark()
	}
	s.recomputeAccount()

	log := domain.TradeLog{
		TradingDay: tradingDay(s.quotes.Datetime()),
		Trades:     slices.Clone(s.trades[s.dayStart:]),
		Account:    s.account,
		Positions:  make(map[string]domain.Position, len(symbols)),
	}
	for _, sym := range symbols {
		log.Positions[sym] = s.positions[sym].view()
	}

	for _, sym := range symbols {
		p := s.positions[sym]
		rollSide(&p.long)
		rollSide(&p.short)
		p.mark()
		s.emitPosition(sym, p)
	}

	a := &s.account
	a.PreBalance = a.Balance
	a.Deposit = 0
	a.Withdraw = 0
	a.CloseProfit = 0
	a.Commission = 0
	s.dayStart = len(s.trades)

	return s.end(), log
}

// settleSide realizes the profit of each bucket since its position cost was
// last set and moves the cost to the settlement price. Without a known price
// the cost is kept and no profit is realized.
func settleSide(sd *side, price, mult, sign float64) {
	sd.positionProfit = 0
	if !isFinite(price) {
		return
	}
	for _, b := range []*bucket{&sd.his, &sd.today} {
		if b.volume == 0 {
			continue
		}
		settled := price * float64(b.volume) * mult
		sd.positionProfit += (settled - b.positionCost) * sign
		b.positionCost = settled
	}
}

// rollSide merges today lots into history and clears the realized profit.
func rollSide(sd *side) {
	sd.his.volume += sd.today.volume
	sd.his.frozen += sd.today.frozen
	sd.his.openCost += sd.today.openCost
	sd.his.positionCost += sd.today.positionCost
	sd.today = bucket{}
	sd.positionProfit = 0
}
