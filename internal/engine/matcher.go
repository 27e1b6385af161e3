package engine

import (
	"math"

	"github.com/efreitasn/simtrade/internal/domain"
)

// InsertOrder validates an order, freezes what it needs and tries to fill it
// against the current quote. Rejections are reported as FINISHED orders with
// a reason in LastMsg. The only error is domain.ErrDuplicateOrderID, returned
// with an empty result and no state change.
func (s *Simulator) InsertOrder(cmd domain.InsertOrder) (Result, error) {
	if _, dup := s.orders[cmd.OrderID]; dup {
		return Result{}, domain.ErrDuplicateOrderID
	}
	s.begin()

	s.seq++
	limitPrice := cmd.LimitPrice
	if cmd.PriceType == domain.PriceTypeAny {
		limitPrice = math.NaN()
	}
	st := &orderState{
		seq: s.seq,
		order: domain.Order{
			OrderID:         cmd.OrderID,
			UserID:          cmd.UserID,
			ExchangeID:      cmd.ExchangeID,
			InstrumentID:    cmd.InstrumentID,
			Direction:       cmd.Direction,
			Offset:          cmd.Offset,
			PriceType:       cmd.PriceType,
			LimitPrice:      limitPrice,
			TimeCondition:   cmd.TimeCondition,
			VolumeCondition: cmd.VolumeCondition,
			VolumeOrign:     cmd.Volume,
			VolumeLeft:      cmd.Volume,
			InsertDateTime:  s.now(),
		},
	}
	s.orders[cmd.OrderID] = st
	s.orderSeq = append(s.orderSeq, cmd.OrderID)

	s.insert(st)
	return s.end(), nil
}

// insert runs the validation pipeline; the first failure wins.
func (s *Simulator) insert(st *orderState) {
	o := &st.order
	symbol := o.Symbol()
	q := s.quotes.Lookup(symbol)

	if o.VolumeOrign <= 0 {
		s.reject(st, domain.MsgInvalidVolume)
		return
	}
	if o.PriceType == domain.PriceTypeLimit && !isFinite(o.LimitPrice) {
		s.reject(st, domain.MsgInvalidLimitPrice)
		return
	}

	index := false
	switch q.InsClass {
	case domain.InsClassFuture:
	case domain.InsClassFutureIndex:
		index = true
	default:
		// Continuous series are quote-only aliases of a real contract.
		s.reject(st, domain.MsgUnsupportedInstrument)
		return
	}

	tradable := inTradingTime(q.TradingTime, s.quotes.datetimeFor(q))
	if index {
		// Index series are quote-only; they pass the session check only to
		// be refused as untradable.
		if !tradable {
			s.reject(st, domain.MsgNotTradableTime)
		} else {
			s.reject(st, domain.MsgUnsupportedInstrument)
		}
		return
	}

	if o.Offset == domain.OffsetOpen {
		if msg := s.freezeOpen(st, q); msg != "" {
			s.reject(st, msg)
			return
		}
	} else {
		if msg := s.freezeClose(st, q); msg != "" {
			s.reject(st, msg)
			return
		}
	}

	o.Status = domain.OrderStatusAlive
	o.LastMsg = domain.MsgAccepted
	s.book.Insert(symbol, st.seq, o.OrderID)
	s.emitOrder(st)
	s.pushEvent(st)

	if !tradable {
		if o.TimeCondition == domain.TimeConditionIOC {
			s.finish(st, domain.MsgIOCNotTradedTime)
		}
		return
	}
	if s.match(st, q) {
		return
	}
	if o.TimeCondition == domain.TimeConditionIOC {
		msg := domain.MsgIOCNoMatch
		if o.PriceType == domain.PriceTypeAny {
			msg = domain.MsgIOCNoLiquidity
		}
		s.finish(st, msg)
	}
}

// freezeOpen reserves margin and commission for an open order. It returns a
// rejection message, or "" when the funds were frozen.
func (s *Simulator) freezeOpen(st *orderState, q *domain.Quote) string {
	vol := float64(st.order.VolumeOrign)
	need := vol * (q.Margin + q.Commission)
	// NaN rates fail the comparison and reject the order.
	if !(s.account.Available >= need) {
		return domain.MsgInsufficientFunds
	}
	st.commissionPerLot = q.Commission
	st.order.FrozenMargin = vol * q.Margin
	st.frozenCommission = vol * q.Commission
	return ""
}

// freezeClose reserves position lots for a close order. SHFE and INE close
// history lots with CLOSE and today lots with CLOSETODAY; other exchanges
// draw history lots first, then today lots.
func (s *Simulator) freezeClose(st *orderState, q *domain.Quote) string {
	o := &st.order
	vol := o.VolumeOrign
	separate := domain.SeparatesCloseToday(o.ExchangeID)

	p, ok := s.positions[o.Symbol()]
	if !ok {
		p = newPositionState(o.Symbol())
	}
	sd, _ := p.sideFor(o.Direction, o.Offset)

	switch {
	case separate && o.Offset == domain.OffsetCloseToday:
		if sd.today.available() < vol {
			return domain.MsgInsufficientToday
		}
		st.frozenToday = vol
	case separate:
		if sd.his.available() < vol {
			return domain.MsgInsufficientHistory
		}
		st.frozenHis = vol
	default:
		if sd.his.available()+sd.today.available() < vol {
			return domain.MsgInsufficientPosition
		}
		st.frozenHis = min(vol, sd.his.available())
		st.frozenToday = vol - st.frozenHis
	}

	sd.his.frozen += st.frozenHis
	sd.today.frozen += st.frozenToday
	st.commissionPerLot = q.Commission
	s.emitPosition(o.Symbol(), p)
	return ""
}

// fillPrice decides whether the order crosses q and at what price. Market
// orders take the opposite best price; limit orders trade at their own
// limit.
func fillPrice(o *domain.Order, q *domain.Quote) (float64, bool) {
	opposite := q.AskPrice1
	if !o.IsBuy() {
		opposite = q.BidPrice1
	}
	if !isFinite(opposite) {
		return 0, false
	}
	if o.PriceType == domain.PriceTypeAny {
		return opposite, true
	}
	if o.IsBuy() && o.LimitPrice >= opposite {
		return o.LimitPrice, true
	}
	if !o.IsBuy() && o.LimitPrice <= opposite {
		return o.LimitPrice, true
	}
	return 0, false
}

// match fills st if it crosses q and reports whether it did.
func (s *Simulator) match(st *orderState, q *domain.Quote) bool {
	if st == nil || !st.alive() {
		return false
	}
	price, ok := fillPrice(&st.order, q)
	if !ok {
		return false
	}
	s.fill(st, q, price)
	return true
}

// fill executes the whole remaining volume of st at price.
func (s *Simulator) fill(st *orderState, q *domain.Quote, price float64) {
	o := &st.order
	symbol := o.Symbol()
	p := s.position(symbol)
	p.observe(q)

	vol := o.VolumeLeft
	commission := float64(vol) * firstFinite(q.Commission, st.commissionPerLot)

	sd, sign := p.sideFor(o.Direction, o.Offset)
	if o.Offset == domain.OffsetOpen {
		sd.today.open(vol, price, p.mult)
	} else {
		profit := sd.his.close(st.frozenHis, price, p.mult, sign)
		profit += sd.today.close(st.frozenToday, price, p.mult, sign)
		s.account.CloseProfit += profit
		st.frozenHis, st.frozenToday = 0, 0
	}
	s.account.Commission += commission

	o.FrozenMargin = 0
	st.frozenCommission = 0

	trade := domain.Trade{
		TradeID:       domain.TradeID(o.OrderID, vol),
		OrderID:       o.OrderID,
		UserID:        o.UserID,
		ExchangeID:    o.ExchangeID,
		InstrumentID:  o.InstrumentID,
		Direction:     o.Direction,
		Offset:        o.Offset,
		Price:         price,
		Volume:        vol,
		TradeDateTime: s.now(),
		Commission:    commission,
	}
	s.trades = append(s.trades, trade)
	s.emitTrade(&trade)

	o.VolumeLeft = 0
	o.Status = domain.OrderStatusFinished
	o.LastMsg = domain.MsgFilled
	s.book.Remove(o.OrderID)
	s.emitOrder(st)
	s.pushEvent(st)

	p.mark()
	s.emitPosition(symbol, p)
}

// CancelOrder cancels an ALIVE order and releases its reservations. Unknown
// and FINISHED orders yield an empty result.
func (s *Simulator) CancelOrder(cmd domain.CancelOrder) Result {
	s.begin()
	if st, ok := s.orders[cmd.OrderID]; ok && st.alive() {
		s.finish(st, domain.MsgCancelled)
	}
	return s.end()
}

// finish ends an ALIVE order without a fill.
func (s *Simulator) finish(st *orderState, msg string) {
	o := &st.order
	o.FrozenMargin = 0
	st.frozenCommission = 0
	if st.frozenHis > 0 || st.frozenToday > 0 {
		if p, ok := s.positions[o.Symbol()]; ok {
			sd, _ := p.sideFor(o.Direction, o.Offset)
			sd.his.frozen -= st.frozenHis
			sd.today.frozen -= st.frozenToday
			s.emitPosition(o.Symbol(), p)
		}
		st.frozenHis, st.frozenToday = 0, 0
	}
	o.Status = domain.OrderStatusFinished
	o.LastMsg = msg
	s.book.Remove(o.OrderID)
	s.emitOrder(st)
	s.pushEvent(st)
}

// reject ends an order that never became ALIVE.
func (s *Simulator) reject(st *orderState, msg string) {
	st.order.Status = domain.OrderStatusFinished
	st.order.LastMsg = msg
	s.emitOrder(st)
	s.pushEvent(st)
}

func firstFinite(vals ...float64) float64 {
	for _, v := range vals {
		if isFinite(v) {
			return v
		}
	}
	return 0
}
