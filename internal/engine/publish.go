package engine

import "github.com/efreitasn/simtrade/internal/domain"

// published is the state last reported to clients. Patches are computed
// against it so that each carries only the leaves that changed.
type published struct {
	account   *domain.Account
	positions map[string]domain.Position
	orders    map[string]domain.Order
}

func newPublished() published {
	return published{
		positions: make(map[string]domain.Position),
		orders:    make(map[string]domain.Order),
	}
}

// begin starts collecting the result of a top-level call.
func (s *Simulator) begin() {
	s.res = &Result{AccountKey: s.key}
}

// end reports the account once and returns the collected result.
func (s *Simulator) end() Result {
	s.syncAccount()
	r := *s.res
	s.res = nil
	return r
}

func (s *Simulator) emitOrder(st *orderState) {
	cur := st.order
	var prev *domain.Order
	if p, ok := s.pub.orders[cur.OrderID]; ok {
		prev = &p
	}
	patch := domain.DiffOrder(prev, &cur)
	if !patch.Empty() {
		s.res.Diffs = append(s.res.Diffs, domain.Patch{Kind: domain.PatchOrder, Key: cur.OrderID, Order: &patch})
	}
	s.pub.orders[cur.OrderID] = cur
}

// pushEvent records an order status transition.
func (s *Simulator) pushEvent(st *orderState) {
	s.res.OrderEvents = append(s.res.OrderEvents, st.order)
}

func (s *Simulator) emitTrade(t *domain.Trade) {
	patch := domain.DiffTrade(nil, t)
	s.res.Diffs = append(s.res.Diffs, domain.Patch{Kind: domain.PatchTrade, Key: t.TradeID, Trade: &patch})
}

func (s *Simulator) emitPosition(symbol string, p *positionState) {
	cur := p.view()
	var prev *domain.Position
	if pp, ok := s.pub.positions[symbol]; ok {
		prev = &pp
	}
	patch := domain.DiffPosition(prev, &cur)
	if !patch.Empty() {
		s.res.Diffs = append(s.res.Diffs, domain.Patch{Kind: domain.PatchPosition, Key: symbol, Position: &patch})
	}
	s.pub.positions[symbol] = cur
}

// syncAccount recomputes the account aggregates and reports what changed.
func (s *Simulator) syncAccount() {
	s.recomputeAccount()
	cur := s.account
	patch := domain.DiffAccount(s.pub.account, &cur)
	if !patch.Empty() {
		s.res.Diffs = append(s.res.Diffs, domain.Patch{Kind: domain.PatchAccount, Key: cur.Currency, Account: &patch})
	}
	s.pub.account = &cur
}
