package engine

// recomputeAccount derives the account aggregates from positions and resting
// orders. Sums run in key order so results are reproducible to the bit.
func (s *Simulator) recomputeAccount() {
	a := &s.account

	var margin, floatProfit, positionProfit float64
	for _, sym := range sortedKeys(s.positions) {
		p := s.positions[sym]
		margin += p.long.margin + p.short.margin
		floatProfit += p.long.floatProfit + p.short.floatProfit
		positionProfit += p.long.positionProfit + p.short.positionProfit
	}

	var frozenMargin, frozenCommission, frozenPremium float64
	for _, e := range s.book.All() {
		st := s.orders[e.OrderID]
		frozenMargin += st.order.FrozenMargin
		frozenCommission += st.frozenCommission
		frozenPremium += st.order.FrozenPremium
	}

	a.Margin = margin
	a.FloatProfit = floatProfit
	a.PositionProfit = positionProfit
	a.FrozenMargin = frozenMargin
	a.FrozenCommission = frozenCommission
	a.FrozenPremium = frozenPremium

	a.StaticBalance = a.PreBalance + a.Deposit - a.Withdraw
	a.Balance = a.StaticBalance + a.CloseProfit + a.PositionProfit - a.Commission
	a.Available = a.Balance - a.Margin - a.FrozenMargin - a.FrozenCommission - a.FrozenPremium
	if a.Balance != 0 {
		a.RiskRatio = a.Margin / a.Balance
	} else {
		a.RiskRatio = 0
	}
}
