package engine

import (
	"encoding/json"
	"math"
	"slices"

	"github.com/efreitasn/simtrade/internal/domain"
)

// Result is the outcome of one simulator call: the state patches in the
// order they were produced and a full order snapshot for every order status
// transition.
type Result struct {
	AccountKey  string
	Diffs       []domain.Patch
	OrderEvents []domain.Order
}

// Empty reports whether the call changed nothing.
func (r Result) Empty() bool {
	return len(r.Diffs) == 0 && len(r.OrderEvents) == 0
}

// MarshalJSON encodes the result as
// {"diffs":[{"trade":{"<account>":{...}}}, ...], "order_events":[...]}.
func (r Result) MarshalJSON() ([]byte, error) {
	diffs := make([]any, 0, len(r.Diffs))
	for _, p := range r.Diffs {
		diffs = append(diffs, map[string]any{"trade": map[string]any{r.AccountKey: p}})
	}
	events := r.OrderEvents
	if events == nil {
		events = []domain.Order{}
	}
	return json.Marshal(struct {
		Diffs       []any          `json:"diffs"`
		OrderEvents []domain.Order `json:"order_events"`
	}{diffs, events})
}

// orderState is an order plus the reservations held for it.
type orderState struct {
	order domain.Order
	seq   uint64

	commissionPerLot float64
	frozenCommission float64
	frozenHis        int64 // position lots frozen by a close order
	frozenToday      int64
}

func (st *orderState) alive() bool {
	return st.order.Status == domain.OrderStatusAlive
}

// Simulator is the matching and accounting engine of one trading account.
// It performs no I/O and reads no wall clock; time comes from quote
// datetimes. A Simulator is single-writer: callers serialize calls.
type Simulator struct {
	key     string
	quotes  *QuoteCache
	book    *RestingBook
	account domain.Account

	positions map[string]*positionState
	orders    map[string]*orderState
	orderSeq  []string // order IDs in insertion order
	trades    []domain.Trade
	dayStart  int // index of the first trade of the current trading day
	seq       uint64

	pub published
	res *Result
}

// New creates a simulator for accountKey holding initBalance.
func New(accountKey string, initBalance float64) *Simulator {
	return &Simulator{
		key:       accountKey,
		quotes:    NewQuoteCache(),
		book:      NewRestingBook(),
		account:   domain.NewAccount(initBalance),
		positions: make(map[string]*positionState),
		orders:    make(map[string]*orderState),
		pub:       newPublished(),
	}
}

// Key returns the account key.
func (s *Simulator) Key() string {
	return s.key
}

// Account returns the current account.
func (s *Simulator) Account() domain.Account {
	return s.account
}

// Position returns the position in symbol.
func (s *Simulator) Position(symbol string) (domain.Position, bool) {
	p, ok := s.positions[symbol]
	if !ok {
		return domain.Position{}, false
	}
	return p.view(), true
}

// Orders returns every order in insertion order.
func (s *Simulator) Orders() []domain.Order {
	out := make([]domain.Order, 0, len(s.orderSeq))
	for _, id := range s.orderSeq {
		out = append(out, s.orders[id].order)
	}
	return out
}

// Trades returns every trade in execution order.
func (s *Simulator) Trades() []domain.Trade {
	return slices.Clone(s.trades)
}

// Quote returns the cached quote for symbol.
func (s *Simulator) Quote(symbol string) (domain.Quote, bool) {
	q, ok := s.quotes.Get(symbol)
	if !ok {
		return domain.Quote{}, false
	}
	return *q, true
}

// RestingCount returns the number of ALIVE orders.
func (s *Simulator) RestingCount() int {
	return s.book.Len()
}

// Snapshot returns a deep copy of the client-visible state.
func (s *Simulator) Snapshot() domain.Snapshot {
	snap := domain.NewSnapshot()
	snap.Accounts[s.account.Currency] = s.account
	for sym, p := range s.positions {
		snap.Positions[sym] = p.view()
	}
	for id, st := range s.orders {
		snap.Orders[id] = st.order
	}
	for _, t := range s.trades {
		snap.Trades[t.TradeID] = t
	}
	return snap
}

// InitSnapshot returns patches describing the whole current state with every
// field present. Later results are increments on top of it.
func (s *Simulator) InitSnapshot() Result {
	s.begin()
	s.pub = newPublished()
	for _, id := range s.orderSeq {
		s.emitOrder(s.orders[id])
	}
	for _, t := range s.trades {
		s.emitTrade(&t)
	}
	for _, sym := range sortedKeys(s.positions) {
		s.emitPosition(sym, s.positions[sym])
	}
	return s.end()
}

// Deposit adds funds to the account.
func (s *Simulator) Deposit(amount float64) (Result, error) {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return Result{}, &domain.ValidationError{Message: "amount must be > 0"}
	}
	s.begin()
	s.account.Deposit += amount
	return s.end(), nil
}

// Withdraw removes funds from the account. It fails with
// domain.ErrInsufficientFunds when amount exceeds the available funds.
func (s *Simulator) Withdraw(amount float64) (Result, error) {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return Result{}, &domain.ValidationError{Message: "amount must be > 0"}
	}
	if amount > s.account.Available {
		return Result{}, domain.ErrInsufficientFunds
	}
	s.begin()
	s.account.Withdraw += amount
	return s.end(), nil
}

// UpdateQuotes merges partial quotes, re-evaluates resting orders on every
// updated instrument in insertion order and marks positions to market.
func (s *Simulator) UpdateQuotes(msg domain.QuoteMessage) Result {
	s.begin()
	symbols := sortedKeys(msg.Quotes)
	for _, sym := range symbols {
		s.quotes.Apply(sym, msg.Quotes[sym])
	}
	for _, sym := range symbols {
		q, _ := s.quotes.Get(sym)
		if inTradingTime(q.TradingTime, s.quotes.datetimeFor(q)) {
			for _, id := range s.book.OrderIDs(sym) {
				s.match(s.orders[id], q)
			}
		}
		if p, ok := s.positions[sym]; ok {
			p.observe(q)
			p.mark()
			s.emitPosition(sym, p)
		}
	}
	return s.end()
}

// now is the simulator clock in ns since epoch.
func (s *Simulator) now() int64 {
	return datetimeNanos(s.quotes.Datetime())
}

// position returns the position in symbol, creating it on first use.
func (s *Simulator) position(symbol string) *positionState {
	p, ok := s.positions[symbol]
	if !ok {
		p = newPositionState(symbol)
		s.positions[symbol] = p
	}
	return p
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
