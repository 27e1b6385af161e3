package domain

// Snapshot is a client-side view of one account's state, rebuilt by applying
// patches in order.
type Snapshot struct {
	Accounts  map[string]Account  `json:"accounts"`
	Positions map[string]Position `json:"positions"`
	Orders    map[string]Order    `json:"orders"`
	Trades    map[string]Trade    `json:"trades"`
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() Snapshot {
	return Snapshot{
		Accounts:  make(map[string]Account),
		Positions: make(map[string]Position),
		Orders:    make(map[string]Order),
		Trades:    make(map[string]Trade),
	}
}

// Apply merges one patch into the snapshot. Entities missing from the
// snapshot start from their zero value.
func (s *Snapshot) Apply(p Patch) {
	switch p.Kind {
	case PatchAccount:
		a := s.Accounts[p.Key]
		p.Account.Apply(&a)
		s.Accounts[p.Key] = a
	case PatchPosition:
		pos := s.Positions[p.Key]
		p.Position.Apply(&pos)
		s.Positions[p.Key] = pos
	case PatchOrder:
		o := s.Orders[p.Key]
		p.Order.Apply(&o)
		s.Orders[p.Key] = o
	case PatchTrade:
		t := s.Trades[p.Key]
		p.Trade.Apply(&t)
		s.Trades[p.Key] = t
	}
}

// ApplyAll merges patches in order.
func (s *Snapshot) ApplyAll(patches []Patch) {
	for _, p := range patches {
		s.Apply(p)
	}
}
