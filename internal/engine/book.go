package engine

import (
	"cmp"
	"slices"

	"github.com/google/btree"
)

// restingEntry is one ALIVE order waiting for a crossable quote.
type restingEntry struct {
	Symbol  string
	Seq     uint64
	OrderID string
}

// restingLess orders entries by symbol, then by insertion sequence, so a walk
// over one symbol visits its orders in arrival order.
func restingLess(a, b restingEntry) bool {
	if a.Symbol != b.Symbol {
		return a.Symbol < b.Symbol
	}
	return a.Seq < b.Seq
}

// RestingBook indexes resting orders with a B-tree and a secondary index for
// removal by order ID. It is owned by one Simulator and is not safe for
// concurrent use.
type RestingBook struct {
	tree  *btree.BTreeG[restingEntry]
	index map[string]restingEntry // order_id → entry
}

// NewRestingBook creates an empty RestingBook.
func NewRestingBook() *RestingBook {
	const degree = 16
	return &RestingBook{
		tree:  btree.NewG[restingEntry](degree, restingLess),
		index: make(map[string]restingEntry),
	}
}

// Insert adds an order to the book.
func (rb *RestingBook) Insert(symbol string, seq uint64, orderID string) {
	e := restingEntry{Symbol: symbol, Seq: seq, OrderID: orderID}
	rb.tree.ReplaceOrInsert(e)
	rb.index[orderID] = e
}

// Remove deletes an order by ID. Unknown IDs are ignored.
func (rb *RestingBook) Remove(orderID string) {
	e, ok := rb.index[orderID]
	if !ok {
		return
	}
	delete(rb.index, orderID)
	rb.tree.Delete(e)
}

// Contains reports whether orderID rests on the book.
func (rb *RestingBook) Contains(orderID string) bool {
	_, ok := rb.index[orderID]
	return ok
}

// OrderIDs returns the IDs resting on symbol in insertion order. The result
// is a copy, so callers may remove entries while iterating it.
func (rb *RestingBook) OrderIDs(symbol string) []string {
	var ids []string
	rb.tree.AscendGreaterOrEqual(restingEntry{Symbol: symbol}, func(e restingEntry) bool {
		if e.Symbol != symbol {
			return false
		}
		ids = append(ids, e.OrderID)
		return true
	})
	return ids
}

// All returns every resting entry ordered by insertion sequence.
func (rb *RestingBook) All() []restingEntry {
	entries := make([]restingEntry, 0, rb.tree.Len())
	rb.tree.Ascend(func(e restingEntry) bool {
		entries = append(entries, e)
		return true
	})
	slices.SortFunc(entries, func(a, b restingEntry) int { return cmp.Compare(a.Seq, b.Seq) })
	return entries
}

// Len returns the number of resting orders.
func (rb *RestingBook) Len() int {
	return rb.tree.Len()
}
