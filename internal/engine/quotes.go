package engine

import "github.com/efreitasn/simtrade/internal/domain"

// QuoteCache holds the latest merged quote per instrument and the latest
// quote datetime seen, which serves as the simulator's clock.
type QuoteCache struct {
	quotes map[string]*domain.Quote
	latest string
}

// NewQuoteCache creates an empty QuoteCache.
func NewQuoteCache() *QuoteCache {
	return &QuoteCache{quotes: make(map[string]*domain.Quote)}
}

// Apply merges a partial quote for symbol, creating the entry on first sight.
func (c *QuoteCache) Apply(symbol string, u domain.QuoteUpdate) *domain.Quote {
	q, ok := c.quotes[symbol]
	if !ok {
		q = domain.NewQuote(symbol)
		c.quotes[symbol] = q
	}
	q.Apply(u)
	// Datetimes share one fixed-width layout, so string order is time order.
	if u.Datetime != nil && *u.Datetime > c.latest {
		c.latest = *u.Datetime
	}
	return q
}

// Get returns the cached quote for symbol.
func (c *QuoteCache) Get(symbol string) (*domain.Quote, bool) {
	q, ok := c.quotes[symbol]
	return q, ok
}

// Lookup returns the cached quote for symbol, or an empty quote (every price
// unavailable, no instrument class) that is not stored.
func (c *QuoteCache) Lookup(symbol string) *domain.Quote {
	if q, ok := c.quotes[symbol]; ok {
		return q
	}
	return domain.NewQuote(symbol)
}

// Datetime returns the latest quote datetime seen, or "" before any.
func (c *QuoteCache) Datetime() string {
	return c.latest
}

// datetimeFor picks the datetime a trading-time check for q runs against:
// the instrument's own quote time, falling back to the latest seen.
func (c *QuoteCache) datetimeFor(q *domain.Quote) string {
	if q.Datetime != "" {
		return q.Datetime
	}
	return c.latest
}
