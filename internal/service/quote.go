package service

import (
	"context"
	"log/slog"
	"regexp"
	"slices"
	"sync"

	"github.com/efreitasn/simtrade/internal/domain"
	"github.com/efreitasn/simtrade/internal/engine"
	"github.com/efreitasn/simtrade/internal/metrics"
	"github.com/efreitasn/simtrade/internal/store"
)

var quoteSymbolRegex = regexp.MustCompile(`^[A-Za-z0-9_]+\.[A-Za-z0-9_@.]+$`)

// AccountResult is the result of a fanned-out call on one account.
type AccountResult struct {
	Account string        `json:"account"`
	Result  engine.Result `json:"result"`
}

// QuoteService keeps the market-wide latest quotes and fans quote updates
// out to every account.
type QuoteService struct {
	runner
	accounts *store.AccountStore

	// fanout orders quote updates against account admission: an account
	// is either primed with an update or receives it from Apply.
	fanout sync.Mutex

	mu     sync.RWMutex
	latest map[string]domain.QuoteUpdate // symbol → every field seen so far
}

// NewQuoteService creates a new QuoteService.
func NewQuoteService(accounts *store.AccountStore, pub Publisher, m *metrics.Metrics, logger *slog.Logger) *QuoteService {
	return &QuoteService{
		runner:   newRunner(pub, m, logger),
		accounts: accounts,
		latest:   make(map[string]domain.QuoteUpdate),
	}
}

// Apply validates a quote message, records it and applies it to every
// account in key order. It returns the non-empty results.
func (s *QuoteService) Apply(ctx context.Context, msg domain.QuoteMessage) ([]AccountResult, error) {
	if len(msg.Quotes) == 0 {
		return nil, &domain.ValidationError{Message: "quotes must be a non-empty object"}
	}
	for sym := range msg.Quotes {
		if !quoteSymbolRegex.MatchString(sym) {
			return nil, &domain.ValidationError{
				Message: "quote key " + sym + " must be EXCHANGE.INSTRUMENT",
			}
		}
	}

	s.fanout.Lock()
	defer s.fanout.Unlock()

	s.mu.Lock()
	for sym, u := range msg.Quotes {
		merged := s.latest[sym]
		merged.Merge(u)
		s.latest[sym] = merged
	}
	s.mu.Unlock()

	var out []AccountResult
	for _, key := range s.accounts.Keys() {
		e, err := s.accounts.Get(key)
		if err != nil {
			continue
		}
		res, _ := s.run(ctx, e, domain.AidRtnQuote, func(sim *engine.Simulator) (engine.Result, error) {
			return sim.UpdateQuotes(msg), nil
		})
		if !res.Empty() {
			out = append(out, AccountResult{Account: key, Result: res})
		}
	}
	return out, nil
}

// Get returns every quote field seen so far for symbol.
func (s *QuoteService) Get(symbol string) (domain.QuoteUpdate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.latest[symbol]
	return u, ok
}

// Symbols returns the symbols with a quote, sorted.
func (s *QuoteService) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.latest))
	for sym := range s.latest {
		out = append(out, sym)
	}
	slices.Sort(out)
	return out
}

// Admit primes sim with the latest quotes and runs insert, which registers
// the account owning sim, with no quote update in flight.
func (s *QuoteService) Admit(sim *engine.Simulator, insert func()) {
	s.fanout.Lock()
	defer s.fanout.Unlock()
	s.prime(sim)
	insert()
}

// prime feeds the latest quotes to a simulator that has none yet.
func (s *QuoteService) prime(sim *engine.Simulator) {
	s.mu.RLock()
	if len(s.latest) == 0 {
		s.mu.RUnlock()
		return
	}
	msg := domain.QuoteMessage{Quotes: make(map[string]domain.QuoteUpdate, len(s.latest))}
	for sym, u := range s.latest {
		msg.Quotes[sym] = u
	}
	s.mu.RUnlock()

	sim.UpdateQuotes(msg)
}
