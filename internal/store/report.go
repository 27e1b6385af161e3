package store

import (
	"sync"

	"github.com/efreitasn/simtrade/internal/domain"
)

// ReportStore is a thread-safe in-memory store for settlement statements,
// keyed by account. Reports are append-only and chronological.
type ReportStore struct {
	mu      sync.RWMutex
	reports map[string][]domain.TradeLog // account → statements (chronological)
}

// NewReportStore creates an empty ReportStore.
func NewReportStore() *ReportStore {
	return &ReportStore{
		reports: make(map[string][]domain.TradeLog),
	}
}

// Append adds a statement to the account's chronological list.
func (s *ReportStore) Append(account string, log domain.TradeLog) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports[account] = append(s.reports[account], log)
}

// GetByAccount returns all statements of an account in chronological order.
// Returns an empty slice if the account has none.
func (s *ReportStore) GetByAccount(account string) []domain.TradeLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := s.reports[account]
	result := make([]domain.TradeLog, len(reports))
	copy(result, reports)
	return result
}

// Latest returns the most recent statement of an account.
func (s *ReportStore) Latest(account string) (domain.TradeLog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := s.reports[account]
	if len(reports) == 0 {
		return domain.TradeLog{}, false
	}
	return reports[len(reports)-1], true
}
