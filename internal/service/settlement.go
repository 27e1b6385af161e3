package service

import (
	"context"
	"log/slog"

	"github.com/efreitasn/simtrade/internal/domain"
	"github.com/efreitasn/simtrade/internal/engine"
	"github.com/efreitasn/simtrade/internal/metrics"
	"github.com/efreitasn/simtrade/internal/store"
)

// SettlementListener is told about every stored statement.
type SettlementListener interface {
	Settled(account string, log domain.TradeLog)
}

// SettlementService ends trading days and keeps the resulting statements.
type SettlementService struct {
	runner
	accounts  *store.AccountStore
	reports   *store.ReportStore
	listeners []SettlementListener
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(
	accounts *store.AccountStore,
	reports *store.ReportStore,
	pub Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *SettlementService {
	return &SettlementService{
		runner:   newRunner(pub, m, logger),
		accounts: accounts,
		reports:  reports,
	}
}

// AddListener registers l for every later settlement.
func (s *SettlementService) AddListener(l SettlementListener) {
	s.listeners = append(s.listeners, l)
}

// Settle ends the trading day of one account and stores its statement.
func (s *SettlementService) Settle(ctx context.Context, key string) (engine.Result, domain.TradeLog, error) {
	e, err := s.accounts.Get(key)
	if err != nil {
		return engine.Result{}, domain.TradeLog{}, err
	}

	var log domain.TradeLog
	res, err := s.run(ctx, e, domain.AidSettle, func(sim *engine.Simulator) (engine.Result, error) {
		var res engine.Result
		res, log = sim.Settle()
		return res, nil
	})
	if err != nil {
		return engine.Result{}, domain.TradeLog{}, err
	}

	s.reports.Append(key, log)
	s.metrics.Settlements.Inc()
	for _, l := range s.listeners {
		l.Settled(key, log)
	}
	s.logger.Info("account settled",
		slog.String("account", key),
		slog.String("trading_day", log.TradingDay),
		slog.Int("trades", len(log.Trades)),
		slog.Float64("balance", log.Account.Balance),
	)
	return res, log, nil
}

// SettleAll settles every account in key order.
func (s *SettlementService) SettleAll(ctx context.Context) []AccountResult {
	keys := s.accounts.Keys()
	out := make([]AccountResult, 0, len(keys))
	for _, key := range keys {
		res, _, err := s.Settle(ctx, key)
		if err != nil {
			continue
		}
		out = append(out, AccountResult{Account: key, Result: res})
	}
	return out
}

// Reports returns the statements of an account in chronological order.
func (s *SettlementService) Reports(key string) ([]domain.TradeLog, error) {
	if !s.accounts.Exists(key) {
		return nil, domain.ErrAccountNotFound
	}
	return s.reports.GetByAccount(key), nil
}

// LatestReport returns the most recent statement of an account.
func (s *SettlementService) LatestReport(key string) (domain.TradeLog, error) {
	if !s.accounts.Exists(key) {
		return domain.TradeLog{}, domain.ErrAccountNotFound
	}
	log, ok := s.reports.Latest(key)
	if !ok {
		return domain.TradeLog{}, domain.ErrReportNotFound
	}
	return log, nil
}
