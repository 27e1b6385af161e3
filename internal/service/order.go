package service

import (
	"context"
	"log/slog"

	"github.com/efreitasn/simtrade/internal/domain"
	"github.com/efreitasn/simtrade/internal/engine"
	"github.com/efreitasn/simtrade/internal/metrics"
	"github.com/efreitasn/simtrade/internal/store"
)

// OrderService handles order insertion, cancellation and queries.
type OrderService struct {
	runner
	accounts *store.AccountStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(accounts *store.AccountStore, pub Publisher, m *metrics.Metrics, logger *slog.Logger) *OrderService {
	return &OrderService{
		runner:   newRunner(pub, m, logger),
		accounts: accounts,
	}
}

// Insert validates the command and runs it against the account. Rejected
// orders are not errors; they come back as FINISHED order events.
func (s *OrderService) Insert(ctx context.Context, key string, cmd domain.InsertOrder) (engine.Result, error) {
	if err := cmd.Validate(); err != nil {
		return engine.Result{}, err
	}
	e, err := s.accounts.Get(key)
	if err != nil {
		return engine.Result{}, err
	}
	res, err := s.run(ctx, e, domain.AidInsertOrder, func(sim *engine.Simulator) (engine.Result, error) {
		return sim.InsertOrder(cmd)
	})
	if err != nil {
		return engine.Result{}, err
	}
	for _, o := range res.OrderEvents {
		s.logger.Debug("order event",
			slog.String("account", key),
			slog.String("order_id", o.OrderID),
			slog.String("status", string(o.Status)),
			slog.String("msg", o.LastMsg),
		)
	}
	return res, nil
}

// Cancel cancels an order. Unknown and finished orders yield an empty
// result.
func (s *OrderService) Cancel(ctx context.Context, key, orderID string) (engine.Result, error) {
	if orderID == "" {
		return engine.Result{}, &domain.ValidationError{Message: "order_id is required"}
	}
	e, err := s.accounts.Get(key)
	if err != nil {
		return engine.Result{}, err
	}
	return s.run(ctx, e, domain.AidCancelOrder, func(sim *engine.Simulator) (engine.Result, error) {
		return sim.CancelOrder(domain.CancelOrder{OrderID: orderID}), nil
	})
}

// Get returns one order of an account.
func (s *OrderService) Get(key, orderID string) (domain.Order, error) {
	orders, err := s.List(key)
	if err != nil {
		return domain.Order{}, err
	}
	for _, o := range orders {
		if o.OrderID == orderID {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

// List returns the orders of an account in insertion order.
func (s *OrderService) List(key string) ([]domain.Order, error) {
	e, err := s.accounts.Get(key)
	if err != nil {
		return nil, err
	}
	e.Mu.Lock()
	defer e.Mu.Unlock()
	return e.Sim.Orders(), nil
}

// Trades returns the trades of an account in execution order.
func (s *OrderService) Trades(key string) ([]domain.Trade, error) {
	e, err := s.accounts.Get(key)
	if err != nil {
		return nil, err
	}
	e.Mu.Lock()
	defer e.Mu.Unlock()
	return e.Sim.Trades(), nil
}
