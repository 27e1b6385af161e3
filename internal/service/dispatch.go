package service

import (
	"context"
	"fmt"

	"github.com/efreitasn/simtrade/internal/domain"
	"github.com/efreitasn/simtrade/internal/engine"
)

// Reply is the outcome of one dispatched command. Quote updates carry one
// result per affected account; other commands carry at most one.
type Reply struct {
	Account  string           `json:"account,omitempty"`
	Aid      string           `json:"aid"`
	Results  []AccountResult  `json:"results"`
	TradeLog *domain.TradeLog `json:"trade_log,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Dispatcher routes decoded commands to the services. Message transports
// (the Redis bridge and replay) share it.
type Dispatcher struct {
	Accounts   *AccountService
	Orders     *OrderService
	Quotes     *QuoteService
	Settlement *SettlementService
	// AutoCreate creates unknown accounts with the default balance instead
	// of failing with domain.ErrAccountNotFound.
	AutoCreate bool
}

// Dispatch runs one command. Caller errors are returned and also recorded
// in the reply.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd domain.Command) (Reply, error) {
	reply, err := d.dispatch(ctx, cmd)
	reply.Account, reply.Aid = cmd.Account, cmd.Aid
	if reply.Results == nil {
		reply.Results = []AccountResult{}
	}
	if err != nil {
		reply.Error = err.Error()
	}
	return reply, err
}

func (d *Dispatcher) dispatch(ctx context.Context, cmd domain.Command) (Reply, error) {
	if cmd.Aid == domain.AidRtnQuote {
		results, err := d.Quotes.Apply(ctx, *cmd.Quotes)
		return Reply{Results: results}, err
	}

	if d.AutoCreate {
		if _, err := d.Accounts.Ensure(cmd.Account); err != nil {
			return Reply{}, err
		}
	}

	var (
		res engine.Result
		err error
	)
	switch cmd.Aid {
	case domain.AidInsertOrder:
		res, err = d.Orders.Insert(ctx, cmd.Account, *cmd.Insert)
	case domain.AidCancelOrder:
		res, err = d.Orders.Cancel(ctx, cmd.Account, cmd.Cancel.OrderID)
	case domain.AidDeposit:
		res, err = d.Accounts.Deposit(ctx, cmd.Account, cmd.Amount)
	case domain.AidWithdraw:
		res, err = d.Accounts.Withdraw(ctx, cmd.Account, cmd.Amount)
	case domain.AidSettle:
		var log domain.TradeLog
		res, log, err = d.Settlement.Settle(ctx, cmd.Account)
		if err == nil {
			return Reply{Results: single(cmd.Account, res), TradeLog: &log}, nil
		}
	default:
		err = fmt.Errorf("aid %q: %w", cmd.Aid, domain.ErrUnknownCommand)
	}
	if err != nil {
		return Reply{}, err
	}
	return Reply{Results: single(cmd.Account, res)}, nil
}

func single(account string, res engine.Result) []AccountResult {
	if res.Empty() {
		return nil
	}
	return []AccountResult{{Account: account, Result: res}}
}
