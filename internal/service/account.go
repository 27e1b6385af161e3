package service

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/simtrade/internal/domain"
	"github.com/efreitasn/simtrade/internal/engine"
	"github.com/efreitasn/simtrade/internal/metrics"
	"github.com/efreitasn/simtrade/internal/store"
)

var accountKeyRegex = regexp.MustCompile(`^[a-zA-Z0-9_.@-]{1,64}$`)

// CreateAccountRequest represents the input for account creation. An empty
// Key gets a generated one; a nil InitBalance uses the configured default.
type CreateAccountRequest struct {
	Key         string
	InitBalance *float64
}

// AccountView is the full state of one account.
type AccountView struct {
	Key       string    `json:"account_key"`
	CreatedAt time.Time `json:"created_at"`
	domain.Snapshot
}

// AccountService handles account lifecycle and cash movements.
type AccountService struct {
	runner
	accounts    *store.AccountStore
	quotes      *QuoteService
	initBalance float64
}

// NewAccountService creates a new AccountService. New accounts start from
// initBalance and are primed with the latest quotes held by quotes.
func NewAccountService(
	accounts *store.AccountStore,
	quotes *QuoteService,
	initBalance float64,
	pub Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		runner:      newRunner(pub, m, logger),
		accounts:    accounts,
		quotes:      quotes,
		initBalance: initBalance,
	}
}

// Create validates the request and registers a new account.
func (s *AccountService) Create(req CreateAccountRequest) (*AccountView, error) {
	key := req.Key
	if key == "" {
		key = uuid.New().String()
	}
	if !accountKeyRegex.MatchString(key) {
		return nil, &domain.ValidationError{
			Message: "account_key must match ^[a-zA-Z0-9_.@-]{1,64}$",
		}
	}

	balance := s.initBalance
	if req.InitBalance != nil {
		balance = *req.InitBalance
	}
	if !(balance > 0) || math.IsInf(balance, 0) {
		return nil, &domain.ValidationError{
			Message: "init_balance must be a positive number",
		}
	}

	e := s.newEntry(key, balance)
	var err error
	s.admit(e.Sim, func() { err = s.accounts.Create(e) })
	if err != nil {
		return nil, err
	}
	s.metrics.Accounts.Set(float64(s.accounts.Len()))
	s.logger.Info("account created",
		slog.String("account", key),
		slog.Float64("init_balance", balance),
	)

	e.Mu.Lock()
	defer e.Mu.Unlock()
	return view(e), nil
}

// Ensure returns the account with key, creating it with the default
// balance when it does not exist.
func (s *AccountService) Ensure(key string) (*store.AccountEntry, error) {
	if !accountKeyRegex.MatchString(key) {
		return nil, &domain.ValidationError{
			Message: "account_key must match ^[a-zA-Z0-9_.@-]{1,64}$",
		}
	}
	if e, err := s.accounts.Get(key); err == nil {
		return e, nil
	}

	fresh := s.newEntry(key, s.initBalance)
	var (
		e       *store.AccountEntry
		created bool
	)
	s.admit(fresh.Sim, func() {
		e, created = s.accounts.GetOrCreate(key, func() *store.AccountEntry { return fresh })
	})
	if created {
		s.metrics.Accounts.Set(float64(s.accounts.Len()))
		s.logger.Info("account created", slog.String("account", key))
	}
	return e, nil
}

// Get returns the full state of an account.
func (s *AccountService) Get(key string) (*AccountView, error) {
	e, err := s.accounts.Get(key)
	if err != nil {
		return nil, err
	}
	e.Mu.Lock()
	defer e.Mu.Unlock()
	return view(e), nil
}

// List returns every account key in sorted order.
func (s *AccountService) List() []string {
	return s.accounts.Keys()
}

// Deposit adds funds to an account.
func (s *AccountService) Deposit(ctx context.Context, key string, amount float64) (engine.Result, error) {
	e, err := s.accounts.Get(key)
	if err != nil {
		return engine.Result{}, err
	}
	return s.run(ctx, e, domain.AidDeposit, func(sim *engine.Simulator) (engine.Result, error) {
		return sim.Deposit(amount)
	})
}

// Withdraw removes funds from an account.
func (s *AccountService) Withdraw(ctx context.Context, key string, amount float64) (engine.Result, error) {
	e, err := s.accounts.Get(key)
	if err != nil {
		return engine.Result{}, err
	}
	return s.run(ctx, e, domain.AidWithdraw, func(sim *engine.Simulator) (engine.Result, error) {
		return sim.Withdraw(amount)
	})
}

// Subscribe runs attach with the full state of an account as its first
// message while holding the account lock, so no result is published between
// that state and the subscription attach makes.
func (s *AccountService) Subscribe(key string, attach func(initial engine.Result) error) error {
	e, err := s.accounts.Get(key)
	if err != nil {
		return err
	}
	e.Mu.Lock()
	defer e.Mu.Unlock()
	return attach(e.Sim.InitSnapshot())
}

func (s *AccountService) newEntry(key string, balance float64) *store.AccountEntry {
	return &store.AccountEntry{
		Key:       key,
		Sim:       engine.New(key, balance),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// admit registers a new account through insert. With a quote service the
// simulator is primed in the same step, so it sees every quote update.
func (s *AccountService) admit(sim *engine.Simulator, insert func()) {
	if s.quotes == nil {
		insert()
		return
	}
	s.quotes.Admit(sim, insert)
}

// view copies the state of e. The caller holds e.Mu.
func view(e *store.AccountEntry) *AccountView {
	return &AccountView{
		Key:       e.Key,
		CreatedAt: e.CreatedAt,
		Snapshot:  e.Sim.Snapshot(),
	}
}
