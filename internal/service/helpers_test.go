package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/efreitasn/simtrade/internal/domain"
	"github.com/efreitasn/simtrade/internal/engine"
	"github.com/efreitasn/simtrade/internal/metrics"
	"github.com/efreitasn/simtrade/internal/store"
)

const (
	ma105       = "CZCE.MA105"
	testBalance = 1_000_000.0
)

// published is one result seen by recordingPublisher.
type published struct {
	account string
	res     engine.Result
}

type recordingPublisher struct {
	mu   sync.Mutex
	got  []published
	fail bool
}

func (p *recordingPublisher) Publish(_ context.Context, account string, res engine.Result) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, published{account: account, res: res})
	if p.fail {
		return errors.New("publisher down")
	}
	return nil
}

func (p *recordingPublisher) results() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]published, len(p.got))
	copy(out, p.got)
	return out
}

// testServices wires every service over fresh stores.
type testServices struct {
	accounts   *AccountService
	orders     *OrderService
	quotes     *QuoteService
	settlement *SettlementService
	reports    *store.ReportStore
	store      *store.AccountStore
	pub        *recordingPublisher
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.Nop()
	pub := &recordingPublisher{}
	accounts := store.NewAccountStore()
	reports := store.NewReportStore()
	quotes := NewQuoteService(accounts, pub, m, logger)
	return &testServices{
		accounts:   NewAccountService(accounts, quotes, testBalance, pub, m, logger),
		orders:     NewOrderService(accounts, pub, m, logger),
		quotes:     quotes,
		settlement: NewSettlementService(accounts, reports, pub, m, logger),
		reports:    reports,
		store:      accounts,
		pub:        pub,
	}
}

func (ts *testServices) dispatcher(autoCreate bool) *Dispatcher {
	return &Dispatcher{
		Accounts:   ts.accounts,
		Orders:     ts.orders,
		Quotes:     ts.quotes,
		Settlement: ts.settlement,
		AutoCreate: autoCreate,
	}
}

func mustCreate(t *testing.T, ts *testServices, key string) {
	t.Helper()
	_, err := ts.accounts.Create(CreateAccountRequest{Key: key})
	require.NoError(t, err)
}

// ma105Quotes is a tradable MA105 quote at 10:00 on a Monday.
func ma105Quotes(t *testing.T, ask, bid float64) domain.QuoteMessage {
	t.Helper()
	data := fmt.Sprintf(`{"instrument_id":%q,"quotes":{%q:{
		"datetime":"2020-11-30 10:00:00.000000",
		"ask_price1":%v,"bid_price1":%v,"last_price":%v,
		"price_tick":1,"volume_multiple":10,"margin":1718.5,"commission":2,
		"ins_class":"FUTURE","exchange_id":"CZCE",
		"trading_time":{"day":[["09:00:00","10:15:00"],["10:30:00","11:30:00"],["13:30:00","15:00:00"]],"night":[["21:00:00","23:00:00"]]}
	}}}`, ma105, ma105, ask, bid, (ask+bid)/2)
	var msg domain.QuoteMessage
	require.NoError(t, json.Unmarshal([]byte(data), &msg))
	return msg
}

func marketBuy(id string, vol int64) domain.InsertOrder {
	return domain.InsertOrder{
		UserID:          "tester",
		OrderID:         id,
		ExchangeID:      domain.ExchangeCZCE,
		InstrumentID:    "MA105",
		Direction:       domain.DirectionBuy,
		Offset:          domain.OffsetOpen,
		Volume:          vol,
		PriceType:       domain.PriceTypeAny,
		TimeCondition:   domain.TimeConditionIOC,
		VolumeCondition: domain.VolumeConditionAny,
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
