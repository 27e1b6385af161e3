package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/efreitasn/simtrade/internal/metrics"
	"github.com/efreitasn/simtrade/internal/service"
	"github.com/efreitasn/simtrade/internal/store"
	"github.com/efreitasn/simtrade/internal/stream"
)

const ma105Quotes = `{"aid":"rtn_quote","instrument_id":"CZCE.MA105","quotes":{"CZCE.MA105":{
	"datetime":"2020-11-30 10:00:00.000000","ask_price1":2470,"bid_price1":2469,"last_price":2469.5,
	"price_tick":1,"volume_multiple":10,"margin":1718.5,"commission":2,"ins_class":"FUTURE","exchange_id":"CZCE",
	"trading_time":{"day":[["09:00:00","10:15:00"],["10:30:00","11:30:00"],["13:30:00","15:00:00"]],"night":[["21:00:00","23:00:00"]]}}}}`

// testEnv bundles all dependencies for handler integration tests.
type testEnv struct {
	router http.Handler
	hub    *stream.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	accounts := store.NewAccountStore()
	hub := stream.NewHub(stream.Options{}, logger, m)
	webhookSvc := service.NewWebhookService(store.NewWebhookStore(), accounts, 5*time.Second, logger)
	pub := service.Publishers{hub, webhookSvc}

	quoteSvc := service.NewQuoteService(accounts, pub, m, logger)
	settlementSvc := service.NewSettlementService(accounts, store.NewReportStore(), pub, m, logger)
	settlementSvc.AddListener(webhookSvc)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	router := NewRouter(Services{
		Accounts:   service.NewAccountService(accounts, quoteSvc, 1_000_000, pub, m, logger),
		Orders:     service.NewOrderService(accounts, pub, m, logger),
		Quotes:     quoteSvc,
		Settlement: settlementSvc,
		Webhooks:   webhookSvc,
		Hub:        hub,
		Gatherer:   reg,
	}, logger)

	return &testEnv{router: router, hub: hub}
}

// doJSON sends a JSON request and returns the recorder.
func (env *testEnv) doJSON(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

// doRaw sends a raw request with optional content-type override.
func (env *testEnv) doRaw(t *testing.T, method, path, contentType, rawBody string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(rawBody))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

// decodeJSON decodes the response body into v.
func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rr.Body.String())
	}
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rr.Code, rr.Body.String())
	}
}

func expectErrorCode(t *testing.T, rr *httptest.ResponseRecorder, want string) {
	t.Helper()
	var resp errorResponse
	decodeJSON(t, rr, &resp)
	if resp.Error != want {
		t.Fatalf("expected error %q, got %q (%s)", want, resp.Error, resp.Message)
	}
}

// createAccount is a helper that creates an account via the API.
func (env *testEnv) createAccount(t *testing.T, key string) {
	t.Helper()
	rr := env.doJSON(t, "POST", "/accounts", map[string]any{"account_key": key})
	expectStatus(t, rr, http.StatusCreated)
}

func (env *testEnv) sendQuotes(t *testing.T) {
	t.Helper()
	rr := env.doRaw(t, "POST", "/quotes", "application/json", ma105Quotes)
	expectStatus(t, rr, http.StatusOK)
}

func marketOrder(id string, volume int) map[string]any {
	return map[string]any{
		"user_id":          "alice",
		"order_id":         id,
		"exchange_id":      "CZCE",
		"instrument_id":    "MA105",
		"direction":        "BUY",
		"offset":           "OPEN",
		"volume":           volume,
		"price_type":       "ANY",
		"time_condition":   "IOC",
		"volume_condition": "ANY",
	}
}

func limitOrder(id string, price float64) map[string]any {
	o := marketOrder(id, 1)
	o["price_type"] = "LIMIT"
	o["limit_price"] = price
	o["time_condition"] = "GFD"
	return o
}

// cnyAccount extracts the CNY account of an account view.
func cnyAccount(t *testing.T, view map[string]any) map[string]any {
	t.Helper()
	accounts, ok := view["accounts"].(map[string]any)
	if !ok {
		t.Fatalf("accounts missing from %v", view)
	}
	cny, ok := accounts["CNY"].(map[string]any)
	if !ok {
		t.Fatalf("CNY account missing from %v", accounts)
	}
	return cny
}

// --- Healthz / metrics ---

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rr := env.doJSON(t, "GET", "/healthz", nil)
	expectStatus(t, rr, http.StatusOK)
	var resp map[string]string
	decodeJSON(t, rr, &resp)
	if resp["status"] != "ok" {
		t.Fatalf("expected status ok, got %s", resp["status"])
	}
}

func TestMetrics_Exposed(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "alice")

	rr := env.doJSON(t, "GET", "/metrics", nil)
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), "simtrade_") {
		t.Fatalf("expected simtrade metrics, got:\n%s", rr.Body.String())
	}
}

// --- Account endpoints ---

func TestAccount_Create_Success(t *testing.T) {
	env := newTestEnv(t)
	rr := env.doJSON(t, "POST", "/accounts", map[string]any{"account_key": "alice", "init_balance": 5000})
	expectStatus(t, rr, http.StatusCreated)

	var resp map[string]any
	decodeJSON(t, rr, &resp)
	if resp["account_key"] != "alice" {
		t.Fatalf("expected account_key=alice, got %v", resp["account_key"])
	}
	if got := cnyAccount(t, resp)["balance"]; got != 5000.0 {
		t.Fatalf("expected balance 5000, got %v", got)
	}
	createdAt, ok := resp["created_at"].(string)
	if !ok {
		t.Fatal("created_at should be a string")
	}
	if _, err := time.Parse(time.RFC3339, createdAt); err != nil {
		t.Fatalf("created_at not RFC 3339: %v", err)
	}
}

func TestAccount_Create_WithoutBody(t *testing.T) {
	env := newTestEnv(t)
	rr := env.doJSON(t, "POST", "/accounts", nil)
	expectStatus(t, rr, http.StatusCreated)

	var resp map[string]any
	decodeJSON(t, rr, &resp)
	if key, _ := resp["account_key"].(string); key == "" {
		t.Fatal("expected a generated account_key")
	}
	if got := cnyAccount(t, resp)["balance"]; got != 1_000_000.0 {
		t.Fatalf("expected default balance, got %v", got)
	}
}

func TestAccount_Create_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "alice")

	rr := env.doJSON(t, "POST", "/accounts", map[string]any{"account_key": "alice"})
	expectStatus(t, rr, http.StatusConflict)
	expectErrorCode(t, rr, "account_already_exists")
}

func TestAccount_Create_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"bad key", map[string]any{"account_key": "has space"}},
		{"zero balance", map[string]any{"account_key": "alice", "init_balance": 0}},
		{"negative balance", map[string]any{"account_key": "alice", "init_balance": -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rr := env.doJSON(t, "POST", "/accounts", tt.body)
			expectStatus(t, rr, http.StatusBadRequest)
			expectErrorCode(t, rr, "validation_error")
		})
	}
}

func TestAccount_List(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "bob")
	env.createAccount(t, "alice")

	rr := env.doJSON(t, "GET", "/accounts", nil)
	expectStatus(t, rr, http.StatusOK)
	var resp accountListResponse
	decodeJSON(t, rr, &resp)
	if len(resp.Accounts) != 2 || resp.Accounts[0] != "alice" || resp.Accounts[1] != "bob" {
		t.Fatalf("expected [alice bob], got %v", resp.Accounts)
	}
}

func TestAccount_Get_NotFound(t *testing.T) {
	env := newTestEnv(t)
	rr := env.doJSON(t, "GET", "/accounts/ghost", nil)
	expectStatus(t, rr, http.StatusNotFound)
	expectErrorCode(t, rr, "account_not_found")
}

func TestAccount_DepositWithdraw(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "alice")

	rr := env.doJSON(t, "POST", "/accounts/alice/deposit", map[string]any{"amount": 500})
	expectStatus(t, rr, http.StatusOK)
	var res map[string]any
	decodeJSON(t, rr, &res)
	if diffs, _ := res["diffs"].([]any); len(diffs) == 0 {
		t.Fatalf("expected diffs, got %v", res)
	}

	rr = env.doJSON(t, "POST", "/accounts/alice/withdraw", map[string]any{"amount": 200})
	expectStatus(t, rr, http.StatusOK)

	rr = env.doJSON(t, "GET", "/accounts/alice", nil)
	expectStatus(t, rr, http.StatusOK)
	var view map[string]any
	decodeJSON(t, rr, &view)
	cny := cnyAccount(t, view)
	if cny["deposit"] != 500.0 || cny["withdraw"] != 200.0 || cny["balance"] != 1_000_300.0 {
		t.Fatalf("unexpected account after cash moves: %v", cny)
	}
}

func TestAccount_Withdraw_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "alice")

	rr := env.doJSON(t, "POST", "/accounts/alice/withdraw", map[string]any{"amount": 2_000_000})
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	expectErrorCode(t, rr, "insufficient_funds")

	rr = env.doJSON(t, "POST", "/accounts/alice/withdraw", map[string]any{"amount": -5})
	expectStatus(t, rr, http.StatusBadRequest)
	expectErrorCode(t, rr, "validation_error")

	rr = env.doJSON(t, "POST", "/accounts/ghost/deposit", map[string]any{"amount": 5})
	expectStatus(t, rr, http.StatusNotFound)
}

// --- Quote endpoints ---

func TestQuote_ApplyAndGet(t *testing.T) {
	env := newTestEnv(t)
	env.sendQuotes(t)

	rr := env.doJSON(t, "GET", "/quotes/CZCE.MA105", nil)
	expectStatus(t, rr, http.StatusOK)
	var q map[string]any
	decodeJSON(t, rr, &q)
	if q["ask_price1"] != 2470.0 || q["margin"] != 1718.5 {
		t.Fatalf("unexpected quote: %v", q)
	}

	rr = env.doJSON(t, "GET", "/quotes", nil)
	expectStatus(t, rr, http.StatusOK)
	var list symbolListResponse
	decodeJSON(t, rr, &list)
	if len(list.Symbols) != 1 || list.Symbols[0] != "CZCE.MA105" {
		t.Fatalf("expected [CZCE.MA105], got %v", list.Symbols)
	}
}

func TestQuote_Get_NotFound(t *testing.T) {
	env := newTestEnv(t)
	rr := env.doJSON(t, "GET", "/quotes/SHFE.cu2105", nil)
	expectStatus(t, rr, http.StatusNotFound)
	expectErrorCode(t, rr, "quote_not_found")
}

func TestQuote_Apply_WrongAid(t *testing.T) {
	env := newTestEnv(t)
	rr := env.doRaw(t, "POST", "/quotes", "application/json", `{"aid":"settle","quotes":{}}`)
	expectStatus(t, rr, http.StatusBadRequest)
}

// --- Order endpoints ---

func TestOrder_MarketOpenScenario(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "alice")
	env.sendQuotes(t)

	rr := env.doJSON(t, "POST", "/accounts/alice/orders", marketOrder("o1", 3))
	expectStatus(t, rr, http.StatusCreated)
	var resp map[string]any
	decodeJSON(t, rr, &resp)
	order := resp["order"].(map[string]any)
	if order["status"] != "FINISHED" || order["last_msg"] != "fully filled" {
		t.Fatalf("expected filled order, got %v", order)
	}
	events := resp["result"].(map[string]any)["order_events"].([]any)
	if len(events) != 2 {
		t.Fatalf("expected ALIVE and FINISHED events, got %d", len(events))
	}

	rr = env.doJSON(t, "GET", "/accounts/alice", nil)
	expectStatus(t, rr, http.StatusOK)
	var view map[string]any
	decodeJSON(t, rr, &view)
	cny := cnyAccount(t, view)
	if cny["balance"] != 999994.0 || cny["margin"] != 5155.5 || cny["commission"] != 6.0 || cny["available"] != 994838.5 {
		t.Fatalf("unexpected account after open: %v", cny)
	}

	rr = env.doJSON(t, "GET", "/accounts/alice/trades", nil)
	expectStatus(t, rr, http.StatusOK)
	var trades struct {
		Trades []map[string]any `json:"trades"`
	}
	decodeJSON(t, rr, &trades)
	if len(trades.Trades) != 1 || trades.Trades[0]["price"] != 2470.0 || trades.Trades[0]["volume"] != 3.0 {
		t.Fatalf("unexpected trades: %v", trades.Trades)
	}
}

func TestOrder_Insert_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "alice")
	env.sendQuotes(t)

	expectStatus(t, env.doJSON(t, "POST", "/accounts/alice/orders", marketOrder("o1", 1)), http.StatusCreated)
	rr := env.doJSON(t, "POST", "/accounts/alice/orders", marketOrder("o1", 1))
	expectStatus(t, rr, http.StatusConflict)
	expectErrorCode(t, rr, "duplicate_order_id")
}

func TestOrder_Insert_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
	}{
		{"bad direction", "direction", "UP"},
		{"bad offset", "offset", "FLIP"},
		{"bad price type", "price_type", "BEST"},
		{"bad time condition", "time_condition", "GTC"},
		{"missing order id", "order_id", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.createAccount(t, "alice")
			body := marketOrder("o1", 1)
			body[tt.field] = tt.value
			rr := env.doJSON(t, "POST", "/accounts/alice/orders", body)
			expectStatus(t, rr, http.StatusBadRequest)
			expectErrorCode(t, rr, "validation_error")
		})
	}
}

func TestOrder_Insert_RejectedIsNotAnError(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "alice")
	env.sendQuotes(t)

	rr := env.doJSON(t, "POST", "/accounts/alice/orders", marketOrder("o1", 0))
	expectStatus(t, rr, http.StatusCreated)
	var resp map[string]any
	decodeJSON(t, rr, &resp)
	if got := resp["order"].(map[string]any)["status"]; got != "FINISHED" {
		t.Fatalf("expected FINISHED, got %v", got)
	}
}

func TestOrder_GetListCancel(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "alice")
	env.sendQuotes(t)

	// A buy limit below the ask rests.
	expectStatus(t, env.doJSON(t, "POST", "/accounts/alice/orders", limitOrder("o1", 2400)), http.StatusCreated)

	rr := env.doJSON(t, "GET", "/accounts/alice/orders/o1", nil)
	expectStatus(t, rr, http.StatusOK)
	var order map[string]any
	decodeJSON(t, rr, &order)
	if order["status"] != "ALIVE" {
		t.Fatalf("expected ALIVE, got %v", order["status"])
	}

	rr = env.doJSON(t, "GET", "/accounts/alice/orders", nil)
	expectStatus(t, rr, http.StatusOK)
	var list struct {
		Orders []map[string]any `json:"orders"`
	}
	decodeJSON(t, rr, &list)
	if len(list.Orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(list.Orders))
	}

	rr = env.doJSON(t, "DELETE", "/accounts/alice/orders/o1", nil)
	expectStatus(t, rr, http.StatusOK)
	var resp map[string]any
	decodeJSON(t, rr, &resp)
	if got := resp["order"].(map[string]any)["status"]; got != "FINISHED" {
		t.Fatalf("expected FINISHED after cancel, got %v", got)
	}

	// Cancelling again is a no-op.
	rr = env.doJSON(t, "DELETE", "/accounts/alice/orders/o1", nil)
	expectStatus(t, rr, http.StatusOK)
	decodeJSON(t, rr, &resp)
	if events := resp["result"].(map[string]any)["order_events"].([]any); len(events) != 0 {
		t.Fatalf("expected no events, got %v", events)
	}
}

func TestOrder_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "alice")

	rr := env.doJSON(t, "GET", "/accounts/alice/orders/nope", nil)
	expectStatus(t, rr, http.StatusNotFound)
	expectErrorCode(t, rr, "order_not_found")

	rr = env.doJSON(t, "DELETE", "/accounts/alice/orders/nope", nil)
	expectStatus(t, rr, http.StatusNotFound)
}

// --- Settlement endpoints ---

func TestSettlement_SettleAndReports(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "alice")

	rr := env.doJSON(t, "GET", "/accounts/alice/reports/latest", nil)
	expectStatus(t, rr, http.StatusNotFound)
	expectErrorCode(t, rr, "report_not_found")

	env.sendQuotes(t)
	expectStatus(t, env.doJSON(t, "POST", "/accounts/alice/orders", marketOrder("o1", 3)), http.StatusCreated)

	rr = env.doJSON(t, "POST", "/accounts/alice/settle", nil)
	expectStatus(t, rr, http.StatusOK)
	var resp struct {
		TradeLog struct {
			TradingDay string           `json:"trading_day"`
			Trades     []map[string]any `json:"trades"`
		} `json:"trade_log"`
	}
	decodeJSON(t, rr, &resp)
	if resp.TradeLog.TradingDay != "20201130" || len(resp.TradeLog.Trades) != 1 {
		t.Fatalf("unexpected trade log: %+v", resp.TradeLog)
	}

	rr = env.doJSON(t, "GET", "/accounts/alice/reports", nil)
	expectStatus(t, rr, http.StatusOK)
	var reports struct {
		Reports []map[string]any `json:"reports"`
	}
	decodeJSON(t, rr, &reports)
	if len(reports.Reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports.Reports))
	}

	rr = env.doJSON(t, "GET", "/accounts/alice/reports/latest", nil)
	expectStatus(t, rr, http.StatusOK)
}

func TestSettlement_UnknownAccount(t *testing.T) {
	env := newTestEnv(t)
	expectStatus(t, env.doJSON(t, "POST", "/accounts/ghost/settle", nil), http.StatusNotFound)
	expectStatus(t, env.doJSON(t, "GET", "/accounts/ghost/reports", nil), http.StatusNotFound)
}

// --- Webhook endpoints ---

func TestWebhook_UpsertListDelete(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "alice")

	body := map[string]any{
		"account_key": "alice",
		"url":         "https://example.com/hook",
		"events":      []string{"trade.executed", "account.settled"},
	}
	rr := env.doJSON(t, "POST", "/webhooks", body)
	expectStatus(t, rr, http.StatusCreated)
	var created webhookListResponse
	decodeJSON(t, rr, &created)
	if len(created.Webhooks) != 2 {
		t.Fatalf("expected 2 webhooks, got %d", len(created.Webhooks))
	}

	// Same subscription again updates in place.
	expectStatus(t, env.doJSON(t, "POST", "/webhooks", body), http.StatusOK)

	rr = env.doJSON(t, "GET", "/webhooks?account_key=alice", nil)
	expectStatus(t, rr, http.StatusOK)
	var list webhookListResponse
	decodeJSON(t, rr, &list)
	if len(list.Webhooks) != 2 {
		t.Fatalf("expected 2 webhooks, got %d", len(list.Webhooks))
	}

	rr = env.doJSON(t, "DELETE", "/webhooks/"+list.Webhooks[0].WebhookID, nil)
	expectStatus(t, rr, http.StatusNoContent)

	rr = env.doJSON(t, "DELETE", "/webhooks/"+list.Webhooks[0].WebhookID, nil)
	expectStatus(t, rr, http.StatusNotFound)
	expectErrorCode(t, rr, "webhook_not_found")
}

func TestWebhook_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "alice")

	rr := env.doJSON(t, "GET", "/webhooks", nil)
	expectStatus(t, rr, http.StatusBadRequest)

	rr = env.doJSON(t, "POST", "/webhooks", map[string]any{
		"account_key": "alice", "url": "http://example.com", "events": []string{"trade.executed"},
	})
	expectStatus(t, rr, http.StatusBadRequest)
	expectErrorCode(t, rr, "validation_error")

	rr = env.doJSON(t, "POST", "/webhooks", map[string]any{
		"account_key": "ghost", "url": "https://example.com", "events": []string{"trade.executed"},
	})
	expectStatus(t, rr, http.StatusNotFound)
}

// --- Stream endpoint ---

func TestStream_InitialStateThenResults(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "alice")

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/accounts/alice/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var initial struct {
		Diffs []map[string]any `json:"diffs"`
	}
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if len(initial.Diffs) == 0 {
		t.Fatal("expected the initial account state")
	}

	expectStatus(t, env.doJSON(t, "POST", "/accounts/alice/deposit", map[string]any{"amount": 10}), http.StatusOK)

	var next struct {
		Diffs []map[string]map[string]map[string]any `json:"diffs"`
	}
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("read result: %v", err)
	}
	if len(next.Diffs) == 0 {
		t.Fatal("expected the deposit diffs")
	}
	if _, ok := next.Diffs[0]["trade"]["alice"]; !ok {
		t.Fatalf("expected a diff for alice, got %v", next.Diffs[0])
	}
}

func TestStream_UnknownAccount(t *testing.T) {
	env := newTestEnv(t)
	rr := env.doJSON(t, "GET", "/accounts/ghost/stream", nil)
	expectStatus(t, rr, http.StatusNotFound)
}

// --- Content type ---

func TestContentType_MissingOnPost(t *testing.T) {
	env := newTestEnv(t)
	rr := env.doRaw(t, "POST", "/accounts", "", `{"account_key":"alice"}`)
	expectStatus(t, rr, http.StatusBadRequest)
	expectErrorCode(t, rr, "invalid_request")
}

func TestContentType_WrongOnPost(t *testing.T) {
	env := newTestEnv(t)
	rr := env.doRaw(t, "POST", "/quotes", "text/plain", ma105Quotes)
	expectStatus(t, rr, http.StatusBadRequest)
}
