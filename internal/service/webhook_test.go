package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/efreitasn/simtrade/internal/domain"
	"github.com/efreitasn/simtrade/internal/store"
)

func newTestWebhookService(t *testing.T) (*WebhookService, *testServices) {
	t.Helper()
	ts := newTestServices(t)
	mustCreate(t, ts, "alice")
	return NewWebhookService(store.NewWebhookStore(), ts.store, 5*time.Second, nil), ts
}

// hookServer records every delivery it receives.
type hookServer struct {
	*httptest.Server
	mu       sync.Mutex
	payloads []map[string]any
	headers  []http.Header
}

func newHookServer(t *testing.T) *hookServer {
	t.Helper()
	hs := &hookServer{}
	hs.Server = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		_ = json.Unmarshal(body, &payload)
		hs.mu.Lock()
		hs.payloads = append(hs.payloads, payload)
		hs.headers = append(hs.headers, r.Header.Clone())
		hs.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(hs.Close)
	return hs
}

func (hs *hookServer) events() []string {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	out := make([]string, 0, len(hs.payloads))
	for _, p := range hs.payloads {
		out = append(out, p["event"].(string))
	}
	return out
}

func TestWebhookUpsert_Success(t *testing.T) {
	svc, _ := newTestWebhookService(t)

	webhooks, created, err := svc.Upsert(UpsertWebhookRequest{
		Account: "alice",
		URL:     "https://example.com/hooks",
		Events:  []string{domain.EventTradeExecuted, domain.EventAccountSettled, domain.EventTradeExecuted},
	})
	require.NoError(t, err)

	assert.True(t, created)
	require.Len(t, webhooks, 2, "duplicate events collapse")
	assert.Equal(t, domain.EventTradeExecuted, webhooks[0].Event)
	assert.Equal(t, domain.EventAccountSettled, webhooks[1].Event)

	list, err := svc.List("alice")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestWebhookUpsert_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  UpsertWebhookRequest
	}{
		{"empty url", UpsertWebhookRequest{Account: "alice", Events: []string{domain.EventTradeExecuted}}},
		{"http scheme", UpsertWebhookRequest{Account: "alice", URL: "http://example.com", Events: []string{domain.EventTradeExecuted}}},
		{"relative url", UpsertWebhookRequest{Account: "alice", URL: "/hooks", Events: []string{domain.EventTradeExecuted}}},
		{"url too long", UpsertWebhookRequest{Account: "alice", URL: "https://example.com/" + strings.Repeat("a", 2048), Events: []string{domain.EventTradeExecuted}}},
		{"no events", UpsertWebhookRequest{Account: "alice", URL: "https://example.com"}},
		{"unknown event", UpsertWebhookRequest{Account: "alice", URL: "https://example.com", Events: []string{"order.expired"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestWebhookService(t)
			_, _, err := svc.Upsert(tt.req)
			var ve *domain.ValidationError
			assert.True(t, errors.As(err, &ve), "got %v", err)
		})
	}
}

func TestWebhookUpsert_AccountNotFound(t *testing.T) {
	svc, _ := newTestWebhookService(t)
	_, _, err := svc.Upsert(UpsertWebhookRequest{Account: "nobody", URL: "https://example.com", Events: []string{domain.EventTradeExecuted}})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = svc.List("nobody")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestWebhookDelete(t *testing.T) {
	svc, _ := newTestWebhookService(t)
	webhooks, _, err := svc.Upsert(UpsertWebhookRequest{Account: "alice", URL: "https://example.com", Events: []string{domain.EventOrderFinished}})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(webhooks[0].WebhookID))
	assert.ErrorIs(t, svc.Delete(webhooks[0].WebhookID), domain.ErrWebhookNotFound)
}

func TestWebhookPublish_DeliversTradeAndOrderEvents(t *testing.T) {
	hs := newHookServer(t)
	svc, ts := newTestWebhookService(t)
	svc.client = hs.Client()
	_, _, err := svc.Upsert(UpsertWebhookRequest{
		Account: "alice",
		URL:     hs.URL + "/hooks",
		Events:  []string{domain.EventTradeExecuted, domain.EventOrderFinished},
	})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = ts.quotes.Apply(ctx, ma105Quotes(t, 2470, 2469))
	require.NoError(t, err)
	res, err := ts.orders.Insert(ctx, "alice", marketBuy("o1", 3))
	require.NoError(t, err)

	require.NoError(t, svc.Publish(ctx, "alice", res))
	svc.Wait()

	assert.ElementsMatch(t, []string{domain.EventTradeExecuted, domain.EventOrderFinished}, hs.events())

	hs.mu.Lock()
	defer hs.mu.Unlock()
	for i, p := range hs.payloads {
		assert.Equal(t, "alice", p["account_key"])
		assert.NotEmpty(t, hs.headers[i].Get("X-Delivery-Id"))
		assert.NotEmpty(t, hs.headers[i].Get("X-Webhook-Id"))
		assert.Equal(t, p["event"], hs.headers[i].Get("X-Event-Type"))
		if p["event"] == domain.EventTradeExecuted {
			data := p["data"].(map[string]any)
			assert.Equal(t, "o1|3", data["trade_id"])
		}
	}
}

func TestWebhookSettled(t *testing.T) {
	hs := newHookServer(t)
	svc, ts := newTestWebhookService(t)
	svc.client = hs.Client()
	ts.settlement.AddListener(svc)
	_, _, err := svc.Upsert(UpsertWebhookRequest{Account: "alice", URL: hs.URL, Events: []string{domain.EventAccountSettled}})
	require.NoError(t, err)

	_, _, err = ts.settlement.Settle(context.Background(), "alice")
	require.NoError(t, err)
	svc.Wait()

	assert.Equal(t, []string{domain.EventAccountSettled}, hs.events())
}

func TestWebhookPublish_NoSubscriptionNoDelivery(t *testing.T) {
	hs := newHookServer(t)
	svc, ts := newTestWebhookService(t)
	svc.client = hs.Client()

	res, err := ts.accounts.Deposit(context.Background(), "alice", 1)
	require.NoError(t, err)
	require.NoError(t, svc.Publish(context.Background(), "alice", res))
	svc.Wait()

	assert.Empty(t, hs.events())
}

func TestWebhookPublish_ConcurrentWithUpsert(t *testing.T) {
	hs := newHookServer(t)
	svc, ts := newTestWebhookService(t)
	svc.client = hs.Client()
	_, _, err := svc.Upsert(UpsertWebhookRequest{Account: "alice", URL: hs.URL + "/0", Events: []string{domain.EventOrderFinished}})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = ts.quotes.Apply(ctx, ma105Quotes(t, 2470, 2469))
	require.NoError(t, err)
	res, err := ts.orders.Insert(ctx, "alice", marketBuy("o1", 1))
	require.NoError(t, err)

	const rounds = 50
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.Publish(ctx, "alice", res))
		}()
		go func(i int) {
			defer wg.Done()
			_, _, err := svc.Upsert(UpsertWebhookRequest{
				Account: "alice",
				URL:     fmt.Sprintf("%s/%d", hs.URL, i+1),
				Events:  []string{domain.EventOrderFinished},
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	svc.Wait()

	assert.Len(t, hs.events(), rounds)
}

// Feature: simtrade, Property 6: Re-registering a webhook keeps its id and takes the latest URL

func TestProperty_WebhookUpsertIdempotency(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		accounts := store.NewAccountStore()
		if err := accounts.Create(&store.AccountEntry{Key: "alice"}); err != nil {
			t.Fatalf("create account: %v", err)
		}
		svc := NewWebhookService(store.NewWebhookStore(), accounts, time.Second, nil)

		event := rapid.SampledFrom([]string{
			domain.EventTradeExecuted, domain.EventOrderFinished, domain.EventAccountSettled,
		}).Draw(t, "event")
		urls := rapid.SliceOfN(rapid.StringMatching(`https://example\.com/[a-z]{1,8}`), 1, 5).Draw(t, "urls")

		var id string
		for i, u := range urls {
			webhooks, created, err := svc.Upsert(UpsertWebhookRequest{Account: "alice", URL: u, Events: []string{event}})
			if err != nil {
				t.Fatalf("upsert %d: %v", i, err)
			}
			if created != (i == 0) {
				t.Fatalf("upsert %d: created = %v", i, created)
			}
			if i == 0 {
				id = webhooks[0].WebhookID
			}
			if webhooks[0].WebhookID != id {
				t.Fatalf("webhook id changed from %s to %s", id, webhooks[0].WebhookID)
			}
			if webhooks[0].URL != u {
				t.Fatalf("url = %s, want %s", webhooks[0].URL, u)
			}
		}
		list, _ := svc.List("alice")
		if len(list) != 1 {
			t.Fatalf("got %d subscriptions, want 1", len(list))
		}
	})
}
