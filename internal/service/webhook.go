package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/simtrade/internal/domain"
	"github.com/efreitasn/simtrade/internal/engine"
	"github.com/efreitasn/simtrade/internal/store"
)

// Valid webhook event types.
var validWebhookEvents = map[string]bool{
	domain.EventTradeExecuted:  true,
	domain.EventOrderFinished:  true,
	domain.EventAccountSettled: true,
}

// UpsertWebhookRequest represents the input for webhook registration.
type UpsertWebhookRequest struct {
	Account string
	URL     string
	Events  []string
}

// WebhookService handles webhook CRUD and event dispatch. It is a Publisher
// for trade and order events and a SettlementListener for statements.
type WebhookService struct {
	store    *store.WebhookStore
	accounts *store.AccountStore
	client   *http.Client
	logger   *slog.Logger
	inflight sync.WaitGroup
}

// NewWebhookService creates a new WebhookService with the given dependencies.
func NewWebhookService(
	webhookStore *store.WebhookStore,
	accounts *store.AccountStore,
	webhookTimeout time.Duration,
	logger *slog.Logger,
) *WebhookService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &WebhookService{
		store:    webhookStore,
		accounts: accounts,
		client: &http.Client{
			Timeout: webhookTimeout,
		},
		logger: logger,
	}
}

// Upsert validates the request and creates or updates webhook subscriptions.
// Returns the resulting webhooks, whether any new subscriptions were created, and any error.
func (s *WebhookService) Upsert(req UpsertWebhookRequest) ([]domain.Webhook, bool, error) {
	if !s.accounts.Exists(req.Account) {
		return nil, false, domain.ErrAccountNotFound
	}

	if req.URL == "" {
		return nil, false, &domain.ValidationError{Message: "url is required"}
	}
	if len(req.URL) > 2048 {
		return nil, false, &domain.ValidationError{Message: "url must be at most 2048 characters"}
	}
	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || !parsed.IsAbs() {
		return nil, false, &domain.ValidationError{Message: "url must be a valid absolute URL"}
	}
	if parsed.Scheme != "https" {
		return nil, false, &domain.ValidationError{Message: "url must use https scheme"}
	}

	if len(req.Events) == 0 {
		return nil, false, &domain.ValidationError{Message: "events must be a non-empty array"}
	}
	seen := make(map[string]bool, len(req.Events))
	events := make([]string, 0, len(req.Events))
	for _, event := range req.Events {
		if !validWebhookEvents[event] {
			return nil, false, &domain.ValidationError{
				Message: "Unknown event type: " + event + ". Must be one of: trade.executed, order.finished, account.settled",
			}
		}
		if !seen[event] {
			seen[event] = true
			events = append(events, event)
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	anyCreated := false
	webhooks := make([]domain.Webhook, 0, len(events))
	for _, event := range events {
		w, created := s.store.Upsert(domain.Webhook{
			WebhookID: uuid.New().String(),
			Account:   req.Account,
			Event:     event,
			URL:       req.URL,
			CreatedAt: now,
			UpdatedAt: now,
		})
		anyCreated = anyCreated || created
		webhooks = append(webhooks, w)
	}
	return webhooks, anyCreated, nil
}

// List validates the account exists and returns its webhook subscriptions.
func (s *WebhookService) List(account string) ([]domain.Webhook, error) {
	if !s.accounts.Exists(account) {
		return nil, domain.ErrAccountNotFound
	}
	return s.store.ListByAccount(account), nil
}

// Delete removes a webhook subscription by ID.
func (s *WebhookService) Delete(webhookID string) error {
	return s.store.Delete(webhookID)
}

// webhookPayload is the JSON body of every webhook delivery.
type webhookPayload struct {
	Event     string `json:"event"`
	Account   string `json:"account_key"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

// Publish dispatches trade.executed for every new trade and order.finished
// for every order that reached FINISHED in res.
func (s *WebhookService) Publish(_ context.Context, account string, res engine.Result) error {
	if wh, ok := s.store.Lookup(account, domain.EventTradeExecuted); ok {
		for _, p := range res.Diffs {
			if p.Kind != domain.PatchTrade {
				continue
			}
			var t domain.Trade
			p.Trade.Apply(&t)
			s.dispatch(wh, t)
		}
	}
	if wh, ok := s.store.Lookup(account, domain.EventOrderFinished); ok {
		for _, o := range res.OrderEvents {
			if o.Status == domain.OrderStatusFinished {
				s.dispatch(wh, o)
			}
		}
	}
	return nil
}

// Settled dispatches account.settled with the day's statement.
func (s *WebhookService) Settled(account string, log domain.TradeLog) {
	if wh, ok := s.store.Lookup(account, domain.EventAccountSettled); ok {
		s.dispatch(wh, log)
	}
}

// Wait blocks until every in-flight delivery has finished.
func (s *WebhookService) Wait() {
	s.inflight.Wait()
}

// dispatch delivers data in the background. wh is a copy, so a later
// Upsert does not affect a delivery in flight.
func (s *WebhookService) dispatch(wh domain.Webhook, data any) {
	payload := webhookPayload{
		Event:     wh.Event,
		Account:   wh.Account,
		Timestamp: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
		Data:      data,
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.deliver(wh, payload)
	}()
}

// deliver sends the payload via HTTP POST. Failures are logged and dropped.
func (s *WebhookService) deliver(wh domain.Webhook, payload webhookPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("encoding webhook payload failed", slog.String("error", err.Error()))
		return
	}

	req, err := http.NewRequest(http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", uuid.New().String())
	req.Header.Set("X-Webhook-Id", wh.WebhookID)
	req.Header.Set("X-Event-Type", wh.Event)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("webhook delivery failed",
			slog.String("webhook_id", wh.WebhookID),
			slog.String("error", err.Error()),
		)
		return
	}
	resp.Body.Close()
}
