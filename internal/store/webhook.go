package store

import (
	"cmp"
	"slices"
	"sync"

	"github.com/efreitasn/simtrade/internal/domain"
)

// subscriptionKey identifies the single subscription an account may hold
// for an event.
type subscriptionKey struct {
	account string
	event   string
}

// WebhookStore holds webhook subscriptions by value. Every read returns a
// copy, so callers never observe a later URL change mid-delivery.
type WebhookStore struct {
	mu   sync.RWMutex
	subs map[subscriptionKey]domain.Webhook
	ids  map[string]subscriptionKey // webhook_id → subscription
}

// NewWebhookStore creates an empty WebhookStore.
func NewWebhookStore() *WebhookStore {
	return &WebhookStore{
		subs: make(map[subscriptionKey]domain.Webhook),
		ids:  make(map[string]subscriptionKey),
	}
}

// Upsert stores w as the subscription of (w.Account, w.Event). An existing
// subscription keeps its webhook_id and creation time and takes the new
// URL. It returns the stored subscription and whether it was created.
func (s *WebhookStore) Upsert(w domain.Webhook) (domain.Webhook, bool) {
	k := subscriptionKey{account: w.Account, event: w.Event}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.subs[k]
	if !ok {
		s.subs[k] = w
		s.ids[w.WebhookID] = k
		return w, true
	}
	if cur.URL != w.URL {
		cur.URL = w.URL
		cur.UpdatedAt = w.UpdatedAt
		s.subs[k] = cur
	}
	return cur, false
}

// Get returns the subscription with id, or domain.ErrWebhookNotFound.
func (s *WebhookStore) Get(id string) (domain.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, ok := s.ids[id]
	if !ok {
		return domain.Webhook{}, domain.ErrWebhookNotFound
	}
	return s.subs[k], nil
}

// ListByAccount returns the subscriptions of account ordered by event.
func (s *WebhookStore) ListByAccount(account string) []domain.Webhook {
	s.mu.RLock()
	out := make([]domain.Webhook, 0, 3)
	for k, w := range s.subs {
		if k.account == account {
			out = append(out, w)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.Webhook) int {
		return cmp.Compare(a.Event, b.Event)
	})
	return out
}

// Delete removes the subscription with id, or returns
// domain.ErrWebhookNotFound.
func (s *WebhookStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.ids[id]
	if !ok {
		return domain.ErrWebhookNotFound
	}
	delete(s.ids, id)
	delete(s.subs, k)
	return nil
}

// Lookup returns the subscription of account for event.
func (s *WebhookStore) Lookup(account, event string) (domain.Webhook, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.subs[subscriptionKey{account: account, event: event}]
	return w, ok
}
