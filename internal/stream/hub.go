// Package stream pushes simulator results to WebSocket subscribers of an
// account.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/efreitasn/simtrade/internal/engine"
	"github.com/efreitasn/simtrade/internal/metrics"
)

// Options tunes the hub and its clients.
type Options struct {
	// Buffer is the number of messages queued per client before the client
	// is dropped as too slow.
	Buffer         int
	WriteWait      time.Duration
	AllowedOrigins []string
}

// message is one encoded result for the subscribers of an account. seq
// orders it against subscriptions.
type message struct {
	account string
	seq     uint64
	data    []byte
}

// Hub fans results out to the clients subscribed to each account.
//
// Usage:
//  1. hub := NewHub(opts, logger, m)
//  2. go hub.Run(ctx)
//  3. hub.Publish(ctx, account, result) after every simulator call
type Hub struct {
	opts     Options
	logger   *slog.Logger
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	seq     uint64
	stopped bool

	broadcast  chan message
	unregister chan *Client
	done       chan struct{}
	dropped    atomic.Int64
}

// NewHub creates a hub. Run must be started before results are published.
func NewHub(opts Options, logger *slog.Logger, m *metrics.Metrics) *Hub {
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = 10 * time.Second
	}
	origins := newOriginChecker(opts.AllowedOrigins)
	return &Hub{
		opts:    opts,
		logger:  logger,
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return origins.Check(r.Header.Get("Origin"))
			},
		},
		clients:    make(map[string]map[*Client]struct{}),
		broadcast:  make(chan message, 256),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run delivers published results until ctx is cancelled, then disconnects
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for account, set := range h.clients {
			for c := range set {
				close(c.send)
			}
			delete(h.clients, account)
		}
		h.stopped = true
		h.mu.Unlock()
		h.metrics.StreamClients.Set(0)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.unregister:
			if h.remove(c) {
				h.logger.Debug("stream client disconnected",
					slog.String("account", c.account),
					slog.Int("clients", h.ClientCount()),
				)
			}

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// deliver queues msg on every subscriber of its account that joined before
// it was published. Clients with a full queue are dropped.
func (h *Hub) deliver(msg message) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients[msg.account]))
	for c := range h.clients[msg.account] {
		if msg.seq >= c.since {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	var slow []*Client
	for _, c := range clients {
		select {
		case c.send <- msg.data:
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		if h.remove(c) {
			h.dropped.Add(1)
			h.metrics.StreamDropped.Inc()
			h.logger.Warn("dropped slow stream client", slog.String("account", c.account))
		}
	}
}

// remove unsubscribes c and closes its queue. It reports whether c was
// still subscribed.
func (h *Hub) remove(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.account]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.account)
	}
	close(c.send)
	h.metrics.StreamClients.Dec()
	return true
}

// subscribe adds c to its account. Only results published after this call
// reach c. It returns false once Run has stopped.
func (h *Hub) subscribe(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return false
	}
	c.since = h.seq + 1
	set, ok := h.clients[c.account]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.account] = set
	}
	set[c] = struct{}{}
	h.metrics.StreamClients.Inc()
	return true
}

// Publish encodes res and queues it for the subscribers of account. Empty
// results are skipped. Publishing after Run has stopped is a no-op.
func (h *Hub) Publish(ctx context.Context, account string, res engine.Result) error {
	if res.Empty() {
		return nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	h.mu.Lock()
	h.seq++
	msg := message{account: account, seq: h.seq, data: data}
	h.mu.Unlock()

	select {
	case h.broadcast <- msg:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeWS upgrades the request and subscribes the connection to account.
// initial, when not nil, is the first message the client receives; callers
// build it while holding the account lock so no result falls between it and
// the subscription.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, account string, initial []byte) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrading connection: %w", err)
	}

	c := &Client{
		hub:     h,
		conn:    conn,
		account: account,
		send:    make(chan []byte, h.opts.Buffer),
	}
	if initial != nil {
		c.send <- initial
	}
	if !h.subscribe(c) {
		conn.Close()
		return nil
	}
	h.logger.Debug("stream client connected", slog.String("account", account))

	go c.writePump()
	go c.readPump()
	return nil
}

// ClientCount returns the number of connected clients across all accounts.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// DroppedMessages returns how many clients were dropped for falling behind.
func (h *Hub) DroppedMessages() int64 {
	return h.dropped.Load()
}

// originChecker allows an empty Origin, any origin when the list is empty,
// and otherwise only the listed origins.
type originChecker struct {
	allowed map[string]struct{}
}

func newOriginChecker(origins []string) *originChecker {
	oc := &originChecker{allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		oc.allowed[o] = struct{}{}
	}
	return oc
}

// Check reports whether origin may connect.
func (oc *originChecker) Check(origin string) bool {
	if origin == "" || len(oc.allowed) == 0 {
		return true
	}
	_, ok := oc.allowed[origin]
	return ok
}
