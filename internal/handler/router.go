package handler

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/efreitasn/simtrade/internal/service"
	"github.com/efreitasn/simtrade/internal/stream"
)

// Services groups what the router serves.
type Services struct {
	Accounts   *service.AccountService
	Orders     *service.OrderService
	Quotes     *service.QuoteService
	Settlement *service.SettlementService
	Webhooks   *service.WebhookService
	Hub        *stream.Hub
	// Gatherer backs /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
}

// NewRouter creates a chi router with all routes registered, request logging,
// and Content-Type validation middleware.
func NewRouter(svc Services, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(contentTypeJSON)

	// Create handlers.
	accountH := NewAccountHandler(svc.Accounts, svc.Hub, logger)
	orderH := NewOrderHandler(svc.Orders)
	quoteH := NewQuoteHandler(svc.Quotes)
	settlementH := NewSettlementHandler(svc.Settlement)
	webhookH := NewWebhookHandler(svc.Webhooks)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if svc.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(svc.Gatherer, promhttp.HandlerOpts{}))
	}

	// Account routes.
	r.Post("/accounts", accountH.Create)
	r.Get("/accounts", accountH.List)
	r.Route("/accounts/{account_key}", func(r chi.Router) {
		r.Get("/", accountH.Get)
		r.Post("/deposit", accountH.Deposit)
		r.Post("/withdraw", accountH.Withdraw)
		r.Get("/stream", accountH.Stream)

		r.Post("/orders", orderH.Insert)
		r.Get("/orders", orderH.List)
		r.Get("/orders/{order_id}", orderH.Get)
		r.Delete("/orders/{order_id}", orderH.Cancel)
		r.Get("/trades", orderH.Trades)

		r.Post("/settle", settlementH.Settle)
		r.Get("/reports", settlementH.Reports)
		r.Get("/reports/latest", settlementH.LatestReport)
	})

	// Quote routes.
	r.Post("/quotes", quoteH.Apply)
	r.Get("/quotes", quoteH.List)
	r.Get("/quotes/{symbol}", quoteH.Get)

	// Webhook routes.
	r.Post("/webhooks", webhookH.Upsert)
	r.Get("/webhooks", webhookH.List)
	r.Delete("/webhooks/{webhook_id}", webhookH.Delete)

	return r
}

// requestLogging returns middleware that logs each request's method, path,
// status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrader take over the connection.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// contentTypeJSON is middleware that validates Content-Type for POST, PUT, and
// PATCH requests that carry a body. If the Content-Type header doesn't start
// with "application/json", it returns 400 Bad Request before the handler runs.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if r.ContentLength != 0 && (ct == "" || !strings.HasPrefix(ct, "application/json")) {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
