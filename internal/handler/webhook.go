package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/simtrade/internal/domain"
	"github.com/efreitasn/simtrade/internal/service"
)

// WebhookHandler handles HTTP requests for webhook endpoints.
type WebhookHandler struct {
	webhookSvc *service.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookSvc *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc}
}

// upsertWebhookRequest is the JSON request body for POST /webhooks.
type upsertWebhookRequest struct {
	AccountKey string   `json:"account_key"`
	URL        string   `json:"url"`
	Events     []string `json:"events"`
}

// webhookListResponse is the JSON response for POST and GET /webhooks.
// Subscriptions carry whole-second UTC timestamps.
type webhookListResponse struct {
	Webhooks []domain.Webhook `json:"webhooks"`
}

// Upsert handles POST /webhooks.
func (h *WebhookHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertWebhookRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	webhooks, anyCreated, err := h.webhookSvc.Upsert(service.UpsertWebhookRequest{
		Account: req.AccountKey,
		URL:     req.URL,
		Events:  req.Events,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	status := http.StatusOK
	if anyCreated {
		status = http.StatusCreated
	}

	WriteJSON(w, status, webhookListResponse{Webhooks: webhooks})
}

// List handles GET /webhooks?account_key=.
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("account_key")
	if account == "" {
		WriteError(w, http.StatusBadRequest, "validation_error", "account_key query parameter is required")
		return
	}

	webhooks, err := h.webhookSvc.List(account)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, webhookListResponse{Webhooks: webhooks})
}

// Delete handles DELETE /webhooks/{webhook_id}.
func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.webhookSvc.Delete(chi.URLParam(r, "webhook_id")); err != nil {
		WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
