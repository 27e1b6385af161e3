package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/simtrade/internal/engine"
	"github.com/efreitasn/simtrade/internal/service"
	"github.com/efreitasn/simtrade/internal/stream"
)

// AccountHandler handles HTTP requests for account endpoints.
type AccountHandler struct {
	accountSvc *service.AccountService
	hub        *stream.Hub
	logger     *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc *service.AccountService, hub *stream.Hub, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc, hub: hub, logger: logger}
}

// createAccountRequest is the JSON request body for POST /accounts.
type createAccountRequest struct {
	AccountKey  string   `json:"account_key"`
	InitBalance *float64 `json:"init_balance"`
}

// amountRequest is the JSON request body for deposits and withdrawals.
type amountRequest struct {
	Amount float64 `json:"amount"`
}

// accountListResponse is the JSON response for GET /accounts.
type accountListResponse struct {
	Accounts []string `json:"accounts"`
}

// Create handles POST /accounts. The body is optional.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if r.ContentLength != 0 {
		if err := ParseJSON(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
	}

	acc, err := h.accountSvc.Create(service.CreateAccountRequest{
		Key:         req.AccountKey,
		InitBalance: req.InitBalance,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, acc)
}

// List handles GET /accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, accountListResponse{Accounts: h.accountSvc.List()})
}

// Get handles GET /accounts/{account_key}.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	acc, err := h.accountSvc.Get(chi.URLParam(r, "account_key"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, acc)
}

// Deposit handles POST /accounts/{account_key}/deposit.
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	res, err := h.accountSvc.Deposit(r.Context(), chi.URLParam(r, "account_key"), req.Amount)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, res)
}

// Withdraw handles POST /accounts/{account_key}/withdraw.
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	res, err := h.accountSvc.Withdraw(r.Context(), chi.URLParam(r, "account_key"), req.Amount)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, res)
}

// Stream handles GET /accounts/{account_key}/stream. The connection first
// receives the full account state, then every later result.
func (h *AccountHandler) Stream(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "account_key")
	upgraded := false
	err := h.accountSvc.Subscribe(key, func(initial engine.Result) error {
		data, err := json.Marshal(initial)
		if err != nil {
			return err
		}
		upgraded = true
		return h.hub.ServeWS(w, r, key, data)
	})
	if err == nil {
		return
	}
	if upgraded {
		// The upgrader has already answered the request.
		h.logger.Warn("stream subscription failed",
			slog.String("account", key),
			slog.String("error", err.Error()),
		)
		return
	}
	WriteServiceError(w, err)
}
