package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/simtrade/internal/domain"
	"github.com/efreitasn/simtrade/internal/engine"
	"github.com/efreitasn/simtrade/internal/service"
)

// SettlementHandler handles HTTP requests for settlement endpoints.
type SettlementHandler struct {
	settlementSvc *service.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlementSvc *service.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementSvc: settlementSvc}
}

// settleResponse is the JSON response for POST /accounts/{account_key}/settle.
type settleResponse struct {
	Result   engine.Result   `json:"result"`
	TradeLog domain.TradeLog `json:"trade_log"`
}

// reportListResponse is the JSON response for GET /accounts/{account_key}/reports.
type reportListResponse struct {
	Reports []domain.TradeLog `json:"reports"`
}

// Settle handles POST /accounts/{account_key}/settle.
func (h *SettlementHandler) Settle(w http.ResponseWriter, r *http.Request) {
	res, log, err := h.settlementSvc.Settle(r.Context(), chi.URLParam(r, "account_key"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, settleResponse{Result: res, TradeLog: log})
}

// Reports handles GET /accounts/{account_key}/reports.
func (h *SettlementHandler) Reports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.settlementSvc.Reports(chi.URLParam(r, "account_key"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if reports == nil {
		reports = []domain.TradeLog{}
	}

	WriteJSON(w, http.StatusOK, reportListResponse{Reports: reports})
}

// LatestReport handles GET /accounts/{account_key}/reports/latest.
func (h *SettlementHandler) LatestReport(w http.ResponseWriter, r *http.Request) {
	log, err := h.settlementSvc.LatestReport(chi.URLParam(r, "account_key"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, log)
}
