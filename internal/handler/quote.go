package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/simtrade/internal/domain"
	"github.com/efreitasn/simtrade/internal/service"
)

// QuoteHandler handles HTTP requests for quote endpoints.
type QuoteHandler struct {
	quoteSvc *service.QuoteService
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(quoteSvc *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteSvc: quoteSvc}
}

// applyQuotesRequest is the JSON request body for POST /quotes.
type applyQuotesRequest struct {
	Aid          string                        `json:"aid"`
	InstrumentID string                        `json:"instrument_id"`
	Quotes       map[string]domain.QuoteUpdate `json:"quotes"`
}

// applyQuotesResponse lists the accounts the update changed.
type applyQuotesResponse struct {
	Results []service.AccountResult `json:"results"`
}

// symbolListResponse is the JSON response for GET /quotes.
type symbolListResponse struct {
	Symbols []string `json:"symbols"`
}

// Apply handles POST /quotes.
func (h *QuoteHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyQuotesRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Aid != "" && req.Aid != domain.AidRtnQuote {
		WriteError(w, http.StatusBadRequest, "validation_error", "aid must be rtn_quote")
		return
	}

	results, err := h.quoteSvc.Apply(r.Context(), domain.QuoteMessage{
		InstrumentID: req.InstrumentID,
		Quotes:       req.Quotes,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if results == nil {
		results = []service.AccountResult{}
	}

	WriteJSON(w, http.StatusOK, applyQuotesResponse{Results: results})
}

// List handles GET /quotes.
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, symbolListResponse{Symbols: h.quoteSvc.Symbols()})
}

// Get handles GET /quotes/{symbol}.
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	q, ok := h.quoteSvc.Get(symbol)
	if !ok {
		WriteError(w, http.StatusNotFound, "quote_not_found", "no quote received for "+symbol)
		return
	}

	WriteJSON(w, http.StatusOK, q)
}
