package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rogerio-castellano/stock-ledger/internal/ledger"
	repo "github.com/rogerio-castellano/stock-ledger/internal/repo"
)

// DeductStockHandler godoc
// @Summary Deduct stock for a sale
// @Tags stock
// @Accept json
// @Produce json
// @Param sku path string true "SKU"
// @Param deduction body DeductRequest true "Quantity and order id"
// @Success 200 {object} MutationResponse
// @Failure 400 {array} ValidationError
// @Failure 404 {string} string "SKU not found"
// @Failure 409 {object} InsufficientStockResponse
// @Failure 500 {string} string "Internal error"
// @Router /items/{sku}/deduct [post]
func DeductStockHandler(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	var req DeductRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	validationErrors := validateMutation(req.Quantity, req.OrderID)
	if len(validationErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, validationErrors)
		return
	}

	idemKey := fmt.Sprintf("deduct:%s:%s", sku, req.OrderID)
	if !claimIdempotencyKey(w, r, idemKey) {
		return
	}

	result, err := engine.Deduct(r.Context(), sku, req.Quantity, req.OrderID)
	if err != nil {
		releaseIdempotencyKey(r, idemKey)
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MutationResponse{
		SKU:         result.Item.SKU,
		NewQuantity: result.Item.Quantity,
		LogID:       result.Entry.ID,
		AlertFired:  result.AlertFired,
	})
}

// RestoreStockHandler godoc
// @Summary Restore stock after an order was canceled or expired
// @Tags stock
// @Accept json
// @Produce json
// @Param sku path string true "SKU"
// @Param restoration body RestoreRequest true "Quantity, order id and reason"
// @Success 200 {object} MutationResponse
// @Failure 400 {array} ValidationError
// @Failure 404 {string} string "SKU not found"
// @Failure 500 {string} string "Internal error"
// @Router /items/{sku}/restore [post]
func RestoreStockHandler(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	var req RestoreRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	validationErrors := validateMutation(req.Quantity, req.OrderID)
	validationErrors = append(validationErrors, validateRestoreReason(req.Reason)...)
	if len(validationErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, validationErrors)
		return
	}

	idemKey := fmt.Sprintf("restore:%s:%s", sku, req.OrderID)
	if !claimIdempotencyKey(w, r, idemKey) {
		return
	}

	result, err := engine.Restore(r.Context(), sku, req.Quantity, req.OrderID, req.Reason)
	if err != nil {
		releaseIdempotencyKey(r, idemKey)
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MutationResponse{
		SKU:         result.Item.SKU,
		NewQuantity: result.Item.Quantity,
		LogID:       result.Entry.ID,
		AlertFired:  result.AlertFired,
	})
}

// AdjustStockHandler godoc
// @Summary Apply a manual signed stock correction
// @Tags stock
// @Accept json
// @Produce json
// @Param sku path string true "SKU"
// @Param adjustment body AdjustRequest true "Signed delta and note"
// @Success 200 {object} MutationResponse
// @Failure 400 {string} string "Invalid adjustment"
// @Failure 404 {string} string "SKU not found"
// @Failure 409 {object} InsufficientStockResponse
// @Failure 500 {string} string "Internal error"
// @Router /items/{sku}/adjust [post]
func AdjustStockHandler(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	var req AdjustRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	result, err := engine.Adjust(r.Context(), sku, req.Delta, req.Note)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MutationResponse{
		SKU:         result.Item.SKU,
		NewQuantity: result.Item.Quantity,
		LogID:       result.Entry.ID,
		AlertFired:  result.AlertFired,
	})
}

// GetLedgerHandler godoc
// @Summary Get the audit ledger of a SKU
// @Tags ledger
// @Produce json
// @Param sku path string true "SKU"
// @Param since query string false "Filter entries from this timestamp (RFC3339)"
// @Param until query string false "Filter entries until this timestamp (RFC3339)"
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination"
// @Success 200 {object} LedgerSearchResult
// @Failure 400 {string} string "Invalid input"
// @Failure 404 {string} string "SKU not found"
// @Failure 500 {string} string "Internal error"
// @Router /items/{sku}/ledger [get]
func GetLedgerHandler(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	if _, err := itemRepo.GetBySKU(sku); err != nil {
		if errors.Is(err, ledger.ErrItemNotFound) {
			http.Error(w, "sku not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch item", http.StatusInternalServerError)
		return
	}

	lf, ok := parseLedgerFilter(w, r)
	if !ok {
		return
	}

	entries, total, err := ledgerRepo.GetBySKU(sku, lf)
	if err != nil {
		log.Printf("could not retrieve ledger for %s: %v", sku, err)
		http.Error(w, "could not retrieve ledger", http.StatusInternalServerError)
		return
	}

	response := LedgerSearchResult{
		Data: make([]LedgerEntryResponse, len(entries)),
		Meta: Meta{TotalCount: total},
	}
	for i, e := range entries {
		response.Data[i] = LedgerEntryResponse{
			ID:             e.ID,
			SKU:            e.SKU,
			ChangeType:     e.ChangeType,
			QuantityDelta:  e.QuantityDelta,
			BeforeQuantity: e.BeforeQuantity,
			AfterQuantity:  e.AfterQuantity,
			OrderID:        e.OrderID,
			Reason:         e.Reason,
			CreatedAt:      e.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// GetAlertsHandler godoc
// @Summary Get the low-stock alerts of a SKU
// @Tags alerts
// @Produce json
// @Param sku path string true "SKU"
// @Success 200 {array} AlertResponse
// @Failure 404 {string} string "SKU not found"
// @Failure 500 {string} string "Internal error"
// @Router /items/{sku}/alerts [get]
func GetAlertsHandler(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	if _, err := itemRepo.GetBySKU(sku); err != nil {
		if errors.Is(err, ledger.ErrItemNotFound) {
			http.Error(w, "sku not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch item", http.StatusInternalServerError)
		return
	}

	alerts, err := alertRepo.GetBySKU(sku)
	if err != nil {
		log.Printf("could not retrieve alerts for %s: %v", sku, err)
		http.Error(w, "could not retrieve alerts", http.StatusInternalServerError)
		return
	}

	response := make([]AlertResponse, len(alerts))
	for i, a := range alerts {
		response[i] = AlertResponse{
			ID:        a.ID,
			SKU:       a.SKU,
			Threshold: a.Threshold,
			Quantity:  a.Quantity,
			CreatedAt: a.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// parseLedgerFilter reads the since/until/limit/offset query parameters,
// writing the error response itself when one is malformed.
func parseLedgerFilter(w http.ResponseWriter, r *http.Request) (repo.LedgerFilter, bool) {
	sinceStr := r.URL.Query().Get("since")
	untilStr := r.URL.Query().Get("until")

	// URL query decoding turns + into a space, which breaks the zone offset of
	// RFC3339 timestamps like 2025-07-03T17:44:03+02:00. Undo it before
	// parsing.
	if len(sinceStr) == len(time.RFC3339) && sinceStr[len(sinceStr)-6] == ' ' {
		sinceStr = sinceStr[:len(sinceStr)-6] + "+" + sinceStr[len(sinceStr)-5:]
	}
	if len(untilStr) == len(time.RFC3339) && untilStr[len(untilStr)-6] == ' ' {
		untilStr = untilStr[:len(untilStr)-6] + "+" + untilStr[len(untilStr)-5:]
	}

	var lf repo.LedgerFilter

	if sinceStr != "" {
		ts, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			log.Printf("could not parse since date %s: %v", sinceStr, err)
			http.Error(w, "invalid since date format", http.StatusBadRequest)
			return lf, false
		}
		lf.Since = &ts
	}
	if untilStr != "" {
		ts, err := time.Parse(time.RFC3339, untilStr)
		if err != nil {
			log.Printf("could not parse until date %s: %v", untilStr, err)
			http.Error(w, "invalid until date format", http.StatusBadRequest)
			return lf, false
		}
		lf.Until = &ts
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v <= 0 {
			http.Error(w, "limit must be greater than zero", http.StatusBadRequest)
			return lf, false
		}
		lf.Limit = &v
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		v, err := strconv.Atoi(offsetStr)
		if err != nil || v < 0 {
			http.Error(w, "offset must be zero or positive", http.StatusBadRequest)
			return lf, false
		}
		lf.Offset = &v
	}

	return lf, true
}

// writeEngineError maps engine failures onto HTTP statuses. Anything that is
// not a structured outcome is a storage failure already rolled back by the
// engine.
func writeEngineError(w http.ResponseWriter, err error) {
	var insufficient *ledger.InsufficientStockError
	switch {
	case errors.Is(err, ledger.ErrItemNotFound):
		http.Error(w, "sku not found", http.StatusNotFound)
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusConflict, InsufficientStockResponse{
			Error:     "insufficient stock",
			Available: insufficient.Available,
			Requested: insufficient.Requested,
		})
	case errors.Is(err, ledger.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("stock mutation failed: %v", err)
		http.Error(w, "could not apply stock mutation", http.StatusInternalServerError)
	}
}

// claimIdempotencyKey rejects a retried order id when the Redis guard is
// enabled. It writes the 409 itself and returns false on a duplicate. When
// Redis is unavailable the request proceeds; the engine stays correct either
// way, deduplication is a service-layer courtesy.
func claimIdempotencyKey(w http.ResponseWriter, r *http.Request, key string) bool {
	if redisService == nil {
		return true
	}

	ok, err := redisService.ClaimIdempotencyKey(r.Context(), key)
	if err != nil {
		log.Printf("idempotency check failed for %s: %v", key, err)
		return true
	}
	if !ok {
		http.Error(w, "duplicate request", http.StatusConflict)
		return false
	}
	return true
}

// releaseIdempotencyKey frees the key after a failed mutation so the caller
// can retry with the same order id.
func releaseIdempotencyKey(r *http.Request, key string) {
	if redisService == nil {
		return
	}
	if err := redisService.ReleaseIdempotencyKey(r.Context(), key); err != nil {
		log.Printf("could not release idempotency key %s: %v", key, err)
	}
}
