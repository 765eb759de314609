package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rogerio-castellano/stock-ledger/internal/ledger"
	models "github.com/rogerio-castellano/stock-ledger/internal/models"
	repo "github.com/rogerio-castellano/stock-ledger/internal/repo"
)

// HealthHandler godoc
// @Summary Liveness probe
// @Produce json
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateItemHandler godoc
// @Summary Provision a stock record
// @Description Creates a SKU with its initial quantity and low-stock threshold
// @Tags items
// @Accept json
// @Produce json
// @Param item body ItemRequest true "Item to provision"
// @Success 201 {object} ItemResponse
// @Failure 400 {array} ValidationError
// @Failure 409 {string} string "SKU already exists"
// @Router /items [post]
func CreateItemHandler(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	validationErrors := validateItem(req)
	if len(validationErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, validationErrors)
		return
	}

	created, err := itemRepo.Create(models.StockItem{
		SKU:       req.SKU,
		Quantity:  req.Quantity,
		Threshold: req.Threshold,
	})
	if err != nil {
		if errors.Is(err, repo.ErrItemAlreadyExists) {
			http.Error(w, "sku already exists", http.StatusConflict)
			return
		}
		http.Error(w, "could not create item", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, toItemResponse(created))
}

// GetItemHandler godoc
// @Summary Get the current stock record of a SKU
// @Tags items
// @Produce json
// @Param sku path string true "SKU"
// @Success 200 {object} ItemResponse
// @Failure 404 {string} string "SKU not found"
// @Router /items/{sku} [get]
func GetItemHandler(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	item, err := itemRepo.GetBySKU(sku)
	if err != nil {
		if errors.Is(err, ledger.ErrItemNotFound) {
			http.Error(w, "sku not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch item", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toItemResponse(item))
}

// SearchItemsHandler godoc
// @Summary Search SKUs by substring
// @Tags items
// @Produce json
// @Param query query string false "Substring to match"
// @Success 200 {array} string
// @Router /items [get]
func SearchItemsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeJSON(w, http.StatusOK, []string{})
		return
	}

	skus, err := itemRepo.Search(query, 10)
	if err != nil {
		http.Error(w, "could not search items", http.StatusInternalServerError)
		return
	}
	if skus == nil {
		skus = []string{}
	}

	writeJSON(w, http.StatusOK, skus)
}

func toItemResponse(item models.StockItem) ItemResponse {
	return ItemResponse{
		SKU:       item.SKU,
		Quantity:  item.Quantity,
		Threshold: item.Threshold,
		LowStock:  item.Quantity <= item.Threshold,
		UpdatedAt: item.UpdatedAt,
	}
}
