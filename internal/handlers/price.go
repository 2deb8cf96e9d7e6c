package handlers

import (
	"net/http"

	apperrors "github.com/gurnoorsh/wealthwise/internal/errors"
	"github.com/gurnoorsh/wealthwise/internal/models"
	"github.com/gurnoorsh/wealthwise/internal/services"
)

type PriceHandler struct {
	service services.PriceService
}

func NewPriceHandler(service services.PriceService) *PriceHandler {
	return &PriceHandler{service: service}
}

func instrumentFromQuery(r *http.Request) (string, models.AssetClass, error) {
	q := r.URL.Query()
	symbol := models.NormalizeSymbol(q.Get("symbol"))
	if symbol == "" {
		return "", "", &apperrors.ErrValidation{Field: "symbol", Message: "is required"}
	}
	class := models.NormalizeAssetClass(q.Get("asset_class"))
	if class == "" {
		return "", "", &apperrors.ErrValidation{Field: "asset_class", Message: "is required"}
	}
	return symbol, class, nil
}

// GET /api/prices/latest?symbol=BTC&asset_class=crypto
func (h *PriceHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	symbol, class, err := instrumentFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	obs, err := h.service.GetLatestPrice(r.Context(), symbol, class)
	if err != nil {
		writeError(w, err)
		return
	}
	if obs == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"symbol":          symbol,
			"asset_class":     class,
			"price":           nil,
			"price_available": false,
		})
		return
	}
	writeJSON(w, http.StatusOK, obs)
}

// GET /api/prices/history?symbol=AAPL&asset_class=stock&limit=30
func (h *PriceHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	symbol, class, err := instrumentFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	history, err := h.service.GetPriceHistory(r.Context(), symbol, class, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if history == nil {
		history = []*models.PriceObservation{}
	}
	writeJSON(w, http.StatusOK, history)
}

// POST /api/prices/refresh?symbol=ETH&asset_class=crypto
func (h *PriceHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	symbol, class, err := instrumentFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	obs, err := h.service.FetchAndStore(r.Context(), symbol, class)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, obs)
}
