package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/gurnoorsh/wealthwise/internal/models"
	"github.com/gurnoorsh/wealthwise/internal/services"
)

type PortfolioHandler struct {
	service services.PortfolioService
}

func NewPortfolioHandler(service services.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{service: service}
}

type createPortfolioRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type costBasisRequest struct {
	CostBasis decimal.Decimal `json:"cost_basis"`
}

// GET /api/portfolios
func (h *PortfolioHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	portfolios, err := h.service.GetUserPortfoliosWithValuations(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, portfolios)
}

// GET /api/portfolios/{id}
func (h *PortfolioHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid portfolio id", http.StatusBadRequest)
		return
	}
	pv, err := h.service.GetPortfolioValuation(r.Context(), uid, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pv)
}

// POST /api/portfolios
func (h *PortfolioHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req createPortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	p, err := h.service.CreatePortfolio(r.Context(), uid, req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// DELETE /api/portfolios/{id}
func (h *PortfolioHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid portfolio id", http.StatusBadRequest)
		return
	}
	if err := h.service.DeletePortfolio(r.Context(), uid, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/portfolios/{id}/positions
func (h *PortfolioHandler) HandleAddPosition(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid portfolio id", http.StatusBadRequest)
		return
	}
	var input models.PositionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if input.Symbol == "" || input.AssetClass == "" {
		http.Error(w, "symbol and asset_class are required", http.StatusBadRequest)
		return
	}
	position, err := h.service.AddPosition(r.Context(), uid, id, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, position)
}

// PUT /api/portfolios/{id}/positions/{positionID}/cost-basis
func (h *PortfolioHandler) HandleUpdateCostBasis(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid portfolio id", http.StatusBadRequest)
		return
	}
	positionID, ok := pathID(r, "positionID")
	if !ok {
		http.Error(w, "invalid position id", http.StatusBadRequest)
		return
	}
	var req costBasisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.service.UpdatePositionCostBasis(r.Context(), uid, id, positionID, req.CostBasis); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
