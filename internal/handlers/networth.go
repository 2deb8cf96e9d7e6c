package handlers

import (
	"net/http"

	"github.com/gurnoorsh/wealthwise/internal/models"
	"github.com/gurnoorsh/wealthwise/internal/services"
)

type NetWorthHandler struct {
	service services.NetWorthService
}

func NewNetWorthHandler(service services.NetWorthService) *NetWorthHandler {
	return &NetWorthHandler{service: service}
}

// GET /api/networth/current
func (h *NetWorthHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	current, err := h.service.CurrentNetWorth(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

// GET /api/networth/history?limit=30
// Snapshots are returned oldest first.
func (h *NetWorthHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	snapshots, err := h.service.ListSnapshots(r.Context(), uid, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if snapshots == nil {
		snapshots = []*models.NetWorthSnapshot{}
	}
	writeJSON(w, http.StatusOK, snapshots)
}
