package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gurnoorsh/wealthwise/internal/scheduler"
)

// SnapshotRunner triggers an immediate snapshot run.
type SnapshotRunner interface {
	RunNow(ctx context.Context) (*scheduler.RunReport, error)
	State() scheduler.State
}

type AdminHandler struct {
	runner SnapshotRunner
}

func NewAdminHandler(runner SnapshotRunner) *AdminHandler {
	return &AdminHandler{runner: runner}
}

// POST /api/admin/snapshots/run
func (h *AdminHandler) HandleRunSnapshots(w http.ResponseWriter, r *http.Request) {
	report, err := h.runner.RunNow(r.Context())
	if errors.Is(err, scheduler.ErrRunInProgress) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GET /api/admin/snapshots/status
func (h *AdminHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"state": h.runner.State().String()})
}
