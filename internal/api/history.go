package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warimas/backoffice/internal/apperr"
	"github.com/warimas/backoffice/internal/audit"
	"github.com/warimas/backoffice/internal/utils"
)

// HistoryHandler serves the audit trail of any audited entity.
type HistoryHandler struct {
	Audit audit.Repository
}

func (h *HistoryHandler) Register(r chi.Router) {
	r.Get("/history/{entity}/{id}", h.history)
}

func (h *HistoryHandler) history(w http.ResponseWriter, r *http.Request) {
	team, ok := teamID(w, r)
	if !ok {
		return
	}
	kind, ok := audit.ParseKind(chi.URLParam(r, "entity"))
	if !ok {
		utils.WriteError(w, http.StatusNotFound, string(apperr.KindNotFound), "unknown entity")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	entries, err := h.Audit.History(r.Context(), team, audit.Subject{Kind: kind, ID: id})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"items": entries})
}
