package handlers

import (
	"net/http"
	"strings"

	"bantay-pod/core/discipline"
	"bantay-pod/core/utils"
)

type ViewHandler struct {
	svc    *discipline.Service
	logger *utils.Logger
}

func NewViewHandler(svc *discipline.Service, logger *utils.Logger) *ViewHandler {
	return &ViewHandler{svc: svc, logger: logger}
}

// Consolidated serves the discipline office ledger: Major and Prohibited
// cases plus one consolidated row per student at or past the Minor
// threshold.
func (h *ViewHandler) Consolidated(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := discipline.ViewFilter{
		School:   strings.TrimSpace(q.Get("school")),
		Division: strings.TrimSpace(q.Get("division")),
		District: strings.TrimSpace(q.Get("district")),
		Region:   strings.TrimSpace(q.Get("region")),
		Status:   strings.TrimSpace(q.Get("status")),
	}
	items, err := h.svc.ConsolidatedView(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []discipline.CaseView{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
