package handlers

import (
	"net/http"
	"strings"

	"bantay-pod/core/auth"
	"bantay-pod/core/discipline"
	"bantay-pod/core/store"
	"bantay-pod/core/utils"
)

type EscalationsHandler struct {
	svc    *discipline.Service
	logger *utils.Logger
}

func NewEscalationsHandler(svc *discipline.Service, logger *utils.Logger) *EscalationsHandler {
	return &EscalationsHandler{svc: svc, logger: logger}
}

type escalationRequest struct {
	Respondent string `json:"respondent"`
	School     string `json:"school"`
}

// Create is the manual escalation path for the discipline office; the
// automatic path runs inside incident intake.
func (h *EscalationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req escalationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid json"})
		return
	}
	actor := auth.ActorFromContext(r.Context()).Name
	esc, err := h.svc.CreateOrGetEscalation(r.Context(), req.Respondent, req.School, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"item": esc})
}

func (h *EscalationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid id"})
		return
	}
	esc, err := h.svc.GetEscalation(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": esc})
}

func (h *EscalationsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.EscalationFilter{
		School:   strings.TrimSpace(q.Get("school")),
		Status:   strings.TrimSpace(q.Get("status")),
		StatusIn: splitCSV(q.Get("status_in")),
		Limit:    parseIntDefault(q.Get("limit"), 100),
		Offset:   parseIntDefault(q.Get("offset"), 0),
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	items, err := h.svc.ListEscalations(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []store.Escalation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *EscalationsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid id"})
		return
	}
	var req statusChangeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid json"})
		return
	}
	actor := auth.ActorFromContext(r.Context()).Name
	esc, err := h.svc.UpdateEscalationStatus(r.Context(), id, req.Status, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": esc})
}
