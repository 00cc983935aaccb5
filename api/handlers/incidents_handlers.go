package handlers

import (
	"net/http"
	"strings"
	"time"

	"bantay-pod/core/auth"
	"bantay-pod/core/discipline"
	"bantay-pod/core/store"
	"bantay-pod/core/utils"
)

type IncidentsHandler struct {
	svc    *discipline.Service
	logger *utils.Logger
}

func NewIncidentsHandler(svc *discipline.Service, logger *utils.Logger) *IncidentsHandler {
	return &IncidentsHandler{svc: svc, logger: logger}
}

func (h *IncidentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req discipline.IncidentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid json"})
		return
	}
	req.Actor = auth.ActorFromContext(r.Context()).Name
	incident, err := h.svc.CreateIncident(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"item": incident})
}

func (h *IncidentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid id"})
		return
	}
	incident, err := h.svc.GetIncident(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": incident})
}

func (h *IncidentsHandler) GetByReference(w http.ResponseWriter, r *http.Request) {
	refNo := strings.TrimSpace(urlParam(r, "ref_no"))
	if refNo == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "reference number is required"})
		return
	}
	incident, err := h.svc.GetIncidentByReference(r.Context(), refNo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": incident})
}

func (h *IncidentsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.IncidentFilter{
		Search:   strings.TrimSpace(q.Get("q")),
		Status:   strings.TrimSpace(q.Get("status")),
		StatusIn: splitCSV(q.Get("status_in")),
		Category: strings.TrimSpace(q.Get("category")),
		School:   strings.TrimSpace(q.Get("school")),
		Limit:    parseIntDefault(q.Get("limit"), 100),
		Offset:   parseIntDefault(q.Get("offset"), 0),
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	items, err := h.svc.ListIncidents(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []store.Incident{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type statusChangeRequest struct {
	Status string `json:"status"`
}

func (h *IncidentsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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
	incident, err := h.svc.UpdateIncidentStatus(r.Context(), id, req.Status, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": incident})
}

// Resolve answers who a respondent name most likely refers to; the intake
// form uses it to prefill grade, section and adviser.
func (h *IncidentsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := strings.TrimSpace(q.Get("name"))
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "name is required"})
		return
	}
	identity := h.svc.Resolver().Resolve(r.Context(), name, strings.TrimSpace(q.Get("school")))
	writeJSON(w, http.StatusOK, map[string]any{"item": identity, "resolved_at": time.Now().UTC()})
}
