package handlers

import (
	"net/http"
	"strings"

	"bantay-pod/core/auth"
	"bantay-pod/core/discipline"
	"bantay-pod/core/store"
	"bantay-pod/core/utils"
)

type CasesHandler struct {
	svc    *discipline.Service
	logger *utils.Logger
}

func NewCasesHandler(svc *discipline.Service, logger *utils.Logger) *CasesHandler {
	return &CasesHandler{svc: svc, logger: logger}
}

func (h *CasesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req discipline.CaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid json"})
		return
	}
	req.Actor = auth.ActorFromContext(r.Context()).Name
	rec, err := h.svc.CreateCaseRecord(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"item": rec})
}

func (h *CasesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid id"})
		return
	}
	rec, err := h.svc.GetCaseRecord(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": rec})
}

func (h *CasesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.CaseFilter{
		School:     strings.TrimSpace(q.Get("school")),
		Division:   strings.TrimSpace(q.Get("division")),
		District:   strings.TrimSpace(q.Get("district")),
		Region:     strings.TrimSpace(q.Get("region")),
		Status:     strings.TrimSpace(q.Get("status")),
		Respondent: strings.TrimSpace(q.Get("respondent")),
		Categories: splitCSV(q.Get("categories")),
		Limit:      parseIntDefault(q.Get("limit"), 100),
		Offset:     parseIntDefault(q.Get("offset"), 0),
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	items, err := h.svc.ListCaseRecords(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []store.CaseRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *CasesHandler) UpdatePartB(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid id"})
		return
	}
	var req discipline.PartBRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid json"})
		return
	}
	req.Actor = auth.ActorFromContext(r.Context()).Name
	rec, err := h.svc.UpdatePartB(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": rec})
}
