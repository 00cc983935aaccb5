package handlers

import (
	"encoding/csv"
	"net/http"
	"strings"
	"time"

	"bantay-pod/core/store"
)

type LogsHandler struct {
	audits store.AuditStore
}

func NewLogsHandler(audits store.AuditStore) *LogsHandler {
	return &LogsHandler{audits: audits}
}

func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.audits == nil {
		writeJSON(w, http.StatusOK, map[string]any{"items": []store.AuditEntry{}})
		return
	}
	limit := parseIntDefault(r.URL.Query().Get("limit"), 500)
	if limit > 5000 {
		limit = 5000
	}
	items, err := h.audits.List(r.Context(), limit)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []store.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *LogsHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.audits == nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	limit := parseIntDefault(r.URL.Query().Get("limit"), 5000)
	if limit <= 0 || limit > 5000 {
		limit = 5000
	}
	items, err := h.audits.List(r.Context(), limit)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	filename := "discipline_audit_" + time.Now().UTC().Format("20060102_150405") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"time", "actor", "action", "details"})
	for i := range items {
		_ = writer.Write([]string{
			items[i].CreatedAt.UTC().Format(time.RFC3339),
			strings.TrimSpace(items[i].Actor),
			strings.TrimSpace(items[i].Action),
			strings.TrimSpace(items[i].Details),
		})
	}
	writer.Flush()
}
