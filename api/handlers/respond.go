package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"bantay-pod/core/discipline"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a domain failure kind onto an HTTP status. Store errors
// stay generic so internals never leak to the caller.
func writeError(w http.ResponseWriter, err error) {
	kind := discipline.KindOf(err)
	status := http.StatusInternalServerError
	msg := "server error"
	switch kind {
	case discipline.KindNotFound:
		status = http.StatusNotFound
		msg = err.Error()
	case discipline.KindValidation:
		status = http.StatusBadRequest
		msg = err.Error()
	case discipline.KindInvalidTransition:
		status = http.StatusConflict
		msg = err.Error()
	}
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   msg,
		"kind":    string(kind),
	})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

func parseIntDefault(raw string, def int) int {
	val := strings.TrimSpace(raw)
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return parsed
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if val := strings.TrimSpace(part); val != "" {
			out = append(out, val)
		}
	}
	return out
}
