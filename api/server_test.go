package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"bantay-pod/config"
	"bantay-pod/core/discipline"
	"bantay-pod/core/rbac"
	"bantay-pod/core/store"
	"bantay-pod/core/utils"
)

func newTestServer(t *testing.T) (*httptest.Server, store.RosterStore) {
	t.Helper()
	cfg := &config.AppConfig{
		DBPath: filepath.Join(t.TempDir(), "api.db"),
		Security: config.SecurityConfig{
			RoleHeader:  "X-Bantay-Role",
			ActorHeader: "X-Bantay-Actor",
		},
		Discipline: config.DisciplineConfig{
			RefNoFormat:         "DRS-{date}-{id:05}",
			EscalationThreshold: 3,
			DefaultCategory:     "Incident Report",
		},
	}
	logger := utils.NewLogger()
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, logger); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	roster := store.NewRosterStore(db)
	svc := discipline.NewService(cfg, discipline.Deps{
		Roster:      roster,
		Incidents:   store.NewIncidentsStore(db),
		Cases:       store.NewCasesStore(db),
		Escalations: store.NewEscalationsStore(db),
		Cascade:     store.NewCascadeStore(db),
		Audits:      store.NewAuditStore(db),
	}, logger)
	policy, err := rbac.NewPolicy()
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	server := NewServer(cfg, ServerDeps{Service: svc, Policy: policy, Audits: store.NewAuditStore(db)}, logger)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	if _, err := roster.CreateViolationType(context.Background(), &store.ViolationType{Name: "Bullying", Category: "Minor", Active: true}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return ts, roster
}

func doRequest(t *testing.T, method, url, role string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if role != "" {
		req.Header.Set("X-Bantay-Role", role)
		req.Header.Set("X-Bantay-Actor", role+".user")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := doRequest(t, http.MethodGet, ts.URL+"/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
}

func TestRoleGuard(t *testing.T) {
	ts, _ := newTestServer(t)

	// No role header at all: unauthorized.
	resp := doRequest(t, http.MethodGet, ts.URL+"/api/incidents/", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no-role status = %d, want 401", resp.StatusCode)
	}

	// Staff can file but not read the consolidated ledger.
	resp = doRequest(t, http.MethodGet, ts.URL+"/api/view/consolidated", "staff", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("staff view status = %d, want 403", resp.StatusCode)
	}
	resp = doRequest(t, http.MethodGet, ts.URL+"/api/view/consolidated", "pod", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pod view status = %d, want 200", resp.StatusCode)
	}

	// Admin inherits everything and also reads the audit feed.
	resp = doRequest(t, http.MethodGet, ts.URL+"/api/logs/", "admin", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin logs status = %d, want 200", resp.StatusCode)
	}
	resp = doRequest(t, http.MethodGet, ts.URL+"/api/logs/", "pod", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("pod logs status = %d, want 403", resp.StatusCode)
	}
}

func TestIncidentLifecycleOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doRequest(t, http.MethodPost, ts.URL+"/api/incidents/", "staff", map[string]any{
		"respondents": "Juan Dela Cruz",
		"violation":   "Bullying",
		"school":      "Mabini High School",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	var created struct {
		Item store.Incident `json:"item"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Item.RefNo == "" || created.Item.Category != "Minor" {
		t.Fatalf("created item %+v", created.Item)
	}

	// Staff cannot change statuses.
	resp = doRequest(t, http.MethodPut, ts.URL+"/api/incidents/1/status", "staff", map[string]string{"status": "Approved"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("staff status change = %d, want 403", resp.StatusCode)
	}

	// The discipline office can, within the transition table.
	resp = doRequest(t, http.MethodPut, ts.URL+"/api/incidents/1/status", "pod", map[string]string{"status": "Approved"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pod status change = %d, want 200", resp.StatusCode)
	}
	resp = doRequest(t, http.MethodPut, ts.URL+"/api/incidents/1/status", "pod", map[string]string{"status": "Reported"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("invalid transition = %d, want 409", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodGet, ts.URL+"/api/incidents/by-ref/"+created.Item.RefNo, "staff", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("by-ref status = %d", resp.StatusCode)
	}
}
