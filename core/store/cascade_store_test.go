package store

import (
	"context"
	"testing"
)

func seedIncident(t *testing.T, incidents IncidentsStore, respondents, category, status string) int64 {
	t.Helper()
	inc := &Incident{
		Respondents: respondents,
		Violation:   "Loitering",
		Category:    category,
		School:      "Mabini High School",
		Status:      status,
	}
	id, err := incidents.CreateIncident(context.Background(), inc, "")
	if err != nil {
		t.Fatalf("seed incident: %v", err)
	}
	return id
}

func TestPropagateEscalationStatus(t *testing.T) {
	db := newTestDB(t)
	incidents := NewIncidentsStore(db)
	escalations := NewEscalationsStore(db)
	cases := NewCasesStore(db)
	cascade := NewCascadeStore(db)
	ctx := context.Background()

	pendingID := seedIncident(t, incidents, "Juan Dela Cruz", "Minor", "Pending")
	approvedID := seedIncident(t, incidents, "Juan Dela Cruz, Maria Santos", "Minor", "Approved")
	closedID := seedIncident(t, incidents, "Juan Dela Cruz", "Minor", "Closed")
	otherID := seedIncident(t, incidents, "Pedro Reyes", "Minor", "Pending")

	esc := &Escalation{Respondent: "Juan Dela Cruz", Grade: "9", Section: "Sampaguita", School: "Mabini High School", MinorCount: 3, Status: "Active"}
	if _, err := escalations.CreateEscalation(ctx, esc); err != nil {
		t.Fatalf("create escalation: %v", err)
	}
	rec := &CaseRecord{EscalationID: &esc.ID, Respondent: "Juan Dela Cruz", Violation: "Loitering", Category: "Major", Status: "Active", School: "Mabini High School"}
	if _, err := cases.CreateCase(ctx, rec); err != nil {
		t.Fatalf("create case: %v", err)
	}

	sync := []string{"Pending", "Approved", "Reported", "Calling", "Arrived", "UnderReview", "ParentOnHold"}
	result, err := cascade.PropagateEscalationStatus(ctx, esc, "Resolved", sync)
	if err != nil {
		t.Fatalf("propagate: %v", err)
	}
	if !result.TargetUpdated {
		t.Fatal("escalation row not updated")
	}
	if result.CasesUpdated != 1 {
		t.Fatalf("cases updated = %d, want 1", result.CasesUpdated)
	}
	if result.IncidentsUpdated != 2 {
		t.Fatalf("incidents updated = %d, want 2 (pending and approved)", result.IncidentsUpdated)
	}

	wantStatus := map[int64]string{
		pendingID:  "Resolved",
		approvedID: "Resolved",
		closedID:   "Closed",
		otherID:    "Pending",
	}
	for id, want := range wantStatus {
		inc, err := incidents.GetIncident(ctx, id)
		if err != nil {
			t.Fatalf("get %d: %v", id, err)
		}
		if inc.Status != want {
			t.Errorf("incident %d status = %s, want %s", id, inc.Status, want)
		}
	}
	got, err := cases.GetCase(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get case: %v", err)
	}
	if got.Status != "Resolved" {
		t.Fatalf("case status = %s, want Resolved", got.Status)
	}

	// A second run is a no-op: every target already carries the status or
	// sits outside the sync set.
	result, err = cascade.PropagateEscalationStatus(ctx, esc, "Resolved", sync)
	if err != nil {
		t.Fatalf("repeat propagate: %v", err)
	}
	if result.TargetUpdated || result.CasesUpdated != 0 || result.IncidentsUpdated != 0 {
		t.Fatalf("repeat propagate changed rows: %+v", result)
	}
}

func TestPropagateIncidentStatus(t *testing.T) {
	db := newTestDB(t)
	incidents := NewIncidentsStore(db)
	cases := NewCasesStore(db)
	cascade := NewCascadeStore(db)
	ctx := context.Background()

	id := seedIncident(t, incidents, "Maria Santos", "Major", "Pending")
	rec := &CaseRecord{IncidentID: &id, Respondent: "Maria Santos", Violation: "Fighting", Category: "Major", Status: "Pending"}
	if _, err := cases.CreateCase(ctx, rec); err != nil {
		t.Fatalf("create case: %v", err)
	}
	unrelated := seedIncident(t, incidents, "Maria Santos", "Minor", "Pending")

	result, err := cascade.PropagateIncidentStatus(ctx, id, "UnderReview")
	if err != nil {
		t.Fatalf("propagate: %v", err)
	}
	if !result.TargetUpdated || result.CasesUpdated != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	got, _ := cases.GetCase(ctx, rec.ID)
	if got.Status != "UnderReview" {
		t.Fatalf("case status = %s, want UnderReview", got.Status)
	}
	// Incident propagation is scoped to its own case records only.
	other, _ := incidents.GetIncident(ctx, unrelated)
	if other.Status != "Pending" {
		t.Fatalf("sibling incident moved to %s", other.Status)
	}
}
