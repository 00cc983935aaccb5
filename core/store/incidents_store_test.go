package store

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestCreateIncidentReferenceNumber(t *testing.T) {
	db := newTestDB(t)
	incidents := NewIncidentsStore(db)
	ctx := context.Background()

	reported := time.Date(2026, 3, 14, 8, 30, 0, 0, time.UTC)
	inc := &Incident{
		Respondents: "Juan Dela Cruz",
		Violation:   "Bullying",
		Category:    "Minor",
		School:      "Mabini High School",
		ReportedAt:  reported,
	}
	id, err := incidents.CreateIncident(ctx, inc, "DRS-{date}-{id:05}")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	want := fmt.Sprintf("DRS-20260314-%05d", id)
	if inc.RefNo != want {
		t.Fatalf("ref_no = %q, want %q", inc.RefNo, want)
	}

	got, err := incidents.GetIncidentByRefNo(ctx, inc.RefNo)
	if err != nil {
		t.Fatalf("get by ref: %v", err)
	}
	if got == nil || got.ID != id {
		t.Fatalf("lookup by %q returned %+v", inc.RefNo, got)
	}

	// The reference never changes once written, status churn included.
	if _, err := incidents.UpdateIncidentStatus(ctx, id, "Approved"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, err = incidents.GetIncident(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RefNo != want {
		t.Fatalf("ref_no changed to %q after status update", got.RefNo)
	}
}

func TestBuildIncidentRefNoTokens(t *testing.T) {
	reported := time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		format string
		want   string
	}{
		{"DRS-{date}-{id:05}", "DRS-20251102-00042"},
		{"{year}/{id}", "2025/42"},
		{"", "DRS-20251102-00042"},
	}
	for _, tc := range cases {
		if got := buildIncidentRefNo(tc.format, reported, 42); got != tc.want {
			t.Errorf("buildIncidentRefNo(%q) = %q, want %q", tc.format, got, tc.want)
		}
	}
}

func TestCountMinorIncidentsExcludesStatuses(t *testing.T) {
	db := newTestDB(t)
	incidents := NewIncidentsStore(db)
	ctx := context.Background()

	seed := []struct {
		respondents string
		category    string
		status      string
	}{
		{"Juan Dela Cruz", "Minor", "Pending"},
		{"juan dela cruz, Maria Santos", "Minor", "Approved"},
		{"Juan Dela Cruz", "Minor", "Rejected"},
		{"Juan Dela Cruz", "Minor", "Withdrawn"},
		{"Juan Dela Cruz", "Major", "Pending"},
		{"Pedro Reyes", "Minor", "Pending"},
	}
	for _, row := range seed {
		inc := &Incident{
			Respondents: row.respondents,
			Violation:   "Loitering",
			Category:    row.category,
			School:      "Mabini High School",
			Status:      row.status,
		}
		if _, err := incidents.CreateIncident(ctx, inc, ""); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	count, err := incidents.CountMinorIncidents(ctx, "Juan Dela Cruz", "Mabini High School", []string{"Rejected", "Withdrawn"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2 (rejected, withdrawn, major and other students excluded)", count)
	}

	items, err := incidents.ListMinorIncidents(ctx, "Juan Dela Cruz", "Mabini High School")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// ListMinorIncidents keeps every status; callers filter.
	if len(items) != 4 {
		t.Fatalf("list = %d rows, want 4", len(items))
	}
}
