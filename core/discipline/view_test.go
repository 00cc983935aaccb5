package discipline

import (
	"context"
	"strings"
	"testing"

	"bantay-pod/core/store"
)

func (e *testEnv) seedCase(t *testing.T, respondent, violation, category, status string) *store.CaseRecord {
	t.Helper()
	rec := &store.CaseRecord{
		Respondent: respondent,
		Violation:  violation,
		Category:   category,
		Status:     status,
		School:     "Mabini High School",
		Grade:      "9",
		Section:    "Sampaguita",
	}
	if _, err := e.cases.CreateCase(context.Background(), rec); err != nil {
		t.Fatalf("seed case: %v", err)
	}
	return rec
}

func TestConsolidatedViewVisibilityGate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Two Minors stay invisible.
	env.seedCase(t, "Juan Dela Cruz", "Bullying", "Minor", "Pending")
	env.seedCase(t, "Juan Dela Cruz", "Loitering", "Minor", "Pending")
	// Majors always show.
	major := env.seedCase(t, "Maria Santos", "Fighting", "Major", "UnderReview")

	views, err := env.svc.ConsolidatedView(ctx, ViewFilter{})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("rows = %d, want only the major case", len(views))
	}
	if views[0].ID != major.ID || views[0].Consolidated {
		t.Fatalf("unexpected row %+v", views[0])
	}

	// The third Minor flips the group into one consolidated row.
	latest := env.seedCase(t, "juan dela cruz", "Cutting Classes", "Minor", "Pending")
	views, err = env.svc.ConsolidatedView(ctx, ViewFilter{})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("rows = %d, want major + consolidated", len(views))
	}
	var consolidated *CaseView
	for i := range views {
		if views[i].Consolidated {
			consolidated = &views[i]
		}
	}
	if consolidated == nil {
		t.Fatal("no consolidated row")
	}
	if consolidated.ID != -latest.ID {
		t.Fatalf("consolidated id = %d, want %d", consolidated.ID, -latest.ID)
	}
	if consolidated.ViolationCount != 3 {
		t.Fatalf("violation count = %d, want 3", consolidated.ViolationCount)
	}
	if consolidated.Category != CategoryMajor {
		t.Fatalf("consolidated category = %q", consolidated.Category)
	}
	for _, v := range []string{"Bullying", "Loitering", "Cutting Classes"} {
		if !strings.Contains(consolidated.Violation, v) {
			t.Errorf("consolidated violation %q missing %s", consolidated.Violation, v)
		}
	}
}

func TestConsolidatedViewNeverCollidesWithRealIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		env.seedCase(t, "Juan Dela Cruz", "Bullying", "Minor", "Pending")
	}
	views, err := env.svc.ConsolidatedView(ctx, ViewFilter{})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("rows = %d", len(views))
	}
	if views[0].ID >= 0 {
		t.Fatalf("consolidated row id %d is not negative", views[0].ID)
	}
}

func TestConsolidatedViewGroupsBySpellingVariants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Same student, drifting punctuation; strip-keyed grouping unifies them.
	env.seedCase(t, "Dela Cruz, Juan", "Bullying", "Minor", "Pending")
	env.seedCase(t, "Dela Cruz Juan", "Loitering", "Minor", "Pending")
	env.seedCase(t, "DELA CRUZ JUAN", "Cutting Classes", "Minor", "Pending")

	views, err := env.svc.ConsolidatedView(ctx, ViewFilter{})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(views) != 1 || !views[0].Consolidated {
		t.Fatalf("spelling variants not grouped: %+v", views)
	}
	if views[0].ViolationCount != 3 {
		t.Fatalf("count = %d", views[0].ViolationCount)
	}
}
