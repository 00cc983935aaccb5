package discipline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bantay-pod/config"
	"bantay-pod/core/store"
	"bantay-pod/core/utils"
)

type testEnv struct {
	svc         *Service
	roster      store.RosterStore
	incidents   store.IncidentsStore
	cases       store.CasesStore
	escalations store.EscalationsStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.AppConfig{
		DBPath: filepath.Join(t.TempDir(), "discipline.db"),
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
	incidents := store.NewIncidentsStore(db)
	cases := store.NewCasesStore(db)
	escalations := store.NewEscalationsStore(db)
	svc := NewService(cfg, Deps{
		Roster:      roster,
		Incidents:   incidents,
		Cases:       cases,
		Escalations: escalations,
		Cascade:     store.NewCascadeStore(db),
		Audits:      store.NewAuditStore(db),
	}, logger)
	return &testEnv{svc: svc, roster: roster, incidents: incidents, cases: cases, escalations: escalations}
}

func (e *testEnv) seedRoster(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, vt := range []store.ViolationType{
		{Name: "Bullying", Category: "Minor", Active: true},
		{Name: "Loitering", Category: "Minor", Active: true},
		{Name: "Cutting Classes", Category: "Minor", Active: true},
		{Name: "Fighting", Category: "Major", Active: true},
		{Name: "Possession of Weapons", Category: "Prohibited", Active: true},
	} {
		rec := vt
		if _, err := e.roster.CreateViolationType(ctx, &rec); err != nil {
			t.Fatalf("seed violation type: %v", err)
		}
	}
	adviser := &store.Employee{Name: "Rosa Mendoza", Position: "Adviser", Grade: "9", Section: "Sampaguita", School: "Mabini High School"}
	if _, err := e.roster.CreateEmployee(context.Background(), adviser); err != nil {
		t.Fatalf("seed adviser: %v", err)
	}
	for _, st := range []store.Student{
		{Name: "Juan Dela Cruz", School: "Mabini High School", Grade: "9", Section: "Sampaguita", RegisteredAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		{Name: "Maria Santos", School: "Mabini High School", Grade: "8", Section: "Ilang-Ilang", RegisteredAt: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)},
		{Name: "Pedro Reyes", School: "Mabini High School", Grade: "9", Section: "Rosal", RegisteredAt: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)},
	} {
		rec := st
		if _, err := e.roster.CreateStudent(ctx, &rec); err != nil {
			t.Fatalf("seed student: %v", err)
		}
	}
}

func TestClassifierToleratesSpelling(t *testing.T) {
	env := newTestEnv(t)
	env.seedRoster(t)
	ctx := context.Background()

	if got := env.svc.Classifier().Classify(ctx, " bullying "); got != "Minor" {
		t.Fatalf("Classify(\" bullying \") = %q, want Minor", got)
	}
	if got := env.svc.Classifier().Classify(ctx, "FIGHTING"); got != "Major" {
		t.Fatalf("Classify(FIGHTING) = %q, want Major", got)
	}
	// Unknown violations never block intake; they fall back to the default.
	if got := env.svc.Classifier().Classify(ctx, "Something Unlisted"); got != "Incident Report" {
		t.Fatalf("Classify(unknown) = %q, want default", got)
	}
}

func TestResolverCascade(t *testing.T) {
	env := newTestEnv(t)
	env.seedRoster(t)
	ctx := context.Background()

	// Exact, case-insensitive.
	id := env.svc.Resolver().Resolve(ctx, "juan dela cruz", "Mabini High School")
	if id.Grade != "9" || id.Section != "Sampaguita" {
		t.Fatalf("exact match resolved %+v", id)
	}
	if id.Adviser != "Rosa Mendoza" {
		t.Fatalf("adviser = %q, want Rosa Mendoza", id.Adviser)
	}

	// Punctuation-stripped.
	id = env.svc.Resolver().Resolve(ctx, "Dela Cruz, Juan", "")
	if id.StudentID == 0 || id.Name != "Juan Dela Cruz" {
		t.Fatalf("stripped match resolved %+v", id)
	}

	// Substring.
	id = env.svc.Resolver().Resolve(ctx, "Maria", "Mabini High School")
	if id.Name != "Maria Santos" {
		t.Fatalf("substring match resolved %+v", id)
	}

	// No match: identity keeps the raw name with empty fields.
	id = env.svc.Resolver().Resolve(ctx, "Jose Rizal", "Mabini High School")
	if id.StudentID != 0 || id.Grade != "" {
		t.Fatalf("unexpected match for unknown name: %+v", id)
	}
}

func TestResolverTieBreaksNewestRegistration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	older := &store.Student{Name: "Ana Lim", School: "Mabini High School", Grade: "7", Section: "A", RegisteredAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	newer := &store.Student{Name: "Ana Lim", School: "Mabini High School", Grade: "8", Section: "B", RegisteredAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	if _, err := env.roster.CreateStudent(ctx, older); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := env.roster.CreateStudent(ctx, newer); err != nil {
		t.Fatalf("seed: %v", err)
	}

	id := env.svc.Resolver().Resolve(ctx, "Ana Lim", "Mabini High School")
	if id.StudentID != newer.ID || id.Grade != "8" {
		t.Fatalf("tie-break picked %+v, want newest registration", id)
	}
}
