package store

import (
	"context"
	"errors"
	"testing"
)

func TestCreateEscalationUniqueActive(t *testing.T) {
	db := newTestDB(t)
	escalations := NewEscalationsStore(db)
	ctx := context.Background()

	first := &Escalation{Respondent: "Juan Dela Cruz", Grade: "9", Section: "Sampaguita", School: "Mabini High School", MinorCount: 3}
	if _, err := escalations.CreateEscalation(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}

	dup := &Escalation{Respondent: "Juan Dela Cruz", Grade: "9", Section: "Sampaguita", School: "Mabini High School", MinorCount: 4}
	if _, err := escalations.CreateEscalation(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate active create returned %v, want ErrConflict", err)
	}

	// A different section is a different student key.
	other := &Escalation{Respondent: "Juan Dela Cruz", Grade: "9", Section: "Rosal", MinorCount: 3}
	if _, err := escalations.CreateEscalation(ctx, other); err != nil {
		t.Fatalf("create other section: %v", err)
	}

	// Closing the active escalation frees the slot.
	if _, err := escalations.UpdateEscalationStatus(ctx, first.ID, "Resolved"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	again := &Escalation{Respondent: "Juan Dela Cruz", Grade: "9", Section: "Sampaguita", MinorCount: 3}
	if _, err := escalations.CreateEscalation(ctx, again); err != nil {
		t.Fatalf("create after resolve: %v", err)
	}
}

func TestGetActiveEscalationSkipsTerminal(t *testing.T) {
	db := newTestDB(t)
	escalations := NewEscalationsStore(db)
	ctx := context.Background()

	esc := &Escalation{Respondent: "Maria Santos", Grade: "8", Section: "Ilang-Ilang", MinorCount: 3}
	if _, err := escalations.CreateEscalation(ctx, esc); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := escalations.GetActiveEscalation(ctx, "Maria Santos", "8", "Ilang-Ilang")
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if got == nil || got.ID != esc.ID {
		t.Fatalf("active escalation = %+v", got)
	}

	if _, err := escalations.UpdateEscalationStatus(ctx, esc.ID, "Withdrawn"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	got, err = escalations.GetActiveEscalation(ctx, "Maria Santos", "8", "Ilang-Ilang")
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if got != nil {
		t.Fatalf("withdrawn escalation still reported active: %+v", got)
	}
}
