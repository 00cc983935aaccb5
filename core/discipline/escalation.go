package discipline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bantay-pod/core/store"
	"bantay-pod/core/utils"
)

// EvaluateThreshold counts a respondent's qualifying Minor incidents and
// opens an escalation once the configured threshold is reached. Safe to
// invoke redundantly: an existing active escalation makes it a no-op, and
// the partial unique index collapses a concurrent double-create into a
// benign conflict.
func (s *Service) EvaluateThreshold(ctx context.Context, respondent, school, actor string) (*store.Escalation, error) {
	count, err := s.incidents.CountMinorIncidents(ctx, respondent, school, thresholdExcludedStatuses)
	if err != nil {
		return nil, storeErr("count minor incidents", err)
	}
	if count < s.cfg.EffectiveThreshold() {
		return nil, nil
	}
	return s.openEscalation(ctx, respondent, school, count, actor)
}

// CreateOrGetEscalation is the manual path: it returns the existing active
// escalation for the respondent or opens one at the current count
// regardless of the threshold.
func (s *Service) CreateOrGetEscalation(ctx context.Context, respondent, school, actor string) (*store.Escalation, error) {
	if strings.TrimSpace(respondent) == "" {
		return nil, validationf("respondent is required")
	}
	count, err := s.incidents.CountMinorIncidents(ctx, respondent, school, thresholdExcludedStatuses)
	if err != nil {
		return nil, storeErr("count minor incidents", err)
	}
	return s.openEscalation(ctx, respondent, school, count, actor)
}

func (s *Service) openEscalation(ctx context.Context, respondent, school string, count int, actor string) (*store.Escalation, error) {
	identity := s.resolver.Resolve(ctx, respondent, school)
	name := strings.TrimSpace(respondent)
	if identity.Name != "" {
		name = identity.Name
	}

	existing, err := s.escalations.GetActiveEscalation(ctx, name, identity.Grade, identity.Section)
	if err != nil {
		return nil, storeErr("get active escalation", err)
	}
	if existing != nil {
		return existing, nil
	}

	esc := &store.Escalation{
		Respondent: name,
		Grade:      identity.Grade,
		Section:    identity.Section,
		School:     identity.School,
		MinorCount: count,
		Violations: s.aggregateMinorViolations(ctx, respondent, school),
		Status:     StatusActive,
	}
	if _, err := s.escalations.CreateEscalation(ctx, esc); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Lost a race with a concurrent create; the winner's row is
			// the one active escalation for this student.
			existing, gerr := s.escalations.GetActiveEscalation(ctx, name, identity.Grade, identity.Section)
			if gerr != nil {
				return nil, storeErr("get active escalation", gerr)
			}
			return existing, nil
		}
		return nil, storeErr("create escalation", err)
	}
	s.audit(ctx, actor, "escalation.opened", fmt.Sprintf("id=%d respondent=%s count=%d", esc.ID, esc.Respondent, esc.MinorCount))
	return esc, nil
}

// aggregateMinorViolations returns the distinct qualifying Minor violation
// names for a respondent, most recent first.
func (s *Service) aggregateMinorViolations(ctx context.Context, respondent, school string) string {
	items, err := s.incidents.ListMinorIncidents(ctx, respondent, school)
	if err != nil {
		s.logger.Errorf("aggregate violations for %q: %v", respondent, err)
		return ""
	}
	excluded := map[string]struct{}{}
	for _, st := range thresholdExcludedStatuses {
		excluded[st] = struct{}{}
	}
	seen := map[string]struct{}{}
	var names []string
	for _, inc := range items {
		if _, skip := excluded[inc.Status]; skip {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(inc.Violation))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, strings.TrimSpace(inc.Violation))
	}
	return strings.Join(names, ", ")
}

func (s *Service) GetEscalation(ctx context.Context, id int64) (*store.Escalation, error) {
	esc, err := s.escalations.GetEscalation(ctx, id)
	if err != nil {
		return nil, storeErr("get escalation", err)
	}
	if esc == nil {
		return nil, notFoundf("escalation %d not found", id)
	}
	return esc, nil
}

func (s *Service) ListEscalations(ctx context.Context, filter store.EscalationFilter) ([]store.Escalation, error) {
	items, err := s.escalations.ListEscalations(ctx, filter)
	if err != nil {
		return nil, storeErr("list escalations", err)
	}
	return items, nil
}

// ReconcileDuplicateEscalations withdraws all but the oldest active
// escalation per (respondent, grade, section). Fresh duplicates are
// prevented by the unique index; this pass cleans up rows imported from
// the predecessor system.
func (s *Service) ReconcileDuplicateEscalations(ctx context.Context, actor string) (int, error) {
	items, err := s.escalations.ListActiveEscalations(ctx)
	if err != nil {
		return 0, storeErr("list active escalations", err)
	}
	type key struct{ respondent, grade, section string }
	seen := map[key]int64{}
	withdrawn := 0
	for _, esc := range items {
		k := key{utils.NormalizeName(esc.Respondent), esc.Grade, esc.Section}
		if _, ok := seen[k]; !ok {
			seen[k] = esc.ID
			continue
		}
		if _, err := s.escalations.UpdateEscalationStatus(ctx, esc.ID, StatusWithdrawn); err != nil {
			return withdrawn, storeErr("withdraw duplicate escalation", err)
		}
		withdrawn++
		s.audit(ctx, actor, "escalation.duplicate_withdrawn", fmt.Sprintf("id=%d kept=%d respondent=%s", esc.ID, seen[k], esc.Respondent))
	}
	return withdrawn, nil
}
