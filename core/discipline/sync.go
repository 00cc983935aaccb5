package discipline

import (
	"context"
	"fmt"
	"strings"

	"bantay-pod/core/store"
)

// UpdateIncidentStatus moves an incident to a new status and propagates it
// down to the case records linked to that incident. Propagation is one
// directional and one shot: nothing flows back up, and siblings of the
// incident are untouched.
func (s *Service) UpdateIncidentStatus(ctx context.Context, id int64, status, actor string) (*store.Incident, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, validationf("status is required")
	}
	incident, err := s.incidents.GetIncident(ctx, id)
	if err != nil {
		return nil, storeErr("get incident", err)
	}
	if incident == nil {
		return nil, notFoundf("incident %d not found", id)
	}
	if incident.Status == status {
		return incident, nil
	}
	if !s.cfg.Discipline.AllowStatusOverride && !CanTransition(incident.Status, status) {
		return nil, invalidTransitionf("incident %d cannot move from %s to %s", id, incident.Status, status)
	}

	result, err := s.cascade.PropagateIncidentStatus(ctx, id, status)
	if err != nil {
		return nil, storeErr("propagate incident status", err)
	}
	s.audit(ctx, actor, "incident.status_changed",
		fmt.Sprintf("id=%d %s->%s cases=%d", id, incident.Status, status, result.CasesUpdated))
	incident.Status = status
	return incident, nil
}

// UpdateEscalationStatus moves an escalation and fans the status out to its
// case records and to the respondent's Minor incidents that are still in a
// workable status. Terminal or rejected incidents keep their state.
func (s *Service) UpdateEscalationStatus(ctx context.Context, id int64, status, actor string) (*store.Escalation, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, validationf("status is required")
	}
	esc, err := s.escalations.GetEscalation(ctx, id)
	if err != nil {
		return nil, storeErr("get escalation", err)
	}
	if esc == nil {
		return nil, notFoundf("escalation %d not found", id)
	}
	if esc.Status == status {
		return esc, nil
	}
	if !s.cfg.Discipline.AllowStatusOverride && !CanTransition(esc.Status, status) {
		return nil, invalidTransitionf("escalation %d cannot move from %s to %s", id, esc.Status, status)
	}

	result, err := s.cascade.PropagateEscalationStatus(ctx, esc, status, siblingSyncStatuses)
	if err != nil {
		return nil, storeErr("propagate escalation status", err)
	}
	s.audit(ctx, actor, "escalation.status_changed",
		fmt.Sprintf("id=%d %s->%s cases=%d incidents=%d", id, esc.Status, status, result.CasesUpdated, result.IncidentsUpdated))
	esc.Status = status
	return esc, nil
}
