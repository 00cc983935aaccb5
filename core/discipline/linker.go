package discipline

import (
	"context"
	"fmt"
	"strings"

	"bantay-pod/core/store"
	"bantay-pod/core/utils"
)

type CaseRequest struct {
	IncidentID   *int64 `json:"incident_id,omitempty"`
	EscalationID *int64 `json:"escalation_id,omitempty"`
	Respondent   string `json:"respondent"`
	Violation    string `json:"violation"`
	Status       string `json:"status"`
	Findings     string `json:"findings"`
	Agreement    string `json:"agreement"`
	Penalty      string `json:"penalty"`
	School       string `json:"school"`
	Grade        string `json:"grade"`
	Section      string `json:"section"`
	Actor        string `json:"-"`
}

// genericViolationLabels are placeholder violation names that carry no
// information; an escalation-linked case replaces them with the student's
// actual aggregated Minor violations.
var genericViolationLabels = map[string]struct{}{
	"":                 {},
	"MINOR":            {},
	"MINOR VIOLATION":  {},
	"MINOR VIOLATIONS": {},
	"ESCALATION":       {},
	"ESCALATED":        {},
}

// CreateCaseRecord opens the formal case file for an incident or an
// escalation. The parent row is the source of truth for respondent,
// school and initial status; request fields only fill what the parent
// does not carry.
func (s *Service) CreateCaseRecord(ctx context.Context, req CaseRequest) (*store.CaseRecord, error) {
	if req.IncidentID == nil && req.EscalationID == nil {
		return nil, validationf("a case must reference an incident or an escalation")
	}
	if req.IncidentID != nil && req.EscalationID != nil {
		return nil, validationf("a case references either an incident or an escalation, not both")
	}
	if req.EscalationID != nil {
		return s.createEscalationCase(ctx, req)
	}
	return s.createIncidentCase(ctx, req)
}

func (s *Service) createEscalationCase(ctx context.Context, req CaseRequest) (*store.CaseRecord, error) {
	esc, err := s.escalations.GetEscalation(ctx, *req.EscalationID)
	if err != nil {
		return nil, storeErr("get escalation", err)
	}
	if esc == nil {
		return nil, notFoundf("escalation %d not found", *req.EscalationID)
	}

	violation := strings.TrimSpace(req.Violation)
	if _, generic := genericViolationLabels[strings.ToUpper(violation)]; generic {
		// Re-aggregate rather than reuse the snapshot: more Minors may
		// have landed since the escalation opened.
		violation = s.aggregateMinorViolations(ctx, esc.Respondent, esc.School)
		if violation == "" {
			violation = esc.Violations
		}
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = esc.Status
	}

	rec := &store.CaseRecord{
		EscalationID: &esc.ID,
		Respondent:   esc.Respondent,
		Violation:    violation,
		Category:     CategoryMajor,
		Status:       status,
		Findings:     req.Findings,
		Agreement:    req.Agreement,
		Penalty:      req.Penalty,
		School:       esc.School,
		Grade:        esc.Grade,
		Section:      esc.Section,
	}
	if _, err := s.cases.CreateCase(ctx, rec); err != nil {
		return nil, storeErr("create case", err)
	}
	s.audit(ctx, req.Actor, "case.created", fmt.Sprintf("id=%d escalation=%d respondent=%s", rec.ID, esc.ID, rec.Respondent))
	return rec, nil
}

func (s *Service) createIncidentCase(ctx context.Context, req CaseRequest) (*store.CaseRecord, error) {
	incident, err := s.incidents.GetIncident(ctx, *req.IncidentID)
	if err != nil {
		return nil, storeErr("get incident", err)
	}
	if incident == nil {
		return nil, notFoundf("incident %d not found", *req.IncidentID)
	}

	respondent := strings.TrimSpace(req.Respondent)
	if respondent == "" {
		names := utils.SplitRespondents(incident.Respondents)
		if len(names) == 0 {
			return nil, validationf("incident %d has no respondents", incident.ID)
		}
		respondent = names[0]
	}
	violation := strings.TrimSpace(req.Violation)
	if violation == "" {
		violation = incident.Violation
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = incident.Status
	}
	school := strings.TrimSpace(req.School)
	if school == "" {
		school = incident.School
	}

	identity := s.resolver.Resolve(ctx, respondent, school)
	grade := strings.TrimSpace(req.Grade)
	if grade == "" {
		grade = identity.Grade
	}
	section := strings.TrimSpace(req.Section)
	if section == "" {
		section = identity.Section
	}
	if identity.Name != "" {
		respondent = identity.Name
	}

	rec := &store.CaseRecord{
		IncidentID: &incident.ID,
		Respondent: respondent,
		Violation:  violation,
		Category:   s.classifier.Classify(ctx, violation),
		Status:     status,
		Findings:   req.Findings,
		Agreement:  req.Agreement,
		Penalty:    req.Penalty,
		School:     school,
		Grade:      grade,
		Section:    section,
	}
	if _, err := s.cases.CreateCase(ctx, rec); err != nil {
		return nil, storeErr("create case", err)
	}
	s.audit(ctx, req.Actor, "case.created", fmt.Sprintf("id=%d incident=%d respondent=%s", rec.ID, incident.ID, rec.Respondent))

	s.reconcileIncidentRespondents(ctx, incident, rec.Respondent)
	return rec, nil
}

// reconcileIncidentRespondents rewrites a matching respondent fragment on
// the incident to the canonical spelling the case record now carries, so
// later name matching lands on the same student.
func (s *Service) reconcileIncidentRespondents(ctx context.Context, incident *store.Incident, canonical string) {
	names := utils.SplitRespondents(incident.Respondents)
	changed := false
	for i, name := range names {
		if name == canonical {
			return
		}
		if utils.NamesMatch(name, canonical) {
			names[i] = canonical
			changed = true
			break
		}
	}
	if !changed {
		return
	}
	if err := s.incidents.UpdateIncidentRespondents(ctx, incident.ID, utils.JoinRespondents(names)); err != nil {
		s.logger.Errorf("reconcile respondents on incident %d: %v", incident.ID, err)
	}
}

func (s *Service) GetCaseRecord(ctx context.Context, id int64) (*store.CaseRecord, error) {
	rec, err := s.cases.GetCase(ctx, id)
	if err != nil {
		return nil, storeErr("get case", err)
	}
	if rec == nil {
		return nil, notFoundf("case %d not found", id)
	}
	return rec, nil
}

func (s *Service) ListCaseRecords(ctx context.Context, filter store.CaseFilter) ([]store.CaseRecord, error) {
	items, err := s.cases.ListCases(ctx, filter)
	if err != nil {
		return nil, storeErr("list cases", err)
	}
	return items, nil
}

type PartBRequest struct {
	Findings  string `json:"findings"`
	Agreement string `json:"agreement"`
	Penalty   string `json:"penalty"`
	Status    string `json:"status"`
	Actor     string `json:"-"`
}

// UpdatePartB records the hearing outcome on a case. The update stays on
// the case row: resolution text never propagates to the incident or the
// escalation, only status changes made through the synchronizer do.
func (s *Service) UpdatePartB(ctx context.Context, id int64, req PartBRequest) (*store.CaseRecord, error) {
	rec, err := s.cases.GetCase(ctx, id)
	if err != nil {
		return nil, storeErr("get case", err)
	}
	if rec == nil {
		return nil, notFoundf("case %d not found", id)
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = rec.Status
	}
	if status != rec.Status && !s.cfg.Discipline.AllowStatusOverride && !CanTransition(rec.Status, status) {
		return nil, invalidTransitionf("case %d cannot move from %s to %s", id, rec.Status, status)
	}
	if _, err := s.cases.UpdatePartB(ctx, id, req.Findings, req.Agreement, req.Penalty, status); err != nil {
		return nil, storeErr("update case", err)
	}
	s.audit(ctx, req.Actor, "case.part_b_updated", fmt.Sprintf("id=%d status=%s", id, status))
	return s.cases.GetCase(ctx, id)
}
