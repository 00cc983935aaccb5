package discipline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bantay-pod/core/store"
	"bantay-pod/core/utils"
)

type IncidentRequest struct {
	Respondents string    `json:"respondents"`
	Violation   string    `json:"violation"`
	School      string    `json:"school"`
	Status      string    `json:"status"`
	ReportedAt  time.Time `json:"reported_at"`
	Actor       string    `json:"-"`
}

// CreateIncident records a new incident: it classifies the violation,
// writes the row with its immutable reference number and then runs the
// escalation threshold evaluation for every named respondent.
func (s *Service) CreateIncident(ctx context.Context, req IncidentRequest) (*store.Incident, error) {
	respondents := utils.SplitRespondents(req.Respondents)
	if len(respondents) == 0 {
		return nil, validationf("at least one respondent is required")
	}
	if strings.TrimSpace(req.Violation) == "" {
		return nil, validationf("violation is required")
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = StatusPending
	}
	if !KnownStatus(status) && !s.cfg.Discipline.AllowStatusOverride {
		return nil, validationf("unknown status %q", status)
	}

	incident := &store.Incident{
		Respondents: utils.JoinRespondents(respondents),
		Violation:   strings.TrimSpace(req.Violation),
		Category:    s.classifier.Classify(ctx, req.Violation),
		School:      strings.TrimSpace(req.School),
		Status:      status,
		ReportedAt:  req.ReportedAt,
	}
	if _, err := s.incidents.CreateIncident(ctx, incident, s.cfg.Discipline.RefNoFormat); err != nil {
		return nil, storeErr("create incident", err)
	}
	s.audit(ctx, req.Actor, "incident.created", fmt.Sprintf("id=%d ref=%s", incident.ID, incident.RefNo))

	// Threshold evaluation is synchronous but never fails intake: the
	// incident is already recorded, and re-invocation is a no-op once an
	// escalation exists.
	for _, name := range respondents {
		if _, err := s.EvaluateThreshold(ctx, name, incident.School, req.Actor); err != nil {
			s.logger.Errorf("threshold evaluation for %q: %v", name, err)
		}
	}
	return incident, nil
}

func (s *Service) GetIncident(ctx context.Context, id int64) (*store.Incident, error) {
	incident, err := s.incidents.GetIncident(ctx, id)
	if err != nil {
		return nil, storeErr("get incident", err)
	}
	if incident == nil {
		return nil, notFoundf("incident %d not found", id)
	}
	return incident, nil
}

func (s *Service) GetIncidentByReference(ctx context.Context, refNo string) (*store.Incident, error) {
	incident, err := s.incidents.GetIncidentByRefNo(ctx, refNo)
	if err != nil {
		return nil, storeErr("get incident by reference", err)
	}
	if incident == nil {
		return nil, notFoundf("no incident with reference %q", refNo)
	}
	return incident, nil
}

func (s *Service) ListIncidents(ctx context.Context, filter store.IncidentFilter) ([]store.Incident, error) {
	items, err := s.incidents.ListIncidents(ctx, filter)
	if err != nil {
		return nil, storeErr("list incidents", err)
	}
	return items, nil
}
