package discipline

import (
	"context"
	"sort"
	"strings"
	"time"

	"bantay-pod/core/store"
	"bantay-pod/core/utils"
)

type ViewFilter struct {
	School   string
	Division string
	District string
	Region   string
	Status   string
}

// CaseView is one row of the consolidated discipline ledger. Consolidated
// rows carry a negative ID so they can never collide with, or be mistaken
// for, a real case record.
type CaseView struct {
	ID             int64     `json:"id"`
	IncidentID     *int64    `json:"incident_id,omitempty"`
	EscalationID   *int64    `json:"escalation_id,omitempty"`
	Respondent     string    `json:"respondent"`
	Violation      string    `json:"violation"`
	Category       string    `json:"category"`
	Status         string    `json:"status"`
	School         string    `json:"school"`
	Grade          string    `json:"grade"`
	Section        string    `json:"section"`
	ViolationCount int       `json:"violation_count"`
	Consolidated   bool      `json:"consolidated"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ConsolidatedView renders the case ledger the discipline office reviews.
// Major and Prohibited cases appear as-is. Minor cases stay invisible
// until a student accumulates the escalation threshold; at that point the
// whole group collapses into a single consolidated row.
func (s *Service) ConsolidatedView(ctx context.Context, filter ViewFilter) ([]CaseView, error) {
	records, err := s.cases.ListCases(ctx, store.CaseFilter{
		School:   filter.School,
		Division: filter.Division,
		District: filter.District,
		Region:   filter.Region,
		Status:   filter.Status,
	})
	if err != nil {
		return nil, storeErr("list cases", err)
	}

	threshold := s.cfg.EffectiveThreshold()
	var views []CaseView
	minorGroups := map[string][]store.CaseRecord{}
	var minorOrder []string

	for _, rec := range records {
		if rec.Category != CategoryMinor {
			views = append(views, CaseView{
				ID:             rec.ID,
				IncidentID:     rec.IncidentID,
				EscalationID:   rec.EscalationID,
				Respondent:     rec.Respondent,
				Violation:      rec.Violation,
				Category:       rec.Category,
				Status:         rec.Status,
				School:         rec.School,
				Grade:          rec.Grade,
				Section:        rec.Section,
				ViolationCount: 1,
				UpdatedAt:      rec.UpdatedAt,
			})
			continue
		}
		key := utils.StripName(rec.Respondent)
		if key == "" {
			key = strings.ToUpper(strings.TrimSpace(rec.Respondent))
		}
		if _, ok := minorGroups[key]; !ok {
			minorOrder = append(minorOrder, key)
		}
		minorGroups[key] = append(minorGroups[key], rec)
	}

	for _, key := range minorOrder {
		group := minorGroups[key]
		if len(group) < threshold {
			continue
		}
		views = append(views, consolidateMinors(group))
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].UpdatedAt.After(views[j].UpdatedAt)
	})
	return views, nil
}

// consolidateMinors collapses a student's Minor cases into one synthetic
// row. ListCases returns newest first, so group[0] is the latest record
// and supplies the display fields.
func consolidateMinors(group []store.CaseRecord) CaseView {
	latest := group[0]
	seen := map[string]struct{}{}
	var violations []string
	for _, rec := range group {
		v := strings.TrimSpace(rec.Violation)
		key := strings.ToUpper(v)
		if v == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		violations = append(violations, v)
	}
	return CaseView{
		ID:             -latest.ID,
		EscalationID:   latest.EscalationID,
		Respondent:     latest.Respondent,
		Violation:      strings.Join(violations, ", "),
		Category:       CategoryMajor,
		Status:         latest.Status,
		School:         latest.School,
		Grade:          latest.Grade,
		Section:        latest.Section,
		ViolationCount: len(group),
		Consolidated:   true,
		UpdatedAt:      latest.UpdatedAt,
	}
}
