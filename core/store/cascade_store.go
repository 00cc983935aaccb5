package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"bantay-pod/core/utils"
)

// CascadeStore runs the multi-table status propagation as one transaction:
// a failure after the direct case-record sync rolls everything back rather
// than leaving an incident and its case file disagreeing.
type CascadeStore interface {
	PropagateIncidentStatus(ctx context.Context, incidentID int64, status string) (CascadeResult, error)
	PropagateEscalationStatus(ctx context.Context, esc *Escalation, status string, siblingStatusIn []string) (CascadeResult, error)
}

type CascadeResult struct {
	TargetUpdated    bool  `json:"target_updated"`
	CasesUpdated     int64 `json:"cases_updated"`
	IncidentsUpdated int64 `json:"incidents_updated"`
}

type cascadeStore struct {
	db *sql.DB
}

func NewCascadeStore(db *sql.DB) CascadeStore {
	return &cascadeStore{db: db}
}

func (s *cascadeStore) PropagateIncidentStatus(ctx context.Context, incidentID int64, status string) (CascadeResult, error) {
	var out CascadeResult
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return out, err
	}
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE incidents SET status=?, updated_at=? WHERE id=? AND status!=?`,
		status, now, incidentID, status)
	if err != nil {
		tx.Rollback()
		return out, err
	}
	if affected, _ := res.RowsAffected(); affected > 0 {
		out.TargetUpdated = true
	}
	res, err = tx.ExecContext(ctx, `
		UPDATE case_records SET status=?, updated_at=? WHERE incident_id=? AND status!=?`,
		status, now, incidentID, status)
	if err != nil {
		tx.Rollback()
		return out, err
	}
	out.CasesUpdated, _ = res.RowsAffected()
	return out, tx.Commit()
}

func (s *cascadeStore) PropagateEscalationStatus(ctx context.Context, esc *Escalation, status string, siblingStatusIn []string) (CascadeResult, error) {
	var out CascadeResult
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return out, err
	}
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE escalations SET status=?, updated_at=? WHERE id=? AND status!=?`,
		status, now, esc.ID, status)
	if err != nil {
		tx.Rollback()
		return out, err
	}
	if affected, _ := res.RowsAffected(); affected > 0 {
		out.TargetUpdated = true
	}

	// Direct-link sync before the broad sibling fan-out: a reader racing
	// the cascade sees the most specific record consistent first.
	res, err = tx.ExecContext(ctx, `
		UPDATE case_records SET status=?, updated_at=? WHERE escalation_id=? AND status!=?`,
		status, now, esc.ID, status)
	if err != nil {
		tx.Rollback()
		return out, err
	}
	out.CasesUpdated, _ = res.RowsAffected()

	siblings, err := s.minorSiblingsTx(ctx, tx, esc.Respondent, esc.School)
	if err != nil {
		tx.Rollback()
		return out, err
	}
	allowed := map[string]struct{}{}
	for _, st := range siblingStatusIn {
		allowed[st] = struct{}{}
	}
	for _, inc := range siblings {
		if inc.Status == status {
			continue
		}
		if _, ok := allowed[inc.Status]; !ok {
			continue
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE incidents SET status=?, updated_at=? WHERE id=? AND status=?`,
			status, now, inc.ID, inc.Status)
		if err != nil {
			tx.Rollback()
			return out, err
		}
		affected, _ := res.RowsAffected()
		out.IncidentsUpdated += affected
	}
	return out, tx.Commit()
}

func (s *cascadeStore) minorSiblingsTx(ctx context.Context, tx *sql.Tx, respondent, school string) ([]Incident, error) {
	clauses := []string{"category='Minor'"}
	var args []any
	if strings.TrimSpace(school) != "" {
		clauses = append(clauses, "school=?")
		args = append(args, strings.TrimSpace(school))
	}
	rows, err := tx.QueryContext(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE `+strings.Join(clauses, " AND "), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Incident
	for rows.Next() {
		inc, err := scanIncidentRow(rows)
		if err != nil {
			return nil, err
		}
		if utils.AnyNameMatches(inc.Respondents, respondent) {
			res = append(res, inc)
		}
	}
	return res, rows.Err()
}
