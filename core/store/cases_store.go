package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bantay-pod/core/utils"
)

type CaseRecord struct {
	ID           int64     `json:"id"`
	IncidentID   *int64    `json:"incident_id,omitempty"`
	EscalationID *int64    `json:"escalation_id,omitempty"`
	Respondent   string    `json:"respondent"`
	Violation    string    `json:"violation"`
	Category     string    `json:"category"`
	Status       string    `json:"status"`
	Findings     string    `json:"findings"`
	Agreement    string    `json:"agreement"`
	Penalty      string    `json:"penalty"`
	School       string    `json:"school"`
	Grade        string    `json:"grade"`
	Section      string    `json:"section"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CaseFilter struct {
	School     string
	Division   string
	District   string
	Region     string
	Status     string
	Respondent string
	Categories []string
	Limit      int
	Offset     int
}

type CasesStore interface {
	CreateCase(ctx context.Context, rec *CaseRecord) (int64, error)
	GetCase(ctx context.Context, id int64) (*CaseRecord, error)
	ListCases(ctx context.Context, filter CaseFilter) ([]CaseRecord, error)
	UpdatePartB(ctx context.Context, id int64, findings, agreement, penalty, status string) (int64, error)
	GetLatestCaseForRespondent(ctx context.Context, name string) (*CaseRecord, error)
}

type casesStore struct {
	db *sql.DB
}

func NewCasesStore(db *sql.DB) CasesStore {
	return &casesStore{db: db}
}

const caseColumns = `c.id, c.incident_id, c.escalation_id, c.respondent, c.violation, c.category, c.status, c.findings, c.agreement, c.penalty, c.school, c.grade, c.section, c.created_at, c.updated_at`

func (s *casesStore) CreateCase(ctx context.Context, rec *CaseRecord) (int64, error) {
	now := time.Now().UTC()
	if strings.TrimSpace(rec.Status) == "" {
		rec.Status = "Pending"
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO case_records(incident_id, escalation_id, respondent, violation, category, status, findings, agreement, penalty, school, grade, section, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		nullableID(rec.IncidentID), nullableID(rec.EscalationID), strings.TrimSpace(rec.Respondent),
		strings.TrimSpace(rec.Violation), rec.Category, rec.Status,
		rec.Findings, rec.Agreement, rec.Penalty,
		strings.TrimSpace(rec.School), strings.TrimSpace(rec.Grade), strings.TrimSpace(rec.Section), now, now)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	rec.ID = id
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return id, nil
}

func (s *casesStore) GetCase(ctx context.Context, id int64) (*CaseRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM case_records c WHERE c.id=?`, id)
	return scanCase(row)
}

func (s *casesStore) ListCases(ctx context.Context, filter CaseFilter) ([]CaseRecord, error) {
	var clauses []string
	var args []any
	join := ""
	if filter.Division != "" || filter.District != "" || filter.Region != "" {
		join = " LEFT JOIN schools sc ON sc.name = c.school"
		if filter.Division != "" {
			clauses = append(clauses, "sc.division=?")
			args = append(args, filter.Division)
		}
		if filter.District != "" {
			clauses = append(clauses, "sc.district=?")
			args = append(args, filter.District)
		}
		if filter.Region != "" {
			clauses = append(clauses, "sc.region=?")
			args = append(args, filter.Region)
		}
	}
	if filter.School != "" {
		clauses = append(clauses, "c.school=?")
		args = append(args, filter.School)
	}
	if filter.Status != "" {
		clauses = append(clauses, "c.status=?")
		args = append(args, filter.Status)
	}
	if filter.Respondent != "" {
		clauses = append(clauses, "c.respondent LIKE ?")
		args = append(args, "%"+filter.Respondent+"%")
	}
	if len(filter.Categories) > 0 {
		clauses = append(clauses, fmt.Sprintf("c.category IN (%s)", placeholders(len(filter.Categories))))
		for _, cat := range filter.Categories {
			args = append(args, cat)
		}
	}
	query := `SELECT ` + caseColumns + ` FROM case_records c` + join
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY c.created_at DESC, c.id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []CaseRecord
	for rows.Next() {
		rec, err := scanCaseRow(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

func (s *casesStore) UpdatePartB(ctx context.Context, id int64, findings, agreement, penalty, status string) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE case_records SET findings=?, agreement=?, penalty=?, status=?, updated_at=?
		WHERE id=? AND NOT (findings=? AND agreement=? AND penalty=? AND status=?)`,
		findings, agreement, penalty, status, now, id, findings, agreement, penalty, status)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// GetLatestCaseForRespondent backs the identity fallback when the roster
// has no match: recent case records are scanned with the shared name
// matcher because respondent spellings drift between tables.
func (s *casesStore) GetLatestCaseForRespondent(ctx context.Context, name string) (*CaseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+caseColumns+` FROM case_records c ORDER BY c.created_at DESC, c.id DESC LIMIT 200`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		rec, err := scanCaseRow(rows)
		if err != nil {
			return nil, err
		}
		if utils.NamesMatch(rec.Respondent, name) {
			return &rec, nil
		}
	}
	return nil, rows.Err()
}

func scanCase(row *sql.Row) (*CaseRecord, error) {
	var rec CaseRecord
	var incID, escID sql.NullInt64
	if err := row.Scan(&rec.ID, &incID, &escID, &rec.Respondent, &rec.Violation, &rec.Category, &rec.Status, &rec.Findings, &rec.Agreement, &rec.Penalty, &rec.School, &rec.Grade, &rec.Section, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rec.IncidentID = scanNullableID(incID)
	rec.EscalationID = scanNullableID(escID)
	return &rec, nil
}

func scanCaseRow(rows *sql.Rows) (CaseRecord, error) {
	var rec CaseRecord
	var incID, escID sql.NullInt64
	if err := rows.Scan(&rec.ID, &incID, &escID, &rec.Respondent, &rec.Violation, &rec.Category, &rec.Status, &rec.Findings, &rec.Agreement, &rec.Penalty, &rec.School, &rec.Grade, &rec.Section, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return rec, err
	}
	rec.IncidentID = scanNullableID(incID)
	rec.EscalationID = scanNullableID(escID)
	return rec, nil
}
