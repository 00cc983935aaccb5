package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Escalation struct {
	ID          int64     `json:"id"`
	Respondent  string    `json:"respondent"`
	Grade       string    `json:"grade"`
	Section     string    `json:"section"`
	School      string    `json:"school"`
	MinorCount  int       `json:"minor_count"`
	Violations  string    `json:"violations"`
	Status      string    `json:"status"`
	EscalatedAt time.Time `json:"escalated_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type EscalationFilter struct {
	School   string
	Status   string
	StatusIn []string
	Limit    int
	Offset   int
}

type EscalationsStore interface {
	CreateEscalation(ctx context.Context, esc *Escalation) (int64, error)
	GetEscalation(ctx context.Context, id int64) (*Escalation, error)
	GetActiveEscalation(ctx context.Context, respondent, grade, section string) (*Escalation, error)
	ListEscalations(ctx context.Context, filter EscalationFilter) ([]Escalation, error)
	ListActiveEscalations(ctx context.Context) ([]Escalation, error)
	UpdateEscalationStatus(ctx context.Context, id int64, status string) (int64, error)
}

var terminalStatuses = []string{"Resolved", "Closed", "Withdrawn", "Rejected"}

type escalationsStore struct {
	db *sql.DB
}

func NewEscalationsStore(db *sql.DB) EscalationsStore {
	return &escalationsStore{db: db}
}

const escalationColumns = `id, respondent, grade, section, school, minor_count, violations, status, escalated_at, updated_at`

// CreateEscalation inserts a new escalation row. The partial unique index on
// active escalations makes concurrent creates for the same student collapse
// into ErrConflict instead of a duplicate.
func (s *escalationsStore) CreateEscalation(ctx context.Context, esc *Escalation) (int64, error) {
	now := time.Now().UTC()
	if strings.TrimSpace(esc.Status) == "" {
		esc.Status = "Active"
	}
	if esc.EscalatedAt.IsZero() {
		esc.EscalatedAt = now
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO escalations(respondent, grade, section, school, minor_count, violations, status, escalated_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?,?)`,
		strings.TrimSpace(esc.Respondent), strings.TrimSpace(esc.Grade), strings.TrimSpace(esc.Section),
		strings.TrimSpace(esc.School), esc.MinorCount, esc.Violations, esc.Status, esc.EscalatedAt, now)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, _ := res.LastInsertId()
	esc.ID = id
	esc.UpdatedAt = now
	return id, nil
}

func (s *escalationsStore) GetEscalation(ctx context.Context, id int64) (*Escalation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+escalationColumns+` FROM escalations WHERE id=?`, id)
	return scanEscalation(row)
}

func (s *escalationsStore) GetActiveEscalation(ctx context.Context, respondent, grade, section string) (*Escalation, error) {
	query := fmt.Sprintf(`
		SELECT `+escalationColumns+` FROM escalations
		WHERE respondent=? AND grade=? AND section=? AND status NOT IN (%s)
		ORDER BY escalated_at DESC, id DESC LIMIT 1`, placeholders(len(terminalStatuses)))
	args := []any{strings.TrimSpace(respondent), strings.TrimSpace(grade), strings.TrimSpace(section)}
	for _, st := range terminalStatuses {
		args = append(args, st)
	}
	row := s.db.QueryRowContext(ctx, query, args...)
	return scanEscalation(row)
}

func (s *escalationsStore) ListEscalations(ctx context.Context, filter EscalationFilter) ([]Escalation, error) {
	var clauses []string
	var args []any
	if len(filter.StatusIn) > 0 {
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", placeholders(len(filter.StatusIn))))
		for _, st := range filter.StatusIn {
			args = append(args, st)
		}
	} else if filter.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, filter.Status)
	}
	if filter.School != "" {
		clauses = append(clauses, "school=?")
		args = append(args, filter.School)
	}
	query := `SELECT ` + escalationColumns + ` FROM escalations`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY escalated_at DESC, id DESC"
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
	var res []Escalation
	for rows.Next() {
		esc, err := scanEscalationRow(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, esc)
	}
	return res, rows.Err()
}

func (s *escalationsStore) ListActiveEscalations(ctx context.Context) ([]Escalation, error) {
	query := fmt.Sprintf(`
		SELECT `+escalationColumns+` FROM escalations WHERE status NOT IN (%s)
		ORDER BY respondent ASC, grade ASC, section ASC, id ASC`, placeholders(len(terminalStatuses)))
	var args []any
	for _, st := range terminalStatuses {
		args = append(args, st)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Escalation
	for rows.Next() {
		esc, err := scanEscalationRow(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, esc)
	}
	return res, rows.Err()
}

func (s *escalationsStore) UpdateEscalationStatus(ctx context.Context, id int64, status string) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE escalations SET status=?, updated_at=? WHERE id=? AND status!=?`,
		status, now, id, status)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}

func scanEscalation(row *sql.Row) (*Escalation, error) {
	var esc Escalation
	if err := row.Scan(&esc.ID, &esc.Respondent, &esc.Grade, &esc.Section, &esc.School, &esc.MinorCount, &esc.Violations, &esc.Status, &esc.EscalatedAt, &esc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &esc, nil
}

func scanEscalationRow(rows *sql.Rows) (Escalation, error) {
	var esc Escalation
	err := rows.Scan(&esc.ID, &esc.Respondent, &esc.Grade, &esc.Section, &esc.School, &esc.MinorCount, &esc.Violations, &esc.Status, &esc.EscalatedAt, &esc.UpdatedAt)
	return esc, err
}
