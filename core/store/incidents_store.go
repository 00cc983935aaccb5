package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"bantay-pod/core/utils"
)

var ErrConflict = errors.New("conflict")

type Incident struct {
	ID          int64     `json:"id"`
	RefNo       string    `json:"ref_no"`
	Respondents string    `json:"respondents"`
	Violation   string    `json:"violation"`
	Category    string    `json:"category"`
	School      string    `json:"school"`
	Status      string    `json:"status"`
	ReportedAt  time.Time `json:"reported_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type IncidentFilter struct {
	Search   string
	Status   string
	StatusIn []string
	Category string
	School   string
	Limit    int
	Offset   int
}

type IncidentsStore interface {
	CreateIncident(ctx context.Context, incident *Incident, refFormat string) (int64, error)
	GetIncident(ctx context.Context, id int64) (*Incident, error)
	GetIncidentByRefNo(ctx context.Context, refNo string) (*Incident, error)
	ListIncidents(ctx context.Context, filter IncidentFilter) ([]Incident, error)
	UpdateIncidentStatus(ctx context.Context, id int64, status string) (int64, error)
	UpdateIncidentRespondents(ctx context.Context, id int64, respondents string) error

	CountMinorIncidents(ctx context.Context, respondent, school string, excludeStatuses []string) (int, error)
	ListMinorIncidents(ctx context.Context, respondent, school string) ([]Incident, error)
}

type incidentsStore struct {
	db *sql.DB
}

func NewIncidentsStore(db *sql.DB) IncidentsStore {
	return &incidentsStore{db: db}
}

const incidentColumns = `id, ref_no, respondents, violation, category, school, status, reported_at, created_at, updated_at`

func (s *incidentsStore) CreateIncident(ctx context.Context, incident *Incident, refFormat string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	if incident.ReportedAt.IsZero() {
		incident.ReportedAt = now
	}
	if strings.TrimSpace(incident.Status) == "" {
		incident.Status = "Pending"
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO incidents(ref_no, respondents, violation, category, school, status, reported_at, created_at, updated_at)
		VALUES('',?,?,?,?,?,?,?,?)`,
		strings.TrimSpace(incident.Respondents), strings.TrimSpace(incident.Violation), incident.Category,
		strings.TrimSpace(incident.School), incident.Status, incident.ReportedAt, now, now)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	id, _ := res.LastInsertId()
	refNo := buildIncidentRefNo(refFormat, incident.ReportedAt, id)
	if _, err := tx.ExecContext(ctx, `UPDATE incidents SET ref_no=? WHERE id=? AND ref_no=''`, refNo, id); err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	incident.ID = id
	incident.RefNo = refNo
	incident.CreatedAt = now
	incident.UpdatedAt = now
	return id, nil
}

var refSeqToken = regexp.MustCompile(`\{id(?::(\d+))?\}`)

// buildIncidentRefNo renders the reference-number template. Supported
// tokens: {date} (YYYYMMDD of the reported date), {year}, {id} or {id:N}
// (zero padded row id). The result is written once and never changed.
func buildIncidentRefNo(format string, reported time.Time, id int64) string {
	if strings.TrimSpace(format) == "" {
		format = "DRS-{date}-{id:05}"
	}
	out := strings.ReplaceAll(format, "{date}", reported.UTC().Format("20060102"))
	out = strings.ReplaceAll(out, "{year}", fmt.Sprintf("%d", reported.UTC().Year()))
	out = refSeqToken.ReplaceAllStringFunc(out, func(token string) string {
		m := refSeqToken.FindStringSubmatch(token)
		if len(m) == 2 && m[1] != "" {
			width := 0
			_, _ = fmt.Sscanf(m[1], "%d", &width)
			if width > 0 {
				return fmt.Sprintf("%0*d", width, id)
			}
		}
		return fmt.Sprintf("%d", id)
	})
	return out
}

func (s *incidentsStore) GetIncident(ctx context.Context, id int64) (*Incident, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id=?`, id)
	return scanIncident(row)
}

func (s *incidentsStore) GetIncidentByRefNo(ctx context.Context, refNo string) (*Incident, error) {
	if strings.TrimSpace(refNo) == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE ref_no=?`, strings.TrimSpace(refNo))
	return scanIncident(row)
}

func (s *incidentsStore) ListIncidents(ctx context.Context, filter IncidentFilter) ([]Incident, error) {
	var clauses []string
	var args []any
	if len(filter.StatusIn) > 0 {
		var in []string
		for _, raw := range filter.StatusIn {
			if strings.TrimSpace(raw) != "" {
				in = append(in, strings.TrimSpace(raw))
			}
		}
		if len(in) > 0 {
			clauses = append(clauses, fmt.Sprintf("status IN (%s)", placeholders(len(in))))
			for _, val := range in {
				args = append(args, val)
			}
		}
	} else if filter.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		clauses = append(clauses, "category=?")
		args = append(args, filter.Category)
	}
	if filter.School != "" {
		clauses = append(clauses, "school=?")
		args = append(args, filter.School)
	}
	if filter.Search != "" {
		clauses = append(clauses, "(respondents LIKE ? OR violation LIKE ? OR ref_no LIKE ?)")
		q := "%" + filter.Search + "%"
		args = append(args, q, q, q)
	}
	query := `SELECT ` + incidentColumns + ` FROM incidents`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY reported_at DESC, id DESC"
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
	var res []Incident
	for rows.Next() {
		inc, err := scanIncidentRow(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, inc)
	}
	return res, rows.Err()
}

func (s *incidentsStore) UpdateIncidentStatus(ctx context.Context, id int64, status string) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE incidents SET status=?, updated_at=? WHERE id=? AND status!=?`,
		status, now, id, status)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

func (s *incidentsStore) UpdateIncidentRespondents(ctx context.Context, id int64, respondents string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE incidents SET respondents=?, updated_at=? WHERE id=?`,
		strings.TrimSpace(respondents), now, id)
	return err
}

// listMinorCandidates pulls Minor incidents for a school; respondent
// matching happens in Go because respondent fields are delimited free text.
func (s *incidentsStore) listMinorCandidates(ctx context.Context, school string) ([]Incident, error) {
	var clauses = []string{"category='Minor'"}
	var args []any
	if strings.TrimSpace(school) != "" {
		clauses = append(clauses, "school=?")
		args = append(args, strings.TrimSpace(school))
	}
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY reported_at DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, query, args...)
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
		res = append(res, inc)
	}
	return res, rows.Err()
}

func (s *incidentsStore) CountMinorIncidents(ctx context.Context, respondent, school string, excludeStatuses []string) (int, error) {
	items, err := s.listMinorCandidates(ctx, school)
	if err != nil {
		return 0, err
	}
	excluded := map[string]struct{}{}
	for _, st := range excludeStatuses {
		excluded[st] = struct{}{}
	}
	count := 0
	for _, inc := range items {
		if _, skip := excluded[inc.Status]; skip {
			continue
		}
		if utils.AnyNameMatches(inc.Respondents, respondent) {
			count++
		}
	}
	return count, nil
}

func (s *incidentsStore) ListMinorIncidents(ctx context.Context, respondent, school string) ([]Incident, error) {
	items, err := s.listMinorCandidates(ctx, school)
	if err != nil {
		return nil, err
	}
	var res []Incident
	for _, inc := range items {
		if utils.AnyNameMatches(inc.Respondents, respondent) {
			res = append(res, inc)
		}
	}
	return res, nil
}

func scanIncident(row *sql.Row) (*Incident, error) {
	var inc Incident
	if err := row.Scan(&inc.ID, &inc.RefNo, &inc.Respondents, &inc.Violation, &inc.Category, &inc.School, &inc.Status, &inc.ReportedAt, &inc.CreatedAt, &inc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &inc, nil
}

func scanIncidentRow(rows *sql.Rows) (Incident, error) {
	var inc Incident
	err := rows.Scan(&inc.ID, &inc.RefNo, &inc.Respondents, &inc.Violation, &inc.Category, &inc.School, &inc.Status, &inc.ReportedAt, &inc.CreatedAt, &inc.UpdatedAt)
	return inc, err
}
