package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

type Student struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	School            string    `json:"school"`
	Grade             string    `json:"grade"`
	Section           string    `json:"section"`
	Track             string    `json:"track"`
	HomeroomTeacherID *int64    `json:"homeroom_teacher_id,omitempty"`
	RegisteredAt      time.Time `json:"registered_at"`
}

type Employee struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
	Grade    string `json:"grade"`
	Section  string `json:"section"`
	School   string `json:"school"`
}

type ViolationType struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Active   bool   `json:"active"`
}

type School struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Division string `json:"division"`
	District string `json:"district"`
	Region   string `json:"region"`
}

type RosterStore interface {
	// FindStudents returns the candidate pool for the identity match
	// cascade, newest registration first; the resolver narrows it down.
	FindStudents(ctx context.Context, school string) ([]Student, error)
	CreateStudent(ctx context.Context, st *Student) (int64, error)

	GetEmployee(ctx context.Context, id int64) (*Employee, error)
	FindAdviser(ctx context.Context, grade, section, school string) (*Employee, error)
	CreateEmployee(ctx context.Context, emp *Employee) (int64, error)

	FindViolationCategory(ctx context.Context, name string) (string, bool, error)
	ListViolationTypes(ctx context.Context, activeOnly bool) ([]ViolationType, error)
	CreateViolationType(ctx context.Context, vt *ViolationType) (int64, error)

	CreateSchool(ctx context.Context, sc *School) (int64, error)
	GetSchoolByName(ctx context.Context, name string) (*School, error)
}

type rosterStore struct {
	db *sql.DB
}

func NewRosterStore(db *sql.DB) RosterStore {
	return &rosterStore{db: db}
}

func (s *rosterStore) FindStudents(ctx context.Context, school string) ([]Student, error) {
	query := `SELECT id, name, school, grade, section, track, homeroom_teacher_id, registered_at FROM students`
	var args []any
	if strings.TrimSpace(school) != "" {
		query += ` WHERE school=?`
		args = append(args, strings.TrimSpace(school))
	}
	query += ` ORDER BY registered_at DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Student
	for rows.Next() {
		var st Student
		var homeroom sql.NullInt64
		if err := rows.Scan(&st.ID, &st.Name, &st.School, &st.Grade, &st.Section, &st.Track, &homeroom, &st.RegisteredAt); err != nil {
			return nil, err
		}
		st.HomeroomTeacherID = scanNullableID(homeroom)
		res = append(res, st)
	}
	return res, rows.Err()
}

func (s *rosterStore) CreateStudent(ctx context.Context, st *Student) (int64, error) {
	if st.RegisteredAt.IsZero() {
		st.RegisteredAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO students(name, school, grade, section, track, homeroom_teacher_id, registered_at)
		VALUES(?,?,?,?,?,?,?)`,
		strings.TrimSpace(st.Name), strings.TrimSpace(st.School), st.Grade, st.Section, st.Track,
		nullableID(st.HomeroomTeacherID), st.RegisteredAt)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	st.ID = id
	return id, nil
}

func (s *rosterStore) GetEmployee(ctx context.Context, id int64) (*Employee, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, position, grade, section, school FROM employees WHERE id=?`, id)
	var emp Employee
	if err := row.Scan(&emp.ID, &emp.Name, &emp.Position, &emp.Grade, &emp.Section, &emp.School); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &emp, nil
}

func (s *rosterStore) FindAdviser(ctx context.Context, grade, section, school string) (*Employee, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, position, grade, section, school FROM employees
		WHERE UPPER(position)='ADVISER' AND grade=? AND section=? AND school=?
		ORDER BY id DESC LIMIT 1`,
		strings.TrimSpace(grade), strings.TrimSpace(section), strings.TrimSpace(school))
	var emp Employee
	if err := row.Scan(&emp.ID, &emp.Name, &emp.Position, &emp.Grade, &emp.Section, &emp.School); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &emp, nil
}

func (s *rosterStore) CreateEmployee(ctx context.Context, emp *Employee) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO employees(name, position, grade, section, school) VALUES(?,?,?,?,?)`,
		strings.TrimSpace(emp.Name), strings.TrimSpace(emp.Position), emp.Grade, emp.Section, strings.TrimSpace(emp.School))
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	emp.ID = id
	return id, nil
}

// FindViolationCategory looks up an active violation type by exact name,
// then by the trimmed/uppercased form.
func (s *rosterStore) FindViolationCategory(ctx context.Context, name string) (string, bool, error) {
	var category string
	err := s.db.QueryRowContext(ctx, `
		SELECT category FROM violation_types WHERE active=1 AND name=? LIMIT 1`, name).Scan(&category)
	if err == nil {
		return category, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", false, err
	}
	norm := strings.ToUpper(strings.TrimSpace(name))
	err = s.db.QueryRowContext(ctx, `
		SELECT category FROM violation_types WHERE active=1 AND UPPER(TRIM(name))=? LIMIT 1`, norm).Scan(&category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return category, true, nil
}

func (s *rosterStore) ListViolationTypes(ctx context.Context, activeOnly bool) ([]ViolationType, error) {
	query := `SELECT id, name, category, active FROM violation_types`
	if activeOnly {
		query += ` WHERE active=1`
	}
	query += ` ORDER BY name ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []ViolationType
	for rows.Next() {
		var vt ViolationType
		var active int
		if err := rows.Scan(&vt.ID, &vt.Name, &vt.Category, &active); err != nil {
			return nil, err
		}
		vt.Active = active == 1
		res = append(res, vt)
	}
	return res, rows.Err()
}

func (s *rosterStore) CreateViolationType(ctx context.Context, vt *ViolationType) (int64, error) {
	active := 0
	if vt.Active {
		active = 1
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO violation_types(name, category, active) VALUES(?,?,?)`,
		strings.TrimSpace(vt.Name), vt.Category, active)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, _ := res.LastInsertId()
	vt.ID = id
	return id, nil
}

func (s *rosterStore) CreateSchool(ctx context.Context, sc *School) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO schools(name, division, district, region) VALUES(?,?,?,?)`,
		strings.TrimSpace(sc.Name), sc.Division, sc.District, sc.Region)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, _ := res.LastInsertId()
	sc.ID = id
	return id, nil
}

func (s *rosterStore) GetSchoolByName(ctx context.Context, name string) (*School, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, division, district, region FROM schools WHERE name=?`, strings.TrimSpace(name))
	var sc School
	if err := row.Scan(&sc.ID, &sc.Name, &sc.Division, &sc.District, &sc.Region); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sc, nil
}
