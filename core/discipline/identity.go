package discipline

import (
	"context"
	"strings"

	"bantay-pod/core/store"
	"bantay-pod/core/utils"
)

// Identity is a best-effort snapshot of who a respondent is. Absent fields
// stay empty; downstream forms tolerate partial data.
type Identity struct {
	StudentID int64  `json:"student_id,omitempty"`
	Name      string `json:"name"`
	Grade     string `json:"grade"`
	Section   string `json:"section"`
	Track     string `json:"track"`
	School    string `json:"school"`
	Adviser   string `json:"adviser"`
}

// Resolver finds the student behind a free-text respondent name. Respondent
// fields are not foreign keys, so all cross-table identity decisions funnel
// through the same deterministic cascade: exact normalized match, then
// punctuation-stripped match, then substring either direction, with ties
// broken by most recent registration and highest id.
type Resolver struct {
	roster store.RosterStore
	cases  store.CasesStore
	logger *utils.Logger
}

func NewResolver(roster store.RosterStore, cases store.CasesStore, logger *utils.Logger) *Resolver {
	return &Resolver{roster: roster, cases: cases, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context, name, school string) Identity {
	id := Identity{Name: name, School: school}
	student := r.findStudent(ctx, name, school)
	if student != nil {
		id.StudentID = student.ID
		id.Name = student.Name
		id.Grade = student.Grade
		id.Section = student.Section
		id.Track = student.Track
		if student.School != "" {
			id.School = student.School
		}
		id.Adviser = r.resolveAdviser(ctx, student)
		return id
	}

	// No roster match: recover grade/section from the most recent case
	// record written for this name, if any.
	rec, err := r.cases.GetLatestCaseForRespondent(ctx, name)
	if err != nil {
		r.logger.Errorf("identity fallback for %q: %v", name, err)
		return id
	}
	if rec != nil {
		id.Grade = rec.Grade
		id.Section = rec.Section
		if rec.School != "" && id.School == "" {
			id.School = rec.School
		}
	}
	return id
}

func (r *Resolver) findStudent(ctx context.Context, name, school string) *store.Student {
	candidates, err := r.roster.FindStudents(ctx, school)
	if err != nil {
		r.logger.Errorf("roster lookup for %q: %v", name, err)
		return nil
	}
	if school != "" && len(candidates) == 0 {
		// The school string itself may be misspelled; widen the pool.
		candidates, err = r.roster.FindStudents(ctx, "")
		if err != nil {
			r.logger.Errorf("roster lookup for %q: %v", name, err)
			return nil
		}
	}

	norm := utils.NormalizeName(name)
	stripped := utils.StripName(name)

	// Candidates arrive newest-registration-first, so the first hit in
	// each pass is already the tie-break winner.
	for _, st := range candidates {
		if utils.NormalizeName(st.Name) == norm {
			return &st
		}
	}
	for _, st := range candidates {
		if s := utils.StripName(st.Name); s != "" && s == stripped {
			return &st
		}
	}
	for _, st := range candidates {
		cn := utils.NormalizeName(st.Name)
		if cn == "" || norm == "" {
			continue
		}
		if strings.Contains(cn, norm) || strings.Contains(norm, cn) {
			return &st
		}
	}
	return nil
}

func (r *Resolver) resolveAdviser(ctx context.Context, student *store.Student) string {
	if student.HomeroomTeacherID != nil {
		emp, err := r.roster.GetEmployee(ctx, *student.HomeroomTeacherID)
		if err != nil {
			r.logger.Errorf("homeroom teacher %d: %v", *student.HomeroomTeacherID, err)
		} else if emp != nil {
			return emp.Name
		}
	}
	emp, err := r.roster.FindAdviser(ctx, student.Grade, student.Section, student.School)
	if err != nil {
		r.logger.Errorf("adviser for %s/%s: %v", student.Grade, student.Section, err)
		return ""
	}
	if emp == nil {
		return ""
	}
	return emp.Name
}
