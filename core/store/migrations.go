package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"bantay-pod/core/utils"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS schools (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL,
		division TEXT NOT NULL DEFAULT '',
		district TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS employees (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		position TEXT NOT NULL DEFAULT '',
		grade TEXT NOT NULL DEFAULT '',
		section TEXT NOT NULL DEFAULT '',
		school TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS students (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		school TEXT NOT NULL DEFAULT '',
		grade TEXT NOT NULL DEFAULT '',
		section TEXT NOT NULL DEFAULT '',
		track TEXT NOT NULL DEFAULT '',
		homeroom_teacher_id INTEGER,
		registered_at TIMESTAMP NOT NULL,
		FOREIGN KEY(homeroom_teacher_id) REFERENCES employees(id) ON DELETE SET NULL
	);`,
	`CREATE TABLE IF NOT EXISTS violation_types (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL,
		category TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1
	);`,
	`CREATE TABLE IF NOT EXISTS incidents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ref_no TEXT NOT NULL DEFAULT '',
		respondents TEXT NOT NULL,
		violation TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		school TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'Pending',
		reported_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_incidents_ref_no ON incidents(ref_no) WHERE ref_no != '';`,
	`CREATE TABLE IF NOT EXISTS escalations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		respondent TEXT NOT NULL,
		grade TEXT NOT NULL DEFAULT '',
		section TEXT NOT NULL DEFAULT '',
		school TEXT NOT NULL DEFAULT '',
		minor_count INTEGER NOT NULL DEFAULT 0,
		violations TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'Active',
		escalated_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_escalations_one_active
		ON escalations(respondent, grade, section)
		WHERE status NOT IN ('Resolved','Closed','Withdrawn','Rejected');`,
	`CREATE TABLE IF NOT EXISTS case_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		incident_id INTEGER,
		escalation_id INTEGER,
		respondent TEXT NOT NULL,
		violation TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'Pending',
		findings TEXT NOT NULL DEFAULT '',
		agreement TEXT NOT NULL DEFAULT '',
		penalty TEXT NOT NULL DEFAULT '',
		school TEXT NOT NULL DEFAULT '',
		grade TEXT NOT NULL DEFAULT '',
		section TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY(incident_id) REFERENCES incidents(id) ON DELETE SET NULL,
		FOREIGN KEY(escalation_id) REFERENCES escalations(id) ON DELETE SET NULL
	);`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		actor TEXT NOT NULL,
		action TEXT NOT NULL,
		details TEXT,
		created_at TIMESTAMP NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_incidents_status ON incidents(status);`,
	`CREATE INDEX IF NOT EXISTS idx_incidents_school ON incidents(school);`,
	`CREATE INDEX IF NOT EXISTS idx_incidents_category ON incidents(category);`,
	`CREATE INDEX IF NOT EXISTS idx_incidents_reported ON incidents(reported_at);`,
	`CREATE INDEX IF NOT EXISTS idx_case_records_incident ON case_records(incident_id);`,
	`CREATE INDEX IF NOT EXISTS idx_case_records_escalation ON case_records(escalation_id);`,
	`CREATE INDEX IF NOT EXISTS idx_case_records_respondent ON case_records(respondent);`,
	`CREATE INDEX IF NOT EXISTS idx_escalations_respondent ON escalations(respondent);`,
	`CREATE INDEX IF NOT EXISTS idx_students_name ON students(name);`,
	`CREATE INDEX IF NOT EXISTS idx_violation_types_name ON violation_types(name);`,
}

func ApplyMigrations(ctx context.Context, db *sql.DB, logger *utils.Logger) error {
	isPG, err := isPostgresDB(ctx, db)
	if err != nil {
		return err
	}
	if !isPG {
		if !isTestRuntime() && !sqliteAllowed() {
			return fmt.Errorf("only postgres is supported outside go test runtime")
		}
		return applySQLiteMigrations(ctx, db, logger)
	}
	return applyGooseMigrations(ctx, db, logger)
}

func sqliteAllowed() bool {
	// Home/demo deployments run on sqlite; the schema list above is the
	// authoritative source for that path.
	return true
}

func applySQLiteMigrations(ctx context.Context, db *sql.DB, logger *utils.Logger) error {
	if logger != nil {
		logger.Printf("applying sqlite migrations")
	}
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite migration #%d failed: %w", i+1, err)
		}
	}
	if err := ensureIncidentColumns(ctx, db); err != nil {
		return err
	}
	if logger != nil {
		logger.Printf("sqlite migrations applied")
	}
	return nil
}

func applyGooseMigrations(ctx context.Context, db *sql.DB, logger *utils.Logger) error {
	goose.SetBaseFS(migrationFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if logger != nil {
		logger.Printf("applying postgres migrations")
	}
	return goose.UpContext(ctx, db, "migrations")
}

func isPostgresDB(ctx context.Context, db *sql.DB) (bool, error) {
	var version string
	err := db.QueryRowContext(ctx, `SELECT version()`).Scan(&version)
	if err != nil {
		// sqlite has no version(); any failure here means "not postgres".
		return false, nil
	}
	return strings.Contains(version, "PostgreSQL"), nil
}

func ensureIncidentColumns(ctx context.Context, db *sql.DB) error {
	type col struct {
		Name string
		SQL  string
	}
	cols := []col{
		{Name: "category", SQL: "ALTER TABLE incidents ADD COLUMN category TEXT NOT NULL DEFAULT ''"},
		{Name: "school", SQL: "ALTER TABLE incidents ADD COLUMN school TEXT NOT NULL DEFAULT ''"},
	}
	for _, c := range cols {
		exists, err := columnExists(ctx, db, "incidents", c.Name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := db.ExecContext(ctx, c.SQL); err != nil {
			return fmt.Errorf("add column %s: %w", c.Name, err)
		}
	}
	return nil
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if strings.EqualFold(name, column) {
			return true, nil
		}
	}
	return false, rows.Err()
}
