package appbootstrap

import (
	"database/sql"

	"bantay-pod/api"
	"bantay-pod/config"
	"bantay-pod/core/discipline"
	"bantay-pod/core/rbac"
	"bantay-pod/core/store"
	"bantay-pod/core/utils"
)

// BackgroundWorker is a long-running component started after the HTTP
// server and stopped during shutdown.
type BackgroundWorker interface {
	Start() error
	Stop()
}

type runtimeComposition struct {
	serverDeps api.ServerDeps
	workers    []BackgroundWorker
}

func composeRuntime(cfg *config.AppConfig, db *sql.DB, logger *utils.Logger) (*runtimeComposition, error) {
	roster := store.NewRosterStore(db)
	incidents := store.NewIncidentsStore(db)
	cases := store.NewCasesStore(db)
	escalations := store.NewEscalationsStore(db)
	cascade := store.NewCascadeStore(db)
	audits := store.NewAuditStore(db)

	svc := discipline.NewService(cfg, discipline.Deps{
		Roster:      roster,
		Incidents:   incidents,
		Cases:       cases,
		Escalations: escalations,
		Cascade:     cascade,
		Audits:      audits,
	}, logger)

	policy, err := rbac.NewPolicy()
	if err != nil {
		return nil, err
	}
	sweeper := discipline.NewSweeper(svc, cfg.Sweeper, logger)

	return &runtimeComposition{
		serverDeps: api.ServerDeps{
			Service: svc,
			Policy:  policy,
			Audits:  audits,
		},
		workers: []BackgroundWorker{sweeper},
	}, nil
}
