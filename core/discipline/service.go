package discipline

import (
	"context"

	"bantay-pod/config"
	"bantay-pod/core/store"
	"bantay-pod/core/utils"
)

// Service is the propagation-and-threshold engine: it owns incident intake,
// escalation thresholds, case-record linking, status synchronization and the
// consolidated POD view. Persistence, rendering and delivery stay behind
// the injected store interfaces.
type Service struct {
	cfg         *config.AppConfig
	roster      store.RosterStore
	incidents   store.IncidentsStore
	cases       store.CasesStore
	escalations store.EscalationsStore
	cascade     store.CascadeStore
	audits      store.AuditStore
	logger      *utils.Logger

	classifier *Classifier
	resolver   *Resolver
}

type Deps struct {
	Roster      store.RosterStore
	Incidents   store.IncidentsStore
	Cases       store.CasesStore
	Escalations store.EscalationsStore
	Cascade     store.CascadeStore
	Audits      store.AuditStore
}

func NewService(cfg *config.AppConfig, deps Deps, logger *utils.Logger) *Service {
	svc := &Service{
		cfg:         cfg,
		roster:      deps.Roster,
		incidents:   deps.Incidents,
		cases:       deps.Cases,
		escalations: deps.Escalations,
		cascade:     deps.Cascade,
		audits:      deps.Audits,
		logger:      logger,
	}
	svc.classifier = NewClassifier(deps.Roster, cfg.Discipline.DefaultCategory, logger)
	svc.resolver = NewResolver(deps.Roster, deps.Cases, logger)
	return svc
}

func (s *Service) Classifier() *Classifier {
	return s.classifier
}

func (s *Service) Resolver() *Resolver {
	return s.resolver
}

func (s *Service) audit(ctx context.Context, actor, action, details string) {
	if s.audits == nil {
		return
	}
	if err := s.audits.Record(ctx, actor, action, details); err != nil {
		s.logger.Errorf("audit %s: %v", action, err)
	}
}
