package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"bantay-pod/api/handlers"
	"bantay-pod/api/routegroups"
	"bantay-pod/config"
	"bantay-pod/core/discipline"
	"bantay-pod/core/rbac"
	"bantay-pod/core/store"
	"bantay-pod/core/utils"
)

type Server struct {
	cfg    *config.AppConfig
	logger *utils.Logger
	svc    *discipline.Service
	policy *rbac.Policy
	audits store.AuditStore
}

type ServerDeps struct {
	Service *discipline.Service
	Policy  *rbac.Policy
	Audits  store.AuditStore
}

func NewServer(cfg *config.AppConfig, deps ServerDeps, logger *utils.Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		svc:    deps.Service,
		policy: deps.Policy,
		audits: deps.Audits,
	}
}

type routeHandlers struct {
	incidents   *handlers.IncidentsHandler
	cases       *handlers.CasesHandler
	escalations *handlers.EscalationsHandler
	view        *handlers.ViewHandler
	logs        *handlers.LogsHandler
}

func (s *Server) newRouteHandlers() routeHandlers {
	return routeHandlers{
		incidents:   handlers.NewIncidentsHandler(s.svc, s.logger),
		cases:       handlers.NewCasesHandler(s.svc, s.logger),
		escalations: handlers.NewEscalationsHandler(s.svc, s.logger),
		view:        handlers.NewViewHandler(s.svc, s.logger),
		logs:        handlers.NewLogsHandler(s.audits),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverMiddleware)
	r.Use(s.requestIDMiddleware)
	r.Use(s.identityMiddleware)
	r.Use(s.loggingMiddleware)

	r.Get("/healthz", s.handleHealth)

	h := s.newRouteHandlers()
	r.Route("/api", func(apiRouter chi.Router) {
		guards := routegroups.Guards{
			RequirePermission: func(p string) func(http.HandlerFunc) http.HandlerFunc {
				return s.requirePermission(rbac.Permission(p))
			},
		}
		routegroups.RegisterIncidents(apiRouter, guards, h.incidents)
		routegroups.RegisterCases(apiRouter, guards, h.cases)
		routegroups.RegisterEscalations(apiRouter, guards, h.escalations)
		routegroups.RegisterViewAndLogs(apiRouter, guards, h.view, h.logs)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
