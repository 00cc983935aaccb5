package routegroups

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"bantay-pod/api/handlers"
)

type Guards struct {
	RequirePermission func(string) func(http.HandlerFunc) http.HandlerFunc
}

func RegisterIncidents(apiRouter chi.Router, g Guards, incidents *handlers.IncidentsHandler) {
	apiRouter.Route("/incidents", func(incidentsRouter chi.Router) {
		incidentsRouter.MethodFunc("GET", "/", g.RequirePermission("incidents.view")(incidents.List))
		incidentsRouter.MethodFunc("POST", "/", g.RequirePermission("incidents.create")(incidents.Create))
		incidentsRouter.MethodFunc("GET", "/resolve", g.RequirePermission("incidents.view")(incidents.Resolve))
		incidentsRouter.MethodFunc("GET", "/by-ref/{ref_no}", g.RequirePermission("incidents.view")(incidents.GetByReference))
		incidentsRouter.MethodFunc("GET", "/{id:[0-9]+}", g.RequirePermission("incidents.view")(incidents.Get))
		incidentsRouter.MethodFunc("PUT", "/{id:[0-9]+}/status", g.RequirePermission("incidents.update")(incidents.UpdateStatus))
	})
}

func RegisterCases(apiRouter chi.Router, g Guards, cases *handlers.CasesHandler) {
	apiRouter.Route("/cases", func(casesRouter chi.Router) {
		casesRouter.MethodFunc("GET", "/", g.RequirePermission("cases.view")(cases.List))
		casesRouter.MethodFunc("POST", "/", g.RequirePermission("cases.create")(cases.Create))
		casesRouter.MethodFunc("GET", "/{id:[0-9]+}", g.RequirePermission("cases.view")(cases.Get))
		casesRouter.MethodFunc("PUT", "/{id:[0-9]+}/part-b", g.RequirePermission("cases.update")(cases.UpdatePartB))
	})
}

func RegisterEscalations(apiRouter chi.Router, g Guards, escalations *handlers.EscalationsHandler) {
	apiRouter.Route("/escalations", func(escalationsRouter chi.Router) {
		escalationsRouter.MethodFunc("GET", "/", g.RequirePermission("escalations.view")(escalations.List))
		escalationsRouter.MethodFunc("POST", "/", g.RequirePermission("escalations.update")(escalations.Create))
		escalationsRouter.MethodFunc("GET", "/{id:[0-9]+}", g.RequirePermission("escalations.view")(escalations.Get))
		escalationsRouter.MethodFunc("PUT", "/{id:[0-9]+}/status", g.RequirePermission("escalations.update")(escalations.UpdateStatus))
	})
}

func RegisterViewAndLogs(apiRouter chi.Router, g Guards, view *handlers.ViewHandler, logs *handlers.LogsHandler) {
	apiRouter.MethodFunc("GET", "/view/consolidated", g.RequirePermission("view.consolidated")(view.Consolidated))
	apiRouter.Route("/logs", func(logsRouter chi.Router) {
		logsRouter.MethodFunc("GET", "/", g.RequirePermission("audit.view")(logs.List))
		logsRouter.MethodFunc("GET", "/export", g.RequirePermission("audit.view")(logs.Export))
	})
}
