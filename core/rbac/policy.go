package rbac

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

type Permission string

const (
	PermIncidentsView   Permission = "incidents.view"
	PermIncidentsCreate Permission = "incidents.create"
	PermIncidentsUpdate Permission = "incidents.update"
	PermCasesView       Permission = "cases.view"
	PermCasesCreate     Permission = "cases.create"
	PermCasesUpdate     Permission = "cases.update"
	PermEscalationsView Permission = "escalations.view"
	PermEscalationsEdit Permission = "escalations.update"
	PermViewConsolidate Permission = "view.consolidated"
	PermAuditView       Permission = "audit.view"
)

const rbacModel = `
[request_definition]
r = sub, act

[policy_definition]
p = sub, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (r.act == p.act || p.act == "*")
`

// rolePermissions is the built-in grant table. staff can file and read;
// pod runs the discipline office; admin additionally reads the audit log.
var rolePermissions = map[string][]Permission{
	"staff": {
		PermIncidentsView, PermIncidentsCreate, PermCasesView,
	},
	"pod": {
		PermIncidentsView, PermIncidentsCreate, PermIncidentsUpdate,
		PermCasesView, PermCasesCreate, PermCasesUpdate,
		PermEscalationsView, PermEscalationsEdit, PermViewConsolidate,
	},
}

// Policy answers "may any of these roles perform this action". It wraps a
// casbin enforcer built from the in-code grant table; admin inherits pod
// and gets the wildcard grant on top.
type Policy struct {
	enforcer *casbin.Enforcer
}

func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("rbac enforcer: %w", err)
	}
	for role, perms := range rolePermissions {
		for _, perm := range perms {
			if _, err := e.AddPolicy(role, string(perm)); err != nil {
				return nil, fmt.Errorf("rbac grant %s/%s: %w", role, perm, err)
			}
		}
	}
	if _, err := e.AddPolicy("admin", "*"); err != nil {
		return nil, fmt.Errorf("rbac admin grant: %w", err)
	}
	if _, err := e.AddGroupingPolicy("admin", "pod"); err != nil {
		return nil, fmt.Errorf("rbac admin inherit: %w", err)
	}
	return &Policy{enforcer: e}, nil
}

func (p *Policy) Allowed(roles []string, perm Permission) bool {
	for _, role := range roles {
		ok, err := p.enforcer.Enforce(role, string(perm))
		if err != nil {
			continue
		}
		if ok {
			return true
		}
	}
	return false
}
