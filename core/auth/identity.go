package auth

import (
	"context"
	"net/http"
	"strings"

	"bantay-pod/config"
)

type contextKey string

// ActorContextKey carries the resolved request identity through the
// middleware chain.
const ActorContextKey contextKey = "bantay.actor"

// Actor is the caller identity carried on a request. The service sits
// behind the school SSO gateway, which forwards the verified username and
// role list as headers.
type Actor struct {
	Name  string
	Roles []string
}

// FromRequest reads the identity headers the gateway sets. A request with
// no role header gets an empty role list and fails every permission check.
func FromRequest(r *http.Request, cfg *config.AppConfig) Actor {
	roleHeader := cfg.Security.RoleHeader
	if roleHeader == "" {
		roleHeader = "X-Bantay-Role"
	}
	actorHeader := cfg.Security.ActorHeader
	if actorHeader == "" {
		actorHeader = "X-Bantay-Actor"
	}
	var roles []string
	for _, part := range strings.Split(r.Header.Get(roleHeader), ",") {
		if val := strings.ToLower(strings.TrimSpace(part)); val != "" {
			roles = append(roles, val)
		}
	}
	name := strings.TrimSpace(r.Header.Get(actorHeader))
	if name == "" {
		name = "anonymous"
	}
	return Actor{Name: name, Roles: roles}
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, ActorContextKey, actor)
}

func ActorFromContext(ctx context.Context) Actor {
	if val, ok := ctx.Value(ActorContextKey).(Actor); ok {
		return val
	}
	return Actor{Name: "anonymous"}
}
