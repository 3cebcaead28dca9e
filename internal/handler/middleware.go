package handler

import (
	"context"
	"net/http"

	"github.com/finlend/origination-engine/internal/domain"
	"github.com/finlend/origination-engine/pkg/response"
)

type contextKey string

const actorKey contextKey = "actor"

// Identity headers set by the upstream auth gateway. Authentication and
// authorization happen there; this service only reads the result for
// attribution and coarse role gates.
const (
	headerUserID    = "X-User-Id"
	headerUserEmail = "X-User-Email"
	headerUserName  = "X-User-Name"
	headerUserRole  = "X-User-Role"
)

// ActorMiddleware extracts the authenticated actor from gateway headers and
// rejects requests that arrive without one.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := domain.Actor{
			UID:   r.Header.Get(headerUserID),
			Email: r.Header.Get(headerUserEmail),
			Name:  r.Header.Get(headerUserName),
			Role:  r.Header.Get(headerUserRole),
		}

		if actor.UID == "" {
			response.Unauthorized(w, "missing authenticated identity")
			return
		}

		ctx := context.WithValue(r.Context(), actorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFrom returns the actor attached by ActorMiddleware.
func ActorFrom(r *http.Request) domain.Actor {
	actor, _ := r.Context().Value(actorKey).(domain.Actor)
	return actor
}

// requireRole gates a handler on the actor holding one of the given roles.
func requireRole(w http.ResponseWriter, r *http.Request, roles ...string) bool {
	actor := ActorFrom(r)
	for _, role := range roles {
		if actor.Role == role {
			return true
		}
	}
	response.Forbidden(w, "insufficient role for this operation")
	return false
}
