package auth

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
)

// Middleware resolves the request principal from the session and guards
// routes that require authentication.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// ResolvePrincipal builds the principal from the session actor and stores it
// in the request context. The role and community recorded at login are used
// directly; the user row is only consulted when the session predates the
// actor fields, so the hot path stays a Redis hit.
func (m Middleware) ResolvePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			next.ServeHTTP(w, r)
			return
		}
		userID, err := strconv.ParseInt(sess.User(), 10, 64)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Error("parse session user id", slog.String("value", sess.User()))
			}
			next.ServeHTTP(w, r)
			return
		}

		p, ok := m.principalFromSession(sess, userID)
		if !ok {
			user, err := m.Service.Lookup(r.Context(), userID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			p = user.Principal()
		}
		ctx := shared.ContextWithPrincipal(r.Context(), p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects unauthenticated requests with 401 before the handler
// runs. Policy decisions happen later in the services; this only establishes
// that a principal exists.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.PrincipalFromContext(r.Context()); !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) principalFromSession(sess *shared.Session, userID int64) (policy.Principal, bool) {
	role := policy.Role(sess.Role())
	if !role.Valid() {
		return policy.Principal{}, false
	}
	p := policy.Principal{ID: userID, Role: role}
	if raw := sess.Community(); raw != "" {
		community, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return policy.Principal{}, false
		}
		p.CommunityID = &community
	}
	return p, true
}
