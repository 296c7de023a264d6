package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/pkordes/globe-trotter/internal/auth"
	"github.com/pkordes/globe-trotter/internal/domain"
)

// ProfileSyncer creates a user's stored profile if it does not exist yet.
// *service.ProfileService satisfies it.
type ProfileSyncer interface {
	Sync(ctx context.Context, user *domain.User) (domain.Profile, error)
}

// NewProfileSync returns a middleware that syncs the profile of the user in
// the request context the first time this process sees them. It must run
// after the authenticator.
//
// A failed sync is logged and the request continues; the next request from
// the same user tries again.
func NewProfileSync(s ProfileSyncer) func(http.Handler) http.Handler {
	var synced sync.Map // uid -> struct{}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := auth.UserFromContext(r.Context())
			if user != nil && user.UID != "" {
				if _, seen := synced.Load(user.UID); !seen {
					if _, err := s.Sync(r.Context(), user); err != nil {
						slog.WarnContext(r.Context(), "sync profile", "error", err, "uid", user.UID)
					} else {
						synced.Store(user.UID, struct{}{})
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
