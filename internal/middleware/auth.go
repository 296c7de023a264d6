package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pkordes/globe-trotter/internal/auth"
	"github.com/pkordes/globe-trotter/internal/domain"
)

// TokenVerifier turns a bearer token into the user it was issued to.
// *auth.Verifier satisfies it.
type TokenVerifier interface {
	Verify(token string) (*domain.User, error)
}

// NewAuthenticator returns a middleware that requires an
// "Authorization: Bearer <token>" header. The verified user is stored in the
// request context with auth.WithUser. Missing or invalid tokens get 401.
func NewAuthenticator(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="globe-trotter"`)
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}

			user, err := v.Verify(token)
			if err != nil {
				slog.InfoContext(r.Context(), "rejected token", "error", err, "path", r.URL.Path)
				w.Header().Set("WWW-Authenticate", `Bearer realm="globe-trotter", error="invalid_token"`)
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

// bearerToken extracts the token from an Authorization header value.
// The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// writeError writes the API's {"error":{"code","message"}} body.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]map[string]string{
		"error": {"code": code, "message": message},
	})
}
