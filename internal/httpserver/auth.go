// internal/httpserver/auth.go
//
// Guest identity. There are no accounts: a client either brings its own
// opaque userId in each request body, or asks /auth/guest for a generated
// id plus a signed token. When a valid bearer token is present its id wins
// over whatever the body claims.

package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxUserKey struct{}

func jwtSecret() []byte {
	return []byte(getEnv("JWT_SECRET", "dev_secret_change_me"))
}

// signGuestToken creates an HS256 JWT for a guest id with a configurable
// expiry (JWT_EXPIRES_DAYS; default 14).
func signGuestToken(id string, now time.Time) (string, time.Time, error) {
	exp := now.Add(time.Duration(envInt("JWT_EXPIRES_DAYS", 14)) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  id,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	})
	ss, err := t.SignedString(jwtSecret())
	return ss, exp, err
}

// handleGuestToken mints a fresh guest identity.
func (s *Server) handleGuestToken(w http.ResponseWriter, r *http.Request) {
	id := s.newID()
	tok, exp, err := signGuestToken(id, s.now())
	if err != nil {
		s.fail(w, err, "")
		return
	}
	writeOK(w, map[string]any{"userId": id, "token": tok, "expiresAt": exp})
}

// withIdentity decorates requests with the token's user id when a valid
// bearer token is present. It never 401s; guests without tokens pass
// through untouched.
func (s *Server) withIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := bearerToken(r); tok != "" {
				claims := jwt.MapClaims{}
				if t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
					return jwtSecret(), nil
				}); err == nil && t.Valid {
					if id, _ := claims["id"].(string); id != "" {
						r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, id))
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// userID resolves the effective caller identity: token first, then the
// client-supplied fallback.
func userID(r *http.Request, fallback string) string {
	if id, _ := r.Context().Value(ctxUserKey{}).(string); id != "" {
		return id
	}
	return strings.TrimSpace(fallback)
}

// bearerToken extracts a bearer token from the Authorization header.
func bearerToken(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return ""
}
