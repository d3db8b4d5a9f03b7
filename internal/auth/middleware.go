package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// Prefix match is case-sensitive, per RFC 6750's scheme spelling.
const bearerPrefix = "Bearer "

// publicPrefixes lists path prefixes served without any token
// inspection: registration, documentation assets, health, the error
// renderer and the console path.
var publicPrefixes = []string{
	"/api/users/register",
	"/health",
	"/swagger-ui",
	"/api-docs",
	"/console",
	"/favicon.ico",
	"/error",
}

func isPublicPath(path string) bool {
	if path == "/" {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Verifier is the slice of TokenService the gate needs.
type Verifier interface {
	ExtractSubject(tokenString string) (string, error)
	Verify(tokenString, expectedSubject string) bool
}

// Gate classifies each request as public or protected and, for protected
// ones, tries to establish an identity from the Authorization header.
// The token is checked against its own embedded subject. Any failure
// only means no identity is established: the gate never rejects a
// request itself, and never lets a bad token abort the chain. The
// 401/403 decision belongs to RequireIdentity on the route.
func Gate(tokens Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := withCredentialSupplied(r.Context())

			// An identity established earlier in the chain wins and is
			// not re-validated.
			if _, established := IdentityFrom(ctx); !established {
				subject, err := tokens.ExtractSubject(token)
				if err != nil {
					log.Debug().Err(err).Msg("Discarding unparseable bearer token")
				} else if subject != "" && tokens.Verify(token, subject) {
					ctx = WithIdentity(ctx, Identity{Subject: subject})
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity rejects requests that reached a protected route
// without an established identity: 401 when a credential was supplied
// but did not verify, 403 when none was supplied at all.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFrom(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		if CredentialSupplied(r.Context()) {
			respondMensaje(w, http.StatusUnauthorized, "No autorizado - token requerido")
			return
		}
		respondMensaje(w, http.StatusForbidden, "Acceso prohibido - token JWT requerido")
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	return header[len(bearerPrefix):], true
}

func respondMensaje(w http.ResponseWriter, code int, mensaje string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"mensaje": mensaje}); err != nil {
		log.Error().Err(err).Msg("Failed to write auth error response")
	}
}
