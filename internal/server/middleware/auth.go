package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sproutapp/sprout/internal/model"
	"github.com/sproutapp/sprout/internal/service"
)

// Authenticate returns the access middleware. Every request passes through
// it; paths listed in exempt (matched exactly) bypass authentication,
// everything else must present "Authorization: Bearer <token>". On success
// the resolved user is attached to the request context; the middleware is
// the only place identity is established for HTTP requests.
//
// Credential failures answer 401 with one uniform message regardless of
// whether the token was malformed, unknown, or revoked. Storage failures
// during lookup answer 500.
func Authenticate(auth *service.AuthService, exempt []string) func(http.Handler) http.Handler {
	exemptSet := make(map[string]struct{}, len(exempt))
	for _, p := range exempt {
		exemptSet[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptSet[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeAuthError(w, http.StatusUnauthorized,
					"Authentication required. Provide an Authorization: Bearer header.")
				return
			}
			token := strings.TrimPrefix(header, "Bearer ")

			user, err := auth.Resolve(r.Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrInvalidToken) {
					writeAuthError(w, http.StatusUnauthorized, "Invalid API key")
					return
				}
				writeAuthError(w, http.StatusInternalServerError, "Authentication unavailable")
				return
			}

			next.ServeHTTP(w, r.WithContext(service.WithIdentity(r.Context(), user)))
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := model.ErrorResponse{}
	resp.Error.Code = status
	resp.Error.Message = message
	_ = json.NewEncoder(w).Encode(resp)
}
