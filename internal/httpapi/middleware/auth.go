package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Keys holds the API keys accepted by the report API. Public keys can read
// reports; admin keys can also trigger checks.
type Keys struct {
	Public []string
	Admin  []string
}

// Enabled reports whether any key is configured at all.
func (k Keys) Enabled() bool {
	return len(k.Public) > 0 || len(k.Admin) > 0
}

// readAuth returns the presented key from "Authorization: Bearer" or X-API-Key.
func readAuth(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func hasKey(given string, set []string) bool {
	if given == "" {
		return false
	}
	found := 0
	for _, k := range set {
		found |= subtle.ConstantTimeCompare([]byte(k), []byte(given))
	}
	return found == 1
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}

// RequireAny allows requests that present either a public or admin key.
// If no keys are configured, it allows all requests (handy for local dev).
func RequireAny(keys Keys) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !keys.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := readAuth(r)
			if hasKey(key, keys.Public) || hasKey(key, keys.Admin) {
				next.ServeHTTP(w, r)
				return
			}
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		})
	}
}

// RequireAdmin only permits requests that present an admin key. A missing
// key is 401, a non-admin key is 403. With no admin keys configured the
// route is open.
func RequireAdmin(keys Keys) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(keys.Admin) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := readAuth(r)
			switch {
			case key == "":
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			case hasKey(key, keys.Admin):
				next.ServeHTTP(w, r)
			default:
				writeJSONError(w, http.StatusForbidden, "forbidden")
			}
		})
	}
}
