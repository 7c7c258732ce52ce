package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// BearerAuth accepts "Authorization: Bearer <token>" or, as browser clients
// of the functions send it, an "apikey: <token>" header. An empty token
// rejects every request.
func BearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" || !validToken(requestToken(r), token) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="socialvault"`)
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if scheme, tok, ok := strings.Cut(auth, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(tok)
	}
	return r.Header.Get("apikey")
}

func validToken(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
