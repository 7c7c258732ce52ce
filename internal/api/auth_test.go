package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBearerAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name    string
		token   string
		headers map[string]string
		want    int
	}{
		{"bearer", "secret", map[string]string{"Authorization": "Bearer secret"}, http.StatusNoContent},
		{"lowercase scheme", "secret", map[string]string{"Authorization": "bearer secret"}, http.StatusNoContent},
		{"apikey header", "secret", map[string]string{"apikey": "secret"}, http.StatusNoContent},
		{"wrong token", "secret", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
		{"basic scheme", "secret", map[string]string{"Authorization": "Basic secret"}, http.StatusUnauthorized},
		{"missing", "secret", nil, http.StatusUnauthorized},
		{"empty configured token", "", map[string]string{"Authorization": "Bearer "}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			BearerAuth(tt.token)(ok).ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && rr.Header().Get("WWW-Authenticate") == "" {
				t.Error("WWW-Authenticate header missing")
			}
		})
	}
}
