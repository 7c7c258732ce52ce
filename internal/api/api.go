package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/socialvault/socialvault/internal/action"
	"github.com/socialvault/socialvault/internal/extract"
	"github.com/socialvault/socialvault/internal/ingest"
	"github.com/socialvault/socialvault/internal/storage"
	"github.com/socialvault/socialvault/internal/teamdata"
)

const maxRequestBodySize = 1 << 20 // 1MB
const maxImportBodySize = 10 << 20 // 10MB

// FunctionRunner runs one function request end to end. Implemented by
// *pipeline.Runner.
type FunctionRunner interface {
	Run(ctx context.Context, fn action.Function, body []byte) (extract.Result, error)
}

type AppDeps struct {
	Runner        FunctionRunner
	Hooks         *teamdata.Hooks
	Store         *storage.Store
	Extractor     *ingest.Extractor
	Token         string
	AllowedOrigin string       // CORS origin for /functions; "*" when empty
	Logger        *slog.Logger // optional; slog.Default() when nil
}

func (d AppDeps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// NewAppHandler builds the HTTP surface: the prompt-dispatch functions,
// the team data REST routes and the health check.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Route("/functions", func(r chi.Router) {
		r.Use(CORS(deps.AllowedOrigin))
		r.Options("/{function}", handlePreflight)
		r.With(functionAuth(deps.Token)).Post("/{function}", handleFunction(deps))
	})

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))
		mountTeamRoutes(r, deps)
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
