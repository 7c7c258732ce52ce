package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/socialvault/socialvault/internal/action"
)

const (
	corsAllowHeaders = "authorization, x-client-info, apikey, content-type"
	corsAllowMethods = "POST, OPTIONS"
)

// fallbackContent is the localized message returned in the content field
// when a function fails.
var fallbackContent = map[action.Function]string{
	action.ContentGenerator: "Xin lỗi, không thể tạo nội dung lúc này. Vui lòng thử lại sau.",
	action.Analytics:        "Xin lỗi, không thể phân tích dữ liệu lúc này. Vui lòng thử lại sau.",
	action.Automation:       "Xin lỗi, không thể thực hiện tác vụ tự động lúc này. Vui lòng thử lại sau.",
	action.VisualTools:      "Xin lỗi, không thể xử lý yêu cầu hình ảnh lúc này. Vui lòng thử lại sau.",
}

const genericFallback = "Xin lỗi, đã có lỗi xảy ra. Vui lòng thử lại sau."

// FallbackContent returns the localized failure message of fn.
func FallbackContent(fn action.Function) string {
	if msg, ok := fallbackContent[fn]; ok {
		return msg
	}
	return genericFallback
}

// CORS sets the cross-origin headers on every response. An empty origin
// allows any.
func CORS(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			next.ServeHTTP(w, r)
		})
	}
}

func handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok")
}

func handleFunction(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "function")
		fn, err := action.ParseFunction(name)
		if err != nil {
			httpError(w, http.StatusNotFound, "not_found", "unknown function %q", name)
			return
		}
		functionHandler(deps, fn, w, r)
	}
}

// functionHandler runs one request and converts every error, panics
// included, into the 500 envelope.
func functionHandler(deps AppDeps, fn action.Function, w http.ResponseWriter, r *http.Request) {
	logger := deps.logger()
	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorContext(r.Context(), "function panicked", "function", fn, "panic", rec)
			writeFunctionError(w, fn, fmt.Errorf("internal error: %v", rec))
		}
	}()

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeFunctionError(w, fn, fmt.Errorf("%w: %v", action.ErrInvalidRequest, err))
		return
	}

	res, err := deps.Runner.Run(r.Context(), fn, body)
	if err != nil {
		level := logger.WarnContext
		var missing *action.MissingFieldError
		if errors.Is(err, action.ErrInvalidAction) || errors.Is(err, action.ErrInvalidRequest) || errors.As(err, &missing) {
			level = logger.InfoContext
		}
		level(r.Context(), "function failed", "function", fn, "error", err)
		writeFunctionError(w, fn, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func writeFunctionError(w http.ResponseWriter, fn action.Function, err error) {
	writeFunctionStatus(w, http.StatusInternalServerError, fn, err.Error())
}

func writeFunctionStatus(w http.ResponseWriter, status int, fn action.Function, msg string) {
	writeJSON(w, status, map[string]string{
		"error":   msg,
		"content": FallbackContent(fn),
	})
}

// functionAuth is BearerAuth for the function routes. A rejected request
// still gets the {error, content} envelope, with status 401.
func functionAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" || !validToken(requestToken(r), token) {
				fn, _ := action.ParseFunction(chi.URLParam(r, "function"))
				w.Header().Set("WWW-Authenticate", `Bearer realm="socialvault"`)
				writeFunctionStatus(w, http.StatusUnauthorized, fn, "invalid or missing bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
