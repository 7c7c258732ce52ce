package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"

	"github.com/socialvault/socialvault/internal/ingest"
	"github.com/socialvault/socialvault/internal/storage"
)

// Collection names used in team data routes.
const (
	CollectionCompetitors       = "competitors"
	CollectionMarketInsights    = "market-insights"
	CollectionReports           = "reports"
	CollectionCompetitorContent = "competitor-content"
)

// userHeader carries the id of the authenticated caller.
const userHeader = "X-User-ID"

var md = goldmark.New()

// teamCollection is the surface of a teamdata.Hook used by the REST routes.
type teamCollection[T any] interface {
	List(ctx context.Context, teamID string) ([]T, error)
	Create(ctx context.Context, v T) (T, error)
	Update(ctx context.Context, id string, patch map[string]any) (T, error)
	SoftDelete(ctx context.Context, id string) error
}

func mountTeamRoutes(r chi.Router, deps AppDeps) {
	if deps.Hooks != nil {
		mountCollection(r, CollectionCompetitors, deps.Hooks.Competitors,
			func(c *storage.Competitor) *storage.Meta { return &c.Meta })
		mountCollection(r, CollectionMarketInsights, deps.Hooks.MarketInsights,
			func(m *storage.MarketInsight) *storage.Meta { return &m.Meta })
		mountCollection(r, CollectionReports, deps.Hooks.CompetitiveReports,
			func(c *storage.CompetitiveReport) *storage.Meta { return &c.Meta })
		mountCollection(r, CollectionCompetitorContent, deps.Hooks.CompetitorContent,
			func(c *storage.CompetitorContent) *storage.Meta { return &c.Meta })

		r.Post("/teams/{teamID}/"+CollectionCompetitorContent+"/import", handleImport(deps))
	}

	if deps.Store != nil {
		r.Get("/reports/{id}/html", handleReportHTML(deps))
		r.Get("/teams/{teamID}/predictions", handleListPredictions(deps))
		r.Get("/teams/{teamID}/schedule-suggestions", handleListScheduleSuggestions(deps))
	}
}

func mountCollection[T any](r chi.Router, name string, c teamCollection[T], meta func(*T) *storage.Meta) {
	r.Get("/teams/{teamID}/"+name, func(w http.ResponseWriter, r *http.Request) {
		items, err := c.List(r.Context(), chi.URLParam(r, "teamID"))
		if err != nil {
			storeError(w, name, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	})

	r.Post("/teams/{teamID}/"+name, func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var v T
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		m := meta(&v)
		m.ID = ""
		m.TeamID = chi.URLParam(r, "teamID")
		m.CreatedBy = r.Header.Get(userHeader)

		created, err := c.Create(r.Context(), v)
		if err != nil {
			storeError(w, name, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	})

	r.Patch("/"+name+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var patch map[string]any
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if len(patch) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "empty patch")
			return
		}

		updated, err := c.Update(r.Context(), chi.URLParam(r, "id"), patch)
		if err != nil {
			storeError(w, name, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	})

	r.Delete("/"+name+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := c.SoftDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
			storeError(w, name, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	})
}

func storeError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found", "%s not found", strings.TrimSuffix(name, "s"))
	case errors.Is(err, storage.ErrInvalid), errors.Is(err, storage.ErrUnknownField):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%s: %v", name, err)
	}
}

type ImportRequest struct {
	CompetitorID string `json:"competitor_id"`
	Platform     string `json:"platform"`
	Type         string `json:"type"`
	Content      string `json:"content"`
	URL          string `json:"url"`
}

func handleImport(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBodySize)
		defer r.Body.Close()

		var req ImportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Content == "" && req.URL == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "at least one of content or url is required")
			return
		}

		extractor := deps.Extractor
		if extractor == nil {
			extractor = ingest.NewExtractor(nil)
		}
		doc, err := extractor.Extract(r.Context(), ingest.Source{Type: req.Type, Content: req.Content, URL: req.URL})
		if err != nil {
			var fe *ingest.FetchError
			switch {
			case errors.As(err, &fe):
				httpError(w, http.StatusBadGateway, "api_error", "url returned status %d", fe.Status)
			case errors.Is(err, ingest.ErrEmpty), errors.Is(err, ingest.ErrUnsupported), req.Type != ingest.TypeURL:
				httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			default:
				httpError(w, http.StatusBadGateway, "api_error", "failed to fetch url: %v", err)
			}
			return
		}

		item := storage.CompetitorContent{
			Meta: storage.Meta{
				TeamID:    chi.URLParam(r, "teamID"),
				CreatedBy: r.Header.Get(userHeader),
			},
			CompetitorID: req.CompetitorID,
			Platform:     req.Platform,
			Content:      doc.Text,
		}
		if req.Type == ingest.TypeURL {
			item.PostURL = doc.Origin
		}

		created, err := deps.Hooks.CompetitorContent.Create(r.Context(), item)
		if err != nil {
			storeError(w, CollectionCompetitorContent, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func handleReportHTML(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := deps.Store.CompetitiveReports().Get(chi.URLParam(r, "id"))
		if err != nil {
			storeError(w, CollectionReports, err)
			return
		}

		page, err := renderReport(report)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to render report: %v", err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	}
}

// renderReport converts the report markdown to a standalone HTML page.
func renderReport(report storage.CompetitiveReport) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(report.Content), &body); err != nil {
		return nil, err
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	page.WriteString(html.EscapeString(report.Title))
	page.WriteString("</title></head>\n<body>\n<h1>")
	page.WriteString(html.EscapeString(report.Title))
	page.WriteString("</h1>\n")
	page.Write(body.Bytes())
	page.WriteString("</body></html>\n")
	return page.Bytes(), nil
}

func handleListPredictions(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		items, err := deps.Store.ListPredictions(chi.URLParam(r, "teamID"), limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list predictions: %v", err)
			return
		}
		if items == nil {
			items = []storage.PerformancePrediction{}
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func handleListScheduleSuggestions(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		items, err := deps.Store.ListScheduleSuggestions(chi.URLParam(r, "teamID"), limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list schedule suggestions: %v", err)
			return
		}
		if items == nil {
			items = []storage.ScheduleSuggestion{}
		}
		writeJSON(w, http.StatusOK, items)
	}
}
