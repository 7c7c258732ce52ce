package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalid, field)
	}
	return nil
}

// textColumns marks cols as patchable strings. Typed columns are added to
// the returned map by the table definition.
func textColumns(cols ...string) map[string]colKind {
	m := make(map[string]colKind, len(cols))
	for _, c := range cols {
		m[c] = kindText
	}
	return m
}

func withKinds(m map[string]colKind, typed map[string]colKind) map[string]colKind {
	for c, k := range typed {
		m[c] = k
	}
	return m
}

var competitorsTable = entityTable[Competitor]{
	name:    "competitors",
	columns: []string{"name", "platform", "handle", "website_url", "notes"},
	flag:    "is_active",
	live:    true,
	mutable: textColumns("name", "platform", "handle", "website_url", "notes"),
	meta:    func(c *Competitor) *Meta { return &c.Meta },
	flagPtr: func(c *Competitor) *bool { return &c.IsActive },
	values: func(c *Competitor) []any {
		return []any{c.Name, c.Platform, c.Handle, c.WebsiteURL, c.Notes}
	},
	dests: func(c *Competitor) []any {
		return []any{&c.Name, &c.Platform, &c.Handle, &c.WebsiteURL, &c.Notes}
	},
	validate: func(c *Competitor) error { return required("name", c.Name) },
}

var marketInsightsTable = entityTable[MarketInsight]{
	name:    "market_insights",
	columns: []string{"title", "category", "summary", "relevance_score", "source"},
	flag:    "is_archived",
	live:    false,
	mutable: withKinds(textColumns("title", "category", "summary", "source"),
		map[string]colKind{"relevance_score": kindFloat}),
	meta:    func(m *MarketInsight) *Meta { return &m.Meta },
	flagPtr: func(m *MarketInsight) *bool { return &m.IsArchived },
	values: func(m *MarketInsight) []any {
		return []any{m.Title, m.Category, m.Summary, m.RelevanceScore, m.Source}
	},
	dests: func(m *MarketInsight) []any {
		return []any{&m.Title, &m.Category, &m.Summary, &m.RelevanceScore, &m.Source}
	},
	validate: func(m *MarketInsight) error { return required("title", m.Title) },
}

var competitiveReportsTable = entityTable[CompetitiveReport]{
	name:    "competitive_reports",
	columns: []string{"title", "report_type", "content", "competitor_ids"},
	flag:    "is_archived",
	live:    false,
	mutable: withKinds(textColumns("title", "report_type", "content"),
		map[string]colKind{"competitor_ids": kindJSONArray}),
	meta:    func(r *CompetitiveReport) *Meta { return &r.Meta },
	flagPtr: func(r *CompetitiveReport) *bool { return &r.IsArchived },
	values: func(r *CompetitiveReport) []any {
		ids := bytes.TrimSpace(r.CompetitorIDs)
		if len(ids) == 0 || bytes.Equal(ids, []byte("null")) {
			r.CompetitorIDs = json.RawMessage("[]")
			ids = r.CompetitorIDs
		}
		return []any{r.Title, r.ReportType, r.Content, string(ids)}
	},
	dests: func(r *CompetitiveReport) []any {
		return []any{&r.Title, &r.ReportType, &r.Content, jsonText{&r.CompetitorIDs}}
	},
	validate: func(r *CompetitiveReport) error {
		if err := required("title", r.Title); err != nil {
			return err
		}
		if len(bytes.TrimSpace(r.CompetitorIDs)) > 0 && !json.Valid(r.CompetitorIDs) {
			return fmt.Errorf("%w: competitor_ids is not valid JSON", ErrInvalid)
		}
		return nil
	},
}

var competitorContentTable = entityTable[CompetitorContent]{
	name:    "competitor_content",
	columns: []string{"competitor_id", "platform", "content", "post_url", "likes", "shares"},
	flag:    "is_active",
	live:    true,
	mutable: withKinds(textColumns("competitor_id", "platform", "content", "post_url"),
		map[string]colKind{"likes": kindInt, "shares": kindInt}),
	meta:    func(c *CompetitorContent) *Meta { return &c.Meta },
	flagPtr: func(c *CompetitorContent) *bool { return &c.IsActive },
	values: func(c *CompetitorContent) []any {
		return []any{c.CompetitorID, c.Platform, c.Content, c.PostURL, c.Likes, c.Shares}
	},
	dests: func(c *CompetitorContent) []any {
		return []any{&c.CompetitorID, &c.Platform, &c.Content, &c.PostURL, &c.Likes, &c.Shares}
	},
	validate: func(c *CompetitorContent) error { return required("content", c.Content) },
}
