package storage

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnknownField is returned when a patch names a column that cannot be updated.
	ErrUnknownField = errors.New("field cannot be updated")
	// ErrInvalid is returned when a record fails validation.
	ErrInvalid = errors.New("invalid record")
)

// Meta holds the columns shared by every team-scoped entity.
type Meta struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Competitor struct {
	Meta
	Name       string `json:"name"`
	Platform   string `json:"platform"`
	Handle     string `json:"handle"`
	WebsiteURL string `json:"website_url"`
	Notes      string `json:"notes"`
	IsActive   bool   `json:"is_active"`
}

type MarketInsight struct {
	Meta
	Title          string  `json:"title"`
	Category       string  `json:"category"`
	Summary        string  `json:"summary"`
	RelevanceScore float64 `json:"relevance_score"`
	Source         string  `json:"source"`
	IsArchived     bool    `json:"is_archived"`
}

type CompetitiveReport struct {
	Meta
	Title         string          `json:"title"`
	ReportType    string          `json:"report_type"`
	Content       string          `json:"content"` // markdown
	CompetitorIDs json.RawMessage `json:"competitor_ids"`
	IsArchived    bool            `json:"is_archived"`
}

type CompetitorContent struct {
	Meta
	CompetitorID string `json:"competitor_id"`
	Platform     string `json:"platform"`
	Content      string `json:"content"`
	PostURL      string `json:"post_url"`
	Likes        int    `json:"likes"`
	Shares       int    `json:"shares"`
	IsActive     bool   `json:"is_active"`
}

// PerformancePrediction is written after a predict_performance call.
type PerformancePrediction struct {
	ID              string    `json:"id"`
	TeamID          string    `json:"team_id"`
	ContentID       string    `json:"content_id"`
	Platform        string    `json:"platform"`
	PredictedLikes  int       `json:"predicted_likes"`
	PredictedShares int       `json:"predicted_shares"`
	EngagementRate  float64   `json:"engagement_rate"`
	RawAnalysis     string    `json:"raw_analysis"`
	CreatedAt       time.Time `json:"created_at"`
}

// ScheduleSuggestion is written after a smart_scheduling call.
type ScheduleSuggestion struct {
	ID             string    `json:"id"`
	TeamID         string    `json:"team_id"`
	Platform       string    `json:"platform"`
	SuggestedTimes []string  `json:"suggested_times"`
	RawAnalysis    string    `json:"raw_analysis"`
	CreatedAt      time.Time `json:"created_at"`
}
