package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// --- Performance predictions ---

func (s *Store) SavePrediction(p PerformancePrediction) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO performance_predictions (id, team_id, content_id, platform, predicted_likes, predicted_shares, engagement_rate, raw_analysis, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.TeamID, p.ContentID, p.Platform, p.PredictedLikes, p.PredictedShares,
		p.EngagementRate, p.RawAnalysis, formatTime(p.CreatedAt),
	)
	return err
}

func (s *Store) ListPredictions(teamID string, limit int) ([]PerformancePrediction, error) {
	rows, err := s.db.Query(`
		SELECT id, team_id, content_id, platform, predicted_likes, predicted_shares, engagement_rate, raw_analysis, created_at
		FROM performance_predictions WHERE team_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, teamID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []PerformancePrediction{}
	for rows.Next() {
		var p PerformancePrediction
		var createdAt string
		if err := rows.Scan(&p.ID, &p.TeamID, &p.ContentID, &p.Platform, &p.PredictedLikes, &p.PredictedShares,
			&p.EngagementRate, &p.RawAnalysis, &createdAt); err != nil {
			return nil, err
		}
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// --- Schedule suggestions ---

func (s *Store) SaveScheduleSuggestion(sg ScheduleSuggestion) error {
	if sg.ID == "" {
		sg.ID = uuid.New().String()
	}
	if sg.CreatedAt.IsZero() {
		sg.CreatedAt = time.Now()
	}
	times := sg.SuggestedTimes
	if times == nil {
		times = []string{}
	}
	encoded, err := json.Marshal(times)
	if err != nil {
		return fmt.Errorf("encoding suggested times: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO schedule_suggestions (id, team_id, platform, suggested_times, raw_analysis, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sg.ID, sg.TeamID, sg.Platform, string(encoded), sg.RawAnalysis, formatTime(sg.CreatedAt),
	)
	return err
}

func (s *Store) ListScheduleSuggestions(teamID string, limit int) ([]ScheduleSuggestion, error) {
	rows, err := s.db.Query(`
		SELECT id, team_id, platform, suggested_times, raw_analysis, created_at
		FROM schedule_suggestions WHERE team_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, teamID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []ScheduleSuggestion{}
	for rows.Next() {
		var sg ScheduleSuggestion
		var times, createdAt string
		if err := rows.Scan(&sg.ID, &sg.TeamID, &sg.Platform, &times, &sg.RawAnalysis, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(times), &sg.SuggestedTimes); err != nil {
			return nil, fmt.Errorf("decoding suggested_times: %w", err)
		}
		if sg.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		results = append(results, sg)
	}
	return results, rows.Err()
}
