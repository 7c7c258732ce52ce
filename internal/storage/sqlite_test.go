package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

func TestMigrationsOrdered(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(versions) < 2 {
		t.Fatalf("applied migrations = %v, want at least 2", versions)
	}
	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			t.Errorf("migrations not in ascending order: %v", versions)
			break
		}
	}
}

func TestTablesExist(t *testing.T) {
	s := openTestStore(t)

	tables := []string{
		"competitors", "market_insights", "competitive_reports", "competitor_content",
		"performance_predictions", "schedule_suggestions",
	}
	for _, name := range tables {
		var count int
		err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count)
		if err != nil {
			t.Fatalf("querying sqlite_master for %q: %v", name, err)
		}
		if count != 1 {
			t.Errorf("table %q not found", name)
		}
	}
}

func TestCompetitors_CreateAndList(t *testing.T) {
	s := openTestStore(t)
	c := s.Competitors()

	created, err := c.Create(Competitor{
		Meta:     Meta{TeamID: "team-1", CreatedBy: "user-1"},
		Name:     "Bean Bros",
		Platform: "Instagram",
		Handle:   "@beanbros",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Error("expected ID to be assigned")
	}
	if !created.IsActive {
		t.Error("new competitor should be active")
	}
	if created.CreatedAt.IsZero() || !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Errorf("timestamps = %v / %v", created.CreatedAt, created.UpdatedAt)
	}

	if _, err := c.Create(Competitor{Meta: Meta{TeamID: "team-2"}, Name: "Other team"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := c.List("team-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("List returned %d rows, want 1", len(got))
	}
	if got[0].ID != created.ID || got[0].Name != "Bean Bros" || got[0].Handle != "@beanbros" || got[0].CreatedBy != "user-1" {
		t.Errorf("List()[0] = %+v", got[0])
	}
	if !got[0].CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt round-trip = %v, want %v", got[0].CreatedAt, created.CreatedAt)
	}
}

func TestCollection_ListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	c := s.MarketInsights()

	for i := 0; i < 5; i++ {
		if _, err := c.Create(MarketInsight{Meta: Meta{TeamID: "t"}, Title: fmt.Sprintf("insight %d", i)}); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	got, err := c.List("t")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d rows, want 5", len(got))
	}
	if got[0].Title != "insight 4" || got[4].Title != "insight 0" {
		t.Errorf("order = %q ... %q, want newest first", got[0].Title, got[4].Title)
	}
}

func TestCollection_ListEmpty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.CompetitiveReports().List("nobody")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("List = %#v, want empty non-nil slice", got)
	}
}

func TestCollection_CreateValidation(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.Competitors().Create(Competitor{Name: "no team"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("missing team_id: err = %v, want ErrInvalid", err)
	}
	if _, err := s.Competitors().Create(Competitor{Meta: Meta{TeamID: "t"}}); !errors.Is(err, ErrInvalid) {
		t.Errorf("missing name: err = %v, want ErrInvalid", err)
	}
	if _, err := s.CompetitiveReports().Create(CompetitiveReport{
		Meta: Meta{TeamID: "t"}, Title: "r", CompetitorIDs: json.RawMessage(`[1,`),
	}); !errors.Is(err, ErrInvalid) {
		t.Errorf("invalid competitor_ids: err = %v, want ErrInvalid", err)
	}
}

func TestCollection_SoftDelete(t *testing.T) {
	s := openTestStore(t)
	c := s.CompetitorContent()

	item, err := c.Create(CompetitorContent{Meta: Meta{TeamID: "t"}, Content: "post", Likes: 10})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := c.SoftDelete(item.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	list, err := c.List("t")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("soft-deleted row still listed: %+v", list)
	}

	// The row is still in the table.
	got, err := c.Get(item.ID)
	if err != nil {
		t.Fatalf("Get after SoftDelete: %v", err)
	}
	if got.IsActive {
		t.Error("IsActive = true after SoftDelete")
	}

	if err := c.SoftDelete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SoftDelete(missing) = %v, want ErrNotFound", err)
	}
}

func TestCollection_SoftDeleteArchives(t *testing.T) {
	s := openTestStore(t)
	c := s.CompetitiveReports()

	r, err := c.Create(CompetitiveReport{Meta: Meta{TeamID: "t"}, Title: "Q3", CompetitorIDs: json.RawMessage(`["a","b"]`)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := c.SoftDelete(r.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	got, err := c.Get(r.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.IsArchived {
		t.Error("IsArchived = false after SoftDelete")
	}
	if string(got.CompetitorIDs) != `["a","b"]` {
		t.Errorf("CompetitorIDs = %s", got.CompetitorIDs)
	}
}

func TestCollection_Update(t *testing.T) {
	s := openTestStore(t)
	c := s.Competitors()

	created, err := c.Create(Competitor{Meta: Meta{TeamID: "t"}, Name: "Old", Notes: "keep"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	updated, err := c.Update(created.ID, map[string]any{"name": "New", "platform": "TikTok"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "New" || updated.Platform != "TikTok" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Notes != "keep" {
		t.Errorf("Notes = %q, untouched fields must be kept", updated.Notes)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("UpdatedAt not advanced: %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}

	if _, err := c.Update(created.ID, map[string]any{"team_id": "other"}); !errors.Is(err, ErrUnknownField) {
		t.Errorf("Update(team_id) = %v, want ErrUnknownField", err)
	}
	if _, err := c.Update("missing", map[string]any{"name": "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) = %v, want ErrNotFound", err)
	}
}

func TestCollection_UpdateJSONAndNumbers(t *testing.T) {
	s := openTestStore(t)

	r, err := s.CompetitiveReports().Create(CompetitiveReport{Meta: Meta{TeamID: "t"}, Title: "r"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if string(r.CompetitorIDs) != "[]" {
		t.Errorf("default CompetitorIDs = %s, want []", r.CompetitorIDs)
	}

	got, err := s.CompetitiveReports().Update(r.ID, map[string]any{"competitor_ids": []any{"c1", "c2"}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if string(got.CompetitorIDs) != `["c1","c2"]` {
		t.Errorf("CompetitorIDs = %s", got.CompetitorIDs)
	}

	cc, err := s.CompetitorContent().Create(CompetitorContent{Meta: Meta{TeamID: "t"}, Content: "x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	cc, err = s.CompetitorContent().Update(cc.ID, map[string]any{"likes": float64(120)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if cc.Likes != 120 {
		t.Errorf("Likes = %d, want 120", cc.Likes)
	}
}

func TestCollection_UpdateRejectsWrongTypes(t *testing.T) {
	s := openTestStore(t)

	mi, err := s.MarketInsights().Create(MarketInsight{Meta: Meta{TeamID: "t1"}, Title: "Oat milk", RelevanceScore: 6})
	if err != nil {
		t.Fatalf("Create insight: %v", err)
	}
	r, err := s.CompetitiveReports().Create(CompetitiveReport{Meta: Meta{TeamID: "t1"}, Title: "Q3"})
	if err != nil {
		t.Fatalf("Create report: %v", err)
	}
	cc, err := s.CompetitorContent().Create(CompetitorContent{Meta: Meta{TeamID: "t1"}, Content: "post"})
	if err != nil {
		t.Fatalf("Create content: %v", err)
	}
	comp, err := s.Competitors().Create(Competitor{Meta: Meta{TeamID: "t1"}, Name: "Bean Bros"})
	if err != nil {
		t.Fatalf("Create competitor: %v", err)
	}

	tests := []struct {
		name   string
		update func() error
	}{
		{"score as string", func() error {
			_, err := s.MarketInsights().Update(mi.ID, map[string]any{"relevance_score": "high"})
			return err
		}},
		{"archived as string", func() error {
			_, err := s.MarketInsights().Update(mi.ID, map[string]any{"is_archived": "true"})
			return err
		}},
		{"likes as string", func() error {
			_, err := s.CompetitorContent().Update(cc.ID, map[string]any{"likes": "many"})
			return err
		}},
		{"shares fractional", func() error {
			_, err := s.CompetitorContent().Update(cc.ID, map[string]any{"shares": 2.5})
			return err
		}},
		{"active as number", func() error {
			_, err := s.Competitors().Update(comp.ID, map[string]any{"is_active": float64(0)})
			return err
		}},
		{"name as number", func() error {
			_, err := s.Competitors().Update(comp.ID, map[string]any{"name": float64(7)})
			return err
		}},
		{"ids as object", func() error {
			_, err := s.CompetitiveReports().Update(r.ID, map[string]any{"competitor_ids": map[string]any{"a": 1}})
			return err
		}},
		{"ids as non-array string", func() error {
			_, err := s.CompetitiveReports().Update(r.ID, map[string]any{"competitor_ids": "c1,c2"})
			return err
		}},
		{"null value", func() error {
			_, err := s.Competitors().Update(comp.ID, map[string]any{"notes": nil})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.update(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Update = %v, want ErrInvalid", err)
			}
		})
	}

	if got, err := s.MarketInsights().List("t1"); err != nil || len(got) != 1 || got[0].RelevanceScore != 6 {
		t.Errorf("insights List = %+v, %v", got, err)
	}
	if got, err := s.CompetitorContent().List("t1"); err != nil || len(got) != 1 {
		t.Errorf("content List = %+v, %v", got, err)
	}
	if got, err := s.Competitors().List("t1"); err != nil || len(got) != 1 || got[0].Name != "Bean Bros" {
		t.Errorf("competitors List = %+v, %v", got, err)
	}
	if got, err := s.CompetitiveReports().List("t1"); err != nil || len(got) != 1 || string(got[0].CompetitorIDs) != "[]" {
		t.Errorf("reports List = %+v, %v", got, err)
	}

	// Accepted coercions.
	if got, err := s.MarketInsights().Update(mi.ID, map[string]any{"relevance_score": 9}); err != nil || got.RelevanceScore != 9 {
		t.Errorf("int score: %+v, %v", got, err)
	}
	if got, err := s.CompetitiveReports().Update(r.ID, map[string]any{"competitor_ids": `["c9"]`}); err != nil || string(got.CompetitorIDs) != `["c9"]` {
		t.Errorf("ids as JSON string: %+v, %v", got, err)
	}
	if got, err := s.Competitors().Update(comp.ID, map[string]any{"is_active": false}); err != nil || got.IsActive {
		t.Errorf("bool flag: %+v, %v", got, err)
	}
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Competitors().Get("does-not-exist")
	if err != ErrNotFound {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSaveAndListPredictions(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := s.SavePrediction(PerformancePrediction{
			TeamID:          "team-1",
			ContentID:       fmt.Sprintf("content-%d", i),
			Platform:        "Facebook",
			PredictedLikes:  100 + i,
			PredictedShares: 20,
			EngagementRate:  4.5,
			RawAnalysis:     "analysis",
			CreatedAt:       base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("SavePrediction %d: %v", i, err)
		}
	}

	got, err := s.ListPredictions("team-1", 2)
	if err != nil {
		t.Fatalf("ListPredictions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d predictions, want 2", len(got))
	}
	if got[0].ContentID != "content-2" || got[0].PredictedLikes != 102 {
		t.Errorf("first = %+v, want newest", got[0])
	}
	if got[0].EngagementRate != 4.5 {
		t.Errorf("EngagementRate = %v", got[0].EngagementRate)
	}
	if !got[0].CreatedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("CreatedAt = %v", got[0].CreatedAt)
	}
}

func TestSaveAndListScheduleSuggestions(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveScheduleSuggestion(ScheduleSuggestion{
		TeamID:         "team-1",
		Platform:       "TikTok",
		SuggestedTimes: []string{"09:00", "19h"},
		RawAnalysis:    "post in the evening",
	}); err != nil {
		t.Fatalf("SaveScheduleSuggestion: %v", err)
	}
	if err := s.SaveScheduleSuggestion(ScheduleSuggestion{TeamID: "team-1", Platform: "Facebook"}); err != nil {
		t.Fatalf("SaveScheduleSuggestion without times: %v", err)
	}

	got, err := s.ListScheduleSuggestions("team-1", 10)
	if err != nil {
		t.Fatalf("ListScheduleSuggestions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d suggestions, want 2", len(got))
	}
	var tiktok ScheduleSuggestion
	for _, sg := range got {
		if sg.Platform == "TikTok" {
			tiktok = sg
		}
	}
	if len(tiktok.SuggestedTimes) != 2 || tiktok.SuggestedTimes[1] != "19h" {
		t.Errorf("SuggestedTimes = %v", tiktok.SuggestedTimes)
	}
}

func TestSaveAfterClose(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	if err := s.SavePrediction(PerformancePrediction{TeamID: "t"}); err == nil {
		t.Error("expected error writing to a closed store")
	}
}
