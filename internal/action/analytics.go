package action

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	PredictPerformance Name = "predict_performance"
	PerformanceScore   Name = "performance_score"
	AnalyzeAudience    Name = "analyze_audience"
	AnalyzeCompetitors Name = "analyze_competitors"
	AnalyzeTrends      Name = "analyze_trends"
	GenerateInsights   Name = "generate_insights"
)

const analyticsMaxTokens = 2500

const (
	sysPredictPerformance = `You are a social media analytics expert.
Predict how the given post will perform. State the expected number of likes as "N likes", the expected number of shares as "N shares" and the engagement rate as "engagement rate: N%".
Then explain the main factors behind the prediction and how to improve it.`

	sysPerformanceScore = `You are a social media performance auditor.
Score the given post's performance potential with an overall score in the form "N/10", then break the score down by hook, clarity, visual appeal, call to action and timing.`

	sysAnalyzeAudience = `You are an audience research analyst.
From the audience data, describe the main segments, their interests, active hours and the content formats they respond to.
Finish with three concrete targeting recommendations.`

	sysAnalyzeCompetitors = `You are a competitive intelligence analyst for social media.
Compare the competitors in the data: posting frequency, content pillars, engagement, strengths and weaknesses.
Finish with opportunities the team can exploit.`

	sysAnalyzeTrends = `You are a social media trend analyst.
Identify rising and declining topics in the historical data, note seasonal patterns and list the trending hashtags worth using, each starting with #.`

	sysGenerateInsights = `You are a friendly analytics assistant explaining results to a busy marketing team.
Turn the historical performance data into a short narrative: what went well, what did not, and what to try next week.`
)

func init() {
	register(Analytics, analyticsMaxTokens, map[Name]entry{
		PredictPerformance: {system: sysPredictPerformance, temperature: 0.3, decode: decodeAs[PredictPerformanceRequest]()},
		PerformanceScore:   {system: sysPerformanceScore, temperature: 0.3, decode: decodeAs[PerformanceScoreRequest]()},
		AnalyzeAudience:    {system: sysAnalyzeAudience, temperature: 0.3, decode: decodeAs[AnalyzeAudienceRequest]()},
		AnalyzeCompetitors: {system: sysAnalyzeCompetitors, temperature: 0.3, decode: decodeAs[AnalyzeCompetitorsRequest]()},
		AnalyzeTrends:      {system: sysAnalyzeTrends, temperature: 0.3, decode: decodeAs[AnalyzeTrendsRequest]()},
		GenerateInsights:   {system: sysGenerateInsights, temperature: 0.6, decode: decodeAs[GenerateInsightsRequest]()},
	})
}

// PredictPerformanceRequest asks for an engagement forecast of a post.
// TeamID and ContentID key the persisted prediction.
type PredictPerformanceRequest struct {
	PostData  json.RawMessage `json:"postData"`
	Platform  string          `json:"platform"`
	TeamID    string          `json:"teamId"`
	ContentID string          `json:"contentId"`
}

func (r *PredictPerformanceRequest) Action() Name { return PredictPerformance }

func (r *PredictPerformanceRequest) applyDefaults() {
	r.Platform = orDefault(r.Platform, defaultPlatform)
}

func (r *PredictPerformanceRequest) validate() error {
	return requireJSON(PredictPerformance, "postData", r.PostData)
}

func (r *PredictPerformanceRequest) userPrompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Platform: %s\n", r.Platform)
	optionalJSON(&sb, "Post", r.PostData)
	return sb.String()
}

// PerformanceScoreRequest asks for a 0-10 performance score of a post.
type PerformanceScoreRequest struct {
	PostData json.RawMessage `json:"postData"`
	Platform string          `json:"platform"`
}

func (r *PerformanceScoreRequest) Action() Name { return PerformanceScore }

func (r *PerformanceScoreRequest) applyDefaults() {
	r.Platform = orDefault(r.Platform, defaultPlatform)
}

func (r *PerformanceScoreRequest) validate() error {
	return requireJSON(PerformanceScore, "postData", r.PostData)
}

func (r *PerformanceScoreRequest) userPrompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Platform: %s\n", r.Platform)
	optionalJSON(&sb, "Post", r.PostData)
	return sb.String()
}

// AnalyzeAudienceRequest asks for an audience segmentation.
type AnalyzeAudienceRequest struct {
	AudienceData json.RawMessage `json:"audienceData"`
	Platform     string          `json:"platform"`
}

func (r *AnalyzeAudienceRequest) Action() Name { return AnalyzeAudience }

func (r *AnalyzeAudienceRequest) validate() error {
	return requireJSON(AnalyzeAudience, "audienceData", r.AudienceData)
}

func (r *AnalyzeAudienceRequest) userPrompt() string {
	var sb strings.Builder
	optionalLine(&sb, "Platform", r.Platform)
	optionalJSON(&sb, "Audience data", r.AudienceData)
	return sb.String()
}

// AnalyzeCompetitorsRequest asks for a comparison of competitor accounts.
type AnalyzeCompetitorsRequest struct {
	CompetitorData json.RawMessage `json:"competitorData"`
	Industry       string          `json:"industry"`
}

func (r *AnalyzeCompetitorsRequest) Action() Name { return AnalyzeCompetitors }

func (r *AnalyzeCompetitorsRequest) validate() error {
	return requireJSON(AnalyzeCompetitors, "competitorData", r.CompetitorData)
}

func (r *AnalyzeCompetitorsRequest) userPrompt() string {
	var sb strings.Builder
	optionalLine(&sb, "Industry", r.Industry)
	optionalJSON(&sb, "Competitors", r.CompetitorData)
	return sb.String()
}

// AnalyzeTrendsRequest asks for trends in historical post data.
type AnalyzeTrendsRequest struct {
	HistoricalData json.RawMessage `json:"historicalData"`
	Industry       string          `json:"industry"`
}

func (r *AnalyzeTrendsRequest) Action() Name { return AnalyzeTrends }

func (r *AnalyzeTrendsRequest) validate() error {
	return requireJSON(AnalyzeTrends, "historicalData", r.HistoricalData)
}

func (r *AnalyzeTrendsRequest) userPrompt() string {
	var sb strings.Builder
	optionalLine(&sb, "Industry", r.Industry)
	optionalJSON(&sb, "Historical data", r.HistoricalData)
	return sb.String()
}

// GenerateInsightsRequest asks for a narrative summary of historical data.
type GenerateInsightsRequest struct {
	HistoricalData json.RawMessage `json:"historicalData"`
	Language       string          `json:"language"`
}

func (r *GenerateInsightsRequest) Action() Name { return GenerateInsights }

func (r *GenerateInsightsRequest) applyDefaults() {
	r.Language = orDefault(r.Language, defaultLanguage)
}

func (r *GenerateInsightsRequest) validate() error {
	return requireJSON(GenerateInsights, "historicalData", r.HistoricalData)
}

func (r *GenerateInsightsRequest) userPrompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write the summary in %s.\n", r.Language)
	optionalJSON(&sb, "Historical data", r.HistoricalData)
	return sb.String()
}
