package extract

import (
	"math"

	"github.com/socialvault/socialvault/internal/action"
)

// Field names of the structured result.
const (
	FieldHashtags        = "hashtags"
	FieldScore           = "score"
	FieldRelevanceScore  = "relevanceScore"
	FieldColors          = "colors"
	FieldSuggestedTimes  = "suggestedTimes"
	FieldIdeas           = "ideas"
	FieldPredictedLikes  = "predictedLikes"
	FieldPredictedShares = "predictedShares"
	FieldEngagementRate  = "engagementRate"
)

// Fallbacks used when the completion text carries no usable number.
const (
	FallbackOriginality     = 5
	FallbackPerformance     = 7
	FallbackRelevance       = 5
	FallbackPredictedLikes  = 100
	FallbackPredictedShares = 20

	engagementMin = 2.0
	engagementMax = 7.0
)

var (
	likeLabels       = []string{"likes", "like", "lượt thích", "lượt like"}
	shareLabels      = []string{"shares", "share", "lượt chia sẻ", "lượt share"}
	engagementLabels = []string{"engagement rate", "engagement", "tỷ lệ tương tác", "tương tác"}
)

// Rand is the random source behind the placeholder engagement rate.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Structure builds the result for a completion of the given action. It
// never fails: fields that cannot be extracted fall back to their
// constants or are left out.
func Structure(name action.Name, raw string, rng Rand) Result {
	res := Result{Content: raw}

	switch name {
	case action.GenerateContent, action.GenerateHashtags, action.AdaptPlatform,
		action.AnalyzeTrends, action.RepurposeContent, action.ImageCaption:
		res.Set(FieldHashtags, Hashtags(raw))

	case action.AnalyzeOriginality:
		res.Set(FieldScore, scoreOr(raw, FallbackOriginality))
	case action.PerformanceScore:
		res.Set(FieldScore, scoreOr(raw, FallbackPerformance))
	case action.ContentCuration:
		res.Set(FieldRelevanceScore, scoreOr(raw, FallbackRelevance))
	case action.BrandVoiceCheck:
		if s, ok := Score(raw); ok {
			res.Set(FieldScore, s)
		}

	case action.GenerateIdeas, action.OptimizeWorkflow:
		res.Set(FieldIdeas, ListItems(raw))

	case action.SmartScheduling, action.ContentCalendar:
		res.Set(FieldSuggestedTimes, TimeTokens(raw))

	case action.ColorPalette, action.DesignSuggestions:
		res.Set(FieldColors, HexColors(raw))

	case action.PredictPerformance:
		res.Set(FieldPredictedLikes, countOr(raw, likeLabels, FallbackPredictedLikes))
		res.Set(FieldPredictedShares, countOr(raw, shareLabels, FallbackPredictedShares))
		res.Set(FieldEngagementRate, engagementRate(raw, rng))
	}

	return res
}

func scoreOr(text string, fallback float64) float64 {
	if s, ok := Score(text); ok {
		return s
	}
	return fallback
}

func countOr(text string, labels []string, fallback int) int {
	if n, ok := Count(text, labels...); ok {
		return n
	}
	return fallback
}

// engagementRate returns the labelled percentage in text, or a random
// placeholder in [2, 7) rounded to one decimal.
func engagementRate(text string, rng Rand) float64 {
	if p, ok := Percent(text, engagementLabels...); ok {
		return p
	}
	if rng == nil {
		return engagementMin
	}
	v := engagementMin + rng.Float64()*(engagementMax-engagementMin)
	v = math.Round(v*10) / 10
	if v >= engagementMax {
		v = engagementMax - 0.1
	}
	return v
}
