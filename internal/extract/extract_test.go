package extract

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialvault/socialvault/internal/action"
)

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

func TestHashtags(t *testing.T) {
	text := "Sale! #summer #Sale2024 #summer #cà_phê and email@x.com #"
	got := Hashtags(text)
	assert.Equal(t, []string{"#summer", "#Sale2024", "#summer", "#cà_phê"}, got)

	empty := Hashtags("no tags here")
	require.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestHashtags_Idempotent(t *testing.T) {
	inputs := []string{
		"Try #coffee #latte,#art! #coffee",
		"#a#b #Đà_Nẵng (#travel)",
		"nothing",
	}
	for _, in := range inputs {
		first := Hashtags(in)
		second := Hashtags(strings.Join(first, " "))
		assert.Equal(t, first, second, "input %q", in)
		for _, h := range first {
			assert.True(t, strings.HasPrefix(h, "#"))
		}
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		text   string
		want   float64
		wantOK bool
	}{
		{"Overall: 7/10. Good hook.", 7, true},
		{"Score 8.5 / 10", 8.5, true},
		{"Đánh giá: 6 điểm", 6, true},
		{"Điểm: 9,5 điểm", 9.5, true},
		{"first 4/10 then 9/10", 4, true},
		{"no numbers", 0, false},
		{"42/100", 0, false},
		{"Posted 2024/10/05, rated 8/10", 8, true},
		{"Due 8/10/2024", 0, false},
		{"Reach 150 điểm chạm, quality 7 điểm", 7, true},
	}
	for _, tt := range tests {
		got, ok := Score(tt.text)
		assert.Equal(t, tt.wantOK, ok, "text %q", tt.text)
		assert.Equal(t, tt.want, got, "text %q", tt.text)
	}
}

func TestHexColors(t *testing.T) {
	got := HexColors("Primary #1A2B3C, invalid #zzzzzz, accent #ff8800; too long #1234567 and #abc")
	assert.Equal(t, []string{"#1A2B3C", "#ff8800"}, got)
	assert.Empty(t, HexColors("none"))
}

func TestTimeTokens(t *testing.T) {
	got := TimeTokens("Post at 09:30, 12:00 or 19h. Avoid 25:99 and 5hours.")
	assert.Equal(t, []string{"09:30", "12:00", "19h"}, got)

	got = TimeTokens("Post at 9:30am, 19h30 or 20:00.")
	assert.Equal(t, []string{"9:30am", "19h30", "20:00"}, got)

	got = TimeTokens("Try 7:15 PM or 08:00 amazing mornings, not 5hours")
	assert.Equal(t, []string{"7:15 PM", "08:00"}, got)
}

func TestCount(t *testing.T) {
	n, ok := Count("Expect around 1,200 likes and 85 shares", likeLabels...)
	require.True(t, ok)
	assert.Equal(t, 1200, n)

	n, ok = Count("Expect around 1,200 likes and 85 shares", shareLabels...)
	require.True(t, ok)
	assert.Equal(t, 85, n)

	n, ok = Count("Dự kiến 350 lượt thích", likeLabels...)
	require.True(t, ok)
	assert.Equal(t, 350, n)

	_, ok = Count("lots of likes", likeLabels...)
	assert.False(t, ok)

	n, ok = Count("Expect 3 likely reposts and 500 likes", likeLabels...)
	require.True(t, ok)
	assert.Equal(t, 500, n)
}

func TestPercent(t *testing.T) {
	p, ok := Percent("Engagement rate: 4.5% overall", engagementLabels...)
	require.True(t, ok)
	assert.Equal(t, 4.5, p)

	_, ok = Percent("50% off today", engagementLabels...)
	assert.False(t, ok)
}

func TestListItems(t *testing.T) {
	text := "Ideas:\n1. Behind the scenes\n2) Customer story\n- Poll\n* Giveaway\nnot an item\n**Bold**"
	assert.Equal(t, []string{"Behind the scenes", "Customer story", "Poll", "Giveaway"}, ListItems(text))
}

func TestStructure_ContentAlwaysRaw(t *testing.T) {
	raw := "  some reply with #tag  "
	for _, fn := range action.Functions {
		tbl, err := action.TableFor(fn)
		require.NoError(t, err)
		for _, name := range tbl.Actions() {
			res := Structure(name, raw, fixedRand(0.5))
			assert.Equal(t, raw, res.Content, "action %s", name)
		}
	}
}

func TestStructure_ScoreFallbacks(t *testing.T) {
	res := Structure(action.PerformanceScore, "This post scores 7/10.", nil)
	assert.Equal(t, 7.0, res.Fields[FieldScore])

	res = Structure(action.AnalyzeOriginality, "Quite generic.", nil)
	assert.Equal(t, 5.0, res.Fields[FieldScore])

	res = Structure(action.PerformanceScore, "Hard to say.", nil)
	assert.Equal(t, 7.0, res.Fields[FieldScore])

	res = Structure(action.ContentCuration, "Relevant content.", nil)
	assert.Equal(t, 5.0, res.Fields[FieldRelevanceScore])

	res = Structure(action.BrandVoiceCheck, "Matches the voice.", nil)
	_, ok := res.Get(FieldScore)
	assert.False(t, ok)
}

func TestStructure_PredictPerformance(t *testing.T) {
	res := Structure(action.PredictPerformance, "About 450 likes, 30 shares, engagement rate: 3.2%.", fixedRand(0.99))
	likes, _ := res.Int(FieldPredictedLikes)
	shares, _ := res.Int(FieldPredictedShares)
	rate, _ := res.Float(FieldEngagementRate)
	assert.Equal(t, 450, likes)
	assert.Equal(t, 30, shares)
	assert.Equal(t, 3.2, rate)

	res = Structure(action.PredictPerformance, "Should do fine.", fixedRand(0.5))
	likes, _ = res.Int(FieldPredictedLikes)
	shares, _ = res.Int(FieldPredictedShares)
	rate, _ = res.Float(FieldEngagementRate)
	assert.Equal(t, FallbackPredictedLikes, likes)
	assert.Equal(t, FallbackPredictedShares, shares)
	assert.Equal(t, 4.5, rate)
}

func TestStructure_EngagementRateRange(t *testing.T) {
	for _, f := range []float64{0, 0.1, 0.33, 0.5, 0.77, 0.999999} {
		res := Structure(action.PredictPerformance, "", fixedRand(f))
		rate, ok := res.Float(FieldEngagementRate)
		require.True(t, ok)
		assert.GreaterOrEqual(t, rate, 2.0)
		assert.Less(t, rate, 7.0)
		assert.InDelta(t, rate, float64(int(rate*10+0.5))/10, 1e-9)
	}
}

func TestStructure_ListFields(t *testing.T) {
	res := Structure(action.ColorPalette, "Use #112233 and #AABBCC", nil)
	assert.Equal(t, []string{"#112233", "#AABBCC"}, res.Fields[FieldColors])

	res = Structure(action.SmartScheduling, "Best at 08:00 and 20h", nil)
	assert.Equal(t, []string{"08:00", "20h"}, res.Fields[FieldSuggestedTimes])

	res = Structure(action.GenerateHashtags, "no tags", nil)
	assert.Equal(t, []string{}, res.Fields[FieldHashtags])

	res = Structure(action.AltText, "A cup #1 of coffee", nil)
	assert.Empty(t, res.Fields)
}

func TestResult_MarshalJSON(t *testing.T) {
	res := Structure(action.GenerateHashtags, "nothing to see", nil)
	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":"nothing to see","hashtags":[]}`, string(b))

	b, err = json.Marshal(Result{Content: "plain"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":"plain"}`, string(b))

	var back Result
	require.NoError(t, json.Unmarshal([]byte(`{"content":"x","score":7}`), &back))
	assert.Equal(t, "x", back.Content)
	s, ok := back.Float("score")
	require.True(t, ok)
	assert.Equal(t, 7.0, s)
}
