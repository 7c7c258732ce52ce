package action

import (
	"fmt"
	"strings"
)

const (
	GenerateContent    Name = "generate_content"
	GenerateHashtags   Name = "generate_hashtags"
	ImproveContent     Name = "improve_content"
	TranslateContent   Name = "translate_content"
	AnalyzeOriginality Name = "analyze_originality"
	GenerateIdeas      Name = "generate_ideas"
	AdaptPlatform      Name = "adapt_platform"
)

const contentMaxTokens = 2000

const (
	sysGenerateContent = `You are an experienced social media copywriter for small and medium businesses in Vietnam.
Write engaging, platform-appropriate posts that match the requested tone.
Keep paragraphs short, use emoji sparingly, end with a clear call to action and 3 to 5 relevant hashtags.`

	sysGenerateHashtags = `You are a social media growth specialist.
Suggest hashtags that maximise reach for the given post: mix broad, niche and branded tags.
Return 10 to 15 hashtags on one line, each starting with #, followed by one sentence explaining the strategy.`

	sysImproveContent = `You are a senior social media editor.
Rewrite the given post to be clearer, more engaging and better suited to the platform while keeping the author's message.
Return only the improved post.`

	sysTranslateContent = `You are a professional translator specialised in marketing copy.
Translate the post faithfully, adapting idioms and hashtags so they read naturally for native speakers.
Return only the translation.`

	sysAnalyzeOriginality = `You are a content originality reviewer.
Assess how original and distinctive the given post is compared with typical posts in the same niche.
Give an overall score in the form "N/10", then list clichés you found and concrete suggestions to make it more unique.`

	sysGenerateIdeas = `You are a creative content strategist.
Produce a numbered list of 10 fresh post ideas for the given industry and platform.
Each item has a short title and one sentence describing the angle.`

	sysAdaptPlatform = `You are a cross-platform social media specialist.
Adapt the given post to the conventions of the target platform: length, formatting, tone and hashtag usage.
Return only the adapted post.`
)

func init() {
	register(ContentGenerator, contentMaxTokens, map[Name]entry{
		GenerateContent:    {system: sysGenerateContent, temperature: 0.7, decode: decodeAs[GenerateContentRequest]()},
		GenerateHashtags:   {system: sysGenerateHashtags, temperature: 0.6, decode: decodeAs[GenerateHashtagsRequest]()},
		ImproveContent:     {system: sysImproveContent, temperature: 0.6, decode: decodeAs[ImproveContentRequest]()},
		TranslateContent:   {system: sysTranslateContent, temperature: 0.3, decode: decodeAs[TranslateContentRequest]()},
		AnalyzeOriginality: {system: sysAnalyzeOriginality, temperature: 0.3, decode: decodeAs[AnalyzeOriginalityRequest]()},
		GenerateIdeas:      {system: sysGenerateIdeas, temperature: 0.7, decode: decodeAs[GenerateIdeasRequest]()},
		AdaptPlatform:      {system: sysAdaptPlatform, temperature: 0.6, decode: decodeAs[AdaptPlatformRequest]()},
	})
}

// GenerateContentRequest asks for a new post about Content.
type GenerateContentRequest struct {
	Content  string `json:"content"`
	Tone     string `json:"tone"`
	Platform string `json:"platform"`
	Industry string `json:"industry"`
	Language string `json:"language"`
}

func (r *GenerateContentRequest) Action() Name { return GenerateContent }

func (r *GenerateContentRequest) applyDefaults() {
	r.Tone = orDefault(r.Tone, defaultTone)
	r.Platform = orDefault(r.Platform, defaultPlatform)
	r.Language = orDefault(r.Language, defaultLanguage)
}

func (r *GenerateContentRequest) validate() error {
	return requireText(GenerateContent, "content", r.Content)
}

func (r *GenerateContentRequest) userPrompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a %s post in %s with a %s tone about:\n%s\n", r.Platform, r.Language, r.Tone, r.Content)
	optionalLine(&sb, "Industry", r.Industry)
	return sb.String()
}

// GenerateHashtagsRequest asks for hashtags for an existing post.
type GenerateHashtagsRequest struct {
	Content  string `json:"content"`
	Platform string `json:"platform"`
	Industry string `json:"industry"`
}

func (r *GenerateHashtagsRequest) Action() Name { return GenerateHashtags }

func (r *GenerateHashtagsRequest) applyDefaults() {
	r.Platform = orDefault(r.Platform, defaultPlatform)
}

func (r *GenerateHashtagsRequest) validate() error {
	return requireText(GenerateHashtags, "content", r.Content)
}

func (r *GenerateHashtagsRequest) userPrompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Suggest %s hashtags for this post:\n%s\n", r.Platform, r.Content)
	optionalLine(&sb, "Industry", r.Industry)
	return sb.String()
}

// ImproveContentRequest asks for an edited version of a post.
type ImproveContentRequest struct {
	Content  string `json:"content"`
	Tone     string `json:"tone"`
	Platform string `json:"platform"`
	Language string `json:"language"`
}

func (r *ImproveContentRequest) Action() Name { return ImproveContent }

func (r *ImproveContentRequest) applyDefaults() {
	r.Tone = orDefault(r.Tone, defaultTone)
	r.Platform = orDefault(r.Platform, defaultPlatform)
	r.Language = orDefault(r.Language, defaultLanguage)
}

func (r *ImproveContentRequest) validate() error {
	return requireText(ImproveContent, "content", r.Content)
}

func (r *ImproveContentRequest) userPrompt() string {
	return fmt.Sprintf("Improve this %s post. Keep it in %s with a %s tone.\n\n%s\n", r.Platform, r.Language, r.Tone, r.Content)
}

// TranslateContentRequest asks for a translation into Language.
type TranslateContentRequest struct {
	Content  string `json:"content"`
	Language string `json:"language"`
}

func (r *TranslateContentRequest) Action() Name { return TranslateContent }

func (r *TranslateContentRequest) applyDefaults() {
	r.Language = orDefault(r.Language, "English")
}

func (r *TranslateContentRequest) validate() error {
	return requireText(TranslateContent, "content", r.Content)
}

func (r *TranslateContentRequest) userPrompt() string {
	return fmt.Sprintf("Translate the following post into %s:\n\n%s\n", r.Language, r.Content)
}

// AnalyzeOriginalityRequest asks for an originality score of a post.
type AnalyzeOriginalityRequest struct {
	Content string `json:"content"`
}

func (r *AnalyzeOriginalityRequest) Action() Name { return AnalyzeOriginality }

func (r *AnalyzeOriginalityRequest) validate() error {
	return requireText(AnalyzeOriginality, "content", r.Content)
}

func (r *AnalyzeOriginalityRequest) userPrompt() string {
	return fmt.Sprintf("Analyse the originality of this post:\n\n%s\n", r.Content)
}

// GenerateIdeasRequest asks for a list of post ideas for an industry.
type GenerateIdeasRequest struct {
	Industry string `json:"industry"`
	Platform string `json:"platform"`
	Language string `json:"language"`
}

func (r *GenerateIdeasRequest) Action() Name { return GenerateIdeas }

func (r *GenerateIdeasRequest) applyDefaults() {
	r.Platform = orDefault(r.Platform, defaultPlatform)
	r.Language = orDefault(r.Language, defaultLanguage)
}

func (r *GenerateIdeasRequest) validate() error {
	return requireText(GenerateIdeas, "industry", r.Industry)
}

func (r *GenerateIdeasRequest) userPrompt() string {
	return fmt.Sprintf("Industry: %s\nPlatform: %s\nWrite the ideas in %s.\n", r.Industry, r.Platform, r.Language)
}

// AdaptPlatformRequest asks to rewrite a post for another platform.
type AdaptPlatformRequest struct {
	Content  string `json:"content"`
	Platform string `json:"platform"`
}

func (r *AdaptPlatformRequest) Action() Name { return AdaptPlatform }

func (r *AdaptPlatformRequest) validate() error {
	if err := requireText(AdaptPlatform, "content", r.Content); err != nil {
		return err
	}
	return requireText(AdaptPlatform, "platform", r.Platform)
}

func (r *AdaptPlatformRequest) userPrompt() string {
	return fmt.Sprintf("Target platform: %s\n\nOriginal post:\n%s\n", r.Platform, r.Content)
}
