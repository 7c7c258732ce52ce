package action

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	ColorPalette      Name = "color_palette"
	ImageCaption      Name = "image_caption"
	AltText           Name = "alt_text"
	DesignSuggestions Name = "design_suggestions"
	AnalyzeImage      Name = "analyze_image"
	PlatformSpecs     Name = "platform_specs"
	ImagePrompt       Name = "image_prompt"
)

const visualMaxTokens = 3000

const (
	sysColorPalette = `You are a brand designer.
Propose a color palette of 5 colors for the described brand. Give each color as a hex code like #1A2B3C with its name and where to use it.`

	sysImageCaption = `You are a social media copywriter.
Write an engaging caption for the described image, matching the platform and tone, and end with relevant hashtags.`

	sysAltText = `You are an accessibility specialist.
Write concise, descriptive alt text (under 125 characters) for the described image, then a longer description for screen readers.`

	sysDesignSuggestions = `You are a senior visual designer for social media.
Suggest layout, typography, imagery and a supporting color palette (hex codes like #1A2B3C) for a visual that accompanies the given post.`

	sysAnalyzeImage = `You are a visual content analyst.
Evaluate the described image for composition, brand consistency, readability on mobile and likely engagement, and list improvements.`

	sysPlatformSpecs = `You are a social media production expert.
List the current recommended image and video dimensions, aspect ratios, file size limits and safe zones for the platform, and explain how to adapt the given assets.`

	sysImagePrompt = `You are a prompt engineer for text-to-image models.
Write a detailed image generation prompt for a visual that supports the given post: subject, style, lighting, composition and mood. Return only the prompt.`
)

func init() {
	register(VisualTools, visualMaxTokens, map[Name]entry{
		ColorPalette:      {system: sysColorPalette, temperature: 0.7, decode: decodeAs[ColorPaletteRequest]()},
		ImageCaption:      {system: sysImageCaption, temperature: 0.7, decode: decodeAs[ImageCaptionRequest]()},
		AltText:           {system: sysAltText, temperature: 0.3, decode: decodeAs[AltTextRequest]()},
		DesignSuggestions: {system: sysDesignSuggestions, temperature: 0.7, decode: decodeAs[DesignSuggestionsRequest]()},
		AnalyzeImage:      {system: sysAnalyzeImage, temperature: 0.3, decode: decodeAs[AnalyzeImageRequest]()},
		PlatformSpecs:     {system: sysPlatformSpecs, temperature: 0.3, decode: decodeAs[PlatformSpecsRequest]()},
		ImagePrompt:       {system: sysImagePrompt, temperature: 0.7, decode: decodeAs[ImagePromptRequest]()},
	})
}

// ColorPaletteRequest asks for a palette for the brand described in Content.
type ColorPaletteRequest struct {
	Content  string `json:"content"`
	Industry string `json:"industry"`
}

func (r *ColorPaletteRequest) Action() Name { return ColorPalette }

func (r *ColorPaletteRequest) validate() error {
	return requireText(ColorPalette, "content", r.Content)
}

func (r *ColorPaletteRequest) userPrompt() string {
	var sb strings.Builder
	optionalLine(&sb, "Industry", r.Industry)
	fmt.Fprintf(&sb, "Brand description:\n%s\n", r.Content)
	return sb.String()
}

// ImageCaptionRequest asks for a caption of the image described by ImageData.
type ImageCaptionRequest struct {
	ImageData string `json:"imageData"`
	Platform  string `json:"platform"`
	Tone      string `json:"tone"`
}

func (r *ImageCaptionRequest) Action() Name { return ImageCaption }

func (r *ImageCaptionRequest) applyDefaults() {
	r.Platform = orDefault(r.Platform, defaultPlatform)
	r.Tone = orDefault(r.Tone, defaultTone)
}

func (r *ImageCaptionRequest) validate() error {
	return requireText(ImageCaption, "imageData", r.ImageData)
}

func (r *ImageCaptionRequest) userPrompt() string {
	return fmt.Sprintf("Platform: %s\nTone: %s\nImage:\n%s\n", r.Platform, r.Tone, r.ImageData)
}

// AltTextRequest asks for accessible alt text.
type AltTextRequest struct {
	ImageData string `json:"imageData"`
	Language  string `json:"language"`
}

func (r *AltTextRequest) Action() Name { return AltText }

func (r *AltTextRequest) applyDefaults() {
	r.Language = orDefault(r.Language, defaultLanguage)
}

func (r *AltTextRequest) validate() error {
	return requireText(AltText, "imageData", r.ImageData)
}

func (r *AltTextRequest) userPrompt() string {
	return fmt.Sprintf("Write the alt text in %s.\nImage:\n%s\n", r.Language, r.ImageData)
}

// DesignSuggestionsRequest asks for a visual direction for a post.
type DesignSuggestionsRequest struct {
	Content  string `json:"content"`
	Platform string `json:"platform"`
}

func (r *DesignSuggestionsRequest) Action() Name { return DesignSuggestions }

func (r *DesignSuggestionsRequest) applyDefaults() {
	r.Platform = orDefault(r.Platform, defaultPlatform)
}

func (r *DesignSuggestionsRequest) validate() error {
	return requireText(DesignSuggestions, "content", r.Content)
}

func (r *DesignSuggestionsRequest) userPrompt() string {
	return fmt.Sprintf("Platform: %s\nPost:\n%s\n", r.Platform, r.Content)
}

// AnalyzeImageRequest asks for a critique of the image described by ImageData.
type AnalyzeImageRequest struct {
	ImageData string `json:"imageData"`
}

func (r *AnalyzeImageRequest) Action() Name { return AnalyzeImage }

func (r *AnalyzeImageRequest) validate() error {
	return requireText(AnalyzeImage, "imageData", r.ImageData)
}

func (r *AnalyzeImageRequest) userPrompt() string {
	return fmt.Sprintf("Image:\n%s\n", r.ImageData)
}

// PlatformSpecsRequest asks for production specs of a platform.
type PlatformSpecsRequest struct {
	Platform      string          `json:"platform"`
	PlatformSpecs json.RawMessage `json:"platformSpecs"`
}

func (r *PlatformSpecsRequest) Action() Name { return PlatformSpecs }

func (r *PlatformSpecsRequest) validate() error {
	return requireText(PlatformSpecs, "platform", r.Platform)
}

func (r *PlatformSpecsRequest) userPrompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Platform: %s\n", r.Platform)
	optionalJSON(&sb, "Current assets", r.PlatformSpecs)
	return sb.String()
}

// ImagePromptRequest asks for a text-to-image prompt supporting Content.
type ImagePromptRequest struct {
	Content string `json:"content"`
	Tone    string `json:"tone"`
}

func (r *ImagePromptRequest) Action() Name { return ImagePrompt }

func (r *ImagePromptRequest) applyDefaults() {
	r.Tone = orDefault(r.Tone, defaultTone)
}

func (r *ImagePromptRequest) validate() error {
	return requireText(ImagePrompt, "content", r.Content)
}

func (r *ImagePromptRequest) userPrompt() string {
	return fmt.Sprintf("Mood: %s\nPost:\n%s\n", r.Tone, r.Content)
}
