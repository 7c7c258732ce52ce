package action

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	SmartScheduling  Name = "smart_scheduling"
	ContentCuration  Name = "content_curation"
	AutoReply        Name = "auto_reply"
	BrandVoiceCheck  Name = "brand_voice_check"
	RepurposeContent Name = "repurpose_content"
	ContentCalendar  Name = "content_calendar"
	OptimizeWorkflow Name = "optimize_workflow"
)

const automationMaxTokens = 2000

const (
	sysSmartScheduling = `You are a social media scheduling assistant.
Recommend the best posting times for the platform based on the audience and historical data.
Write every time in 24-hour HH:MM format and give a one-line reason for each slot.`

	sysContentCuration = `You are a content curator for a brand's social channels.
Judge how relevant the given piece of content is for the brand's industry and audience.
Give a relevance score in the form "N/10", a two-sentence summary and a suggested caption for sharing it.`

	sysAutoReply = `You are the community manager of the brand.
Write a short, warm and helpful reply to the customer's comment or message in the brand's voice.
Do not promise anything the brand has not stated. Return only the reply.`

	sysBrandVoiceCheck = `You are a brand voice guardian.
Check whether the post matches the described brand voice. Give a consistency score in the form "N/10", list every deviation and propose a corrected version.`

	sysRepurposeContent = `You are a content repurposing specialist.
Turn the given content into a native post for the target platform, keeping the core message and adding suitable hashtags.`

	sysContentCalendar = `You are a social media planner.
Build a one-week content calendar for the industry: for each day give the post theme, the format and the posting time in HH:MM format.`

	sysOptimizeWorkflow = `You are a marketing operations consultant.
Review the described social media workflow and propose a numbered list of automations and process changes that save the team time.`
)

func init() {
	register(Automation, automationMaxTokens, map[Name]entry{
		SmartScheduling:  {system: sysSmartScheduling, temperature: 0.3, decode: decodeAs[SmartSchedulingRequest]()},
		ContentCuration:  {system: sysContentCuration, temperature: 0.3, decode: decodeAs[ContentCurationRequest]()},
		AutoReply:        {system: sysAutoReply, temperature: 0.7, decode: decodeAs[AutoReplyRequest]()},
		BrandVoiceCheck:  {system: sysBrandVoiceCheck, temperature: 0.3, decode: decodeAs[BrandVoiceCheckRequest]()},
		RepurposeContent: {system: sysRepurposeContent, temperature: 0.7, decode: decodeAs[RepurposeContentRequest]()},
		ContentCalendar:  {system: sysContentCalendar, temperature: 0.6, decode: decodeAs[ContentCalendarRequest]()},
		OptimizeWorkflow: {system: sysOptimizeWorkflow, temperature: 0.6, decode: decodeAs[OptimizeWorkflowRequest]()},
	})
}

// SmartSchedulingRequest asks for the best posting times on a platform.
type SmartSchedulingRequest struct {
	Platform       string          `json:"platform"`
	AudienceData   json.RawMessage `json:"audienceData"`
	HistoricalData json.RawMessage `json:"historicalData"`
	TeamID         string          `json:"teamId"`
}

func (r *SmartSchedulingRequest) Action() Name { return SmartScheduling }

func (r *SmartSchedulingRequest) validate() error {
	return requireText(SmartScheduling, "platform", r.Platform)
}

func (r *SmartSchedulingRequest) userPrompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Platform: %s\n", r.Platform)
	optionalJSON(&sb, "Audience data", r.AudienceData)
	optionalJSON(&sb, "Historical data", r.HistoricalData)
	return sb.String()
}

// ContentCurationRequest asks how relevant a piece of content is.
type ContentCurationRequest struct {
	Content  string `json:"content"`
	Industry string `json:"industry"`
}

func (r *ContentCurationRequest) Action() Name { return ContentCuration }

func (r *ContentCurationRequest) validate() error {
	return requireText(ContentCuration, "content", r.Content)
}

func (r *ContentCurationRequest) userPrompt() string {
	var sb strings.Builder
	optionalLine(&sb, "Industry", r.Industry)
	fmt.Fprintf(&sb, "Content:\n%s\n", r.Content)
	return sb.String()
}

// AutoReplyRequest asks for a reply to a customer comment in Content.
type AutoReplyRequest struct {
	Content    string `json:"content"`
	BrandVoice string `json:"brandVoice"`
	Tone       string `json:"tone"`
}

func (r *AutoReplyRequest) Action() Name { return AutoReply }

func (r *AutoReplyRequest) applyDefaults() {
	r.Tone = orDefault(r.Tone, defaultTone)
}

func (r *AutoReplyRequest) validate() error {
	return requireText(AutoReply, "content", r.Content)
}

func (r *AutoReplyRequest) userPrompt() string {
	var sb strings.Builder
	optionalLine(&sb, "Brand voice", r.BrandVoice)
	fmt.Fprintf(&sb, "Tone: %s\nCustomer message:\n%s\n", r.Tone, r.Content)
	return sb.String()
}

// BrandVoiceCheckRequest asks whether Content matches BrandVoice.
type BrandVoiceCheckRequest struct {
	Content    string `json:"content"`
	BrandVoice string `json:"brandVoice"`
}

func (r *BrandVoiceCheckRequest) Action() Name { return BrandVoiceCheck }

func (r *BrandVoiceCheckRequest) validate() error {
	if err := requireText(BrandVoiceCheck, "content", r.Content); err != nil {
		return err
	}
	return requireText(BrandVoiceCheck, "brandVoice", r.BrandVoice)
}

func (r *BrandVoiceCheckRequest) userPrompt() string {
	return fmt.Sprintf("Brand voice:\n%s\n\nPost:\n%s\n", r.BrandVoice, r.Content)
}

// RepurposeContentRequest asks to turn Content into a post for Platform.
type RepurposeContentRequest struct {
	Content  string `json:"content"`
	Platform string `json:"platform"`
}

func (r *RepurposeContentRequest) Action() Name { return RepurposeContent }

func (r *RepurposeContentRequest) validate() error {
	if err := requireText(RepurposeContent, "content", r.Content); err != nil {
		return err
	}
	return requireText(RepurposeContent, "platform", r.Platform)
}

func (r *RepurposeContentRequest) userPrompt() string {
	return fmt.Sprintf("Target platform: %s\n\nSource content:\n%s\n", r.Platform, r.Content)
}

// ContentCalendarRequest asks for a weekly plan for an industry.
type ContentCalendarRequest struct {
	Industry string `json:"industry"`
	Platform string `json:"platform"`
}

func (r *ContentCalendarRequest) Action() Name { return ContentCalendar }

func (r *ContentCalendarRequest) applyDefaults() {
	r.Platform = orDefault(r.Platform, defaultPlatform)
}

func (r *ContentCalendarRequest) validate() error {
	return requireText(ContentCalendar, "industry", r.Industry)
}

func (r *ContentCalendarRequest) userPrompt() string {
	return fmt.Sprintf("Industry: %s\nPlatform: %s\n", r.Industry, r.Platform)
}

// OptimizeWorkflowRequest asks for improvements to the workflow described in Content.
type OptimizeWorkflowRequest struct {
	Content string `json:"content"`
}

func (r *OptimizeWorkflowRequest) Action() Name { return OptimizeWorkflow }

func (r *OptimizeWorkflowRequest) validate() error {
	return requireText(OptimizeWorkflow, "content", r.Content)
}

func (r *OptimizeWorkflowRequest) userPrompt() string {
	return fmt.Sprintf("Current workflow:\n%s\n", r.Content)
}
