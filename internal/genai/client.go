package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pavelanni/quizforge/internal/model"
)

const defaultTimeout = 60 * time.Second

// Config holds the generative endpoint settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client talks to a Gemini-style generateContent endpoint. All high-level
// operations degrade to deterministic fallback content instead of returning
// errors: downstream persistence must always receive a well-formed payload.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// New creates a new generation client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
	}
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type contentPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type generateRequest struct {
	Contents []struct {
		Parts []contentPart `json:"parts"`
	} `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

// generateResponse tolerates every level of the candidate structure being absent.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// structured output settings: low-ish temperature, bounded sampling.
var questionGenConfig = generationConfig{
	Temperature:     0.7,
	TopK:            40,
	TopP:            0.95,
	MaxOutputTokens: 2048,
}

// extraction wants near-deterministic output and more output tokens.
var extractGenConfig = generationConfig{
	Temperature:     0.3,
	TopK:            32,
	TopP:            1,
	MaxOutputTokens: 4096,
}

// generate sends parts to the endpoint and returns the first candidate's text.
func (c *Client) generate(ctx context.Context, parts []contentPart, cfg generationConfig) (string, error) {
	var req generateRequest
	req.Contents = []struct {
		Parts []contentPart `json:"parts"`
	}{{Parts: parts}}
	req.GenerationConfig = cfg

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("endpoint returned status %d: %s", resp.StatusCode, detail)
	}

	var payload generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(payload.Candidates) == 0 || len(payload.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("response carried no candidate content")
	}
	return payload.Candidates[0].Content.Parts[0].Text, nil
}

// GenerateQuestions produces count validated question drafts about topic at
// the given difficulty. It never fails: transport errors, non-2xx statuses,
// missing candidates, and unparsable JSON all yield the deterministic
// fallback set instead.
func (c *Client) GenerateQuestions(ctx context.Context, topic string, difficulty model.Difficulty, count int) []model.QuestionDraft {
	text, err := c.generate(ctx, []contentPart{{Text: buildQuestionPrompt(topic, difficulty, count)}}, questionGenConfig)
	if err != nil {
		slog.Warn("question generation failed, using fallback", "topic", topic, "error", err)
		return FallbackQuestions(topic, difficulty, count)
	}

	drafts, err := parseQuestionJSON(text)
	if err != nil {
		slog.Warn("question generation returned malformed JSON, using fallback", "topic", topic, "error", err)
		return FallbackQuestions(topic, difficulty, count)
	}
	return drafts
}

// GenerateFromContent produces question drafts grounded in extracted document
// text rather than a bare topic. Same fallback guarantee as GenerateQuestions.
func (c *Client) GenerateFromContent(ctx context.Context, docText string, difficulty model.Difficulty, count int) []model.QuestionDraft {
	text, err := c.generate(ctx, []contentPart{{Text: buildContentPrompt(docText, difficulty, count)}}, questionGenConfig)
	if err != nil {
		slog.Warn("content-based generation failed, using fallback", "error", err)
		return FallbackQuestions("the uploaded document", difficulty, count)
	}

	drafts, err := parseQuestionJSON(text)
	if err != nil {
		slog.Warn("content-based generation returned malformed JSON, using fallback", "error", err)
		return FallbackQuestions("the uploaded document", difficulty, count)
	}
	return drafts
}

// parseQuestionJSON strips Markdown code fences, parses the question array,
// and runs the result through the contract validator.
func parseQuestionJSON(text string) ([]model.QuestionDraft, error) {
	cleaned := stripCodeFences(text)
	var raw []RawQuestion
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("parse question array: %w", err)
	}
	return Repair(raw), nil
}

// ExtractText converts an uploaded document into plain text. Plain text
// decodes directly; PDF and image bytes go through the vision-capable
// endpoint inline. Extraction failure yields a short fixed placeholder so the
// downstream summarizer still has input to work on.
func (c *Client) ExtractText(ctx context.Context, data []byte, mimeType string) string {
	if mimeType == "text/plain" {
		return string(data)
	}

	parts := []contentPart{
		{Text: buildExtractionPrompt(mimeType)},
		{InlineData: &inlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(data),
		}},
	}
	text, err := c.generate(ctx, parts, extractGenConfig)
	if err != nil {
		slog.Warn("text extraction failed, using placeholder", "mime_type", mimeType, "error", err)
		return FallbackExtractedText(mimeType)
	}
	return text
}

// Summarize analyzes extracted document text into a summary, key points, and
// insights. Any failure yields the fixed fallback analysis.
func (c *Client) Summarize(ctx context.Context, docText, title string) model.Analysis {
	text, err := c.generate(ctx, []contentPart{{Text: buildSummaryPrompt(docText, title)}}, questionGenConfig)
	if err != nil {
		slog.Warn("summarization failed, using fallback analysis", "title", title, "error", err)
		return FallbackAnalysis(title)
	}

	var analysis model.Analysis
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &analysis); err != nil {
		slog.Warn("summarization returned malformed JSON, using fallback analysis", "title", title, "error", err)
		return FallbackAnalysis(title)
	}

	if analysis.Summary == "" {
		analysis.Summary = "AI-generated summary of the content."
	}
	if len(analysis.KeyPoints) == 0 {
		analysis.KeyPoints = []string{"Key point 1", "Key point 2", "Key point 3"}
	}
	if len(analysis.Insights) == 0 {
		analysis.Insights = []string{"Important insight from the content"}
	}
	return analysis
}

// stripCodeFences removes Markdown ```json fences that models often wrap
// around structured output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if after, ok := strings.CutPrefix(s, "```json"); ok {
		s = after
	} else if after, ok := strings.CutPrefix(s, "```"); ok {
		s = after
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func buildQuestionPrompt(topic string, difficulty model.Difficulty, count int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate exactly %d multiple choice questions about %q at %s difficulty level.\n\n", count, topic, difficulty)
	sb.WriteString("Format your response as a JSON array where each question has this exact structure:\n")
	sb.WriteString(`{
  "question": "The question text here?",
  "options": ["Option A", "Option B", "Option C", "Option D"],
  "correctAnswer": "Option A",
  "explanation": "Brief explanation of why this is correct"
}`)
	sb.WriteString("\n\nRequirements:\n")
	sb.WriteString("- Each question must have exactly 4 options\n")
	sb.WriteString("- Only one option should be correct\n")
	sb.WriteString("- Questions should be clear and unambiguous\n")
	sb.WriteString("- Explanations should be concise but informative\n")
	sb.WriteString("- Make sure the JSON is valid and properly formatted\n")
	fmt.Fprintf(&sb, "- Focus on %s concepts appropriate for %s level\n\n", topic, difficulty)
	sb.WriteString("Return only the JSON array, no additional text.")
	return sb.String()
}

func buildContentPrompt(docText string, difficulty model.Difficulty, count int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate exactly %d multiple choice questions at %s difficulty level based on the following material:\n\n", count, difficulty)
	sb.WriteString(docText)
	sb.WriteString("\n\nFormat your response as a JSON array where each question has this exact structure:\n")
	sb.WriteString(`{
  "question": "The question text here?",
  "options": ["Option A", "Option B", "Option C", "Option D"],
  "correctAnswer": "Option A",
  "explanation": "Brief explanation of why this is correct"
}`)
	sb.WriteString("\n\nEach question must have exactly 4 options and test understanding of the material above.\n")
	sb.WriteString("Return only the JSON array, no additional text.")
	return sb.String()
}

func buildExtractionPrompt(mimeType string) string {
	if mimeType == "application/pdf" {
		return "Please extract all the text content from this PDF document. " +
			"Focus on the main content, headings, and important information. " +
			"Preserve the structure and formatting as much as possible."
	}
	return "Please extract all the text content from this image. " +
		"Focus on any educational content, notes, diagrams, or text that could be useful for studying."
}

func buildSummaryPrompt(docText, title string) string {
	var sb strings.Builder
	sb.WriteString("Please analyze the following content and provide a comprehensive study summary:\n\nCONTENT:\n")
	sb.WriteString(docText)
	sb.WriteString("\n\nPlease provide your response in the following JSON format:\n")
	sb.WriteString(`{
  "summary": "A comprehensive summary of the main content in 2-3 paragraphs",
  "keyPoints": ["Key point 1", "Key point 2", "Key point 3", "Key point 4", "Key point 5"],
  "insights": ["Important insight 1", "Important insight 2", "Important insight 3"]
}`)
	sb.WriteString("\n\nRequirements:\n")
	sb.WriteString("- Summary should be concise but comprehensive, highlighting the main concepts\n")
	sb.WriteString("- Key points should be the most important facts or concepts to remember\n")
	sb.WriteString("- Insights should be deeper understanding or connections that would help with learning\n")
	fmt.Fprintf(&sb, "- Make it suitable for %q\n\n", title)
	sb.WriteString("Return only the JSON, no additional text.")
	return sb.String()
}
