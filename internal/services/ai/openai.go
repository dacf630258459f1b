package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/balubo/insight-api/internal/models"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenAIEnricher rewrites template insight summaries into natural prose using
// OpenAI chat completions. Levels and top lists are never touched.
type OpenAIEnricher struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIEnricher creates a new OpenAI-backed summary enricher
func NewOpenAIEnricher(apiKey, baseURL, model string, logger *zap.Logger, debugMode bool) *OpenAIEnricher {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIEnricher{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

type summaryRewrite struct {
	Expertise  string `json:"expertise"`
	Uniqueness string `json:"uniqueness"`
	Interests  string `json:"interests"`
}

// EnrichRecord replaces the three summary sentences with model-generated text.
// On any failure the record is left unchanged and the error is returned so the
// caller can fall back to the template sentences.
func (p *OpenAIEnricher) EnrichRecord(ctx context.Context, record *models.InsightRecord) error {
	prompt := buildRewritePrompt(record)

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("あなたはクリエイターのポートフォリオ分析を要約するアシスタントです。与えられた分析結果をもとに、専門性・独自性・興味関心の3つの要約文を日本語で自然に書き直してください。必ずJSONのみで回答してください。"),
		openai.UserMessage(prompt),
	}
	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "enrich_record"),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", "enrich_record"),
				zap.String("model", p.model),
				zap.Error(err),
				zap.Duration("latency_ms", latency),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return fmt.Errorf("failed to enrich summaries: %w", apiErr)
		}
		return fmt.Errorf("failed to enrich summaries: %w", err)
	}
	if len(resp.Choices) == 0 {
		return errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content
	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "enrich_record"),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	rewrite, err := parseRewriteResponse(content)
	if err != nil {
		return err
	}

	// Only non-empty rewrites are applied
	if s := strings.TrimSpace(rewrite.Expertise); s != "" {
		record.Expertise.Summary = s
	}
	if s := strings.TrimSpace(rewrite.Uniqueness); s != "" {
		record.Uniqueness.Summary = s
	}
	if s := strings.TrimSpace(rewrite.Interests); s != "" {
		record.Interests.Summary = s
	}

	return nil
}

func buildRewritePrompt(record *models.InsightRecord) string {
	var b strings.Builder
	b.WriteString("以下の分析結果をもとに、3つの要約文を書き直してください。\n\n")
	fmt.Fprintf(&b, "主要スキル: %s\n", strings.Join(record.Expertise.TopSkills, ", "))
	fmt.Fprintf(&b, "差別化要素: %s\n", strings.Join(record.Uniqueness.Differentiators, ", "))
	fmt.Fprintf(&b, "興味関心: %s\n", strings.Join(record.Interests.TopInterests, ", "))
	fmt.Fprintf(&b, "得意分野: %s\n\n", strings.Join(record.Specialties, ", "))
	b.WriteString("現在の要約文:\n")
	fmt.Fprintf(&b, "専門性: %s\n", record.Expertise.Summary)
	fmt.Fprintf(&b, "独自性: %s\n", record.Uniqueness.Summary)
	fmt.Fprintf(&b, "興味関心: %s\n\n", record.Interests.Summary)
	b.WriteString(`{"expertise": "...", "uniqueness": "...", "interests": "..."} の形式のJSONで回答してください。各要約は1〜2文の日本語にしてください。`)
	return b.String()
}

func parseRewriteResponse(content string) (*summaryRewrite, error) {
	var rewrite summaryRewrite
	raw := content
	if err := json.Unmarshal([]byte(raw), &rewrite); err != nil {
		// Some models wrap the JSON in prose, extract the object
		if len(raw) > 0 && raw[0] != '{' {
			start := bytes.Index([]byte(raw), []byte("{"))
			end := bytes.LastIndex([]byte(raw), []byte("}"))
			if start != -1 && end != -1 && end > start {
				raw = raw[start : end+1]
			}
		}
		if err := json.Unmarshal([]byte(raw), &rewrite); err != nil {
			return nil, fmt.Errorf("failed to parse rewrite response: %w", err)
		}
	}
	return &rewrite, nil
}
