// Package ai talks to the generative-AI backend that produces URL risk
// assessments. The backend is constrained to a strict JSON schema so its
// output maps directly onto the assessment wire shape.
package ai

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"qrshield/internal/config"
	"qrshield/internal/models"
)

// Analyzer produces a raw assessment for a URL. Implementations may fail;
// the caller owns the degraded-mode fallback.
type Analyzer interface {
	Assess(ctx context.Context, url string) (models.Assessment, error)
}

const systemPrompt = `You are a cybersecurity analyst. You evaluate URLs extracted from QR codes ` +
	`for phishing, malware distribution, credential harvesting, typosquatting and other ` +
	`malicious intent. Respond with a risk score from 0 (certainly benign) to 100 ` +
	`(certainly malicious), a list of short human-readable threat indicators (empty if ` +
	`none), a one-sentence recommendation for the user, and a one-paragraph analysis.`

// assessmentPayload is the schema-constrained backend response. riskLevel is
// attached afterwards by the caller, never requested from the model.
type assessmentPayload struct {
	RiskScore      int      `json:"riskScore"`
	Indicators     []string `json:"indicators"`
	Recommendation string   `json:"recommendation"`
	Analysis       string   `json:"analysis"`
}

// OpenAIAnalyzer implements Analyzer on top of the OpenAI chat completion API.
type OpenAIAnalyzer struct {
	client *openai.Client
	model  string
	schema *jsonschema.Definition
}

// New builds an analyzer from config, reading the API key from the configured
// environment variable via key.
func New(cfg config.AIConfig, apiKey string) (*OpenAIAnalyzer, error) {
	schema, err := jsonschema.GenerateSchemaForType(assessmentPayload{})
	if err != nil {
		return nil, fmt.Errorf("build assessment schema: %w", err)
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIAnalyzer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		schema: schema,
	}, nil
}

// Assess sends the fixed instruction with the URL embedded and decodes the
// schema-constrained reply. Any transport failure or malformed output is
// returned as an error for the caller to absorb.
func (a *OpenAIAnalyzer) Assess(ctx context.Context, url string) (models.Assessment, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Assess the security risk of this URL: %s", url)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "url_risk_assessment",
				Schema: a.schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return models.Assessment{}, fmt.Errorf("ai backend: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.Assessment{}, fmt.Errorf("ai backend: empty response")
	}

	var payload assessmentPayload
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &payload); err != nil {
		return models.Assessment{}, fmt.Errorf("ai backend: malformed output: %w", err)
	}
	return models.Assessment{
		RiskScore:      payload.RiskScore,
		Indicators:     payload.Indicators,
		Recommendation: payload.Recommendation,
		Analysis:       payload.Analysis,
	}, nil
}
