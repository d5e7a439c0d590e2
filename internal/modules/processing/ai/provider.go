package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	appcfg "github.com/studyhub/core/internal/config"
	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
	jetanthropic "go.jetify.com/ai/provider/anthropic"
	jetopenai "go.jetify.com/ai/provider/openai"
)

const (
	defaultOpenAIModel     = "gpt-4o-mini"
	defaultAnthropicModel  = "claude-haiku-4-5-20251001"
	defaultOpenRouterBase  = "https://openrouter.ai/api/v1"
	defaultMaxOutputTokens = 4096
)

// NewProvider builds the adapter for one configured provider.
func NewProvider(p appcfg.AIProvider) (Provider, error) {
	switch appcfg.NormalizeProviderType(p.Type) {
	case appcfg.ProviderOpenAICompatible:
		return newCompatibleProvider(p, http.DefaultClient)
	case appcfg.ProviderOpenAI, appcfg.ProviderOpenRouter, appcfg.ProviderAnthropic:
		model, err := buildLanguageModel(p)
		if err != nil {
			return nil, err
		}
		return &languageModelProvider{id: p.ID, model: model}, nil
	default:
		return nil, fmt.Errorf("unsupported provider type %q", p.Type)
	}
}

// languageModelProvider calls OpenAI, OpenRouter and Anthropic through the
// jetify language model abstraction.
type languageModelProvider struct {
	id    string
	model jetapi.LanguageModel
}

func (p *languageModelProvider) ID() string { return p.id }

func (p *languageModelProvider) Attempt(ctx context.Context, prompt Prompt) Outcome {
	resp, err := jetai.GenerateText(
		ctx,
		buildPromptMessages(prompt.System, prompt.User),
		jetai.WithModel(p.model),
		jetai.WithMaxOutputTokens(maxOutputTokens(prompt)),
	)
	if err != nil {
		return Classify("", err)
	}
	return Classify(extractText(resp), nil)
}

func buildLanguageModel(provider appcfg.AIProvider) (jetapi.LanguageModel, error) {
	apiKey := strings.TrimSpace(provider.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("provider %s: api key is empty", provider.ID)
	}

	modelID := strings.TrimSpace(provider.Model)
	endpoint := strings.TrimSpace(provider.Endpoint)

	switch appcfg.NormalizeProviderType(provider.Type) {
	case appcfg.ProviderAnthropic:
		if modelID == "" {
			modelID = defaultAnthropicModel
		}
		opts := []anthropicoption.RequestOption{
			anthropicoption.WithAPIKey(apiKey),
			anthropicoption.WithMaxRetries(0),
		}
		if endpoint != "" {
			opts = append(opts, anthropicoption.WithBaseURL(strings.TrimRight(endpoint, "/")))
		}
		client := anthropicclient.NewClient(opts...)
		return jetanthropic.NewLanguageModel(modelID, jetanthropic.WithClient(client)), nil

	case appcfg.ProviderOpenRouter:
		if endpoint == "" {
			endpoint = defaultOpenRouterBase
		}
	}

	if modelID == "" {
		modelID = defaultOpenAIModel
	}
	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(apiKey),
		openaioption.WithMaxRetries(0),
	}
	if normalized := normalizeOpenAIBaseURL(endpoint); normalized != "" {
		opts = append(opts, openaioption.WithBaseURL(normalized))
	}
	client := openaiclient.NewClient(opts...)
	return jetopenai.NewLanguageModel(modelID, jetopenai.WithClient(client)), nil
}

func buildPromptMessages(systemPrompt, prompt string) []jetapi.Message {
	messages := make([]jetapi.Message, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, &jetapi.SystemMessage{Content: systemPrompt})
	}
	messages = append(messages, &jetapi.UserMessage{Content: jetapi.ContentFromText(prompt)})
	return messages
}

func extractText(resp *jetapi.Response) string {
	if resp == nil {
		return ""
	}
	var full strings.Builder
	for _, block := range resp.Content {
		if textBlock, ok := block.(*jetapi.TextBlock); ok {
			full.WriteString(textBlock.Text)
		}
	}
	return full.String()
}

// compatibleProvider speaks the OpenAI chat completions wire format to any
// self-hosted or third-party gateway.
type compatibleProvider struct {
	id       string
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

func newCompatibleProvider(p appcfg.AIProvider, client *http.Client) (*compatibleProvider, error) {
	model := strings.TrimSpace(p.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	return &compatibleProvider{
		id:       p.ID,
		endpoint: normalizeOpenAICompatibleEndpoint(p.Endpoint),
		apiKey:   strings.TrimSpace(p.APIKey),
		model:    model,
		client:   client,
	}, nil
}

func (p *compatibleProvider) ID() string { return p.id }

func (p *compatibleProvider) Attempt(ctx context.Context, prompt Prompt) Outcome {
	return Classify(p.chatCompletion(ctx, prompt))
}

func (p *compatibleProvider) chatCompletion(ctx context.Context, prompt Prompt) (string, error) {
	messages := make([]map[string]string, 0, 2)
	if strings.TrimSpace(prompt.System) != "" {
		messages = append(messages, map[string]string{"role": "system", "content": prompt.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt.User})

	body, err := json.Marshal(map[string]interface{}{
		"model":      p.model,
		"messages":   messages,
		"max_tokens": maxOutputTokens(prompt),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("openai-compatible error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("openai-compatible error: decode response: %w", err)
	}
	if result.Error != nil && strings.TrimSpace(result.Error.Message) != "" {
		return "", fmt.Errorf("openai-compatible error: %s", result.Error.Message)
	}
	if strings.TrimSpace(result.Message) != "" && len(result.Choices) == 0 {
		return "", fmt.Errorf("openai-compatible error: %s", result.Message)
	}
	if len(result.Choices) == 0 {
		return "", nil
	}
	return result.Choices[0].Message.Content, nil
}

func maxOutputTokens(prompt Prompt) int {
	if prompt.MaxOutputTokens > 0 {
		return prompt.MaxOutputTokens
	}
	return defaultMaxOutputTokens
}

func normalizeOpenAIBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimRight(base, "/")
	}

	path := strings.TrimRight(parsed.Path, "/")
	if !strings.HasSuffix(path, "/v1") {
		path += "/v1"
	}
	parsed.Path = path
	return strings.TrimRight(parsed.String(), "/")
}

func normalizeOpenAICompatibleEndpoint(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return "https://api.openai.com"
	}

	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimSuffix(strings.TrimRight(base, "/"), "/v1")
	}
	parsed.Path = strings.TrimSuffix(strings.TrimRight(parsed.Path, "/"), "/v1")
	return strings.TrimRight(parsed.String(), "/")
}
