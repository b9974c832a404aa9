// Package enricher produces structured AI analyses of collected trends. It
// fronts the model providers with a response cache, schema validation,
// retries and usage accounting.
package enricher

import (
	"context"
	"slices"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
)

// Provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn sent to a provider.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-neutral completion request.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Completion is the raw text a provider returned plus its token counts.
type Completion struct {
	Text             string
	PromptTokens     int64
	CompletionTokens int64
}

// Provider calls one model vendor. Complete returns classified
// *domain.Error values so the caller can decide whether to retry.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// ProviderConfig selects a provider and model. It is one of Anthropic or
// OpenAI.
type ProviderConfig interface {
	Provider() string
	ModelName() string
	isProviderConfig()
}

// Anthropic selects a Claude model.
type Anthropic struct{ Model string }

// OpenAI selects a GPT model.
type OpenAI struct{ Model string }

func (Anthropic) Provider() string    { return ProviderAnthropic }
func (a Anthropic) ModelName() string { return a.Model }
func (Anthropic) isProviderConfig()   {}

func (OpenAI) Provider() string    { return ProviderOpenAI }
func (o OpenAI) ModelName() string { return o.Model }
func (OpenAI) isProviderConfig()   {}

// Default models per provider.
const (
	DefaultAnthropicModel = "claude-sonnet-4-5"
	DefaultOpenAIModel    = "gpt-4o-mini"
)

var (
	anthropicModels = []string{
		"claude-sonnet-4-5",
		"claude-haiku-4-5",
		"claude-opus-4-1",
		"claude-3-5-haiku-latest",
	}
	openAIModels = []string{
		"gpt-4o-mini",
		"gpt-4o",
		"gpt-4.1",
		"gpt-4.1-mini",
	}
)

// ParseProviderConfig resolves provider and model names. An empty model
// selects the provider default; an unknown provider or model is rejected.
func ParseProviderConfig(provider, model string) (ProviderConfig, error) {
	const op = "enricher.config"

	switch provider {
	case ProviderAnthropic:
		if model == "" {
			model = DefaultAnthropicModel
		}
		if !slices.Contains(anthropicModels, model) {
			return nil, domain.Errorf(domain.KindValidation, op, "unknown anthropic model %q", model)
		}
		return Anthropic{Model: model}, nil
	case ProviderOpenAI:
		if model == "" {
			model = DefaultOpenAIModel
		}
		if !slices.Contains(openAIModels, model) {
			return nil, domain.Errorf(domain.KindValidation, op, "unknown openai model %q", model)
		}
		return OpenAI{Model: model}, nil
	default:
		return nil, domain.Errorf(domain.KindValidation, op, "unknown provider %q (valid: anthropic, openai)", provider)
	}
}

// envVarFor names the credential variable of a provider.
func envVarFor(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}
