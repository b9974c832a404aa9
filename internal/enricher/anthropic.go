package enricher

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
)

const defaultMaxTokens = 2048

// AnthropicProvider calls the Messages API through the official SDK.
type AnthropicProvider struct {
	client anthropic.Client
}

// NewAnthropicProvider builds a provider. baseURL and httpClient may be empty
// or nil. SDK retries are disabled because Generate owns the retry policy.
func NewAnthropicProvider(apiKey, baseURL string, httpClient *http.Client, timeout time.Duration) *AnthropicProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}

	return &AnthropicProvider{client: anthropic.NewClient(opts...)}
}

// Name implements Provider.
func (p *AnthropicProvider) Name() string { return ProviderAnthropic }

// Complete implements Provider.
func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (*Completion, error) {
	const op = "anthropic.complete"

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(req.Temperature),
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyAnthropic(op, err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &Completion{
		Text:             text.String(),
		PromptTokens:     msg.Usage.InputTokens,
		CompletionTokens: msg.Usage.OutputTokens,
	}, nil
}

func classifyAnthropic(op string, err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return classifyTransport(op, err)
	}

	switch {
	case apiErr.StatusCode == http.StatusUnauthorized:
		e := domain.NewError(domain.KindMissingCredential, op, err)
		e.Hint = "check " + envVarFor(ProviderAnthropic)
		return e
	case strings.Contains(strings.ToLower(apiErr.Error()), "credit balance"):
		return domain.NewError(domain.KindQuotaExceeded, op, err)
	case apiErr.StatusCode == http.StatusTooManyRequests,
		apiErr.StatusCode == http.StatusRequestTimeout,
		apiErr.StatusCode >= http.StatusInternalServerError:
		return domain.NewError(domain.KindTransient, op, err)
	default:
		return domain.NewError(domain.KindPermanent, op, err)
	}
}
