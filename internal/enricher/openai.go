package enricher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	infraerrors "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/errors"
	infrahttp "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/http"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
)

// DefaultOpenAIBaseURL is the public API root.
const DefaultOpenAIBaseURL = "https://api.openai.com"

// OpenAIProvider calls the chat completions endpoint in JSON mode.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewOpenAIProvider builds a provider. baseURL and httpClient may be empty
// or nil.
func NewOpenAIProvider(apiKey, baseURL string, httpClient *http.Client, timeout time.Duration) *OpenAIProvider {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if httpClient == nil {
		httpClient = infrahttp.NewClient(&infrahttp.ClientConfig{Timeout: timeout})
	}
	return &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []Message      `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return ProviderOpenAI }

// Complete implements Provider.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (*Completion, error) {
	const op = "openai.complete"

	body, err := json.Marshal(chatRequest{
		Model:          req.Model,
		Messages:       req.Messages,
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, domain.NewError(domain.KindPermanent, op, fmt.Errorf("encode request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewError(domain.KindPermanent, op, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(op, err)
	}
	defer resp.Body.Close()

	if httpErr := infraerrors.ParseHTTPError(resp); httpErr != nil {
		return nil, classifyOpenAI(op, httpErr)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, classifyTransport(op, fmt.Errorf("decode response: %w", err))
	}
	if len(cr.Choices) == 0 {
		return nil, domain.Errorf(domain.KindValidation, op, "response has no choices")
	}

	return &Completion{
		Text:             cr.Choices[0].Message.Content,
		PromptTokens:     cr.Usage.PromptTokens,
		CompletionTokens: cr.Usage.CompletionTokens,
	}, nil
}

func classifyOpenAI(op string, err error) error {
	var httpErr *infraerrors.HTTPError
	if !errors.As(err, &httpErr) {
		return classifyTransport(op, err)
	}

	switch {
	case httpErr.StatusCode == http.StatusUnauthorized:
		e := domain.NewError(domain.KindMissingCredential, op, err)
		e.Hint = "check " + envVarFor(ProviderOpenAI)
		return e
	case httpErr.Reason == "insufficient_quota":
		return domain.NewError(domain.KindQuotaExceeded, op, err)
	case httpErr.Temporary(), httpErr.StatusCode == http.StatusRequestTimeout:
		return domain.NewError(domain.KindTransient, op, err)
	default:
		return domain.NewError(domain.KindPermanent, op, err)
	}
}

// classifyTransport maps failures that never reached an API response.
func classifyTransport(op string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.As(err, &netErr):
		return domain.NewError(domain.KindTransient, op, err)
	default:
		return domain.NewError(domain.KindPermanent, op, err)
	}
}
