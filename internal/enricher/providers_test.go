package enricher_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/enricher"
)

func TestOpenAIProvider_Complete(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])
		assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}],
			"usage":{"prompt_tokens":12,"completion_tokens":3}}`))
	}))
	t.Cleanup(srv.Close)

	p := enricher.NewOpenAIProvider("sk-test", srv.URL, nil, 5*time.Second)
	got, err := p.Complete(context.Background(), enricher.Request{Model: "gpt-4o-mini", Messages: messages})

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, got.Text)
	assert.Equal(t, int64(12), got.PromptTokens)
	assert.Equal(t, int64(3), got.CompletionTokens)
}

func TestOpenAIProvider_Classification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   domain.ErrorKind
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"requests"}}`, domain.KindTransient},
		{"quota", http.StatusTooManyRequests, `{"error":{"message":"You exceeded your quota","type":"insufficient_quota"}}`, domain.KindQuotaExceeded},
		{"server", http.StatusBadGateway, `bad gateway`, domain.KindTransient},
		{"bad key", http.StatusUnauthorized, `{"error":{"message":"invalid key"}}`, domain.KindMissingCredential},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"bad"}}`, domain.KindPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			p := enricher.NewOpenAIProvider("sk-test", srv.URL, nil, 5*time.Second)
			_, err := p.Complete(context.Background(), enricher.Request{Model: "gpt-4o-mini"})
			assert.Equal(t, tt.want, domain.KindOf(err))
		})
	}
}

func TestAnthropicProvider_Complete(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("X-Api-Key"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-sonnet-4-5", body["model"])
		assert.NotEmpty(t, body["system"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5",
			"content":[{"type":"text","text":"{\"ok\":true}"}],
			"stop_reason":"end_turn",
			"usage":{"input_tokens":20,"output_tokens":7}
		}`))
	}))
	t.Cleanup(srv.Close)

	p := enricher.NewAnthropicProvider("sk-ant", srv.URL, srv.Client(), 5*time.Second)
	got, err := p.Complete(context.Background(), enricher.Request{
		Model: "claude-sonnet-4-5",
		Messages: []enricher.Message{
			{Role: enricher.RoleSystem, Content: "json only"},
			{Role: enricher.RoleUser, Content: "hi"},
		},
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, got.Text)
	assert.Equal(t, int64(20), got.PromptTokens)
	assert.Equal(t, int64(7), got.CompletionTokens)
}

func TestAnthropicProvider_Classification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   domain.ErrorKind
	}{
		{"overloaded", 529, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`, domain.KindTransient},
		{"rate limited", http.StatusTooManyRequests, `{"type":"error","error":{"type":"rate_limit_error","message":"slow"}}`, domain.KindTransient},
		{"credits", http.StatusBadRequest, `{"type":"error","error":{"type":"invalid_request_error","message":"Your credit balance is too low"}}`, domain.KindQuotaExceeded},
		{"bad key", http.StatusUnauthorized, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`, domain.KindMissingCredential},
		{"bad request", http.StatusBadRequest, `{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens required"}}`, domain.KindPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			p := enricher.NewAnthropicProvider("sk-ant", srv.URL, srv.Client(), 5*time.Second)
			_, err := p.Complete(context.Background(), enricher.Request{Model: "claude-sonnet-4-5", Messages: messages})
			assert.Equal(t, tt.want, domain.KindOf(err))
		})
	}
}
