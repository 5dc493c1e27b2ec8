package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItems(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantLen int
		wantErr bool
	}{
		{
			name:    "plain envelope",
			content: `{"items":[{"segment_index":0,"order_in_segment":0,"type":"task","title":"call mom"}]}`,
			wantLen: 1,
		},
		{
			name:    "markdown fenced",
			content: "```json\n{\"items\":[{\"segment_index\":0,\"order_in_segment\":0,\"type\":\"task\",\"title\":\"call mom\"}]}\n```",
			wantLen: 1,
		},
		{
			name:    "empty items",
			content: `{"items":[]}`,
			wantLen: 0,
		},
		{
			name:    "missing items array rejects payload",
			content: `{"result":"ok"}`,
			wantErr: true,
		},
		{
			name:    "null items rejects payload",
			content: `{"items":null}`,
			wantErr: true,
		},
		{
			name:    "unknown type rejects payload",
			content: `{"items":[{"segment_index":0,"order_in_segment":0,"type":"reminder","title":"x"}]}`,
			wantErr: true,
		},
		{
			name:    "negative segment index rejects payload",
			content: `{"items":[{"segment_index":-1,"order_in_segment":0,"type":"task","title":"x"}]}`,
			wantErr: true,
		},
		{
			name:    "non-positive duration rejects payload",
			content: `{"items":[{"segment_index":0,"order_in_segment":0,"type":"task","title":"x","duration_minutes":0}]}`,
			wantErr: true,
		},
		{
			name:    "not json",
			content: "Sure! Here are the tasks you asked for.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := parseItems(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, items, tt.wantLen)
		})
	}
}

func TestScrubSecrets(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
		excludes string
	}{
		{
			name:     "anthropic key",
			input:    "my key is sk-ant-REDACTED",
			contains: "[REDACTED:ANTHROPIC_KEY]",
			excludes: "sk-ant-",
		},
		{
			name:     "openai key",
			input:    "use sk-abcdefghijklmnopqrstuvwx please",
			contains: "[REDACTED:OPENAI_KEY]",
			excludes: "sk-abcdef",
		},
		{
			// The env replacement re-matches the generic api_key
			// pattern, so only the generic marker is stable.
			name:     "env assignment",
			input:    "ANTHROPIC_API_KEY=supersecretvalue",
			contains: "[REDACTED",
			excludes: "supersecretvalue",
		},
		{
			name:     "password",
			input:    "password: hunter22",
			contains: "[REDACTED:PASSWORD]",
			excludes: "hunter22",
		},
		{
			name:     "plain text untouched",
			input:    "call mom and buy groceries",
			contains: "call mom and buy groceries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scrubSecrets(tt.input)
			assert.Contains(t, got, tt.contains)
			if tt.excludes != "" {
				assert.NotContains(t, got, tt.excludes)
			}
		})
	}
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(fmt.Errorf("plain")))
	assert.True(t, isRetryableError(&retryableError{err: fmt.Errorf("rate limited")}))
	assert.True(t, isRetryableError(fmt.Errorf("wrapped: %w", &retryableError{err: fmt.Errorf("inner")})))
}

func anthropicReply(t *testing.T, payload string) string {
	t.Helper()
	resp := map[string]any{
		"id":   "msg_test",
		"type": "message",
		"role": "assistant",
		"content": []map[string]string{
			{"type": "text", "text": payload},
		},
	}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	return string(data)
}

func TestAnthropicClient_Extract(t *testing.T) {
	payload := `{"items":[{"segment_index":0,"order_in_segment":0,"type":"task","title":"call mom","confidence":0.9}]}`

	var gotReq anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, anthropicReply(t, payload))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	items, err := client.Extract(context.Background(), segs("call mom"), "test-model", 0.3, false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "call mom", items[0].Title)
	assert.Equal(t, "test-model", gotReq.Model)
	assert.Equal(t, extractionPrompt, gotReq.System)
}

func TestAnthropicClient_StrictRetryAtZeroTemperature(t *testing.T) {
	payload := `{"items":[{"segment_index":0,"order_in_segment":0,"type":"task","title":"call mom"}]}`

	var temperatures []float64
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		temperatures = append(temperatures, req.Temperature)

		calls++
		if calls == 1 {
			// Malformed structured payload on the first call.
			fmt.Fprint(w, anthropicReply(t, "here you go: call mom"))
			return
		}
		fmt.Fprint(w, anthropicReply(t, payload))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	items, err := client.Extract(context.Background(), segs("call mom"), "test-model", 0.7, false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Len(t, temperatures, 2)
	assert.InDelta(t, 0.7, temperatures[0], 0.001)
	assert.Zero(t, temperatures[1])
}

func TestAnthropicClient_StrictRetryOnMissingItemsArray(t *testing.T) {
	payload := `{"items":[{"segment_index":0,"order_in_segment":0,"type":"task","title":"call mom"}]}`

	var temperatures []float64
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		temperatures = append(temperatures, req.Temperature)

		calls++
		if calls == 1 {
			// Valid JSON, but no items array. Must not pass for an
			// empty extraction.
			fmt.Fprint(w, anthropicReply(t, `{"result":"ok"}`))
			return
		}
		fmt.Fprint(w, anthropicReply(t, payload))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	items, err := client.Extract(context.Background(), segs("call mom"), "test-model", 0.7, false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 2, calls, "missing items array must trigger the strict retry")
	assert.Zero(t, temperatures[1])
}

func TestAnthropicClient_SimplifiedPrompt(t *testing.T) {
	payload := `{"items":[]}`

	var gotReq anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, anthropicReply(t, payload))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	_, err = client.Extract(context.Background(), segs("call mom"), "test-model", 0.3, true)
	require.NoError(t, err)
	assert.Equal(t, simplifiedPrompt, gotReq.System)
}

func TestAnthropicClient_NonRetryableAPIError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"type":"error","error":{"type":"invalid_request_error","message":"bad model"}}`)
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	_, err = client.Extract(context.Background(), segs("call mom"), "bad-model", 0.3, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad model")
	assert.Equal(t, 1, calls, "4xx errors must not be retried")
}

func TestOpenAIClient_Extract(t *testing.T) {
	payload := `{"items":[{"segment_index":0,"order_in_segment":0,"type":"task","title":"buy groceries"}]}`

	var gotReq openAIRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]string{"role": "assistant", "content": payload},
					"finish_reason": "stop",
				},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	items, err := client.Extract(context.Background(), segs("buy groceries"), "gpt-4o-mini", 0.3, false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "buy groceries", items[0].Title)

	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, extractionPrompt, gotReq.Messages[0].Content)
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantNoOp bool
		wantErr  bool
	}{
		{name: "disabled", cfg: Config{Provider: "disabled"}, wantNoOp: true},
		{name: "empty provider", cfg: Config{}, wantNoOp: true},
		{name: "anthropic", cfg: Config{Provider: "anthropic", APIKey: "k"}},
		{name: "openai", cfg: Config{Provider: "openai", APIKey: "k"}},
		{name: "anthropic without key", cfg: Config{Provider: "anthropic"}, wantErr: true},
		{name: "unknown", cfg: Config{Provider: "cohere"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			_, isNoOp := client.(*NoOpClient)
			assert.Equal(t, tt.wantNoOp, isNoOp)
		})
	}
}

func TestNoOpClient_AlwaysFails(t *testing.T) {
	client := &NoOpClient{}
	_, err := client.Extract(context.Background(), segs("call mom"), "", 0.3, false)
	require.Error(t, err)
}

func TestBuildUserContent_ScrubsSegments(t *testing.T) {
	content, err := buildUserContent(segs("set ANTHROPIC_API_KEY=topsecret in the env"))
	require.NoError(t, err)
	assert.NotContains(t, content, "topsecret")
	assert.Contains(t, content, "[REDACTED")
}
