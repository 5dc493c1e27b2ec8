// internal/extraction/llm.go
//
// Hand-rolled HTTP clients for the structured-output model providers.
// Both clients speak the same Client interface: segments in, RawItems
// out. A payload that fails schema validation gets exactly one strict
// retry at temperature 0 before the call is reported as failed.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/braindump/internal/transcript"
)

// Default configuration values.
const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultAnthropicModel   = "claude-3-5-haiku-20241022"
	defaultOpenAIBaseURL    = "https://api.openai.com"
	defaultOpenAIModel      = "gpt-4o-mini"
	defaultMaxTokens        = 4096
	defaultTimeout          = 60 * time.Second
	defaultMaxRetries       = 3
	defaultBaseBackoff      = 1 * time.Second
)

// Rate limiter defaults: 50 requests per minute for both APIs.
const (
	defaultRateLimit = 50.0 / 60.0 // ~0.83 requests per second
	defaultBurst     = 5           // Allow bursts of up to 5 requests
)

// extractionPrompt is the system prompt for the full item schema.
const extractionPrompt = `You are an expert at turning spoken brain-dump transcripts into actionable task items.

You receive a JSON array of transcript segments, each with an "index" and its spoken "text". Extract every intention the speaker states.

Respond with a JSON object: {"items": [...]}. Each item has:
- "segment_index": the index of the segment it was read from (items never span segments)
- "order_in_segment": zero-based position within that segment
- "type": one of "task", "cancel_task", "ignore", "duration_attach"
- "title": short actionable phrase (for "task")
- "due_text": verbatim due phrase if the speaker named one (optional)
- "duration_minutes": integer minutes if the speaker named a duration (optional)
- "targets": for "cancel_task", the phrases identifying what is retracted
- "source_text": the verbatim clause the item came from
- "confidence": 0.0 to 1.0

Rules:
- One item per intention. Never bundle several intentions into one title.
- "Maybe X not", "skip X", "cancel X", "forget X" retract an earlier intention: emit "cancel_task" with the target, never a task.
- Pure filler ("okay", "yeah", "um") is "ignore".
- A clause that only states a duration ("it takes two hours") is "duration_attach" for the task spoken before it.

Respond ONLY with the JSON object, no additional text.`

// simplifiedPrompt is the reduced-schema prompt for the last escalation
// step: tasks only, no auxiliary item types.
const simplifiedPrompt = `You are an expert at turning spoken brain-dump transcripts into actionable task items.

You receive a JSON array of transcript segments, each with an "index" and its spoken "text". Extract every task the speaker commits to.

Respond with a JSON object: {"items": [...]}. Each item has:
- "segment_index": the index of the segment it was read from
- "order_in_segment": zero-based position within that segment
- "type": always "task"
- "title": short actionable phrase
- "duration_minutes": integer minutes if the speaker named one (optional)
- "source_text": the verbatim clause the item came from
- "confidence": 0.0 to 1.0

One item per task. Ignore filler and retractions. Respond ONLY with the JSON object, no additional text.`

// promptSegment is the wire shape segments take inside the user message.
type promptSegment struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// buildUserContent serializes the segments for the model, scrubbing
// anything that looks like a secret first.
func buildUserContent(segments []transcript.Segment) (string, error) {
	wire := make([]promptSegment, 0, len(segments))
	for _, s := range segments {
		wire = append(wire, promptSegment{Index: s.Index, Text: scrubSecrets(s.Text)})
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("failed to marshal segments: %w", err)
	}
	return string(data), nil
}

// itemsEnvelope is the expected top-level response shape. Items is a
// pointer so a payload without the items key is distinguishable from an
// empty list.
type itemsEnvelope struct {
	Items *[]RawItem `json:"items"`
}

// parseItems parses a model response into validated RawItems. Markdown
// code fences are tolerated. A missing items array or any malformed
// item rejects the whole payload so the caller can issue the strict
// retry.
func parseItems(content string) ([]RawItem, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var env itemsEnvelope
	if err := json.Unmarshal([]byte(content), &env); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if env.Items == nil {
		return nil, fmt.Errorf("response missing items array")
	}
	items := *env.Items
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	return items, nil
}

// anthropicClient implements Client using Anthropic's Messages API.
type anthropicClient struct {
	apiKey     string `json:"-"` // Never serialize API keys
	baseURL    string
	maxTokens  int
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// newAnthropicClient creates a new Anthropic extraction client.
func newAnthropicClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	timeout := defaultTimeout
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &anthropicClient{
		apiKey:    cfg.APIKey,
		baseURL:   baseURL,
		maxTokens: maxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		maxRetries: defaultMaxRetries,
	}, nil
}

// anthropicRequest represents the request format for the Messages API.
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Extract sends the segments to the Messages API and parses the item
// list. A parse failure triggers one strict retry at temperature 0.
func (a *anthropicClient) Extract(ctx context.Context, segments []transcript.Segment, model string, temperature float64, simplified bool) ([]RawItem, error) {
	if model == "" {
		model = defaultAnthropicModel
	}
	system := extractionPrompt
	if simplified {
		system = simplifiedPrompt
	}

	userContent, err := buildUserContent(segments)
	if err != nil {
		return nil, err
	}

	req := anthropicRequest{
		Model:       model,
		MaxTokens:   a.maxTokens,
		Temperature: temperature,
		System:      system,
		Messages: []anthropicMessage{
			{
				Role:    "user",
				Content: userContent,
			},
		},
	}

	content, err := a.complete(ctx, req)
	if err != nil {
		return nil, err
	}

	items, err := parseItems(content)
	if err == nil {
		return items, nil
	}

	// Strict retry: same request at temperature 0.
	req.Temperature = 0
	content, retryErr := a.complete(ctx, req)
	if retryErr != nil {
		return nil, fmt.Errorf("strict retry failed: %w (original: %v)", retryErr, err)
	}
	return parseItems(content)
}

// complete performs the HTTP request with rate limiting and retries.
func (a *anthropicClient) complete(ctx context.Context, req anthropicRequest) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		response, err := a.doRequest(ctx, req)
		if err == nil {
			return response, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			return "", err
		}
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// doRequest performs the actual HTTP request to the Messages API.
func (a *anthropicClient) doRequest(ctx context.Context, req anthropicRequest) (string, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/v1/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", a.apiKey)
	httpReq.Header.Set("Anthropic-Version", "2023-06-01")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", &retryableError{err: fmt.Errorf("API request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	// Handle rate limiting
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &retryableError{err: fmt.Errorf("rate limited (429)")}
	}

	// Handle server errors (retryable)
	if resp.StatusCode >= 500 {
		return "", &retryableError{err: fmt.Errorf("server error (%d): %s", resp.StatusCode, string(body))}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp anthropicError
		if err := json.Unmarshal(body, &errResp); err == nil {
			return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	var claudeResp anthropicResponse
	if err := json.Unmarshal(body, &claudeResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(claudeResp.Content) == 0 {
		return "", fmt.Errorf("empty response from API")
	}

	return claudeResp.Content[0].Text, nil
}

// openAIClient implements Client using OpenAI's Chat Completions API.
type openAIClient struct {
	apiKey     string `json:"-"` // Never serialize API keys
	baseURL    string
	maxTokens  int
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// newOpenAIClient creates a new OpenAI extraction client.
func newOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	timeout := defaultTimeout
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &openAIClient{
		apiKey:    cfg.APIKey,
		baseURL:   baseURL,
		maxTokens: maxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		maxRetries: defaultMaxRetries,
	}, nil
}

// openAIRequest represents the request format for the Chat API.
type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type openAIError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Param   string `json:"param"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Extract sends the segments to the Chat API and parses the item list.
// A parse failure triggers one strict retry at temperature 0.
func (o *openAIClient) Extract(ctx context.Context, segments []transcript.Segment, model string, temperature float64, simplified bool) ([]RawItem, error) {
	if model == "" {
		model = defaultOpenAIModel
	}
	system := extractionPrompt
	if simplified {
		system = simplifiedPrompt
	}

	userContent, err := buildUserContent(segments)
	if err != nil {
		return nil, err
	}

	req := openAIRequest{
		Model:       model,
		MaxTokens:   o.maxTokens,
		Temperature: temperature,
		Messages: []openAIMessage{
			{
				Role:    "system",
				Content: system,
			},
			{
				Role:    "user",
				Content: userContent,
			},
		},
	}

	content, err := o.complete(ctx, req)
	if err != nil {
		return nil, err
	}

	items, err := parseItems(content)
	if err == nil {
		return items, nil
	}

	// Strict retry: same request at temperature 0.
	req.Temperature = 0
	content, retryErr := o.complete(ctx, req)
	if retryErr != nil {
		return nil, fmt.Errorf("strict retry failed: %w (original: %v)", retryErr, err)
	}
	return parseItems(content)
}

// complete performs the HTTP request with rate limiting and retries.
func (o *openAIClient) complete(ctx context.Context, req openAIRequest) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		response, err := o.doRequest(ctx, req)
		if err == nil {
			return response, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			return "", err
		}
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// doRequest performs the actual HTTP request to the Chat API.
func (o *openAIClient) doRequest(ctx context.Context, req openAIRequest) (string, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return "", &retryableError{err: fmt.Errorf("API request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	// Handle rate limiting
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &retryableError{err: fmt.Errorf("rate limited (429)")}
	}

	// Handle server errors (retryable)
	if resp.StatusCode >= 500 {
		return "", &retryableError{err: fmt.Errorf("server error (%d): %s", resp.StatusCode, string(body))}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp openAIError
		if err := json.Unmarshal(body, &errResp); err == nil {
			return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(openAIResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from API")
	}

	return openAIResp.Choices[0].Message.Content, nil
}

// retryableError wraps an error to indicate it can be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryableError checks if an error should be retried.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	for e := err; e != nil; {
		if _, ok := e.(*retryableError); ok {
			return true
		}
		if unwrapper, ok := e.(interface{ Unwrap() error }); ok {
			e = unwrapper.Unwrap()
		} else {
			break
		}
	}
	return false
}

// scrubSecrets removes common secret patterns from content before
// sending it to an external API.
func scrubSecrets(content string) string {
	patterns := []struct {
		regex       *regexp.Regexp
		replacement string
	}{
		{
			regexp.MustCompile(`(OPENAI_API_KEY|ANTHROPIC_API_KEY|GITHUB_TOKEN|GITLAB_TOKEN|AWS_SECRET_ACCESS_KEY)\s*=\s*([^\s]+)`),
			"$1=[REDACTED:ENV_SECRET]",
		},
		{
			regexp.MustCompile(`sk-ant-[a-zA-Z0-9-]{20,}`),
			"[REDACTED:ANTHROPIC_KEY]",
		},
		{
			regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`),
			"[REDACTED:OPENAI_KEY]",
		},
		{
			regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*["']?\s*([^"'\s]{8,})["']?`),
			"$1=[REDACTED:API_KEY]",
		},
		{
			regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_\-\.=]{20,}`),
			"[REDACTED:BEARER_TOKEN]",
		},
		{
			regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*["']?\s*([^"'\s]{4,})["']?`),
			"$1=[REDACTED:PASSWORD]",
		},
	}

	result := content
	for _, p := range patterns {
		result = p.regex.ReplaceAllString(result, p.replacement)
	}

	return result
}

// Ensure interfaces are implemented.
var _ Client = (*anthropicClient)(nil)
var _ Client = (*openAIClient)(nil)
