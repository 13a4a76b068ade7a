package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"donna/internal/agent/ports"
	"donna/internal/errors"
	"donna/internal/httpclient"
	"donna/internal/logging"
)

// Config configures the chat-completions client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
}

// Client talks to an OpenAI-compatible chat-completions endpoint (Groq in the
// default deployment). It implements ports.LLMClient.
type Client struct {
	model       string
	apiKey      string
	baseURL     string
	temperature float64
	maxRetries  int
	httpClient  *http.Client
	logger      logging.Logger
}

// New constructs a Client from config, applying defaults.
func New(config Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	maxRetries := config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Client{
		model:       config.Model,
		apiKey:      config.APIKey,
		baseURL:     baseURL,
		temperature: config.Temperature,
		maxRetries:  maxRetries,
		httpClient:  httpclient.NewWithCircuitBreaker(timeout, "llm"),
		logger:      logging.NewComponentLogger("LLMClient"),
	}
}

// Model returns the model name used by this client.
func (c *Client) Model() string {
	return c.model
}

// Wire types for the chat-completions payload.

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string                `json:"name"`
		Description string                `json:"description"`
		Parameters  ports.ParameterSchema `json:"parameters"`
	} `json:"function"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Tools       []wireTool    `json:"tools,omitempty"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type wireResponse struct {
	Choices []struct {
		Message      wireMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends one chat-completions request and decodes the reply.
// Transient transport failures are retried with backoff.
func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (*ports.CompletionResponse, error) {
	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("encode completion request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	retryCfg := errors.DefaultRetryConfig()
	retryCfg.MaxAttempts = c.maxRetries

	return errors.RetryWithResultAndLog(ctx, retryCfg, func(ctx context.Context) (*ports.CompletionResponse, error) {
		return c.doComplete(ctx, endpoint, body)
	}, c.logger)
}

func (c *Client) doComplete(ctx context.Context, endpoint string, body []byte) (*ports.CompletionResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.Debug("=== LLM Request ===")
	c.logger.Debug("URL: POST %s", endpoint)
	c.logger.Debug("Model: %s", c.model)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.NewExternal("planner", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := httpclient.ReadAllWithLimit(resp.Body, 8<<20)
	if err != nil {
		return nil, errors.NewExternal("planner", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewExternal("planner",
			fmt.Errorf("status %d: %s", resp.StatusCode, previewBody(raw)))
	}

	var wire wireResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, errors.NewExternal("planner", fmt.Errorf("decode response: %w", err))
	}
	if wire.Error != nil {
		return nil, errors.NewExternal("planner", fmt.Errorf("%s: %s", wire.Error.Type, wire.Error.Message))
	}
	if len(wire.Choices) == 0 {
		return nil, errors.NewExternal("planner", fmt.Errorf("empty choices"))
	}

	choice := wire.Choices[0]
	result := &ports.CompletionResponse{
		Content:    choice.Message.Content,
		StopReason: choice.FinishReason,
		Usage: ports.TokenUsage{
			PromptTokens:     wire.Usage.PromptTokens,
			CompletionTokens: wire.Usage.CompletionTokens,
			TotalTokens:      wire.Usage.TotalTokens,
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, ports.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: DecodeArguments(tc.Function.Arguments),
		})
	}

	c.logger.Debug("=== LLM Response Summary ===")
	c.logger.Debug("Stop Reason: %s", result.StopReason)
	c.logger.Debug("Content Length: %d chars", len(result.Content))
	c.logger.Debug("Tool Calls: %d", len(result.ToolCalls))
	c.logger.Debug("Usage: %d prompt + %d completion = %d total tokens",
		result.Usage.PromptTokens, result.Usage.CompletionTokens, result.Usage.TotalTokens)

	return result, nil
}

func (c *Client) buildRequest(req ports.CompletionRequest) wireRequest {
	wire := wireRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.Temperature != 0 {
		wire.Temperature = req.Temperature
	}
	for _, msg := range req.Messages {
		wm := wireMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
			Name:       msg.Name,
		}
		for _, tc := range msg.ToolCalls {
			args, err := json.Marshal(tc.Arguments)
			if err != nil {
				args = []byte("{}")
			}
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: wireFunction{
					Name:      tc.Name,
					Arguments: string(args),
				},
			})
		}
		wire.Messages = append(wire.Messages, wm)
	}
	for _, def := range req.Tools {
		var tool wireTool
		tool.Type = "function"
		tool.Function.Name = def.Name
		tool.Function.Description = def.Description
		tool.Function.Parameters = def.Parameters
		wire.Tools = append(wire.Tools, tool)
	}
	return wire
}

func previewBody(data []byte) string {
	const maxPreview = 512
	preview := strings.TrimSpace(string(data))
	preview = strings.ReplaceAll(preview, "\n", " ")
	if len(preview) > maxPreview {
		preview = preview[:maxPreview] + "... (truncated)"
	}
	return preview
}
