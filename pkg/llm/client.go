package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"
)

// Client implements Backend for OpenAI-compatible HTTP APIs.
// Works with OpenAI, llama-server, ollama, vllm, lmstudio, etc.
type Client struct {
	baseURL    string
	apiKey     string
	modelName  string
	apiPath    string
	httpClient *http.Client
	maxRetries int
}

// ClientConfig configures the chat completions client
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	ModelName  string
	APIPath    string        // Optional, defaults to "/v1/chat/completions"
	Timeout    time.Duration // Optional, defaults to 2min
	MaxRetries int           // Optional, defaults to 3
}

// NewClient creates a new chat completions client
func NewClient(cfg ClientConfig) *Client {
	if cfg.APIPath == "" {
		cfg.APIPath = "/v1/chat/completions"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		modelName:  cfg.ModelName,
		apiPath:    cfg.APIPath,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
	}
}

// Infer performs one inference round using the chat completions API
func (c *Client) Infer(ctx context.Context, req *InferenceRequest) (*InferenceResponse, error) {
	reqBody := map[string]interface{}{
		"model":       c.modelName,
		"messages":    req.Messages,
		"temperature": req.Temperature,
		"stream":      false,
	}
	if req.MaxTokens > 0 {
		reqBody["max_tokens"] = req.MaxTokens
	}
	if len(req.Tools) > 0 {
		reqBody["tools"] = formatTools(req.Tools)
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Recreate the request each attempt since the body is consumed
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.apiPath, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err = c.httpClient.Do(httpReq)
		if err != nil {
			lastErr = err
			if attempt < c.maxRetries && isRetryableError(err) {
				backoff := time.Duration(1<<uint(attempt)) * time.Second // 1s, 2s, 4s
				if os.Getenv("DEBUG") != "" {
					fmt.Fprintf(os.Stderr, "[DEBUG] Request failed (attempt %d/%d): %v. Retrying in %v...\n",
						attempt+1, c.maxRetries+1, err, backoff)
				}
				time.Sleep(backoff)
				continue
			}
			return nil, fmt.Errorf("request failed: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			break
		}

		errorBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		// 5xx errors are retryable, 4xx are not
		if resp.StatusCode >= 500 && attempt < c.maxRetries {
			lastErr = fmt.Errorf("server returned %d: %s", resp.StatusCode, string(errorBody))
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			if os.Getenv("DEBUG") != "" {
				fmt.Fprintf(os.Stderr, "[DEBUG] Server error %d (attempt %d/%d). Retrying in %v...\n",
					resp.StatusCode, attempt+1, c.maxRetries+1, backoff)
			}
			time.Sleep(backoff)
			continue
		}

		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(errorBody))
	}

	if resp == nil {
		return nil, fmt.Errorf("all retry attempts failed: %w", lastErr)
	}
	defer resp.Body.Close()

	var chatResp struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	message := chatResp.Choices[0].Message

	var toolCalls []ToolCall
	for _, tc := range message.ToolCalls {
		var args map[string]interface{}
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			continue
		}
		toolCalls = append(toolCalls, ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		})
	}

	return &InferenceResponse{
		Text:       message.Content,
		ToolCalls:  toolCalls,
		Assistant:  message,
		TokensUsed: chatResp.Usage.TotalTokens,
	}, nil
}

// formatTools converts tool definitions to OpenAI format
func formatTools(tools []ToolDefinition) []map[string]interface{} {
	result := make([]map[string]interface{}, len(tools))
	for i, tool := range tools {
		result[i] = map[string]interface{}{
			"type": "function",
			"function": map[string]interface{}{
				"name":        tool.Name,
				"description": tool.Description,
				"parameters":  tool.Parameters,
			},
		}
	}
	return result
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if os.IsTimeout(err) {
		return true
	}

	if netErr, ok := err.(net.Error); ok {
		return netErr.Timeout()
	}

	errStr := strings.ToLower(err.Error())
	retryableMessages := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"no such host",
		"deadline exceeded",
		"i/o timeout",
	}

	for _, msg := range retryableMessages {
		if strings.Contains(errStr, msg) {
			return true
		}
	}

	return false
}

// Close closes idle connections held by the HTTP client
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
