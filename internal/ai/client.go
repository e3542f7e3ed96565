package ai

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// Client talks to the OpenRouter chat completions API.
type Client struct {
	endpoint jsonEndpoint
	apiKey   string
	baseURL  string
}

// NewOpenRouterClient returns a client with default timeouts and retry strategy.
func NewOpenRouterClient(apiKey string) *Client {
	return NewClient(apiKey, 60*time.Second, 3, 500*time.Millisecond, 4*time.Second)
}

// NewClient allows customizing HTTP timeout and retry/backoff behavior.
func NewClient(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Client {
	return NewClientWithBaseURL(apiKey, httpTimeout, retryMax, baseDelay, maxDelay, "")
}

// NewClientWithBaseURL allows injecting a custom base URL (used in tests).
func NewClientWithBaseURL(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration, baseURL string) *Client {
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		endpoint: jsonEndpoint{
			httpClient: newHTTPClient(httpTimeout),
			host:       baseURL,
			policy:     newRetryPolicy(retryMax, baseDelay, maxDelay, retryPolicy{3, 500 * time.Millisecond, 4 * time.Second}),
		},
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.apiKey)
	h.Set("HTTP-Referer", "https://github.com/Abeelha/portaljs-World-Sustainability-Dataset")
	h.Set("X-Title", "World Sustainability Dataset CLI")
	return h
}

func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, &MissingKeyError{Provider: ProviderOpenRouter, EnvVar: "WSD_API_KEY"}
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var out GenerateResponse
	reqID, err := c.endpoint.post(ctx, c.baseURL+"/chat/completions", c.headers(), req, &out)
	if err != nil {
		return nil, err
	}
	out.RequestID = reqID
	return &out, nil
}

type openRouterStreamRequest struct {
	GenerateRequest
	Stream bool `json:"stream"`
}

type openRouterDelta struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// GenerateStream streams content using OpenRouter's SSE stream.
func (c *Client) GenerateStream(ctx context.Context, req GenerateRequest, onDelta func(string)) error {
	if c.apiKey == "" {
		return &MissingKeyError{Provider: ProviderOpenRouter, EnvVar: "WSD_API_KEY"}
	}
	if err := validateRequest(req); err != nil {
		return err
	}
	resp, err := c.endpoint.open(ctx, c.baseURL+"/chat/completions", c.headers(), openRouterStreamRequest{GenerateRequest: req, Stream: true})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return readSSE(ctx, bufio.NewScanner(resp.Body), func(data string) bool {
		if data == "[DONE]" {
			return false
		}
		var d openRouterDelta
		if err := json.Unmarshal([]byte(data), &d); err == nil && len(d.Choices) > 0 {
			if s := d.Choices[0].Delta.Content; s != "" {
				onDelta(s)
			}
		}
		return true
	})
}

// readSSE feeds each "data:" payload to handle until it returns false or
// the stream ends.
func readSSE(ctx context.Context, scanner *bufio.Scanner, handle func(data string) bool) error {
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		if !handle(strings.TrimSpace(strings.TrimPrefix(line, "data:"))) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read: %w", err)
	}
	return nil
}
