package ai

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient calls Google's Generative Language REST API directly.
type GeminiClient struct {
	endpoint jsonEndpoint
	apiKey   string
	baseURL  string
}

// NewGeminiClient returns a Gemini client. An empty baseURL uses the public API.
func NewGeminiClient(apiKey, baseURL string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *GeminiClient {
	if baseURL == "" {
		baseURL = geminiBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &GeminiClient{
		endpoint: jsonEndpoint{
			httpClient: newHTTPClient(httpTimeout),
			host:       baseURL,
			policy:     newRetryPolicy(retryMax, baseDelay, maxDelay, retryPolicy{3, 500 * time.Millisecond, 4 * time.Second}),
		},
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ResponseID string `json:"responseId"`
}

func (r *geminiResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// toGeminiRequest maps chat roles: system messages become the system
// instruction and assistant turns use Gemini's "model" role.
func toGeminiRequest(req GenerateRequest) geminiRequest {
	var greq geminiRequest
	var system []geminiPart
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system = append(system, geminiPart{Text: m.Content})
		case "assistant":
			greq.Contents = append(greq.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			greq.Contents = append(greq.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}
	if len(system) > 0 {
		greq.SystemInstruction = &geminiContent{Parts: system}
	}
	if req.Temperature > 0 || req.MaxTokens > 0 {
		greq.GenerationConfig = &geminiGenerationConfig{Temperature: req.Temperature, MaxOutputTokens: req.MaxTokens}
	}
	return greq
}

func (c *GeminiClient) url(model, method string, extra url.Values) string {
	q := url.Values{}
	for k, v := range extra {
		q[k] = v
	}
	q.Set("key", c.apiKey)
	return fmt.Sprintf("%s/models/%s:%s?%s", c.baseURL, url.PathEscape(model), method, q.Encode())
}

func (c *GeminiClient) check(req GenerateRequest) error {
	if c.apiKey == "" {
		return &MissingKeyError{Provider: ProviderGemini, EnvVar: "GEMINI_API_KEY"}
	}
	if err := validateRequest(req); err != nil {
		return err
	}
	if len(toGeminiRequest(req).Contents) == 0 {
		return errors.New("gemini requires at least one user message")
	}
	return nil
}

func (c *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := c.check(req); err != nil {
		return nil, err
	}
	var gresp geminiResponse
	reqID, err := c.endpoint.post(ctx, c.url(req.Model, "generateContent", nil), nil, toGeminiRequest(req), &gresp)
	if err != nil {
		return nil, err
	}
	if br := gresp.PromptFeedback.BlockReason; br != "" {
		return nil, &BadRequestError{APIError: &APIError{StatusCode: 200, Code: br, Message: "prompt blocked", RequestID: reqID}}
	}
	if reqID == "" {
		reqID = gresp.ResponseID
	}
	return &GenerateResponse{
		ID:      gresp.ResponseID,
		Choices: []Choice{{Message: Message{Role: "assistant", Content: gresp.text()}}},
		Usage: Usage{
			PromptTokens:     gresp.UsageMetadata.PromptTokenCount,
			CompletionTokens: gresp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      gresp.UsageMetadata.TotalTokenCount,
		},
		RequestID: reqID,
	}, nil
}

// GenerateStream uses streamGenerateContent with alt=sse; each event
// carries a full response fragment.
func (c *GeminiClient) GenerateStream(ctx context.Context, req GenerateRequest, onDelta func(string)) error {
	if err := c.check(req); err != nil {
		return err
	}
	resp, err := c.endpoint.open(ctx, c.url(req.Model, "streamGenerateContent", url.Values{"alt": {"sse"}}), nil, toGeminiRequest(req))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return readSSE(ctx, bufio.NewScanner(resp.Body), func(data string) bool {
		var chunk geminiResponse
		if err := json.Unmarshal([]byte(data), &chunk); err == nil {
			if s := chunk.text(); s != "" {
				onDelta(s)
			}
		}
		return true
	})
}
