package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

var ErrGeminiDisabled = errors.New("gemini api key not configured")

type GeminiService struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type GeminiOption func(*GeminiService)

// WithGeminiBaseURL points the client at another endpoint (tests, proxies).
func WithGeminiBaseURL(u string) GeminiOption {
	return func(g *GeminiService) { g.baseURL = strings.TrimRight(u, "/") }
}

func WithGeminiHTTPClient(c *http.Client) GeminiOption {
	return func(g *GeminiService) { g.client = c }
}

func NewGeminiService(apiKey, model string, opts ...GeminiOption) *GeminiService {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	g := &GeminiService{
		apiKey:  apiKey,
		model:   model,
		baseURL: geminiBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *GeminiService) Enabled() bool { return g != nil && g.apiKey != "" }

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string        `json:"text,omitempty"`
	InlineData *geminiInline `json:"inline_data,omitempty"`
}

type geminiInline struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GenerateText sends a text-only prompt and returns the first candidate.
func (g *GeminiService) GenerateText(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, []geminiPart{{Text: prompt}})
}

// GenerateWithImage sends an inline image followed by the prompt.
func (g *GeminiService) GenerateWithImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error) {
	return g.generate(ctx, []geminiPart{
		{InlineData: &geminiInline{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
		{Text: prompt},
	})
}

func (g *GeminiService) generate(ctx context.Context, parts []geminiPart) (string, error) {
	if !g.Enabled() {
		return "", ErrGeminiDisabled
	}

	jsonData, err := json.Marshal(geminiRequest{Contents: []geminiContent{{Parts: parts}}})
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// never in the URL: *url.Error echoes it into logs
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		return "", fmt.Errorf("gemini api error (%d): %s", resp.StatusCode, preview)
	}

	var out geminiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no candidates in response")
	}
	text := strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", errors.New("empty response text")
	}
	return text, nil
}

// extractJSON returns the first JSON array or object embedded in model
// output, which often arrives wrapped in prose or code fences.
func extractJSON(s string) (string, bool) {
	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return "", false
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return "", false
	}
	return s[start : end+1], true
}
