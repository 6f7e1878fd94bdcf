// Package genai provides a minimal client for the Gemini generateContent API.
// It is the only package in the service that performs network I/O on the
// enrichment and discovery paths.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-3-flash-preview"
	defaultTimeout = 60 * time.Second
)

var (
	// ErrUnavailable indicates the inference provider could not be reached.
	ErrUnavailable = errors.New("inference provider unavailable")
	// ErrEmptyResponse indicates the provider answered without any candidate text.
	ErrEmptyResponse = errors.New("inference provider returned no content")
)

// Client talks to the Gemini REST API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, primarily for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient constructs a Gemini client for the given API key and model.
func NewClient(apiKey, model string, opts ...Option) *Client {
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	c := &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Schema describes the JSON shape requested from the model.
type Schema map[string]any

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
	Tools            []tool            `json:"tools,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
	ResponseSchema   Schema `json:"responseSchema,omitempty"`
}

type tool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

// GenerateJSON asks the model for a structured JSON answer constrained by the
// provided response schema and returns the raw candidate text.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, schema Schema) ([]byte, error) {
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		},
	}
	return c.generate(ctx, req)
}

// GenerateGroundedJSON asks the model for an answer backed by web search
// grounding. Schema constraints are not supported in grounded mode, so callers
// must validate the returned text themselves.
func (c *Client) GenerateGroundedJSON(ctx context.Context, prompt string) ([]byte, error) {
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		Tools:    []tool{{GoogleSearch: &struct{}{}}},
	}
	return c.generate(ctx, req)
}

// GenerateText asks the model for a free-form prose answer.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	out, err := c.generate(ctx, generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (c *Client) generate(ctx context.Context, payload generateRequest) ([]byte, error) {
	if err := c.ensureAPIKey(); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode generate payload: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, buf)
	if err != nil {
		return nil, fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.decodeAPIError(resp)
	}

	var response struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode generate response: %w", err)
	}

	var text strings.Builder
	for _, cand := range response.Candidates {
		for _, p := range cand.Content.Parts {
			text.WriteString(p.Text)
		}
		break
	}
	if text.Len() == 0 {
		return nil, ErrEmptyResponse
	}

	return []byte(text.String()), nil
}

func (c *Client) decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("%w: status %d %s: %s", ErrUnavailable, resp.StatusCode, apiErr.Error.Status, apiErr.Error.Message)
	}

	return fmt.Errorf("%w: status %d body %s", ErrUnavailable, resp.StatusCode, string(body))
}

func (c *Client) ensureAPIKey() error {
	if strings.TrimSpace(c.apiKey) == "" {
		return errors.New("gemini api key is not configured")
	}
	return nil
}
