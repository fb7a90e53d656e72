package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ErrUnavailable normalizes all transport and upstream API failures so the
// caller can treat the inference backend as a single retriable dependency.
var ErrUnavailable = errors.New("inference backend unavailable")

// Client is a thin HTTP client for the Gemini generateContent and
// cachedContents APIs.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(apiKey, model string, options ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// GenerateContent sends the session history plus the new message to the
// model, grounded in the given cached content. Token counts come from the
// response usage metadata.
func (c *Client) GenerateContent(ctx context.Context, cacheName string, history []*ChatHistory, message string) (*GenerateResult, error) {
	contents := make([]*ChatContent, 0, len(history)+1)
	for _, h := range history {
		contents = append(contents, &ChatContent{
			Parts: []*ChatParts{{Text: h.Chat}},
			Role:  h.Role,
		})
	}
	contents = append(contents, &ChatContent{
		Parts: []*ChatParts{{Text: message}},
		Role:  ChatMessageRoleUser,
	})

	payload := generateRequest{
		Contents:      contents,
		CachedContent: cacheName,
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	var res generateResponse
	if err := c.doJSON(ctx, http.MethodPost, url, payload, &res); err != nil {
		return nil, err
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: response contains no candidates", ErrUnavailable)
	}

	result := &GenerateResult{
		Text: res.Candidates[0].Content.Parts[0].Text,
	}
	if res.UsageMetadata != nil {
		result.InputTokens = res.UsageMetadata.PromptTokenCount
		result.OutputTokens = res.UsageMetadata.CandidatesTokenCount
		result.TotalTokens = res.UsageMetadata.TotalTokenCount
	}
	return result, nil
}

// CreateCachedContent uploads the reference document text as a new upstream
// cached content with the configured TTL.
func (c *Client) CreateCachedContent(ctx context.Context, cfg CreateCachedContentConfig) (*CachedContent, error) {
	payload := createCachedContentRequest{
		Model:       fmt.Sprintf("models/%s", c.model),
		DisplayName: cfg.DisplayName,
		Contents: []*ChatContent{
			{
				Parts: []*ChatParts{{Text: cfg.Content}},
				Role:  ChatMessageRoleUser,
			},
		},
		TTL: fmt.Sprintf("%ds", int64(cfg.TTL.Seconds())),
	}
	if cfg.SystemInstruction != "" {
		payload.SystemInstruction = &ChatContent{
			Parts: []*ChatParts{{Text: cfg.SystemInstruction}},
		}
	}

	var cached CachedContent
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/cachedContents", payload, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

func (c *Client) GetCachedContent(ctx context.Context, name string) (*CachedContent, error) {
	var cached CachedContent
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("%s/%s", c.baseURL, name), nil, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

func (c *Client) ListCachedContents(ctx context.Context) ([]*CachedContent, error) {
	var res listCachedContentsResponse
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/cachedContents", nil, &res); err != nil {
		return nil, err
	}
	return res.CachedContents, nil
}

func (c *Client) DeleteCachedContent(ctx context.Context, name string) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("%s/%s", c.baseURL, name), nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, url string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		payloadJson, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(payloadJson)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf(
			"%w: status error, got status %d. with response body %s",
			ErrUnavailable,
			res.StatusCode,
			string(resBody),
		)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resBody, out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
