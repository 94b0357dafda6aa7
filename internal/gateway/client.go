// Package gateway wraps the external AI gateway used for cake image and
// greeting text generation. One POST per view; transient 503s are retried
// with a fixed backoff, while rate-limit and credit exhaustion are surfaced
// as sentinel errors so handlers can map them to distinct responses.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

var (
	ErrRateLimited      = errors.New("gateway rate limit exceeded")
	ErrCreditsExhausted = errors.New("gateway credits exhausted")
)

const (
	maxRetries   = 2
	retryBackoff = 1 * time.Second
)

type Client struct {
	baseURL    string
	apiKey     string
	imageFast  string
	imageHigh  string
	textModel  string
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(baseURL, apiKey, imageFast, imageHigh, textModel string, log *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		imageFast:  imageFast,
		imageHigh:  imageHigh,
		textModel:  textModel,
		httpClient: &http.Client{Timeout: 90 * time.Second},
		log:        log,
	}
}

type GenerateImageRequest struct {
	Prompt string
	// PhotoBase64 is an optional data-URL encoded user photo passed as a
	// second multimodal content part (used for the top-down view).
	PhotoBase64 string
	Quality     string // "fast" (default) or "high"
}

// ImageRef normalizes the gateway's image entries, which arrive either as a
// bare string or as an object keyed image_url / imageUrl (with the url
// itself sometimes nested one level deeper).
type ImageRef struct {
	URL string
}

func (r *ImageRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.URL = s
		return nil
	}

	var obj struct {
		ImageURLSnake json.RawMessage `json:"image_url"`
		ImageURLCamel json.RawMessage `json:"imageUrl"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("image entry is neither string nor object: %w", err)
	}

	for _, raw := range [][]byte{obj.ImageURLSnake, obj.ImageURLCamel} {
		if len(raw) == 0 {
			continue
		}
		var str string
		if err := json.Unmarshal(raw, &str); err == nil {
			r.URL = str
			return nil
		}
		var nested struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(raw, &nested); err == nil && nested.URL != "" {
			r.URL = nested.URL
			return nil
		}
	}

	return fmt.Errorf("image entry missing image_url")
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Modalities []string      `json:"modalities,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string     `json:"content"`
			Images  []ImageRef `json:"images"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateImage renders one cake view and returns the image as a base64
// data URL.
func (c *Client) GenerateImage(ctx context.Context, req GenerateImageRequest) (string, error) {
	model := c.imageFast
	if req.Quality == "high" {
		model = c.imageHigh
	}

	var content any = req.Prompt
	if req.PhotoBase64 != "" {
		content = []contentPart{
			{Type: "text", Text: req.Prompt},
			{Type: "image_url", ImageURL: &imageURL{URL: req.PhotoBase64}},
		}
	}

	body := chatRequest{
		Model:      model,
		Messages:   []chatMessage{{Role: "user", Content: content}},
		Modalities: []string{"image", "text"},
	}

	resp, err := c.postChat(ctx, body)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.Images) == 0 {
		return "", fmt.Errorf("gateway response missing image payload")
	}

	url := resp.Choices[0].Message.Images[0].URL
	if url == "" {
		return "", fmt.Errorf("gateway response contained empty image url")
	}
	return url, nil
}

// GenerateMessage produces the greeting text for a cake.
func (c *Client) GenerateMessage(ctx context.Context, promptText string) (string, error) {
	body := chatRequest{
		Model:    c.textModel,
		Messages: []chatMessage{{Role: "user", Content: promptText}},
	}

	resp, err := c.postChat(ctx, body)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("gateway response missing message content")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// postChat performs the gateway call, retrying 503s up to maxRetries times
// with a fixed backoff. 429 and 402 are never retried.
func (c *Client) postChat(ctx context.Context, body chatRequest) (*chatResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			c.log.Warn("gateway unavailable, retrying", "attempt", attempt, "model", body.Model)
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, retryable, err := c.doChat(ctx, payload)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, fmt.Errorf("gateway unavailable after %d retries: %w", maxRetries, lastErr)
}

func (c *Client) doChat(ctx context.Context, payload []byte) (*chatResponse, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, false, ErrRateLimited
	case http.StatusPaymentRequired:
		return nil, false, ErrCreditsExhausted
	case http.StatusServiceUnavailable:
		return nil, true, fmt.Errorf("gateway returned 503")
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, false, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, false, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return &result, false, nil
}
