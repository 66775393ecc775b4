package ocrprovider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Config configures the reference HTTP client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Client is an HTTP-based reference Provider, grounded on the teacher's
// internal/llm/openai.Client (request build, bearer auth, JSON decode).
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient builds a reference OCR client against cfg.
func NewClient(cfg Config, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

// Convert implements Provider.Convert over a JSON HTTP endpoint expecting
// a base64-encoded document body and returning page-segmented text plus
// token usage.
func (c *Client) Convert(ctx context.Context, data []byte, mimeType, filename string) (Result, error) {
	start := time.Now()
	c.log.Info("ocr.convert.start", "filename", filename, "mime_type", mimeType, "bytes", len(data))

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"filename":    filename,
		"mime_type":   mimeType,
		"document":    base64.StdEncoding.EncodeToString(data),
	}

	raw, err := c.post(ctx, strings.TrimRight(c.cfg.BaseURL, "/")+"/v1/convert", body)
	if err != nil {
		c.log.Error("ocr.convert.http_error", "filename", filename, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return Result{}, err
	}

	var resp struct {
		Pages       []string `json:"pages"`
		Model       string   `json:"model"`
		Temperature float64  `json:"temperature"`
		Usage       struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.log.Error("ocr.convert.decode_error", "filename", filename, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return Result{}, fmt.Errorf("decode ocr response: %w", err)
	}
	if len(resp.Pages) == 0 {
		c.log.Error("ocr.convert.no_pages", "filename", filename,
			"elapsed_ms", time.Since(start).Milliseconds())
		return Result{}, fmt.Errorf("ocr provider returned no pages")
	}

	c.log.Info("ocr.convert.ok", "filename", filename, "pages", len(resp.Pages),
		"total_tokens", resp.Usage.TotalTokens, "elapsed_ms", time.Since(start).Milliseconds())

	return Result{
		Pages:       resp.Pages,
		Model:       resp.Model,
		Temperature: resp.Temperature,
		Tokens: Tokens{
			Prompt:     resp.Usage.PromptTokens,
			Completion: resp.Usage.CompletionTokens,
			Total:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr provider http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.log.Warn("ocr response body close error", "error", err)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read ocr response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ocr provider status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}

var _ Provider = (*Client)(nil)
