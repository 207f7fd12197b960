// Package resolver is the HTTP client for the answer-resolution backend.
package resolver

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

	"yijing/internal/divination"
	"yijing/internal/types"

	"go.uber.org/zap"
)

// ErrResolver marks every failed resolver exchange: transport errors,
// non-200 statuses and undecodable or empty bodies.
var ErrResolver = errors.New("resolver request failed")

// Endpoint paths.
const (
	ChatPath   = "/api/chat"
	HealthPath = "/api/health"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the resolver backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a resolver client. A zero Timeout leaves deadlines to the
// caller's context.
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: hc,
		logger:     logger,
	}
}

// Resolve posts the question, and the ritual when present, and returns the
// interpretation text.
func (c *Client) Resolve(ctx context.Context, question string, ritual *divination.Ritual) (string, error) {
	body := types.ChatRequest{Message: question}
	if ritual != nil {
		body.Numbers = ritual.Slice()
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ChatPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	var out types.ChatResponse
	if err := c.do(req, &out); err != nil {
		c.logger.Warn("chat request failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return "", err
	}
	if strings.TrimSpace(out.Response) == "" {
		return "", fmt.Errorf("%w: empty response", ErrResolver)
	}
	c.logger.Debug("chat request completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.String("intent", out.Intent),
		zap.Int("response_len", len(out.Response)))
	return out.Response, nil
}

// Status fetches the backend health document.
func (c *Client) Status(ctx context.Context) (*types.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build health request: %w", err)
	}
	var out types.HealthResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health reports whether the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	st, err := c.Status(ctx)
	if err != nil {
		return err
	}
	if st.Status != "ok" {
		return fmt.Errorf("%w: status %q", ErrResolver, st.Status)
	}
	return nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResolver, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrResolver, err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr types.ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%w: status %d: %s", ErrResolver, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%w: status %d", ErrResolver, resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode body: %v", ErrResolver, err)
	}
	return nil
}
