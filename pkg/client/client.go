// Package client is a small HTTP client for the generation API. It wraps
// the dispatch and poll endpoints and provides a bounded wait loop for
// callers that want to block until a record reaches a terminal status.
package client

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

	"mediaforge/internal/entity"

	"github.com/sirupsen/logrus"
)

// PollConfig controls the bounded wait loop in WaitForRecord.
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPollConfig matches the server's expected polling cadence.
var DefaultPollConfig = PollConfig{
	Interval:    5 * time.Second,
	MaxAttempts: 50,
}

// ErrPollExhausted is returned when a record does not reach a terminal
// status within the configured attempt budget.
var ErrPollExhausted = errors.New("polling exceeded maximum attempts")

// APIError is the error envelope returned by the server.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e == nil {
		return "api error"
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Client talks to a generation API server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// New creates a Client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate dispatches a generation task and returns the created record id.
func (c *Client) Generate(ctx context.Context, tool string, parameters entity.JSONMap) (string, error) {
	if c == nil {
		return "", errors.New("client not initialised")
	}
	if strings.TrimSpace(tool) == "" {
		return "", errors.New("tool is required")
	}

	payload := entity.GenerateRequest{Tool: tool, Parameters: parameters}

	var response entity.GenerateResponse
	if err := c.postJSON(ctx, "/api/generate", payload, &response); err != nil {
		return "", err
	}
	if response.RecordID == "" {
		return "", errors.New("server returned empty record id")
	}
	return response.RecordID, nil
}

// PollRecord fetches the current status of a record. A single call never
// blocks on the task itself, only on the HTTP round trip.
func (c *Client) PollRecord(ctx context.Context, recordID string) (*entity.PollResult, error) {
	if c == nil {
		return nil, errors.New("client not initialised")
	}
	if strings.TrimSpace(recordID) == "" {
		return nil, errors.New("record ID is required")
	}

	var result entity.PollResult
	if err := c.postJSON(ctx, "/api/record/"+recordID, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// WaitForRecord polls a record until it reaches a terminal status, the
// context is cancelled, or the attempt budget runs out. A failed record
// returns the poll result together with an error.
func (c *Client) WaitForRecord(ctx context.Context, recordID string, config PollConfig) (*entity.PollResult, error) {
	if strings.TrimSpace(recordID) == "" {
		return nil, errors.New("record ID is required")
	}

	interval := config.Interval
	if interval <= 0 {
		interval = DefaultPollConfig.Interval
	}

	maxAttempts := config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultPollConfig.MaxAttempts
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	attempts := 0

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-ticker.C:
			attempts++

			result, err := c.PollRecord(ctx, recordID)
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"record_id": recordID,
					"attempt":   attempts,
					"error":     err,
				}).Warn("client: poll error")
				return nil, err
			}

			logrus.WithFields(logrus.Fields{
				"record_id": recordID,
				"status":    result.Status,
				"attempt":   attempts,
			}).Debug("client: poll status")

			switch result.Status {
			case entity.GenerationStatusSucceed:
				return result, nil

			case entity.GenerationStatusFailed:
				return result, errors.New("generation task failed")

			default:
				if attempts >= maxAttempts {
					return nil, ErrPollExhausted
				}
			}
		}
	}
}

// postJSON performs a POST against path and decodes the data field of the
// success envelope into out. Error envelopes become *APIError values.
func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Code    string          `json:"code"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if !envelope.Success {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       envelope.Code,
			Message:    envelope.Message,
		}
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}
