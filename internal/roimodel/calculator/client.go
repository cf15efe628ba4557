// Package calculator is the client of the external lifetime-earnings calculator.
package calculator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gartstein/roimodeling/internal/roimodel/models"
)

const defaultTimeout = 30 * time.Second

type Config struct {
	URL     string
	Timeout time.Duration
}

// Client posts calculator inputs and decodes the projection. Calls are single
// shot; retrying is left to the caller.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	cfg.URL = strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if cfg.URL == "" {
		return nil, fmt.Errorf("calculator url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("calculator_client"),
	}, nil
}

// Calculate runs the projection for in.
func (c *Client) Calculate(ctx context.Context, in *models.CalculatorInput) (*models.CalculatorOutput, error) {
	if in == nil {
		return nil, fmt.Errorf("calculator input is required")
	}
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode calculator input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build calculator request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calculator request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read calculator response: %w", err)
	}
	c.logger.Debug("Calculator responded",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("calculator status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out models.CalculatorOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode calculator output: %w", err)
	}
	return &out, nil
}
