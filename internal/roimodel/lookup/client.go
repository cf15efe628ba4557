// Package lookup resolves locations, occupations, institutions and
// instructional programs from the reference data service.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gartstein/roimodeling/internal/roimodel/models"
)

// Service resolves a key to its reference record. A record that does not
// exist is reported as nil with a nil error.
type Service interface {
	Location(ctx context.Context, zipCode string) (*models.Location, error)
	Occupation(ctx context.Context, onetCode string) (*models.Occupation, error)
	Institution(ctx context.Context, unitID string) (*models.Institution, error)
	InstructionalProgram(ctx context.Context, cipCode string) (*models.InstructionalProgram, error)
}

const (
	locationsPath    = "locations"
	occupationsPath  = "occupations"
	institutionsPath = "institutions"
	programsPath     = "programs"
)

type Config struct {
	URL     string
	Timeout time.Duration
}

// Client talks to the reference data service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, fmt.Errorf("lookup url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("lookup_client"),
	}, nil
}

func (c *Client) Location(ctx context.Context, zipCode string) (*models.Location, error) {
	return get[models.Location](ctx, c, locationsPath, zipCode)
}

func (c *Client) Occupation(ctx context.Context, onetCode string) (*models.Occupation, error) {
	return get[models.Occupation](ctx, c, occupationsPath, onetCode)
}

func (c *Client) Institution(ctx context.Context, unitID string) (*models.Institution, error) {
	return get[models.Institution](ctx, c, institutionsPath, unitID)
}

func (c *Client) InstructionalProgram(ctx context.Context, cipCode string) (*models.InstructionalProgram, error) {
	return get[models.InstructionalProgram](ctx, c, programsPath, cipCode)
}

func get[T any](ctx context.Context, c *Client, resource, key string) (*T, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, resource, url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s lookup: %w", resource, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s lookup: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.logger.Debug("Reference record not found", zap.String("resource", resource), zap.String("key", key))
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%s lookup status %d: %s", resource, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var record T
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("decode %s: %w", resource, err)
	}
	return &record, nil
}
