package usgs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/quake-data-etl/internal/domain"
)

const maxErrorBody = 512

var errNoFeatures = errors.New("payload has no features key")

// Client implements pipeline.Fetcher against the USGS FDSN event service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a feed client. baseURL is the FDSN query endpoint.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// Fetch issues one GeoJSON query for the window. It never retries. Features
// are returned undecoded; record-level problems surface during normalization.
func (c *Client) Fetch(ctx context.Context, window domain.Window) (domain.FeatureCollection, error) {
	params := url.Values{
		"format":    {"geojson"},
		"starttime": {window.StartDate()},
		"endtime":   {window.EndDate()},
	}
	fullURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.FeatureCollection{}, &domain.FetchError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	c.logger.Debug("feed request", "url", fullURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.FeatureCollection{}, &domain.FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domain.FeatureCollection{}, &domain.FetchError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var p payload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return domain.FeatureCollection{}, &domain.FetchError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if p.Features == nil {
		return domain.FeatureCollection{}, &domain.FetchError{Err: errNoFeatures}
	}

	return domain.FeatureCollection{
		Type:     p.Type,
		Metadata: p.Metadata,
		Features: *p.Features,
	}, nil
}

// payload distinguishes a missing features key from an empty one.
type payload struct {
	Type     string             `json:"type"`
	Metadata domain.Metadata    `json:"metadata"`
	Features *[]json.RawMessage `json:"features"`
}
