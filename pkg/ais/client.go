package ais

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/villu-ctrl/keri-ais-monitor/pkg/config"
)

// Client fetches AIS position and vessel metadata batches from a
// digitraffic-style API.
type Client struct {
	cfg        config.FeedConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a feed client. Outbound requests are rate limited so a
// misconfigured polling interval cannot hammer the upstream API.
func NewClient(cfg config.FeedConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 2),
	}
}

// FetchLocations fetches the current raw position batch.
func (c *Client) FetchLocations(ctx context.Context) ([]Feature, error) {
	body, err := c.get(ctx, c.cfg.LocationsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch locations: %w", err)
	}

	var fc FeatureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse locations payload: %w", err)
	}

	log.Debug().Int("features", len(fc.Features)).Msg("Fetched AIS locations")
	return fc.Features, nil
}

// FetchVesselNames fetches the vessel metadata batch and returns the
// MMSI to display-name lookup. Entries without a name are skipped.
func (c *Client) FetchVesselNames(ctx context.Context) (map[int]string, error) {
	body, err := c.get(ctx, c.cfg.VesselsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch vessel metadata: %w", err)
	}

	var vessels []VesselMetadata
	if err := json.Unmarshal(body, &vessels); err != nil {
		return nil, fmt.Errorf("failed to parse vessels payload: %w", err)
	}

	names := make(map[int]string, len(vessels))
	for _, vessel := range vessels {
		if vessel.MMSI == 0 || vessel.Name == "" {
			continue
		}
		names[vessel.MMSI] = vessel.Name
	}

	log.Info().Int("vessels", len(names)).Msg("Loaded vessel metadata")
	return names, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Digitraffic-User", c.cfg.UserAgent)
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	log.Debug().
		Str("url", url).
		Int64("durationMs", time.Since(start).Milliseconds()).
		Msg("Feed request complete")

	return body, nil
}
