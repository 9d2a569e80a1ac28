// Package osm fetches a settlement's street segments from the Overpass
// API and shapes them into raw ingestion records.
package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/streets-name-id/internal/ingest"
	"github.com/streets-name-id/internal/retry"
)

// Client talks to an Overpass endpoint. Construct with NewClient.
type Client struct {
	httpClient *http.Client
	endpoint   string
	userAgent  string
	retry      *retry.Policy
}

// NewClient builds an Overpass client. The endpoint must be the full
// interpreter URL; retry may be nil for the default policy.
func NewClient(endpoint, userAgent string, policy *retry.Policy) *Client {
	if policy == nil {
		policy = retry.DefaultPolicy()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 3 * time.Minute},
		endpoint:   endpoint,
		userAgent:  userAgent,
		retry:      policy,
	}
}

type overpassResponse struct {
	Elements []struct {
		Type     string            `json:"type"`
		ID       int64             `json:"id"`
		Tags     map[string]string `json:"tags"`
		Geometry []struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"geometry"`
	} `json:"elements"`
}

// FetchSettlement downloads every named highway way inside the
// settlement's administrative boundary. Way identifiers are prefixed with
// "way/" so they stay distinct from any other source's identifiers.
func (c *Client) FetchSettlement(ctx context.Context, settlement string) ([]ingest.RawSegment, error) {
	query := buildQuery(settlement)

	var body []byte
	err := c.retry.Do(ctx, func(attempt int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
			strings.NewReader(url.Values{"data": {query}}.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("overpass returned status %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s from overpass: %w", settlement, err)
	}

	var parsed overpassResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding overpass response for %s: %w", settlement, err)
	}

	segments := make([]ingest.RawSegment, 0, len(parsed.Elements))
	for _, el := range parsed.Elements {
		if el.Type != "way" {
			continue
		}
		line := make(orb.LineString, 0, len(el.Geometry))
		for _, p := range el.Geometry {
			line = append(line, orb.Point{p.Lon, p.Lat})
		}
		segments = append(segments, ingest.RawSegment{
			ID:         fmt.Sprintf("way/%d", el.ID),
			Settlement: settlement,
			Tags:       el.Tags,
			Geometry:   line,
		})
	}
	return segments, nil
}

// buildQuery asks for every named highway way inside the settlement's
// administrative area, with full geometry.
func buildQuery(settlement string) string {
	escaped := strings.ReplaceAll(settlement, `"`, `\"`)
	return fmt.Sprintf(`[out:json][timeout:180];
area["name"="%s"]["boundary"="administrative"]->.settlement;
way(area.settlement)["highway"]["name"];
out tags geom;`, escaped)
}
