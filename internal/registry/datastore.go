// Package registry fetches the government street registry through the
// data.gov.il datastore API, page by page.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/streets-name-id/internal/ingest"
	"github.com/streets-name-id/internal/retry"
)

// defaultPageSize is the datastore's maximum page; the full registry is
// tens of thousands of rows, so fewer round trips matter.
const defaultPageSize = 1000

// Client pages through one datastore resource. Construct with NewClient.
// Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	endpoint   string
	resourceID string
	userAgent  string
	retry      *retry.Policy
	pageSize   int

	mu     sync.Mutex
	cached []ingest.RawRegistryRow
}

// NewClient builds a datastore client for the given resource. retry may be
// nil for the default policy.
func NewClient(endpoint, resourceID, userAgent string, policy *retry.Policy) *Client {
	if policy == nil {
		policy = retry.DefaultPolicy()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   endpoint,
		resourceID: resourceID,
		userAgent:  userAgent,
		retry:      policy,
		pageSize:   defaultPageSize,
	}
}

type datastoreResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Total   int               `json:"total"`
		Records []datastoreRecord `json:"records"`
	} `json:"result"`
}

// datastoreRecord tolerates the identifier arriving as number or string.
type datastoreRecord struct {
	OfficialCode json.Number `json:"official_code"`
	StreetName   string      `json:"street_name"`
	CityName     string      `json:"city_name"`
}

// FetchAll pages through the whole resource at most once per client;
// later calls, including every per-settlement filter, read the same
// in-memory snapshot. A page that keeps failing after retries aborts the
// fetch; partial registries silently shrink the match target set and are
// worse than a loud error. Failed fetches are not cached.
func (c *Client) FetchAll(ctx context.Context) ([]ingest.RawRegistryRow, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != nil {
		return c.cached, nil
	}
	rows, err := c.fetchAll(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []ingest.RawRegistryRow{}
	}
	c.cached = rows
	return rows, nil
}

func (c *Client) fetchAll(ctx context.Context) ([]ingest.RawRegistryRow, error) {
	var rows []ingest.RawRegistryRow
	offset := 0
	total := -1

	for {
		page, pageTotal, err := c.fetchPage(ctx, offset)
		if err != nil {
			return nil, fmt.Errorf("fetching registry page at offset %d: %w", offset, err)
		}
		if total < 0 {
			total = pageTotal
			log.Printf("registry fetch: %d records total", total)
		}
		if len(page) == 0 {
			break
		}
		rows = append(rows, page...)
		offset += c.pageSize
		if offset >= total {
			break
		}
	}
	return rows, nil
}

// FetchSettlement returns one settlement's rows. The datastore's filter
// parameter mangles Hebrew values on some mirrors, so filtering happens
// client-side over the full fetch.
func (c *Client) FetchSettlement(ctx context.Context, settlement string) ([]ingest.RawRegistryRow, error) {
	all, err := c.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	var rows []ingest.RawRegistryRow
	for _, row := range all {
		if row.Settlement == settlement {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (c *Client) fetchPage(ctx context.Context, offset int) ([]ingest.RawRegistryRow, int, error) {
	params := url.Values{
		"resource_id": {c.resourceID},
		"limit":       {strconv.Itoa(c.pageSize)},
		"offset":      {strconv.Itoa(offset)},
	}
	pageURL := c.endpoint + "?" + params.Encode()

	var body []byte
	err := c.retry.Do(ctx, func(attempt int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("datastore returned status %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	var parsed datastoreResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, 0, err
	}
	if !parsed.Success {
		return nil, 0, fmt.Errorf("datastore reported failure")
	}

	rows := make([]ingest.RawRegistryRow, 0, len(parsed.Result.Records))
	for _, rec := range parsed.Result.Records {
		rows = append(rows, ingest.RawRegistryRow{
			ID:         rec.OfficialCode.String(),
			Name:       rec.StreetName,
			Settlement: rec.CityName,
		})
	}
	return rows, parsed.Result.Total, nil
}
