// Package client fetches pandemic statistics from the disease.sh API and
// normalizes them into model records. Fetch failures are logged and turned
// into empty results; callers never see an error.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/verte-zerg/covidash/internal/logging"
	"github.com/verte-zerg/covidash/internal/model"
)

// DefaultBaseURL is the public disease.sh COVID-19 API.
const DefaultBaseURL = "https://disease.sh/v3/covid-19"

const defaultTimeout = 30 * time.Second

// Client wraps the three read-only endpoints.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger used to report swallowed failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.log = logging.OrNop(l)
	}
}

// New returns a Client for baseURL. An empty baseURL uses DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type snapshotPayload struct {
	Cases       *float64       `json:"cases"`
	Recovered   *float64       `json:"recovered"`
	Deaths      *float64       `json:"deaths"`
	Updated     *float64       `json:"updated"`
	CountryInfo map[string]any `json:"countryInfo"`
}

type countryPayload struct {
	Country     string   `json:"country"`
	Continent   *string  `json:"continent"`
	Cases       *float64 `json:"cases"`
	Deaths      *float64 `json:"deaths"`
	Recovered   *float64 `json:"recovered"`
	Population  *float64 `json:"population"`
	CountryInfo *struct {
		ISO2 *string `json:"iso2"`
		Flag *string `json:"flag"`
	} `json:"countryInfo"`
}

// FetchSnapshot returns global totals when country is empty, otherwise the
// totals for that country. Any failure yields the empty snapshot.
func (c *Client) FetchSnapshot(ctx context.Context, country string) model.StatSnapshot {
	path := "/all"
	if country != "" {
		path = "/countries/" + url.PathEscape(country)
	}
	var payload snapshotPayload
	if err := c.getJSON(ctx, path, nil, &payload); err != nil {
		c.log.Warn("failed to fetch snapshot", zap.String("country", country), zap.Error(err))
		return model.StatSnapshot{}
	}
	return normalizeSnapshot(payload)
}

// FetchCountryList returns the upstream country list. Any failure yields an
// empty list.
func (c *Client) FetchCountryList(ctx context.Context) []model.CountrySummary {
	var payload []countryPayload
	if err := c.getJSON(ctx, "/countries", nil, &payload); err != nil {
		c.log.Warn("failed to fetch countries", zap.Error(err))
		return []model.CountrySummary{}
	}
	out := make([]model.CountrySummary, 0, len(payload))
	for _, p := range payload {
		out = append(out, normalizeCountry(p))
	}
	return out
}

func normalizeSnapshot(p snapshotPayload) model.StatSnapshot {
	snap := model.StatSnapshot{
		Confirmed:   count(p.Cases),
		Recovered:   count(p.Recovered),
		Deaths:      count(p.Deaths),
		CountryInfo: p.CountryInfo,
		Available:   true,
	}
	if snap.CountryInfo == nil {
		snap.CountryInfo = map[string]any{}
	}
	if p.Updated != nil {
		updated := int64(*p.Updated)
		snap.LastUpdate = &updated
	}
	return snap
}

func normalizeCountry(p countryPayload) model.CountrySummary {
	cs := model.CountrySummary{
		Name:       p.Country,
		Cases:      count(p.Cases),
		Deaths:     count(p.Deaths),
		Recovered:  count(p.Recovered),
		Population: count(p.Population),
	}
	if p.Continent != nil {
		cs.Continent = *p.Continent
	}
	if p.CountryInfo != nil {
		if p.CountryInfo.ISO2 != nil {
			cs.ISO2 = *p.CountryInfo.ISO2
		}
		if p.CountryInfo.Flag != nil {
			cs.FlagURL = *p.CountryInfo.Flag
		}
	}
	return cs
}

// count maps absent, null and negative upstream numbers to 0.
func count(v *float64) int64 {
	if v == nil || *v < 0 {
		return 0
	}
	return int64(*v)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dst any) error {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status for %s: %s", path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return body, nil
}
