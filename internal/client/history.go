package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/verte-zerg/covidash/internal/model"
)

// FetchHistoricalSeries returns the full global history, one point per date
// in the order upstream lists the dates. Any failure yields an empty series.
func (c *Client) FetchHistoricalSeries(ctx context.Context) []model.DailyPoint {
	body, err := c.get(ctx, "/historical/all", url.Values{"lastdays": []string{"all"}})
	if err != nil {
		c.log.Warn("failed to fetch historical series", zap.Error(err))
		return []model.DailyPoint{}
	}
	points, err := decodeSeries(body)
	if err != nil {
		c.log.Warn("failed to decode historical series", zap.Error(err))
		return []model.DailyPoint{}
	}
	return points
}

func decodeSeries(body []byte) ([]model.DailyPoint, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	casesRaw, ok := fields["cases"]
	if !ok {
		return nil, fmt.Errorf("missing cases timeline")
	}
	dates, cases, err := orderedCounts(casesRaw)
	if err != nil {
		return nil, fmt.Errorf("cases timeline: %w", err)
	}
	deaths, err := lookupCounts(fields["deaths"])
	if err != nil {
		return nil, fmt.Errorf("deaths timeline: %w", err)
	}
	recovered, err := lookupCounts(fields["recovered"])
	if err != nil {
		return nil, fmt.Errorf("recovered timeline: %w", err)
	}

	points := make([]model.DailyPoint, 0, len(dates))
	for _, date := range dates {
		points = append(points, model.DailyPoint{
			Date:      date,
			Confirmed: cases[date],
			Deaths:    deaths[date],
			Recovered: recovered[date],
		})
	}
	return points, nil
}

// orderedCounts walks a {"date": n} object keeping key order, which a Go map
// would lose.
func orderedCounts(raw json.RawMessage) ([]string, map[string]int64, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}
	var keys []string
	values := map[string]int64{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected key, got %v", keyTok)
		}
		var v *float64
		if err := dec.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("value for %s: %w", key, err)
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = count(v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, values, nil
}

// lookupCounts decodes an optional {"date": n} object where only lookups
// matter. Absent or null timelines read as all zeros.
func lookupCounts(raw json.RawMessage) (map[string]int64, error) {
	out := map[string]int64{}
	if len(raw) == 0 {
		return out, nil
	}
	var values map[string]*float64
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, err
	}
	for k, v := range values {
		out[k] = count(v)
	}
	return out, nil
}
