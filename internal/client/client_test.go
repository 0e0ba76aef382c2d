package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/verte-zerg/covidash/internal/model"
)

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.RequestURI()]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchSnapshotGlobalNormalizesMissingFields(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/all": `{"cases":10,"recovered":null,"updated":1700000000000}`,
	})

	snap := New(srv.URL).FetchSnapshot(context.Background(), "")

	require.True(t, snap.Available)
	assert.Equal(t, int64(10), snap.Confirmed)
	assert.Equal(t, int64(0), snap.Recovered)
	assert.Equal(t, int64(0), snap.Deaths)
	require.NotNil(t, snap.LastUpdate)
	assert.Equal(t, int64(1700000000000), *snap.LastUpdate)
	assert.NotNil(t, snap.CountryInfo)
}

func TestFetchSnapshotCountryEscapesName(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/countries/United%20States": `{"cases":5,"deaths":1,"recovered":3,"countryInfo":{"iso2":"US"}}`,
	})

	snap := New(srv.URL).FetchSnapshot(context.Background(), "United States")

	assert.Equal(t, int64(5), snap.Confirmed)
	assert.Equal(t, int64(1), snap.Deaths)
	assert.Equal(t, int64(3), snap.Recovered)
	assert.Equal(t, "US", snap.CountryInfo["iso2"])
	assert.Nil(t, snap.LastUpdate)
}

func TestFetchSnapshotUnknownCountryIsEmpty(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	srv := newTestServer(t, map[string]string{})

	snap := New(srv.URL, WithLogger(zap.New(core))).FetchSnapshot(context.Background(), "Atlantis")

	assert.True(t, snap.Empty())
	assert.Equal(t, model.StatSnapshot{}, snap)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Atlantis", logs.All()[0].ContextMap()["country"])
}

func TestFetchSnapshotMalformedBodyIsEmpty(t *testing.T) {
	srv := newTestServer(t, map[string]string{"/all": `{"cases":`})

	snap := New(srv.URL).FetchSnapshot(context.Background(), "")

	assert.True(t, snap.Empty())
}

func TestNetworkFailureYieldsEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, WithTimeout(time.Second))
	ctx := context.Background()

	assert.True(t, c.FetchSnapshot(ctx, "").Empty())
	series := c.FetchHistoricalSeries(ctx)
	require.NotNil(t, series)
	assert.Empty(t, series)
	list := c.FetchCountryList(ctx)
	require.NotNil(t, list)
	assert.Empty(t, list)
}

func TestFetchHistoricalSeriesKeepsUpstreamOrder(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/historical/all?lastdays=all": `{
			"cases": {"1/22/20": 555, "1/23/20": 654, "1/3/21": 900, "12/31/20": 800},
			"deaths": {"1/23/20": 18, "1/22/20": 17, "12/31/20": null},
			"recovered": {"1/22/20": 28}
		}`,
	})

	points := New(srv.URL).FetchHistoricalSeries(context.Background())

	want := []model.DailyPoint{
		{Date: "1/22/20", Confirmed: 555, Deaths: 17, Recovered: 28},
		{Date: "1/23/20", Confirmed: 654, Deaths: 18},
		{Date: "1/3/21", Confirmed: 900},
		{Date: "12/31/20", Confirmed: 800},
	}
	assert.Equal(t, want, points)
}

func TestFetchHistoricalSeriesWithoutCasesIsEmpty(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/historical/all?lastdays=all": `{"deaths": {"1/22/20": 1}}`,
	})

	points := New(srv.URL).FetchHistoricalSeries(context.Background())

	require.NotNil(t, points)
	assert.Empty(t, points)
}

func TestFetchCountryListMapsFields(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/countries": `[
			{"country":"Italy","continent":"Europe","cases":100,"deaths":10,"recovered":80,"population":59000000,
			 "countryInfo":{"iso2":"IT","flag":"https://example.test/it.png"}},
			{"country":"Diamond Princess","continent":null,"cases":712,"deaths":13,"recovered":null,"countryInfo":{"iso2":null,"flag":null}}
		]`,
	})

	list := New(srv.URL).FetchCountryList(context.Background())

	want := []model.CountrySummary{
		{Name: "Italy", Continent: "Europe", Cases: 100, Deaths: 10, Recovered: 80, Population: 59000000, ISO2: "IT", FlagURL: "https://example.test/it.png"},
		{Name: "Diamond Princess", Cases: 712, Deaths: 13},
	}
	assert.Equal(t, want, list)
}

func TestNewDefaultsAndTrimsBaseURL(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, New("  ").BaseURL())
	assert.Equal(t, "http://localhost:1/v3", New("http://localhost:1/v3/").BaseURL())
}

func TestFetchHonorsContextCancel(t *testing.T) {
	srv := newTestServer(t, map[string]string{"/all": `{"cases":1}`})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, New(srv.URL).FetchSnapshot(ctx, "").Empty())
}
