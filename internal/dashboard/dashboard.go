// Package dashboard coordinates fetching and the currently displayed scope.
package dashboard

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/covidash/internal/logging"
	"github.com/verte-zerg/covidash/internal/model"
)

// Fetcher provides the remote data. Implementations swallow their own
// failures and return empty values.
type Fetcher interface {
	FetchSnapshot(ctx context.Context, country string) model.StatSnapshot
	FetchHistoricalSeries(ctx context.Context) []model.DailyPoint
	FetchCountryList(ctx context.Context) []model.CountrySummary
}

// ChartKind picks the chart for a scope.
type ChartKind int

const (
	// ChartSeries is the global time-series line chart.
	ChartSeries ChartKind = iota
	// ChartBars is the three-bar country comparison.
	ChartBars
)

func (k ChartKind) String() string {
	if k == ChartBars {
		return "bars"
	}
	return "series"
}

// Initial is the result of the startup load.
type Initial struct {
	Snapshot  model.StatSnapshot
	Series    []model.DailyPoint
	Countries []model.CountrySummary
}

// Request identifies one selection. Later requests carry larger ids.
type Request struct {
	ID      uint64
	Country string
}

// Result is a fetched snapshot for a request.
type Result struct {
	Request
	Snapshot model.StatSnapshot
}

// State is a copy of what the dashboard currently shows.
type State struct {
	Selection model.Selection
	Pending   string
	Loading   bool
	Snapshot  model.StatSnapshot
	Series    []model.DailyPoint
	Chart     ChartKind
}

// Dashboard holds the displayed scope and its data.
type Dashboard struct {
	fetcher Fetcher
	log     *zap.Logger

	mu        sync.Mutex
	lastID    uint64
	selection model.Selection
	pending   string
	loading   bool
	snapshot  model.StatSnapshot
	series    []model.DailyPoint
}

// New returns a dashboard showing the global scope with no data yet.
func New(fetcher Fetcher, log *zap.Logger) *Dashboard {
	return &Dashboard{
		fetcher: fetcher,
		log:     logging.OrNop(log),
		series:  []model.DailyPoint{},
	}
}

// LoadInitial fetches the snapshot for the current scope, the historical
// series and the country list concurrently. A selection still in flight is
// re-issued so it stays the latest request.
func (d *Dashboard) LoadInitial(ctx context.Context) Initial {
	req := d.BeginSelect(d.target())

	var (
		res       Result
		series    []model.DailyPoint
		countries []model.CountrySummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res = d.Fetch(gctx, req)
		return nil
	})
	g.Go(func() error {
		series = d.fetcher.FetchHistoricalSeries(gctx)
		return nil
	})
	g.Go(func() error {
		countries = d.fetcher.FetchCountryList(gctx)
		return nil
	})
	_ = g.Wait()

	if series == nil {
		series = []model.DailyPoint{}
	}
	if countries == nil {
		countries = []model.CountrySummary{}
	}
	d.mu.Lock()
	d.series = series
	d.mu.Unlock()
	d.Apply(res)

	d.log.Info("initial load finished",
		zap.Int("points", len(series)),
		zap.Int("countries", len(countries)),
		zap.Bool("snapshot", res.Snapshot.Available),
	)
	return Initial{Snapshot: res.Snapshot, Series: series, Countries: countries}
}

// BeginSelect starts a selection of country ("" for global) and marks the
// dashboard as loading.
func (d *Dashboard) BeginSelect(country string) Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastID++
	d.pending = country
	d.loading = true
	return Request{ID: d.lastID, Country: country}
}

// target is the scope the user asked for last: the pending selection while
// one is loading, otherwise the displayed one.
func (d *Dashboard) target() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loading {
		return d.pending
	}
	return d.selection.Country
}

// Fetch retrieves the snapshot for req. It does not touch dashboard state.
func (d *Dashboard) Fetch(ctx context.Context, req Request) Result {
	return Result{Request: req, Snapshot: d.fetcher.FetchSnapshot(ctx, req.Country)}
}

// Apply commits res when it answers the latest request. Stale results are
// dropped and Apply reports false.
func (d *Dashboard) Apply(res Result) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if res.ID != d.lastID {
		d.log.Debug("discarding stale snapshot",
			zap.Uint64("id", res.ID),
			zap.Uint64("latest", d.lastID),
			zap.String("country", res.Country),
		)
		return false
	}
	d.selection = model.Selection{Country: res.Country}
	d.snapshot = res.Snapshot
	d.pending = ""
	d.loading = false
	if res.Snapshot.Empty() {
		d.log.Warn("no data for scope", zap.String("scope", d.selection.Label()))
	}
	return true
}

// Select runs a full selection synchronously.
func (d *Dashboard) Select(ctx context.Context, country string) bool {
	return d.Apply(d.Fetch(ctx, d.BeginSelect(country)))
}

// State returns a copy of the current state.
func (d *Dashboard) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	chart := ChartSeries
	if !d.selection.Global() {
		chart = ChartBars
	}
	series := make([]model.DailyPoint, len(d.series))
	copy(series, d.series)
	return State{
		Selection: d.selection,
		Pending:   d.pending,
		Loading:   d.loading,
		Snapshot:  d.snapshot,
		Series:    series,
		Chart:     chart,
	}
}
