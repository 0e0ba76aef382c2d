package stats

import (
	"context"
	"time"

	"github.com/verte-zerg/covidash/internal/model"
)

// SnapshotFetcher is the part of the data client a report needs.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, country string) model.StatSnapshot
}

// Report is the printable summary of one scope.
type Report struct {
	Scope     string             `json:"scope" yaml:"scope"`
	Available bool               `json:"available" yaml:"available"`
	Snapshot  model.StatSnapshot `json:"snapshot" yaml:"snapshot"`
	Metrics   CardMetrics        `json:"metrics" yaml:"metrics"`
	Updated   *time.Time         `json:"updated,omitempty" yaml:"updated,omitempty"`
}

// BuildReport fetches the snapshot for country ("" for global) and derives
// the card figures.
func BuildReport(ctx context.Context, fetcher SnapshotFetcher, country string) Report {
	snap := fetcher.FetchSnapshot(ctx, country)
	return NewReport(model.Selection{Country: country}, snap)
}

// NewReport derives a report from an already fetched snapshot.
func NewReport(sel model.Selection, snap model.StatSnapshot) Report {
	r := Report{
		Scope:     sel.Label(),
		Available: snap.Available,
		Snapshot:  snap,
		Metrics:   Metrics(snap),
	}
	if t, ok := snap.LastUpdateTime(); ok {
		t = t.UTC()
		r.Updated = &t
	}
	return r
}
