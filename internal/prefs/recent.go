package prefs

import (
	"context"

	"go.uber.org/zap"

	"github.com/verte-zerg/covidash/internal/logging"
	"github.com/verte-zerg/covidash/internal/model"
)

// Recent is the most-recent-first list of viewed countries, unique and
// bounded to model.MaxRecent entries.
type Recent struct {
	kv    KV
	items []string
}

// LoadRecent reads the persisted list once. A missing or corrupt record
// starts an empty list.
func LoadRecent(ctx context.Context, kv KV, log *zap.Logger) *Recent {
	log = logging.OrNop(log)
	items := loadNames(ctx, kv, RecentKey, log)
	if len(items) > model.MaxRecent {
		items = items[:model.MaxRecent]
	}
	return &Recent{kv: kv, items: items}
}

// Add moves name to the front, trims the list and persists it. Empty names
// are ignored.
func (r *Recent) Add(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	updated := make([]string, 0, model.MaxRecent)
	updated = append(updated, name)
	for _, item := range r.items {
		if item == name {
			continue
		}
		updated = append(updated, item)
	}
	if len(updated) > model.MaxRecent {
		updated = updated[:model.MaxRecent]
	}
	r.items = updated
	return saveNames(ctx, r.kv, RecentKey, updated)
}

// Clear empties the list and removes the persisted record.
func (r *Recent) Clear(ctx context.Context) error {
	r.items = nil
	return r.kv.Delete(ctx, RecentKey)
}

// Items returns a copy of the list, most recent first.
func (r *Recent) Items() []string {
	return append([]string(nil), r.items...)
}
