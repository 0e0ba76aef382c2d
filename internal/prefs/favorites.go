package prefs

import (
	"context"

	"go.uber.org/zap"

	"github.com/verte-zerg/covidash/internal/logging"
)

// Favorites is the unbounded set of favorite countries, kept in the order
// they were added.
type Favorites struct {
	kv    KV
	items []string
}

// LoadFavorites reads the persisted set once. A missing or corrupt record
// starts an empty set.
func LoadFavorites(ctx context.Context, kv KV, log *zap.Logger) *Favorites {
	log = logging.OrNop(log)
	return &Favorites{kv: kv, items: loadNames(ctx, kv, FavoritesKey, log)}
}

// Toggle adds name when absent and removes it when present, then persists
// the set. It reports whether name is a favorite afterwards.
func (f *Favorites) Toggle(ctx context.Context, name string) (bool, error) {
	added := !f.Contains(name)
	updated := make([]string, 0, len(f.items)+1)
	for _, item := range f.items {
		if item == name {
			continue
		}
		updated = append(updated, item)
	}
	if added {
		updated = append(updated, name)
	}
	f.items = updated
	return added, saveNames(ctx, f.kv, FavoritesKey, updated)
}

// Contains reports exact membership.
func (f *Favorites) Contains(name string) bool {
	for _, item := range f.items {
		if item == name {
			return true
		}
	}
	return false
}

// Items returns a copy of the set in insertion order.
func (f *Favorites) Items() []string {
	return append([]string(nil), f.items...)
}
