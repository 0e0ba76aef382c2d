// Package prefs keeps the recently viewed and favorite countries, persisted
// as JSON arrays in the local key-value store.
package prefs

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Storage keys.
const (
	RecentKey    = "recentlyViewed"
	FavoritesKey = "countryFavorites"
)

// KV is the persistence the stores need.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// loadNames reads a JSON string array stored under key. Anything unreadable
// or of the wrong shape yields nil and a warning.
func loadNames(ctx context.Context, kv KV, key string, log *zap.Logger) []string {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		log.Warn("failed to read stored names", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	names, err := decodeNames(raw)
	if err != nil {
		log.Warn("discarding malformed stored names", zap.String("key", key), zap.Error(err))
		return nil
	}
	return names
}

// decodeNames accepts only a JSON array of strings (null counts as empty).
// Empty strings and repeats are dropped, first occurrence wins.
func decodeNames(raw string) ([]string, error) {
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, fmt.Errorf("expected a JSON array of strings: %w", err)
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

func saveNames(ctx context.Context, kv KV, key string, names []string) error {
	if names == nil {
		names = []string{}
	}
	data, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return kv.Put(ctx, key, string(data))
}
