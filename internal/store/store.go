// Package store persists alert state (subscriptions, notifications) and
// caches resolved importer profiles.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/importer-intel/internal/model"
)

// kv_state keys. Each holds one JSON-encoded list.
const (
	KeySubscriptions = "importerIntel-subscriptions"
	KeyNotifications = "importerIntel-notifications"
)

// State is the persisted alert state.
type State struct {
	Subscriptions []model.Subscription
	Notifications []model.Notification
}

// Store defines the persistence interface for alert state and the profile cache.
type Store interface {
	// Alert state
	LoadState(ctx context.Context) (State, error)
	SaveSubscriptions(ctx context.Context, subs []model.Subscription) error
	SaveNotifications(ctx context.Context, notes []model.Notification) error

	// Profile cache, keyed by normalized importer name. A miss or an
	// expired entry returns nil, nil.
	GetCachedProfile(ctx context.Context, importerName string) (*model.DetailedImporterResult, error)
	SetCachedProfile(ctx context.Context, importerName string, result *model.DetailedImporterResult, ttl time.Duration) error
	DeleteExpiredProfiles(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// cacheKey folds an importer name so "Acme Imports, LLC" and
// "ACME IMPORTS LLC" share a cache entry. The entity suffix is kept: two
// legal entities never share a profile.
func cacheKey(importerName string) string {
	return model.FoldName(importerName)
}

// decodeList decodes a stored list. Missing or corrupt values yield an
// empty list; a corrupt value is logged and otherwise ignored.
func decodeList[T any](key string, raw []byte) []T {
	out := []T{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		zap.L().Warn("store: discarding unreadable state",
			zap.String("key", key),
			zap.Error(err),
		)
		return []T{}
	}
	return out
}

func encodeList[T any](list []T) ([]byte, error) {
	if list == nil {
		list = []T{}
	}
	b, err := json.Marshal(list)
	return b, eris.Wrap(err, "store: marshal state")
}
