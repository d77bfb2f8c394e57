// Package cache provides the key-value port used for read-through caching of
// property lookups and searches, with no-op, in-memory and Redis backends.
package cache

import (
	"context"
	"time"
)

const (
	propertyKeyPrefix = "property:"
	searchKeyPrefix   = "search:"

	// SearchHistoryKey holds the most recent serialized search queries.
	SearchHistoryKey = "search_history"
)

// Cache stores JSON encoded values with a TTL. Writes are last-writer-wins.
type Cache interface {
	// Get decodes the value stored under key into dest and reports whether it was found.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// PushCapped prepends value to the list at key, keeping the newest limit entries.
	PushCapped(ctx context.Context, key string, value string, limit int) error
}

func PropertyKey(id string) string {
	return propertyKeyPrefix + id
}

// SearchKey builds the search cache key from an already canonicalized query.
func SearchKey(canonicalQuery string) string {
	return searchKeyPrefix + canonicalQuery
}

// Noop satisfies Cache without storing anything; every Get is a miss.
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) (bool, error) { return false, nil }

func (Noop) Set(context.Context, string, interface{}, time.Duration) error { return nil }

func (Noop) Delete(context.Context, string) error { return nil }

func (Noop) PushCapped(context.Context, string, string, int) error { return nil }
