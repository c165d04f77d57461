// Package cache provides the storage layer for solved layouts and rendered
// artifacts, plus an in-process memo used by scene objects.
//
// # Backends
//
// All persistent backends implement [Cache]:
//   - [NullCache]: stores nothing (caching disabled)
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: shared cache for the HTTP server
//
// Keys are produced by a [Keyer] so that the same scene rendered with the
// same options maps to the same entry regardless of backend. [ScopedKeyer]
// prefixes every key, which lets several deployments share one Redis.
//
// # Memoization
//
// [Memo] holds a single computed value and drops it when [Memo.MarkDirty] is
// called. Memos can be chained so a change deep in a scene tree invalidates
// everything above it.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiration.
//
// Get returns (nil, false, nil) on a miss; errors are reserved for backend
// failures. A ttl of zero means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default time-to-live per entry kind.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// LayoutKeyOpts are the options that change a solved layout.
type LayoutKeyOpts struct {
	Strict *bool `json:"strict,omitempty"` // override of the scene's strict flag
}

// ArtifactKeyOpts are the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Strict   *bool   `json:"strict,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
	Quality  int     `json:"quality,omitempty"`
	Detailed bool    `json:"detailed,omitempty"`
}

// Keyer generates cache keys.
type Keyer interface {
	// LayoutKey identifies the solved layout of a scene.
	LayoutKey(sceneHash string, opts LayoutKeyOpts) string
	// ArtifactKey identifies one rendered output of a scene.
	ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the options into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey returns "layout:<sha256>".
func (DefaultKeyer) LayoutKey(sceneHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", sceneHash, opts)
}

// ArtifactKey returns "artifact:<format>:<sha256>".
func (DefaultKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return hashKey(fmt.Sprintf("artifact:%s", opts.Format), sceneHash, opts)
}
