package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

var ErrUnknownCacheType = errors.New("unknown cache type")

// Cache stores transformed build inputs keyed by a content digest.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
}

// New returns the cache for a configured type. dir is only used by the filesystem cache.
func New(cacheType, dir string) (Cache, error) {
	switch cacheType {
	case "memory":
		return NewMemory(DefaultMemoryEntries)
	case "filesystem":
		return NewFilesystem(dir)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCacheType, cacheType)
	}
}

// Key digests parts into a stable cache key. Parts are length prefixed so boundaries matter.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:%s;", len(p), p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
