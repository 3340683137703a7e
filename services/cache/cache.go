package cache

import (
	"crypto/sha1"
	"encoding/hex"
	stderrors "errors"
	"strings"
	"time"
)

// ErrMiss is returned by Get when the key is not cached
var ErrMiss = stderrors.New("cache: miss")

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// maxKeyLength is the memcached protocol limit
const maxKeyLength = 250

// Key builds a cache key from a prefix and an arbitrary value such as a URL.
// Values that memcached cannot store as a key are replaced by their SHA-1.
func Key(prefix, value string) string {
	key := prefix + ":" + value
	if len(key) <= maxKeyLength && !strings.ContainsFunc(key, invalidKeyRune) {
		return key
	}
	sum := sha1.Sum([]byte(value))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

func invalidKeyRune(r rune) bool {
	return r <= ' ' || r == 0x7f
}
