package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/dmitrymomot/authcore/pkg/clientip"
)

// maxKeyLength is the maximum allowed length for a rate limit key.
const maxKeyLength = 64

// UnknownClient stands in for callers whose address cannot be resolved,
// such as unix socket peers. They share one window per action.
const UnknownClient = "unknown"

// KeyFunc extracts a unique identifier from an HTTP request for rate limiting.
type KeyFunc func(*http.Request) string

// Static returns a KeyFunc that always yields value. Used for the action name.
func Static(value string) KeyFunc {
	return func(*http.Request) string { return value }
}

// ClientIP returns a KeyFunc yielding the resolved caller address, or
// UnknownClient when there is none.
func ClientIP() KeyFunc {
	return func(r *http.Request) string {
		if ip := clientip.Resolve(r); ip != "" {
			return ip
		}
		return UnknownClient
	}
}

// Composite joins the non-empty results of keyFuncs with ":".
// Keys longer than 64 characters are replaced by the hex of the first
// 16 bytes of their SHA-256.
func Composite(keyFuncs ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(keyFuncs))
		for _, fn := range keyFuncs {
			if key := fn(r); key != "" {
				parts = append(parts, key)
			}
		}

		if len(parts) == 0 {
			return ""
		}

		combined := strings.Join(parts, ":")
		if len(combined) > maxKeyLength {
			hash := sha256.Sum256([]byte(combined))
			return hex.EncodeToString(hash[:16])
		}

		return combined
	}
}
