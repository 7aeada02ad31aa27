// Package checksum computes content digests used for HTTP validators.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag formats a digest as a strong entity tag.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// MatchesETag reports whether an If-None-Match header value matches sum.
// Lists, weak tags and "*" are accepted.
func MatchesETag(header, sum string) bool {
	if header == "" || sum == "" {
		return false
	}
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "W/")
		if tag == "*" || tag == ETag(sum) {
			return true
		}
	}
	return false
}
