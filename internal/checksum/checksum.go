// Package checksum computes content digests used for ETags and revision tracking.
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

// Any is the If-Match wildcard: the precondition holds for any existing
// representation and fails when there is none.
const Any = "*"

// ETag formats a digest as a strong HTTP entity tag.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// FromETag strips quotes and an optional weak prefix from an If-Match value.
// The wildcard is returned as Any; an empty header yields "".
func FromETag(header string) string {
	v := strings.TrimSpace(header)
	if v == Any {
		return Any
	}
	v = strings.TrimPrefix(v, "W/")
	return strings.Trim(v, `"`)
}
