// Package canon implements per-platform identifier canonicalization: the
// rules that normalize a raw query into the primary key used both as the
// cache key and the upstream query.
package canon

import "strings"

// CacheKey builds the canonical, platform-prefixed, lowercase cache key.
func CacheKey(platform, role, id string) string {
	return strings.ToLower(platform) + "-" + role + "-" + strings.ToLower(id)
}
