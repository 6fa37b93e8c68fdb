package canon

import (
	"regexp"
	"strings"

	"github.com/eugener/playerlookup/internal/apperror"
)

var (
	hytaleUsernameRe = regexp.MustCompile(`^\w{3,16}$`)
	hytaleUUIDRe     = regexp.MustCompile(`^[\da-f]{8}(-?[\da-f]{4}){3}-?[\da-f]{12}$`)
)

// HytaleKind distinguishes a username query from a UUID query.
type HytaleKind int

const (
	HytaleUsername HytaleKind = iota
	HytaleUUID
)

// Hytale validates and classifies a Hytale identifier. It matches case
// insensitively against the UUID form but preserves the original case of
// a username (the upstream and cache key both lowercase separately).
func Hytale(query string) (HytaleKind, error) {
	lower := strings.ToLower(query)
	if hytaleUUIDRe.MatchString(lower) {
		return HytaleUUID, nil
	}
	if hytaleUsernameRe.MatchString(query) {
		return HytaleUsername, nil
	}
	return 0, apperror.NewFail("hytale.invalid_identifier", nil)
}
