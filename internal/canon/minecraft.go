package canon

import (
	"regexp"
	"strings"

	"github.com/eugener/playerlookup/internal/apperror"
)

var minecraftIdentRe = regexp.MustCompile(`^[\w-]+$`)

// MinecraftKind distinguishes the shape of a canonicalized Minecraft query.
type MinecraftKind int

const (
	MinecraftUsername MinecraftKind = iota
	MinecraftUUID
)

// Minecraft validates and classifies a Minecraft query. Length 32 (raw UUID)
// or 36 (dashed UUID) routes to the profile-by-UUID step; anything else is
// treated as a username lookup.
func Minecraft(query string) (kind MinecraftKind, raw string, err error) {
	if !minecraftIdentRe.MatchString(query) {
		return 0, "", apperror.NewFail("minecraft.invalid_username", nil)
	}
	switch len(query) {
	case 32:
		return MinecraftUUID, strings.ToLower(StripDashes(query)), nil
	case 36:
		return MinecraftUUID, strings.ToLower(StripDashes(query)), nil
	default:
		return MinecraftUsername, query, nil
	}
}

// StripDashes removes UUID separators, yielding the raw_id form.
func StripDashes(uuid string) string {
	return strings.ReplaceAll(uuid, "-", "")
}

// FormatUUID inserts standard UUID dashes into a 32-char raw UUID.
func FormatUUID(raw string) string {
	if len(raw) != 32 {
		return raw
	}
	return raw[0:8] + "-" + raw[8:12] + "-" + raw[12:16] + "-" + raw[16:20] + "-" + raw[20:32]
}
