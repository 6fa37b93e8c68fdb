package canon

import (
	"strconv"
	"strings"

	"github.com/eugener/playerlookup/internal/apperror"
	"github.com/k64z/steamstacks/steamid"
)

const (
	steamUniversePublic = 1
	steamTypeIndividual = 1
	steamInstanceDesktop = 1
)

// LooksLikeSteamID reports whether query is already in one of the known
// SteamID textual forms (STEAM_0:..., 7656119..., U:1:..., [U:1:...]),
// as opposed to a vanity URL handle that must be resolved first (§4.E).
func LooksLikeSteamID(query string) bool {
	switch {
	case strings.HasPrefix(query, "STEAM_"):
		return true
	case strings.HasPrefix(query, "7656119"):
		return true
	case strings.HasPrefix(query, "U:"):
		return true
	case strings.HasPrefix(query, "[U:"):
		return true
	default:
		return false
	}
}

// ParseSteamID builds a steamid.SteamID from any of the textual forms
// (steam2, steam3, or raw steam64), treating the library's account-id
// arithmetic as a black box: this function only picks apart the textual
// envelope and feeds the resulting universe/type/instance/account id
// through steamid.SteamID's setters (§1, §4.E).
func ParseSteamID(query string) (steamid.SteamID, error) {
	switch {
	case strings.HasPrefix(query, "STEAM_"):
		return parseSteam2(query)
	case strings.HasPrefix(query, "[U:") || strings.HasPrefix(query, "U:"):
		return parseSteam3(query)
	case strings.HasPrefix(query, "7656119"):
		id64, err := strconv.ParseUint(query, 10, 64)
		if err != nil {
			return 0, apperror.NewFail("steam.invalid_id", nil)
		}
		return steamid.FromSteamID64(id64), nil
	default:
		return 0, apperror.NewFail("steam.invalid_id", nil)
	}
}

// parseSteam2 parses "STEAM_X:Y:Z" where Y is the account id's low bit and
// Z is the upper 31 bits: accountID = Z*2 + Y.
func parseSteam2(query string) (steamid.SteamID, error) {
	parts := strings.Split(strings.TrimPrefix(query, "STEAM_"), ":")
	if len(parts) != 3 {
		return 0, apperror.NewFail("steam.invalid_id", nil)
	}
	y, err1 := strconv.ParseUint(parts[1], 10, 32)
	z, err2 := strconv.ParseUint(parts[2], 10, 32)
	if err1 != nil || err2 != nil || (y != 0 && y != 1) {
		return 0, apperror.NewFail("steam.invalid_id", nil)
	}
	accountID := uint32(z*2 + y)
	return steamid.SteamID(0).
		SetUniverse(steamUniversePublic).
		SetType(steamTypeIndividual).
		SetInstance(steamInstanceDesktop).
		SetAccountID(accountID), nil
}

// parseSteam3 parses "[U:1:Z]" or "U:1:Z", where Z is the account id directly.
func parseSteam3(query string) (steamid.SteamID, error) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(query, "["), "]")
	parts := strings.Split(trimmed, ":")
	if len(parts) != 3 || parts[0] != "U" {
		return 0, apperror.NewFail("steam.invalid_id", nil)
	}
	accountID, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return 0, apperror.NewFail("steam.invalid_id", nil)
	}
	return steamid.SteamID(0).
		SetUniverse(steamUniversePublic).
		SetType(steamTypeIndividual).
		SetInstance(steamInstanceDesktop).
		SetAccountID(uint32(accountID)), nil
}
