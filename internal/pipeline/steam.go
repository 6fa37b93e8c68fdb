package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/eugener/playerlookup/internal/apperror"
	"github.com/eugener/playerlookup/internal/canon"
	"github.com/eugener/playerlookup/internal/gateway"
	"github.com/eugener/playerlookup/internal/transport"
	"github.com/k64z/steamstacks/steamid"
	"github.com/tidwall/gjson"
)

const (
	steamResolveVanityURL = "https://api.steampowered.com/ISteamUser/ResolveVanityURL/v1/?key=%s&vanityurl=%s"
	steamPlayerSummaryURL = "https://api.steampowered.com/ISteamUser/GetPlayerSummaries/v2/?key=%s&steamids=%s"
)

// LookupSteam resolves a Steam identifier (vanity handle or any SteamID
// form) to a PlayerProfile (§4.F, Steam).
func (d *Deps) LookupSteam(ctx context.Context, query string) (*gateway.PlayerProfile, error) {
	cacheKey := "steam-profile-" + strings.ToLower(query)
	if entry, ok := d.cachedProfile(ctx, cacheKey); ok {
		return entry, nil
	}

	apiKey := d.pickSteamKey()

	candidate := query
	if !canon.LooksLikeSteamID(query) {
		if resolved, ok := d.resolveSteamVanity(ctx, apiKey, query); ok {
			candidate = resolved
		}
	}

	id, err := canon.ParseSteamID(candidate)
	if err != nil {
		return nil, err
	}
	steam64 := strconv.FormatUint(id.ToSteamID64(), 10)

	summaryURL := fmt.Sprintf(steamPlayerSummaryURL, apiKey, steam64)
	if d.SteamBaseURL != "" {
		summaryURL = rewriteHost(summaryURL, d.SteamBaseURL)
	}
	result, err := d.Fetch.Do(ctx, transport.Request{
		URL:           summaryURL,
		FailCode:      "steam.api_failure",
		RateLimitCode: "steam.rate_limited",
		NonJSONCode:   "steam.non_json",
	})
	if err != nil {
		return nil, err
	}

	players := result.Body.Get("response.players").Array()
	if len(players) == 0 {
		return nil, apperror.NewFail("steam.invalid_id", nil)
	}

	profile := normalizeSteamProfile(players[0], id, steam64)
	d.writeSteamEntry(ctx, query, profile)
	return profile, nil
}

// resolveSteamVanity attempts vanity-handle resolution, swallowing failures
// per §4.F (a failed resolution just falls through to SteamID parsing of
// the raw query, which will itself fail as invalid).
func (d *Deps) resolveSteamVanity(ctx context.Context, apiKey, handle string) (string, bool) {
	vanityURL := fmt.Sprintf(steamResolveVanityURL, apiKey, url.QueryEscape(handle))
	if d.SteamBaseURL != "" {
		vanityURL = rewriteHost(vanityURL, d.SteamBaseURL)
	}
	result, err := d.Fetch.Do(ctx, transport.Request{
		URL:         vanityURL,
		FailCode:    "steam.api_failure",
		NonJSONCode: "steam.non_json",
	})
	if err != nil {
		return "", false
	}
	if result.Body.Get("response.success").Int() != 1 {
		return "", false
	}
	steamID := result.Body.Get("response.steamid").String()
	if steamID == "" {
		return "", false
	}
	return steamID, true
}

func (d *Deps) pickSteamKey() string {
	if len(d.SteamAPIKeys) == 0 {
		return ""
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(d.SteamAPIKeys))))
	if err != nil {
		return d.SteamAPIKeys[0]
	}
	return d.SteamAPIKeys[n.Int64()]
}

// normalizeSteamProfile builds the uniform PlayerProfile from a
// GetPlayerSummaries entry, merging in the computed SteamID forms (§4.F,
// Steam step 4).
func normalizeSteamProfile(player gjson.Result, id steamid.SteamID, steam64 string) *gateway.PlayerProfile {
	meta := map[string]any{}
	player.ForEach(func(key, value gjson.Result) bool {
		meta[key.String()] = value.Value()
		return true
	})
	meta["steam2id"] = formatSteam2(id, false)
	meta["steam2id_new"] = formatSteam2(id, true)
	meta["steam3id"] = formatSteam3(id)
	meta["steam64id"] = steam64

	return &gateway.PlayerProfile{
		ID:       steam64,
		Username: player.Get("personaname").String(),
		Avatar:   player.Get("avatarfull").String(),
		Meta:     meta,
		CachedAt: time.Now().Unix(),
	}
}

// formatSteam2 renders the "STEAM_X:Y:Z" textual form; newUniverse selects
// the "STEAM_1" variant some newer tooling expects in place of "STEAM_0".
func formatSteam2(id steamid.SteamID, newUniverse bool) string {
	accountID := id.AccountID()
	universe := 0
	if newUniverse {
		universe = 1
	}
	return fmt.Sprintf("STEAM_%d:%d:%d", universe, accountID&1, accountID>>1)
}

// formatSteam3 renders the "[U:1:Z]" textual form.
func formatSteam3(id steamid.SteamID) string {
	return fmt.Sprintf("[U:1:%d]", id.AccountID())
}

func (d *Deps) writeSteamEntry(ctx context.Context, query string, profile *gateway.PlayerProfile) {
	store, _ := gateway.PlatformSteam.TTL()
	payload, err := json.Marshal(gateway.CacheEntry{Profile: profile})
	if err != nil {
		return
	}
	d.writeBack(ctx, "steam-profile-"+strings.ToLower(query), payload, store)
	d.writeBack(ctx, "steam-profile-"+profile.ID, payload, store)
}
