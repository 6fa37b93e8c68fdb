package pipeline

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/eugener/playerlookup/internal/apperror"
	"github.com/eugener/playerlookup/internal/canon"
	"github.com/eugener/playerlookup/internal/gateway"
	"github.com/eugener/playerlookup/internal/transport"
)

const (
	minecraftProfileURL = "https://sessionserver.mojang.com/session/minecraft/profile/%s?unsigned=false"
	minecraftByNameURL  = "https://api.minecraftservices.com/minecraft/profile/lookup/name/%s?date=%d"
)

// LookupMinecraft resolves a Minecraft username or UUID to a PlayerProfile
// (§4.F, Minecraft).
func (d *Deps) LookupMinecraft(ctx context.Context, query string) (*gateway.PlayerProfile, error) {
	kind, raw, err := canon.Minecraft(query)
	if err != nil {
		return nil, err
	}

	var cacheKey string
	switch kind {
	case canon.MinecraftUUID:
		cacheKey = "minecraft-profile-" + raw
	default:
		cacheKey = "minecraft-username-" + strings.ToLower(raw)
	}

	if entry, ok := d.cachedProfile(ctx, cacheKey); ok {
		return entry, nil
	}

	uuid := raw
	if kind == canon.MinecraftUsername {
		uuid, err = d.resolveMinecraftUUID(ctx, raw)
		if err != nil {
			return nil, err
		}
	}

	target := fmt.Sprintf(minecraftProfileURL, uuid)
	if d.MinecraftBaseURL != "" {
		target = rewriteHost(target, d.MinecraftBaseURL)
	}
	result, err := d.minecraftCall(ctx, target)
	if err != nil {
		return nil, err
	}

	profile := normalizeMinecraftProfile(result)
	d.writeMinecraftEntry(ctx, profile)
	return profile, nil
}

// minecraftNotFoundMarker is the substring Mojang's name-lookup 404 body
// carries when the name genuinely doesn't resolve to any profile. A 404
// with a different (or empty) body is a real upstream failure, not an
// invalid username, and must surface as minecraft.api_failure.
const minecraftNotFoundMarker = "Couldn't find any profile with name"

// resolveMinecraftUUID performs the name-to-UUID step, translating the
// upstream's "no such profile" shapes into minecraft.invalid_username.
func (d *Deps) resolveMinecraftUUID(ctx context.Context, name string) (string, error) {
	nowMs := time.Now().UnixMilli()
	u := fmt.Sprintf(minecraftByNameURL, url.PathEscape(name), nowMs)
	if d.MinecraftBaseURL != "" {
		u = rewriteHost(u, d.MinecraftBaseURL)
	}
	result, err := d.minecraftCall(ctx, u)
	if err != nil {
		if appErr, ok := err.(*apperror.Error); ok && appErr.Code == "minecraft.api_failure" {
			status, _ := appErr.Data["status"].(int)
			if status == 204 {
				return "", apperror.NewFail("minecraft.invalid_username", nil)
			}
			if status == 404 {
				body, _ := appErr.Data["body"].(string)
				if strings.Contains(body, minecraftNotFoundMarker) {
					return "", apperror.NewFail("minecraft.invalid_username", nil)
				}
			}
		}
		return "", err
	}
	if !result.Body.Exists() || result.Body.Get("id").String() == "" {
		return "", apperror.NewFail("minecraft.invalid_username", nil)
	}
	return strings.ToLower(result.Body.Get("id").String()), nil
}

// minecraftCall runs the three-stage transport fallback chain shared by both
// the name lookup and the profile step (§4.F, §4.D).
func (d *Deps) minecraftCall(ctx context.Context, target string) (transportResult, error) {
	req := transport.Request{
		URL:           target,
		FailCode:      "minecraft.api_failure",
		RateLimitCode: "minecraft.rate_limited",
		NonJSONCode:   "minecraft.non_json",
	}

	res, err := d.RawTLS.Do(ctx, req)
	if err == nil {
		return transportResult{res}, nil
	}

	res, err = d.Fetch.Do(ctx, req)
	if err == nil {
		return transportResult{res}, nil
	}

	if appErr, ok := err.(*apperror.Error); ok && isRetryableMinecraft(appErr) && d.MinecraftProxyHost != "" {
		proxied := req
		proxied.URL = rewriteHost(target, d.MinecraftProxyHost)
		res, err2 := d.Fetch.Do(ctx, proxied)
		if err2 == nil {
			return transportResult{res}, nil
		}
		if appErr2, ok := err2.(*apperror.Error); ok && appErr2.Code == "minecraft.rate_limited" && d.NodecraftAPIKey != "" {
			vendorReq := req
			vendorReq.Headers = map[string]string{"Authorization": "Bearer " + d.NodecraftAPIKey}
			res, err3 := d.Fetch.Do(ctx, vendorReq)
			if err3 != nil {
				return transportResult{}, err3
			}
			return transportResult{res}, nil
		}
		return transportResult{}, err2
	}

	return transportResult{}, err
}

func isRetryableMinecraft(err *apperror.Error) bool {
	// A 403 is classified as a generic api_failure whose upstream status is
	// carried in Data, not in Status.
	upstream, _ := err.Data["status"].(int)
	return err.Status == 429 || upstream == 403
}

func rewriteHost(target, newHost string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	proxy, err := url.Parse(newHost)
	if err != nil {
		return target
	}
	u.Scheme = proxy.Scheme
	u.Host = proxy.Host
	return u.String()
}

// transportResult wraps a transport.Result so platform files can add
// convenience accessors without importing gjson directly everywhere.
type transportResult struct {
	transport.Result
}

// normalizeMinecraftProfile builds the uniform PlayerProfile from a Mojang
// session-server response (§4.F, Minecraft step 3).
func normalizeMinecraftProfile(result transportResult) *gateway.PlayerProfile {
	body := result.Body
	rawID := strings.ToLower(body.Get("id").String())
	skinTexture := ""
	var propsOut []map[string]any

	for _, p := range body.Get("properties").Array() {
		name := p.Get("name").String()
		propsOut = append(propsOut, map[string]any{
			"name":  name,
			"value": p.Get("value").String(),
		})
		if name != "textures" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(p.Get("value").String())
		if err != nil {
			continue
		}
		var parsed struct {
			Textures struct {
				Skin struct {
					URL string `json:"url"`
				} `json:"SKIN"`
			} `json:"textures"`
		}
		if err := json.Unmarshal(decoded, &parsed); err == nil && skinTexture == "" {
			skinTexture = parsed.Textures.Skin.URL
		}
	}

	return &gateway.PlayerProfile{
		ID:          canon.FormatUUID(rawID),
		RawID:       rawID,
		Username:    body.Get("name").String(),
		Avatar:      "https://crafthead.net/avatar/" + rawID,
		SkinTexture: skinTexture,
		Properties:  propsOut,
		NameHistory: []string{},
		Meta:        map[string]any{},
		CachedAt:    time.Now().Unix(),
	}
}

// writeMinecraftEntry writes both the username and profile cache keys
// (§4.F, Minecraft step 3).
func (d *Deps) writeMinecraftEntry(ctx context.Context, profile *gateway.PlayerProfile) {
	store, _ := gateway.PlatformMinecraft.TTL()
	payload, err := json.Marshal(gateway.CacheEntry{Profile: profile})
	if err != nil {
		return
	}
	d.writeBack(ctx, "minecraft-profile-"+profile.RawID, payload, store)
	if profile.Username != "" {
		d.writeBack(ctx, "minecraft-username-"+strings.ToLower(profile.Username), payload, store)
	}
}

// cachedProfile looks up key in the cache facade and decodes it as a
// CacheEntry, returning ok=false on any miss or decode failure.
func (d *Deps) cachedProfile(ctx context.Context, key string) (*gateway.PlayerProfile, bool) {
	raw, ok := d.Cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var entry gateway.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Profile == nil {
		return nil, false
	}
	return entry.Profile, true
}
