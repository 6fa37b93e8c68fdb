package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/eugener/playerlookup/internal/apperror"
	"github.com/eugener/playerlookup/internal/canon"
	"github.com/eugener/playerlookup/internal/gateway"
	"github.com/eugener/playerlookup/internal/transport"
	"github.com/tidwall/gjson"
)

const (
	xboxAccountURL       = "https://profile.xboxlive.com/users/account/%s"
	xboxFriendsSearchURL = "https://profile.xboxlive.com/users/friends/search?gt=%s"
)

// LookupXbox resolves an XUID or gamertag to a PlayerProfile (§4.F, Xbox).
func (d *Deps) LookupXbox(ctx context.Context, query string) (*gateway.PlayerProfile, error) {
	cacheKey := "xbox-profile-" + strings.ToLower(query)

	if raw, ok := d.Cache.Get(ctx, cacheKey); ok {
		var neg gateway.NegativeEntry
		if json.Unmarshal(raw, &neg) == nil && neg.NotFound {
			return nil, apperror.NewFail("xbox.not_found", nil)
		}
		var entry gateway.CacheEntry
		if json.Unmarshal(raw, &entry) == nil && entry.Profile != nil {
			return entry.Profile, nil
		}
	}

	target := xboxAccountURL
	if canon.Xbox(query) == canon.XboxGamertag {
		target = xboxFriendsSearchURL
	}
	reqURL := fmt.Sprintf(target, url.PathEscape(query))
	if d.XboxBaseURL != "" {
		reqURL = rewriteHost(reqURL, d.XboxBaseURL)
	}

	result, err := d.Fetch.Do(ctx, transport.Request{
		URL:           reqURL,
		Headers:       map[string]string{"X-Authorization": d.XboxAPIKey},
		FailCode:      "xbox.bad_response_code",
		RateLimitCode: "xbox.rate_limited",
		NonJSONCode:   "xbox.non_json",
	})
	if err != nil {
		return nil, err
	}

	if code := result.Body.Get("code"); code.Exists() {
		c := int(code.Int())
		if c == 2 || c == 28 {
			d.writeXboxNegative(ctx, query)
			return nil, apperror.NewFail("xbox.not_found", nil)
		}
		return nil, apperror.NewFail("xbox.bad_response", map[string]any{"error_code": c})
	}

	profile := normalizeXboxProfile(result.Body)
	d.writeXboxEntry(ctx, query, profile)
	return profile, nil
}

// normalizeXboxProfile walks profileUsers[0].settings into the uniform
// shape (§4.F, Xbox step 3).
func normalizeXboxProfile(body gjson.Result) *gateway.PlayerProfile {
	meta := map[string]any{}
	settings := body.Get("profileUsers.0.settings")

	var gamertag, uniqueModern, modern, modernSuffix, avatarRaw string
	settings.ForEach(func(_, setting gjson.Result) bool {
		id := setting.Get("id").String()
		value := setting.Get("value").String()
		switch id {
		case "Gamertag":
			gamertag = value
		case "GameDisplayPicRaw":
			avatarRaw = value
		case "UniqueModernGamertag":
			uniqueModern = value
		case "ModernGamertag":
			modern = value
		case "ModernGamertagSuffix":
			modernSuffix = value
		default:
			meta[camelCase(id)] = value
		}
		return true
	})

	username := gamertag
	if username == "" {
		username = uniqueModern
	}
	if username == "" {
		username = modern
	}
	if username == "" {
		if realName, ok := meta["realName"].(string); ok {
			username = realName
		}
	}

	avatar := normalizeXboxAvatar(avatarRaw, username)

	return &gateway.PlayerProfile{
		ID:       body.Get("profileUsers.0.id").String(),
		Username: username,
		Avatar:   avatar,
		Meta:     meta,
		CachedAt: time.Now().Unix(),
	}
}

// normalizeXboxAvatar strips the mode=Padding query parameter and forces
// the h/w parameters to 180, falling back to the static avatar URL when
// the upstream provided none (§4.F, Xbox step 3).
func normalizeXboxAvatar(raw, username string) string {
	if raw == "" {
		return fmt.Sprintf("https://avatar-ssl.xboxlive.com/avatar/%s/avatarpic-l.png", url.PathEscape(username))
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Del("mode")
	q.Set("h", "180")
	q.Set("w", "180")
	u.RawQuery = q.Encode()
	return u.String()
}

func camelCase(id string) string {
	if id == "" {
		return id
	}
	return strings.ToLower(id[:1]) + id[1:]
}

func (d *Deps) writeXboxEntry(ctx context.Context, query string, profile *gateway.PlayerProfile) {
	store, _ := gateway.PlatformXbox.TTL()
	payload, err := json.Marshal(gateway.CacheEntry{Profile: profile})
	if err != nil {
		return
	}
	d.writeBack(ctx, "xbox-profile-"+strings.ToLower(query), payload, store)
	if profile.ID != "" && !strings.EqualFold(profile.ID, query) {
		d.writeBack(ctx, "xbox-profile-"+strings.ToLower(profile.ID), payload, store)
	}
}

func (d *Deps) writeXboxNegative(ctx context.Context, query string) {
	payload, err := json.Marshal(gateway.NegativeEntry{NotFound: true})
	if err != nil {
		return
	}
	d.writeBack(ctx, "xbox-profile-"+strings.ToLower(query), payload, gateway.NegativeTTL)
}
