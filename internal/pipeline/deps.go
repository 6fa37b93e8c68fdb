// Package pipeline implements the per-platform ordered lookup sequences
// (§4.F): cache read, upstream call(s) across the transport fallback chain,
// normalization, and cache write-back under the platform's cache keys.
package pipeline

import (
	"context"
	"time"

	"github.com/eugener/playerlookup/internal/cache"
	"github.com/eugener/playerlookup/internal/hytale"
	"github.com/eugener/playerlookup/internal/transport"
)

// Deps bundles the collaborators every platform pipeline needs. A single
// instance is built at startup and shared across all inbound requests.
type Deps struct {
	Cache  *cache.Facade
	Fetch  *transport.Fetcher
	RawTLS *transport.RawTLS
	Proxy  *transport.ContainerProxy
	Hytale *hytale.Manager

	XboxAPIKey         string
	SteamAPIKeys       []string // up to 4, one chosen uniformly at random per lookup
	NodecraftAPIKey    string
	MinecraftProxyHost string // off-box proxy host substituted on 429/403 from Fetch

	// Base-URL overrides for the upstream hosts, mirroring the teacher's
	// provider client pattern (New(apiKey, baseURL, resolver)): empty uses
	// the real upstream, a non-empty value substitutes host and scheme
	// (e.g. pointing a platform at a test server).
	MinecraftBaseURL string // rewrites both sessionserver.mojang.com and api.minecraftservices.com
	XboxBaseURL      string // rewrites profile.xboxlive.com
	SteamBaseURL     string // rewrites api.steampowered.com
	HytaleBaseURL    string // rewrites account-data.hytale.com for the profile lookup call
}

// detachTimeout bounds background cache-write work issued after a pipeline
// returns its result to the caller (§5, §9).
const detachTimeout = 10 * time.Second

// writeBack issues a cache write detached from the inbound request's
// cancellation so a client disconnect never aborts a population we already
// paid the upstream round trip for (§5, §9).
func (d *Deps) writeBack(reqCtx context.Context, key string, entry []byte, ttl time.Duration) {
	ctx, cancel := cache.Detach(reqCtx, detachTimeout)
	go func() {
		defer cancel()
		d.Cache.Put(ctx, key, entry, ttl)
	}()
}
