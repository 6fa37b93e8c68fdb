package pipeline

import (
	"context"

	"github.com/eugener/playerlookup/internal/apperror"
	"github.com/eugener/playerlookup/internal/gateway"
)

// Lookup dispatches to the pipeline for platform, giving the router a single
// entry point regardless of which upstream is involved (§4.F, §4.H).
func (d *Deps) Lookup(ctx context.Context, platform gateway.Platform, query string) (*gateway.PlayerProfile, error) {
	switch platform {
	case gateway.PlatformMinecraft:
		return d.LookupMinecraft(ctx, query)
	case gateway.PlatformSteam:
		return d.LookupSteam(ctx, query)
	case gateway.PlatformXbox:
		return d.LookupXbox(ctx, query)
	case gateway.PlatformHytale:
		return d.LookupHytale(ctx, query)
	default:
		return nil, apperror.NewFail("api.404", nil)
	}
}
