package analytics

import (
	"context"
	"net/http"
	"time"

	"github.com/eugener/playerlookup/internal/apperror"
)

// Outcome describes what a lookup produced, for the write_point call that
// closes out a request (§4.J).
type Outcome struct {
	RequestType string // e.g. "lookup"
	Cached      bool
	Status      int
	Err         error // nil on success
}

// WritePoint implements §4.J's write_point(ctx, {type, error?, request_type?,
// cached?, status}): it builds the ordered record from the inbound request
// and the outcome, and enqueues it on the sink. start is the time the
// request began, used to compute response_time_ms.
//
// An *apperror.Error that is a user-visible fail (Accounted() == false) is
// recorded with an empty error column, per §7: invalid_username/invalid_id/
// not_found/invalid_identifier are not errors for analytics accounting.
func (s *Sink) WritePoint(ctx context.Context, r *http.Request, o Outcome, start time.Time) {
	if s == nil {
		return
	}

	p := FromRequest(r)
	p.Type = "player_lookup"
	p.RequestType = o.RequestType
	p.Status = o.Status
	p.ResponseTimeMs = time.Since(start).Milliseconds()
	if o.Cached {
		p.Cached = 1
	}

	if o.Err != nil {
		if appErr, ok := o.Err.(*apperror.Error); ok {
			if appErr.Accounted() {
				p.Error = appErr.Code
			}
		} else {
			p.Error = "api.unknown_error"
		}
	}

	s.Write(p)
}
