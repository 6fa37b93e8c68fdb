// Package transport implements the three upstream call styles used by the
// platform pipelines: a regular HTTPS fetch, a raw TLS socket read, and an
// off-box container proxy. All three return parsed JSON or a typed
// *apperror.Error.
package transport

import (
	"context"
	"mime"
	"net/http"
	"time"

	"github.com/eugener/playerlookup/internal/apperror"
	"github.com/tidwall/gjson"
)

// DefaultTimeout is the hard per-call timeout for all transports except
// Hytale, which uses HytaleTimeout (§4.D, §5).
const DefaultTimeout = 5 * time.Second

// HytaleTimeout is the per-call timeout used for Hytale HTTP calls.
const HytaleTimeout = 10 * time.Second

// Request describes a single upstream GET call, shared by all three call
// styles.
type Request struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
	// FailCode is the error code raised for a generic non-200, non-handled
	// status (e.g. "minecraft.api_failure", "xbox.bad_response_code").
	FailCode string
	// NotFoundCode is raised on an upstream 404, where applicable; empty
	// means a 404 is treated like any other non-200 (FailCode).
	NotFoundCode string
	// AuthFailCode is raised on 401/403, where applicable (Hytale only);
	// empty means treat 401/403 like any other non-200.
	AuthFailCode string
	// RateLimitCode is the error code raised on a 429; empty means FailCode
	// is raised instead (still with status 429).
	RateLimitCode string
	// NonJSONCode is the error code raised when the response's
	// Content-Type does not declare JSON.
	NonJSONCode string
}

func (r Request) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return DefaultTimeout
}

// Result is the outcome of a successful upstream call.
type Result struct {
	Status      int
	Body        gjson.Result
	RequestType string // "fetch", "tcp", or "container"
}

// classifyStatus maps an HTTP status code to a typed error per §4.D. ok is
// true when the status is 200 and the caller should proceed to decode the
// body. body is the raw response body, already read by the caller
// regardless of status; the default branch carries it in Data so a caller
// that didn't get a NotFoundCode match (e.g. Minecraft's username lookup,
// which inspects the body itself before deciding invalid-username vs.
// api_failure) can still see what the upstream said.
func classifyStatus(req Request, status int, body []byte) (*apperror.Error, bool) {
	if status == http.StatusOK {
		return nil, true
	}
	switch {
	case status == http.StatusTooManyRequests:
		code := req.RateLimitCode
		if code == "" {
			code = req.FailCode
		}
		return apperror.NewError(code, map[string]any{"status": status}).WithStatus(429), false
	case (status == http.StatusUnauthorized || status == http.StatusForbidden) && req.AuthFailCode != "":
		return apperror.NewError(req.AuthFailCode, nil), false
	case status == http.StatusNotFound && req.NotFoundCode != "":
		return apperror.NewFail(req.NotFoundCode, nil), false
	default:
		return apperror.NewError(req.FailCode, map[string]any{"status": status, "body": string(body)}), false
	}
}

// checkContentType verifies the response declares a JSON media type,
// raising NonJSONCode otherwise.
func checkContentType(header http.Header, nonJSONCode string) error {
	ct := header.Get("Content-Type")
	if ct == "" {
		return apperror.NewError(nonJSONCode, nil)
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil || !looksLikeJSON(mt) {
		return apperror.NewError(nonJSONCode, map[string]any{"content_type": ct})
	}
	return nil
}

func looksLikeJSON(mt string) bool {
	return mt == "application/json" || mt == "text/json" ||
		(len(mt) > len("+json") && mt[len(mt)-len("+json"):] == "+json")
}

// decodeJSON parses body as JSON, treating a parse failure as an empty
// object per §4.D ("JSON parse failure is treated as empty body").
func decodeJSON(body []byte) gjson.Result {
	if !gjson.ValidBytes(body) {
		return gjson.Parse("{}")
	}
	return gjson.ParseBytes(body)
}

// withTimeout derives a context bounded by the request's per-call timeout,
// used consistently across all three transports so every upstream call
// carries its own independent deadline (§5).
func withTimeout(ctx context.Context, req Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, req.timeout())
}
