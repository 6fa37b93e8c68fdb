package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/eugener/playerlookup/internal/apperror"
	"github.com/rs/dnscache"
)

// Fetcher performs the regular HTTPS call style (§4.D.1). It shares one
// dnscache-backed *http.Transport across calls, mirroring the teacher's
// provider-client transport setup.
type Fetcher struct {
	http *http.Client
}

// NewFetcher builds a Fetcher whose transport resolves hosts through
// resolver (nil disables DNS caching).
func NewFetcher(resolver *dnscache.Resolver) *Fetcher {
	t := &http.Transport{
		MaxIdleConnsPerHost: 100,
		MaxConnsPerHost:     200,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	if resolver != nil {
		t.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			var d net.Dialer
			return d.DialContext(ctx, network, net.JoinHostPort(ips[0], port))
		}
	}
	return &Fetcher{http: &http.Client{Transport: t}}
}

// Do issues req as a regular HTTPS GET, applying the per-call timeout,
// status triage, and content-type check common to all three call styles.
func (f *Fetcher) Do(ctx context.Context, req Request) (Result, error) {
	ctx, cancel := withTimeout(ctx, req)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return Result{}, apperror.NewError(req.FailCode, map[string]any{"message": fmt.Sprintf("build request: %v", err)})
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	resp, err := f.http.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{}, apperror.NewError(req.FailCode, map[string]any{"message": "upstream timed out"})
		}
		return Result{}, apperror.NewError(req.FailCode, map[string]any{"message": err.Error()})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Result{}, apperror.NewError(req.FailCode, map[string]any{"message": "read body: " + err.Error()})
	}

	if appErr, ok := classifyStatus(req, resp.StatusCode, body); !ok {
		return Result{}, appErr
	}

	if req.NonJSONCode != "" {
		if err := checkContentType(resp.Header, req.NonJSONCode); err != nil {
			return Result{}, err
		}
	}

	return Result{Status: resp.StatusCode, Body: decodeJSON(body), RequestType: "fetch"}, nil
}
