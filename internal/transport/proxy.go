package transport

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"io"
	"math/big"
	"net/http"

	"github.com/eugener/playerlookup/internal/apperror"
)

// proxyEnvelope is the off-box proxy protocol body (§6): the proxy issues
// the GET from its own IP and pipes the upstream JSON response back
// verbatim.
type proxyEnvelope struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// ContainerProxy performs the off-box proxy call style (§4.D.3), used only
// by the Hytale pipeline to evade IP-level rate limits. It chooses
// uniformly at random among up to three configured proxy instances.
type ContainerProxy struct {
	http      *http.Client
	endpoints []string
}

// NewContainerProxy builds a ContainerProxy over up to three proxy base
// URLs (e.g. "http://proxy-1.internal").
func NewContainerProxy(http *http.Client, endpoints []string) *ContainerProxy {
	return &ContainerProxy{http: http, endpoints: endpoints}
}

// Do POSTs {url, headers} to a randomly chosen proxy instance and decodes
// its response as the upstream's own JSON body.
func (p *ContainerProxy) Do(ctx context.Context, req Request) (Result, error) {
	if len(p.endpoints) == 0 {
		return Result{}, apperror.NewError(req.FailCode, map[string]any{"message": "no proxy endpoints configured"})
	}
	endpoint := p.endpoints[p.pickIndex()]

	payload, err := json.Marshal(proxyEnvelope{URL: req.URL, Headers: req.Headers})
	if err != nil {
		return Result{}, apperror.NewError(req.FailCode, map[string]any{"message": "marshal proxy envelope: " + err.Error()})
	}

	ctx, cancel := withTimeout(ctx, req)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, apperror.NewError(req.FailCode, map[string]any{"message": "build proxy request: " + err.Error()})
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return Result{}, apperror.NewError(req.FailCode, map[string]any{"message": "proxy request failed: " + err.Error()})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Result{}, apperror.NewError(req.FailCode, map[string]any{"message": "read proxy body: " + err.Error()})
	}

	if appErr, ok := classifyStatus(req, resp.StatusCode, body); !ok {
		return Result{}, appErr
	}

	if req.NonJSONCode != "" {
		if err := checkContentType(resp.Header, req.NonJSONCode); err != nil {
			return Result{}, err
		}
	}

	return Result{Status: resp.StatusCode, Body: decodeJSON(body), RequestType: "container"}, nil
}

// pickIndex chooses a proxy endpoint index uniformly at random.
func (p *ContainerProxy) pickIndex() int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(p.endpoints))))
	if err != nil {
		return 0
	}
	return int(n.Int64())
}
