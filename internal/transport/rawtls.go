package transport

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/eugener/playerlookup/internal/apperror"
	"github.com/eugener/playerlookup/internal/wire"
)

// RawTLS performs the raw-TLS/socket call style (§4.D.2): it opens a TLS
// socket directly to the host on 443, writes a minimal GET request, reads
// every byte off the socket before decoding anything, and parses the
// result with the hand-written HTTP/1.1 codec. The read and the decode
// both happen only after the full response is buffered, so multi-byte
// UTF-8 characters split across TCP frames reassemble losslessly.
type RawTLS struct{}

// NewRawTLS returns a RawTLS call style. It holds no state: every call
// opens and owns its own socket exclusively, guaranteeing the socket is
// closed on every exit path (success, timeout, or error).
func NewRawTLS() *RawTLS { return &RawTLS{} }

// rawResult carries either the raw, still-unparsed response bytes or a read
// error off the read goroutine, back to the racing select in Do.
type rawResult struct {
	raw []byte
	err error
}

// Do opens a TLS connection to req.URL's host, issues the GET, and races
// the full socket read against req's timeout, closing the socket on
// whichever side loses.
func (RawTLS) Do(ctx context.Context, req Request) (Result, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return Result{}, apperror.NewError(req.FailCode, map[string]any{"message": "parse url: " + err.Error()})
	}
	host := u.Hostname()
	addr := net.JoinHostPort(host, "443")

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return Result{}, apperror.NewError(req.FailCode, map[string]any{"message": "tls dial: " + err.Error()})
	}
	defer conn.Close()

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	var b strings.Builder
	b.WriteString("GET " + path + " HTTP/1.1\r\n")
	b.WriteString("Host: " + host + "\r\n")
	b.WriteString("Accept: application/json\r\n")
	for k, v := range req.Headers {
		b.WriteString(k + ": " + v + "\r\n")
	}
	b.WriteString("Connection: close\r\n\r\n")

	if _, err := conn.Write([]byte(b.String())); err != nil {
		return Result{}, apperror.NewError(req.FailCode, map[string]any{"message": "write request: " + err.Error()})
	}

	timer := time.NewTimer(req.timeout())
	defer timer.Stop()

	done := make(chan rawResult, 1)
	go func() {
		// Read all bytes off the socket before any decoding is attempted,
		// so multi-byte UTF-8 sequences split across TCP frames reassemble
		// before decoding is ever attempted.
		raw, err := io.ReadAll(conn)
		done <- rawResult{raw: raw, err: err}
	}()

	var raw []byte
	select {
	case <-ctx.Done():
		conn.Close()
		return Result{}, apperror.NewError(req.FailCode, map[string]any{"message": "request cancelled"})
	case <-timer.C:
		conn.Close()
		return Result{}, apperror.NewError(req.FailCode, map[string]any{"message": "tcp read timed out"})
	case r := <-done:
		if r.err != nil && len(r.raw) == 0 {
			return Result{}, apperror.NewError(req.FailCode, map[string]any{"message": "read response: " + r.err.Error()})
		}
		raw = r.raw
	}

	parsed, err := wire.ParseResponse(raw)
	if err != nil {
		return Result{}, apperror.NewError(req.FailCode, map[string]any{"message": "parse response: " + err.Error()})
	}

	if appErr, ok := classifyStatus(req, parsed.Status, parsed.Body); !ok {
		return Result{}, appErr
	}

	if req.NonJSONCode != "" {
		ct := parsed.Headers["content-type"]
		if ct == "" || !looksLikeContentType(ct) {
			return Result{}, apperror.NewError(req.NonJSONCode, map[string]any{"content_type": ct})
		}
	}

	return Result{Status: parsed.Status, Body: decodeJSON(parsed.Body), RequestType: "tcp"}, nil
}

func looksLikeContentType(ct string) bool {
	return strings.Contains(ct, "json")
}
