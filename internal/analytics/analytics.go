// Package analytics implements the §4.J ordered-column telemetry sink: one
// write_point call per request, batched and handed off to a pluggable
// ColumnWriter. The external telemetry dataset itself is out of scope (§1);
// this package only owns getting a record to the edge of that boundary.
package analytics

import (
	"net/http"
	"strconv"
	"strings"
)

// Point is one ordered analytics record (§4.J). Column order is part of the
// external contract and must be preserved by every ColumnWriter.
type Point struct {
	Type        string
	Error       string
	RequestType string
	URL         string
	UserAgent   string
	Referer     string
	Protocol    string
	City        string
	Colo        string
	Country     string
	TLSVersion  string
	ASN         int64
	Cached      int
	ResponseTimeMs int64
	Status      int
}

// Columns returns p's fields in the exact order the external dataset
// expects (§4.J): type, error, request_type, url, user_agent, referer,
// protocol, city, colo, country, tls_version, asn, cached, response_time_ms,
// status.
func (p Point) Columns() []any {
	return []any{
		p.Type, p.Error, p.RequestType, p.URL, p.UserAgent, p.Referer,
		p.Protocol, p.City, p.Colo, p.Country, p.TLSVersion,
		p.ASN, p.Cached, p.ResponseTimeMs, p.Status,
	}
}

// anonymizeMarker is the substring rule applied to user agents that
// identify the player being looked up by name (§4.J): anything claiming to
// be "Tiers ... played by <name>" is truncated at "played by " so the
// player's name never reaches the dataset.
const anonymizeMarker = "played by "

// anonymizeUserAgent applies §4.J's truncation rule.
func anonymizeUserAgent(ua string) string {
	if !strings.HasPrefix(ua, "Tiers ") {
		return ua
	}
	if i := strings.Index(ua, anonymizeMarker); i >= 0 {
		return ua[:i]
	}
	return ua
}

// FromRequest builds the request-derived fields of a Point from r, pulling
// the edge metadata (city/colo/country/asn) from the Cloudflare request
// headers of the fronting edge (§1: the ambient edge sits in front of this
// gateway, out of scope, but its headers are our only source for these
// columns).
func FromRequest(r *http.Request) Point {
	p := Point{
		URL:       r.URL.Path,
		UserAgent: anonymizeUserAgent(r.UserAgent()),
		Referer:   r.Referer(),
		Protocol:  r.Proto,
		City:      r.Header.Get("CF-IPCity"),
		Colo:      colo(r),
		Country:   r.Header.Get("CF-IPCountry"),
	}
	if r.TLS != nil {
		p.TLSVersion = tlsVersionName(r.TLS.Version)
	}
	if asn, err := strconv.ParseInt(r.Header.Get("CF-ASN"), 10, 64); err == nil {
		p.ASN = asn
	}
	return p
}

func colo(r *http.Request) string {
	ray := r.Header.Get("CF-Ray")
	if i := strings.LastIndexByte(ray, '-'); i >= 0 && i+1 < len(ray) {
		return ray[i+1:]
	}
	return ""
}

func tlsVersionName(v uint16) string {
	switch v {
	case 0x0304:
		return "TLSv1.3"
	case 0x0303:
		return "TLSv1.2"
	case 0x0302:
		return "TLSv1.1"
	case 0x0301:
		return "TLSv1.0"
	default:
		return ""
	}
}
