package canon

import "regexp"

var xuidRe = regexp.MustCompile(`^\d{1,16}$`)

// XboxKind distinguishes an XUID query from a gamertag query.
type XboxKind int

const (
	XboxGamertag XboxKind = iota
	XboxXUID
)

// Xbox classifies a query as an XUID (1-16 digits) or a gamertag.
func Xbox(query string) XboxKind {
	if xuidRe.MatchString(query) {
		return XboxXUID
	}
	return XboxGamertag
}
