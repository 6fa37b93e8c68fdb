// Package apperror implements the two-shape error taxonomy used across the
// gateway: user-visible "fail"s and infrastructure "error"s. Both carry a
// stable code, a human message, optional structured data, and an optional
// HTTP status override.
package apperror

import "fmt"

// Kind distinguishes expected, user-visible failures from unexpected,
// infrastructure-level errors.
type Kind int

const (
	// KindFail is an expected, user-visible condition. Default HTTP status 400.
	KindFail Kind = iota
	// KindError is an unexpected or infrastructure-level condition. Default HTTP status 500.
	KindError
)

// Error is the shared shape for both taxonomy kinds.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Data    map[string]any
	Status  int // 0 means "use the kind's default"
}

// messages holds the default human message for each known code. A missing
// entry falls back to the code itself.
var messages = map[string]string{
	"api.404":                        "not found",
	"api.unknown_error":              "an unexpected error occurred",
	"minecraft.invalid_username":     "invalid minecraft username or uuid",
	"minecraft.api_failure":          "minecraft upstream request failed",
	"minecraft.non_json":             "minecraft upstream returned a non-json response",
	"minecraft.rate_limited":         "minecraft upstream rate limited the request",
	"steam.invalid_id":               "invalid steam id",
	"steam.api_failure":              "steam upstream request failed",
	"steam.non_json":                 "steam upstream returned a non-json response",
	"steam.rate_limited":             "steam upstream rate limited the request",
	"xbox.not_found":                 "xbox player not found",
	"xbox.bad_response":              "xbox upstream returned an unrecognized business error",
	"xbox.bad_response_code":         "xbox upstream returned an unexpected status code",
	"xbox.api_failure":               "xbox upstream request failed",
	"xbox.non_json":                  "xbox upstream returned a non-json response",
	"xbox.rate_limited":              "xbox upstream rate limited the request",
	"hytale.not_found":                "hytale player not found",
	"hytale.invalid_identifier":       "invalid hytale username or uuid",
	"hytale.auth_failure":             "hytale upstream authentication failed",
	"hytale.no_refresh_token":         "no hytale refresh token is configured",
	"hytale.no_profiles":              "hytale account has no profiles",
	"hytale.session_creation_failed":  "failed to create a hytale game session",
	"hytale.rate_limited":             "hytale session pool is rate limited",
	"hytale.api_failure":              "hytale upstream request failed",
	"hytale.non_json":                 "hytale upstream returned a non-json response",
}

// defaultStatus returns the HTTP status implied by kind and code.
func defaultStatus(kind Kind, code string) int {
	switch code {
	case "api.404":
		return 404
	}
	switch {
	case code == "xbox.rate_limited" || code == "hytale.rate_limited" ||
		code == "steam.rate_limited" || code == "minecraft.rate_limited":
		return 429
	case kind == KindError:
		return 500
	default:
		return 400
	}
}

// New constructs an Error of the given kind and code. data may override the
// default message via a "message" key.
func New(kind Kind, code string, data map[string]any) *Error {
	msg := messages[code]
	if msg == "" {
		msg = code
	}
	if data != nil {
		if override, ok := data["message"].(string); ok && override != "" {
			msg = override
		}
	}
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: msg,
		Data:    data,
		Status:  defaultStatus(kind, code),
	}
}

// NewFail constructs a user-visible fail error.
func NewFail(code string, data map[string]any) *Error {
	return New(KindFail, code, data)
}

// NewError constructs an infrastructure error.
func NewError(code string, data map[string]any) *Error {
	return New(KindError, code, data)
}

// WithStatus overrides the HTTP status and returns the same Error for chaining.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus satisfies the httpStatusError interface consumed by the router's
// error mapper.
func (e *Error) HTTPStatus() int { return e.Status }

// IsAuthError reports whether this is a Hytale auth-failure error, which the
// pipeline and token manager treat specially (invalidate + retry once).
func (e *Error) IsAuthError() bool { return e.Code == "hytale.auth_failure" }

// Accounted reports whether this error should be counted as a real error for
// analytics purposes. User-visible not-found/invalid-identifier fails are not.
func (e *Error) Accounted() bool {
	switch e.Code {
	case "minecraft.invalid_username", "steam.invalid_id", "xbox.not_found",
		"hytale.not_found", "hytale.invalid_identifier":
		return false
	default:
		return true
	}
}
