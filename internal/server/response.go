package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/eugener/playerlookup/internal/apperror"
	"github.com/eugener/playerlookup/internal/gateway"
)

// jsonCT is a pre-allocated header value slice. Direct map assignment
// (w.Header()["Content-Type"] = jsonCT) avoids the []string{v} alloc
// that Header.Set creates on every call.
var jsonCT = []string{"application/json; charset=utf-8"}

// successBody is the §6 success envelope.
type successBody struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Player *gateway.PlayerProfile `json:"player"`
	} `json:"data"`
}

// failureBody is the §6 failure envelope.
type failureBody struct {
	Success bool   `json:"success"`
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func successEnvelope(profile *gateway.PlayerProfile) successBody {
	body := successBody{Success: true, Code: "player.found", Message: "player found"}
	body.Data.Player = profile
	return body
}

func failureEnvelope(code, message string, data any) failureBody {
	return failureBody{Success: false, Error: true, Code: code, Message: message, Data: data}
}

// mapError converts a pipeline error into the status and body the client and
// edge cache both receive (§7). An *apperror.Error carries its own status via
// HTTPStatus (explicit override, else api.404, else kind default); anything
// else is an unmapped exception, folded into api.unknown_error with the
// original message discarded.
func mapError(err error) (int, failureBody) {
	if appErr, ok := err.(*apperror.Error); ok {
		return appErr.HTTPStatus(), failureEnvelope(appErr.Code, appErr.Message, appErr.Data)
	}
	return http.StatusInternalServerError, failureEnvelope("api.unknown_error", "an unexpected error occurred", nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		return
	}
	w.Header()["Content-Type"] = jsonCT
	w.WriteHeader(status)
	w.Write(data)
}
