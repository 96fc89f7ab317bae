package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"projectcamp/logging"
	"projectcamp/models"

	jsoniter "github.com/json-iterator/go"
)

const maxBodyBytes = 16 << 10

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// empty renders as {} in response data.
var empty = struct{}{}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("encoding response", "error", err)
		http.Error(w, `{"statusCode":500,"message":"Internal server error","errors":[],"success":false}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func respond(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, models.NewApiResponse(status, data, message))
}

// writeError renders an *APIError as-is. Anything else is logged and
// reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr, ok := models.AsAPIError(err)
	if !ok {
		logging.WithRequest(r.Method, r.URL.Path).Error("request failed", "error", err)
		apiErr = &models.APIError{StatusCode: http.StatusInternalServerError, Message: "Internal server error"}
	}
	writeJSON(w, apiErr.StatusCode, models.NewApiErrorResponse(apiErr))
}

// decodeJSON reads a JSON body of at most 16 KiB into dst. An empty body
// leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.InvalidArgument("Request body is too large")
		}
		return models.InvalidArgument("Could not read request body")
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return models.InvalidArgument("Malformed JSON body")
	}
	return nil
}
