package common

import (
	"encoding/json"
	"net/http"

	apperrors "converse-backend/pkg/errors"
)

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// ErrorResponse is the error body shape shared by every endpoint.
type ErrorResponse struct {
	Message          string                 `json:"message"`
	ValidationErrors map[string]interface{} `json:"validationErrors,omitempty"`
}

// RespondError translates an error into the fixed status code for its kind.
// Unrecognized errors become opaque 500s so internals never leak.
func RespondError(w http.ResponseWriter, err error) {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		RespondJSON(w, appErr.HTTPStatus, ErrorResponse{
			Message:          appErr.Message,
			ValidationErrors: toValidationErrors(appErr),
		})
		return
	}
	RespondJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "An unexpected error occurred"})
}

// RespondValidationError sends the fixed 400 shape for schema failures.
func RespondValidationError(w http.ResponseWriter, validationErrors map[string]interface{}) {
	RespondJSON(w, http.StatusBadRequest, ErrorResponse{
		Message:          "Error validating request",
		ValidationErrors: validationErrors,
	})
}

func toValidationErrors(appErr *apperrors.AppError) map[string]interface{} {
	if appErr.Type != apperrors.ErrorTypeValidation {
		return nil
	}
	return appErr.Details
}

// ParseJSONBody parses JSON request body with size limit
func ParseJSONBody(r *http.Request, v interface{}, maxBytes int64) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	return decoder.Decode(v)
}
