package types

import (
	"encoding/json"
	"errors"
	"net/http"

	appErr "github.com/iac-studio/blueprint/pkg/errors"
)

// FromAppError converts err into the wire error. Unclassified errors keep
// their text out of the response.
func FromAppError(err error) *APIError {
	if err == nil {
		return nil
	}
	var e *appErr.AppError
	if errors.As(err, &e) {
		return &APIError{Code: string(e.Code), Message: e.Message, Details: e.Meta}
	}
	return &APIError{Code: string(appErr.CodeInternal), Message: "internal error"}
}

// StatusOf maps an error code to its HTTP status.
func StatusOf(err error) int {
	switch appErr.CodeOf(err) {
	case appErr.CodeInvalid:
		return http.StatusBadRequest
	case appErr.CodeNotFound:
		return http.StatusNotFound
	case appErr.CodeForbidden:
		return http.StatusForbidden
	case appErr.CodeDependencyViolation, appErr.CodeConflict:
		return http.StatusConflict
	case appErr.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the error envelope with the status matching err.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, StatusOf(err), APIResponse{Success: false, Error: FromAppError(err)})
}
