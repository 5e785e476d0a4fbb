package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/iac-studio/blueprint/internal/api/middleware"
	"github.com/iac-studio/blueprint/internal/api/types"
	appErr "github.com/iac-studio/blueprint/pkg/errors"
	"github.com/iac-studio/blueprint/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Validator checks decoded request bodies.
type Validator interface {
	Struct(any) error
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	types.WriteJSON(w, status, v)
}

func writeData(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSON(w, status, types.APIResponse{Success: true, Data: data, Meta: &types.Meta{RequestID: middleware.GetRequestID(r.Context())}})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := types.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logger.L().Error("request failed",
			zap.String("id", middleware.GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, types.APIResponse{
		Success: false,
		Error:   types.FromAppError(err),
		Meta:    &types.Meta{RequestID: middleware.GetRequestID(r.Context())},
	})
}

// decode reads a JSON body into dst and validates it.
func decode(w http.ResponseWriter, r *http.Request, v Validator, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return appErr.New(appErr.CodeInvalid, "request body too large")
		case errors.Is(err, io.EOF):
			return appErr.New(appErr.CodeInvalid, "request body is required")
		}
		return appErr.Wrap(err, appErr.CodeInvalid, "invalid json")
	}
	if v == nil {
		return nil
	}
	return v.Struct(dst)
}
