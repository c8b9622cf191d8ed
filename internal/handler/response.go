package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"clinic-api/internal/model"
	"clinic-api/pkg/apierror"
)

const maxJSONBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError renders err as the error envelope. Classified errors keep their
// status and message; anything else is logged and surfaces as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := model.ErrorBody{
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Code:    apierror.CodeInternal,
	}

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		body.Status = apiErr.Status()
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Fields = apiErr.Fields
		if apiErr.Kind == apierror.KindInternal {
			body.Message = "internal server error"
			logInternal(r, apiErr)
		}
	case errors.Is(err, model.ErrExpiredToken), errors.Is(err, model.ErrInvalidToken):
		body.Status = http.StatusUnauthorized
		body.Code = apierror.CodeInvalidToken
		body.Message = "invalid or expired token"
	case errors.Is(err, model.ErrPatientNotFound), errors.Is(err, model.ErrVisitNotFound),
		errors.Is(err, model.ErrMedicalRecordNotFound), errors.Is(err, model.ErrOrderNotFound):
		body.Status = http.StatusNotFound
		body.Code = apierror.CodeNotFound
		body.Message = "resource not found"
	default:
		logInternal(r, err)
	}

	// Expired tokens are reported like any other bad token.
	if body.Code == apierror.CodeExpiredToken {
		body.Code = apierror.CodeInvalidToken
	}

	writeJSON(w, body.Status, model.ErrorEnvelope{Error: body})
}

func logInternal(r *http.Request, err error) {
	slog.Error("unhandled error", "method", r.Method, "path", r.URL.Path, "error", err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apierror.Validation("request body is too large")
		case errors.Is(err, io.EOF):
			return apierror.Validation("request body is required")
		default:
			return apierror.Validation("invalid JSON body")
		}
	}

	return nil
}

func parseIntOrDefault(raw string, fallback int) int {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}

	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}

	return v
}

// pathID reads a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.Validation("invalid path parameter",
			apierror.FieldError{Field: name, Message: "must be a positive integer"})
	}
	return id, nil
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, apierror.NotFound("route not found"))
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, model.ErrorEnvelope{Error: model.ErrorBody{
		Message: "method not allowed",
		Status:  http.StatusMethodNotAllowed,
		Code:    "METHOD_NOT_ALLOWED",
	}})
}
