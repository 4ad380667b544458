package handler

import (
	"encoding/json"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dukerupert/airkicks/internal/domain"
	"github.com/dukerupert/airkicks/internal/middleware"
)

// errorBody is the JSON error shape: {"error":{"code","message","fields"}}.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse logs err and writes it to the client: JSON for XHR/JSON
// requests, plain text otherwise. Internal errors are reported with a
// generic message.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)
	message := domain.ErrorMessage(err)

	logError(r, err, code, status)

	if acceptsJSON(r) {
		WriteJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
		return
	}
	http.Error(w, message, status)
}

// ValidationErrorResponse writes field-level errors with a 422. Errors that
// are not a *domain.ValidationError fall back to ErrorResponse.
func ValidationErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	fields := domain.GetValidationFields(err)
	if fields == nil {
		ErrorResponse(w, r, err)
		return
	}

	status := ErrorCodeToHTTPStatus(domain.EUNPROCESSABLE)
	logError(r, err, domain.EUNPROCESSABLE, status)

	if acceptsJSON(r) {
		WriteJSON(w, status, errorBody{Error: errorDetail{
			Code:    domain.EUNPROCESSABLE,
			Message: domain.ErrorMessage(err),
			Fields:  fields,
		}})
		return
	}

	var b strings.Builder
	b.WriteString(domain.ErrorMessage(err))
	for _, field := range slices.Sorted(maps.Keys(fields)) {
		b.WriteString("\n")
		b.WriteString(field)
		b.WriteString(": ")
		b.WriteString(fields[field])
	}
	http.Error(w, b.String(), status)
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized // 401
	case domain.EFORBIDDEN:
		return http.StatusForbidden // 403
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT:
		return http.StatusConflict // 409
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge // 413
	case domain.EUNPROCESSABLE:
		return http.StatusUnprocessableEntity // 422
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	case domain.EINTERNAL:
		return http.StatusInternalServerError // 500
	case domain.EUNAVAILABLE:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}

// AcceptsJSON reports whether the client wants a JSON response.
func AcceptsJSON(r *http.Request) bool {
	return acceptsJSON(r)
}

func acceptsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	return strings.HasSuffix(r.URL.Path, ".json")
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode JSON response")
	}
}

func logError(r *http.Request, err error, code string, status int) {
	logger := middleware.GetLogger(r.Context())

	var event *zerolog.Event
	if status >= 500 {
		event = logger.Error()
	} else {
		event = logger.Info()
	}
	event.Err(err).
		Str("code", code).
		Str("op", domain.ErrorOp(err)).
		Int("status", status).
		Msg("request error")
}
