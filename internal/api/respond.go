package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/sshsshje/sshsshje/internal/errors"
)

const codeInternal = "INTERNAL"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id"`
}

// sendJSON sends a JSON response.
func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// sendError sends a standardized error response.
func sendError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	sendJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestID(r),
		},
	})
}

// statusFor maps an error code to an HTTP status.
func statusFor(code string) int {
	switch code {
	case errors.ErrPool, errors.ErrSSH:
		return http.StatusServiceUnavailable
	case errors.ErrInput:
		return http.StatusBadRequest
	case errors.ErrAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err in the error envelope. Structured errors keep
// their code and message; the cause, if any, goes into details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var sErr *errors.Error
	if !stderrors.As(err, &sErr) {
		sendError(w, r, http.StatusInternalServerError, codeInternal, err.Error(), nil)
		return
	}

	var details any
	if sErr.Cause != nil {
		details = errors.Summary(sErr.Cause)
	}

	status := statusFor(sErr.Code)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	sendError(w, r, status, sErr.Code, sErr.Message, details)
}

// respond writes v as 200 JSON, or the error envelope when err is set.
func respond(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, v)
}

// decodeJSON decodes the request body into T, answering 400 on failure.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var input T
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&input); err != nil {
		sendError(w, r, http.StatusBadRequest, errors.ErrInput, "Invalid JSON body", err.Error())
		return input, false
	}
	return input, true
}
