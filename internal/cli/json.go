package cli

import (
	"encoding/json"
	stderrors "errors"
	"io"

	"github.com/sshsshje/sshsshje/internal/errors"
)

// JSONEnvelope wraps command output in a consistent structure for machine parsing.
// All --json output should use this envelope.
type JSONEnvelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *JSONError `json:"error,omitempty"`
}

// JSONError provides structured error information for machine parsing.
type JSONError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Details    string `json:"details,omitempty"`
}

// ErrCodeUnknown is used for errors that carry no code of their own.
const ErrCodeUnknown = "UNKNOWN"

// WriteJSONSuccess writes a successful response with data to the writer.
func WriteJSONSuccess(w io.Writer, data any) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: true, Data: data})
}

// WriteJSONFromError converts a Go error to a JSON error response.
func WriteJSONFromError(w io.Writer, err error) error {
	return writeJSONEnvelope(w, JSONEnvelope{Error: ErrorToJSON(err)})
}

func writeJSONEnvelope(w io.Writer, env JSONEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ErrorToJSON maps a structured error onto its code, message and
// suggestion; the cause chain goes into Details.
func ErrorToJSON(err error) *JSONError {
	if err == nil {
		return nil
	}

	var sErr *errors.Error
	if stderrors.As(err, &sErr) {
		out := &JSONError{
			Code:       sErr.Code,
			Message:    sErr.Message,
			Suggestion: sErr.Suggestion,
		}
		if sErr.Cause != nil {
			out.Details = errors.Summary(sErr.Cause)
		}
		return out
	}

	return &JSONError{Code: ErrCodeUnknown, Message: errors.Summary(err)}
}
