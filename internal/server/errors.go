package server

import (
	"bytes"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ngmaloney/natal-terminal/internal/models"
)

// CodeInvalidParameter covers malformed query parameters that are not
// dates or coordinates, such as an unknown house system or body
const CodeInvalidParameter models.ErrorCode = "INVALID_PARAMETER"

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Code      models.ErrorCode `json:"code"`
	Message   string           `json:"message"`
	RequestID string           `json:"request_id,omitempty"`
}

// StatusOf maps an error code to its HTTP status
func StatusOf(code models.ErrorCode) int {
	switch code {
	case models.CodeInvalidDate, models.CodeInvalidCoordinate, CodeInvalidParameter:
		return http.StatusBadRequest
	case models.CodeHouseSystemUndefined:
		return http.StatusUnprocessableEntity
	case models.CodeEphemerisUnavailable:
		return http.StatusServiceUnavailable
	case codeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

const codeNotFound models.ErrorCode = "NOT_FOUND"

// writeError sends err as JSON with the status for its code
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, code models.ErrorCode, err error) {
	status := StatusOf(code)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err), zap.String("request_id", GetRequestID(r.Context())))
		message = "internal error"
	}
	if s.metrics != nil {
		s.metrics.ErrorsTotal.WithLabelValues("server", string(code)).Inc()
	}
	s.writeJSON(w, status, ErrorResponse{Code: code, Message: message, RequestID: GetRequestID(r.Context())})
}

// writeJSON encodes v before the status line goes out, so an encoding
// failure still reaches the client as a 500
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.logger.Error("json_encode_failed", zap.Error(err))
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(ErrorResponse{Code: models.CodeInternal, Message: "internal error"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
