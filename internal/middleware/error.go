package middleware

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ErrorResponse is the envelope for opaque failures
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse is the envelope for validation failures; it
// carries the whole batch of user-facing messages.
type ValidationErrorResponse struct {
	Errors []string `json:"errors"`
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// RespondWithError sends an opaque error response
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// RespondWithValidationErrors sends a 400 carrying the message batch
func RespondWithValidationErrors(w http.ResponseWriter, messages []string) {
	RespondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{Errors: messages})
}

// RespondWithInternalError sends the uniform 500 response. No detail is
// leaked; the cause is expected to be logged by the caller.
func RespondWithInternalError(w http.ResponseWriter) {
	RespondWithError(w, http.StatusInternalServerError, "Internal server error")
}

// ErrorHandlingMiddleware catches panics and converts them to 500 errors
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)

					RespondWithInternalError(w)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
