package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"hrpay/internal/requestctx"
)

// Error is the machine-readable failure payload inside the envelope.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     *Error `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// write stamps the envelope with the request id carried in the request
// context so every response is correlatable with the access log.
func write(w http.ResponseWriter, r *http.Request, status int, env envelope) {
	env.RequestID = requestctx.GetRequestID(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Warn("writing response failed", "err", err)
	}
}

func OK(w http.ResponseWriter, r *http.Request, data any) {
	write(w, r, http.StatusOK, envelope{Success: true, Data: data})
}

func Created(w http.ResponseWriter, r *http.Request, data any) {
	write(w, r, http.StatusCreated, envelope{Success: true, Data: data})
}

func Fail(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	write(w, r, status, envelope{Success: false, Error: &Error{Code: code, Message: message}})
}
