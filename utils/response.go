package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/KincaidYang/nicwhois/whois_tools"
)

// ErrorType represents different types of errors
type ErrorType int

const (
	ErrorTypeNotFound ErrorType = iota
	ErrorTypeBadRequest
	ErrorTypeMethodNotAllowed
	ErrorTypeInternalServer
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusForError returns the HTTP status that describes a query error.
func StatusForError(err error) int {
	var (
		timeoutErr *whois_tools.TimeoutError
		connErr    *whois_tools.ConnectionError
		writeErr   *whois_tools.WriteError
		readErr    *whois_tools.ReadError
		ambErr     *whois_tools.AmbiguousResponseError
		loopErr    *whois_tools.ReferralLoopError
		hopsErr    *whois_tools.TooManyHopsError
	)
	switch {
	case errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout
	case errors.As(err, &connErr), errors.As(err, &writeErr), errors.As(err, &readErr), errors.As(err, &ambErr):
		return http.StatusBadGateway
	case errors.As(err, &loopErr), errors.As(err, &hopsErr):
		return http.StatusLoopDetected
	case errors.Is(err, whois_tools.ErrUnknownDatabase):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// HandleQueryError handles query errors with appropriate HTTP responses
func HandleQueryError(w http.ResponseWriter, err error) {
	writeError(w, StatusForError(err), err.Error())
}

// HandleHTTPError handles different types of HTTP errors
func HandleHTTPError(w http.ResponseWriter, errorType ErrorType, message string) {
	var status int
	switch errorType {
	case ErrorTypeNotFound:
		status = http.StatusNotFound
		if message == "" {
			message = "Resource not found"
		}
	case ErrorTypeBadRequest:
		status = http.StatusBadRequest
		if message == "" {
			message = "Bad request"
		}
	case ErrorTypeMethodNotAllowed:
		status = http.StatusMethodNotAllowed
		if message == "" {
			message = "Method not allowed"
		}
	default:
		status = http.StatusInternalServerError
		if message == "" {
			message = "Internal server error"
		}
	}
	writeError(w, status, message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
