package remote

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrUnauthorized = errors.New("remote: unauthorized")

// HTTPError is a non-2xx answer from the backend.
type HTTPError struct {
	Status  int
	Message string
}

func (err *HTTPError) Error() string {
	return fmt.Sprintf("remote: status %d: %s", err.Status, err.Message)
}

func (err *HTTPError) Is(target error) bool {
	return target == ErrUnauthorized && err.Status == http.StatusUnauthorized
}

// NetworkError means the request never produced an HTTP answer.
type NetworkError struct {
	Op  string
	Err error
}

func (err *NetworkError) Error() string {
	return fmt.Sprintf("remote: %s: %v", err.Op, err.Err)
}

func (err *NetworkError) Unwrap() error {
	return err.Err
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsNetwork(err error) bool {
	var networkErr *NetworkError
	return errors.As(err, &networkErr)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

// MessageOf returns the backend's message for an HTTP error, or "".
func MessageOf(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Message
	}
	return ""
}
