package utils

import (
	"errors"
	"fmt"
)

var (
	ErrNoProviderAvailable = errors.New("no provider available")
	ErrShutdownTimeout     = errors.New("shutdown grace period elapsed")
)

type ConfigError struct {
	Key    string
	Reason string
}

type StatusError struct {
	URL        string
	StatusCode int
}

type ParseError struct {
	URL string
	Err error
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Key, e.Reason)
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded with status %d", e.URL, e.StatusCode)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
