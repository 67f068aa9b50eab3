package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrSyncInProgress = errors.New("sync already in progress")
)

// ConfigurationError reports a required setting that is missing at call time.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s is not set", e.Setting)
}

// UpstreamHTTPError is a non-2xx transport response from the places provider.
type UpstreamHTTPError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamHTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("places: http status %d", e.StatusCode)
	}
	return fmt.Sprintf("places: http status %d: %s", e.StatusCode, e.Body)
}

// UpstreamAPIError is a 2xx response whose provider status is not acceptable.
type UpstreamAPIError struct {
	Status  string
	Message string
}

func (e *UpstreamAPIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "Unknown error"
	}
	return fmt.Sprintf("places: api status %s: %s", e.Status, msg)
}

// StoreError wraps a failure of the relational store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return "store: " + e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }
