// Package advisecli implements the operator command line for the advice service.
package advisecli

import (
	"errors"
	"time"
)

// Defaults for the command flags.
const (
	DefaultBaseURL = "http://localhost:9080"
	DefaultTimeout = 30 * time.Second
)

// Sentinel errors.
var (
	ErrPayload  = errors.New("invalid payload file")
	ErrStatus   = errors.New("unexpected response status")
	ErrResponse = errors.New("invalid response body")
)

// Config holds the options shared by the commands.
type Config struct {
	BaseURL    string        // Base URL of a running service
	Timeout    time.Duration // HTTP request timeout
	RequestID  string        // Optional X-Request-ID
	BaselineDB string        // Optional SQLite baseline file for local runs
	JSON       bool          // Print the full response as JSON
	Verbose    bool          // Log to stderr
}
