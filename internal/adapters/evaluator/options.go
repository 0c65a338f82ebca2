package evaluator

import (
	"net/http"

	"github.com/okian/overcall/pkg/logger"
)

// Option configures an HTTPEvaluator.
type Option func(*HTTPEvaluator)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *HTTPEvaluator) {
		if c != nil {
			e.client = c
		}
	}
}

// WithHeader adds a static header to every request.
func WithHeader(key, value string) Option {
	return func(e *HTTPEvaluator) {
		e.headers.Set(key, value)
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *HTTPEvaluator) {
		if l != nil {
			e.log = l
		}
	}
}
