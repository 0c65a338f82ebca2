package fanout

import "errors"

// Errors recorded against an agent when its call cannot produce a verdict.
var (
	ErrNotConfigured = errors.New("evaluator not configured")
	ErrTimeout       = errors.New("evaluator timed out")
	ErrPanic         = errors.New("evaluator panicked")
)
