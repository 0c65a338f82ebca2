package types

import "errors"

// ErrEmptyRequest means a payload carried neither telemetry nor match context.
var ErrEmptyRequest = errors.New("request carries no telemetry or match context")
