package service

import (
	"errors"

	"github.com/okian/overcall/internal/domain/types"
)

// Sentinel errors returned by the service.
var (
	// ErrEmptyRequest means the payload carried neither telemetry nor match context.
	ErrEmptyRequest = types.ErrEmptyRequest
	errPanic        = errors.New("orchestrator panicked")
)
