package routing

import "errors"

// Errors describing why an upstream routing proposal was not adopted.
var (
	ErrNoAgents      = errors.New("proposal selects no known agents")
	ErrUnknownIntent = errors.New("proposal intent is not recognized")
)
