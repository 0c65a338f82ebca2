package evaluator

import "errors"

// Sentinel errors for evaluator calls.
var (
	ErrStatus     = errors.New("evaluator returned non-success status")
	ErrNotObject  = errors.New("evaluator response is not a JSON object")
	ErrEncode     = errors.New("encode evaluator request")
	ErrInvalidURL = errors.New("evaluator url is empty")
)
