package advisecli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadPayload reads a JSON or YAML payload from path, or stdin when path is "-".
// JSON is valid YAML, so one decoder serves both.
func LoadPayload(path string, stdin io.Reader) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPayload, err)
	}
	return DecodePayload(data)
}

// DecodePayload parses JSON or YAML bytes into a payload object.
func DecodePayload(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrPayload)
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPayload, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: not an object", ErrPayload)
	}
	return out, nil
}
