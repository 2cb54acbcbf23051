package copyexamplegen

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const expectedFormat = "Expected format is Split label (key) and Split URI (value)."

// ErrInvalidInput is matched by every error ParseSplitMapping returns
var ErrInvalidInput = errors.New("invalid split mapping")

// InputError reports a split mapping input that cannot be used.
type InputError struct {
	msg string
	err error
}

func (e *InputError) Error() string { return e.msg }

func (e *InputError) Unwrap() error { return e.err }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func inputErrorf(cause error, format string, args ...interface{}) *InputError {
	return &InputError{msg: fmt.Sprintf(format, args...), err: cause}
}

// Split pairs a split label with the location of its example files.
type Split struct {
	Label string
	URI   string
}

// SplitMapping lists splits in the order they appear in the input JSON.
type SplitMapping []Split

// Labels returns the split labels in order
func (m SplitMapping) Labels() []string {
	labels := make([]string, len(m))
	for i, s := range m {
		labels[i] = s.Label
	}
	return labels
}

// ParseSplitMapping parses a JSON object of split label to split URI.
// Labels must be unique, non-empty and free of path separators, and every
// URI must be a string.
func ParseSplitMapping(input string) (SplitMapping, error) {
	if strings.TrimSpace(input) == "" {
		return nil, inputErrorf(nil, "Input string is not provided. %s", expectedFormat)
	}

	var raw interface{}
	if err := json.Unmarshal([]byte(input), &raw); err != nil {
		return nil, inputErrorf(err, "Input string %s is not valid JSON (%s). %s", input, err, expectedFormat)
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, inputErrorf(nil, "Input string %s is not provided as a dictionary. %s", input, expectedFormat)
	}
	if len(obj) == 0 {
		return nil, inputErrorf(nil, "Input dictionary is empty. %s", expectedFormat)
	}

	// Decode again token by token to keep the labels in input order.
	dec := json.NewDecoder(strings.NewReader(input))
	if _, err := dec.Token(); err != nil {
		return nil, inputErrorf(err, "Input string %s is not valid JSON (%s). %s", input, err, expectedFormat)
	}

	splits := make(SplitMapping, 0, len(obj))
	seen := make(map[string]bool, len(obj))
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, inputErrorf(err, "Input string %s is not valid JSON (%s). %s", input, err, expectedFormat)
		}
		label := tok.(string)

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, inputErrorf(err, "Input string %s is not valid JSON (%s). %s", input, err, expectedFormat)
		}

		uri, ok := value.(string)
		switch {
		case label == "":
			return nil, inputErrorf(nil, "Split label must not be empty. %s", expectedFormat)
		case strings.ContainsAny(label, `/\`):
			return nil, inputErrorf(nil, "Split label %q must not contain path separators. %s", label, expectedFormat)
		case seen[label]:
			return nil, inputErrorf(nil, "Split label %q is given more than once. %s", label, expectedFormat)
		case !ok:
			return nil, inputErrorf(nil, "Split URI for label %q is not a string. %s", label, expectedFormat)
		}
		seen[label] = true
		splits = append(splits, Split{Label: label, URI: uri})
	}

	return splits, nil
}
