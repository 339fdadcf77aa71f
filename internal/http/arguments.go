package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"ledger/internal/core"
)

// ArgumentError reports a tool argument that is missing or has the wrong type.
type ArgumentError struct {
	Name   string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Name, e.Reason)
}

// Arguments are the named arguments of a tool call. Values are the
// result of decoding JSON with UseNumber, or plain Go values in tests.
type Arguments map[string]any

// DecodeArguments parses a JSON object of tool arguments. Empty input and
// null decode to no arguments.
func DecodeArguments(raw []byte) (Arguments, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return Arguments{}, nil
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	var args Arguments
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	if args == nil {
		args = Arguments{}
	}
	return args, nil
}

// present reports whether name was supplied with a non-null value.
func (a Arguments) present(name string) bool {
	v, ok := a[name]
	return ok && v != nil
}

// String returns a string argument. ok is false when it was not supplied.
func (a Arguments) String(name string) (s string, ok bool, err error) {
	if !a.present(name) {
		return "", false, nil
	}
	switch v := a[name].(type) {
	case string:
		return v, true, nil
	case json.Number:
		return v.String(), true, nil
	default:
		return "", true, &ArgumentError{Name: name, Reason: fmt.Sprintf("expected string, got %T", v)}
	}
}

// Float returns a numeric argument. Numeric strings are accepted.
func (a Arguments) Float(name string) (f float64, ok bool, err error) {
	if !a.present(name) {
		return 0, false, nil
	}
	switch v := a[name].(type) {
	case json.Number:
		f, err = v.Float64()
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		f, err = core.ParseAmount(v)
	default:
		return 0, true, &ArgumentError{Name: name, Reason: fmt.Sprintf("expected number, got %T", v)}
	}
	if err != nil {
		return 0, true, &ArgumentError{Name: name, Reason: err.Error()}
	}
	return f, true, nil
}

// Int64 returns an integer argument. Whole floats and numeric strings are accepted.
func (a Arguments) Int64(name string) (n int64, ok bool, err error) {
	if !a.present(name) {
		return 0, false, nil
	}
	switch v := a[name].(type) {
	case json.Number:
		n, err = parseInt(v.String())
	case float64:
		n, err = wholeFloat(v)
	case int:
		n = int64(v)
	case int64:
		n = v
	case string:
		n, err = parseInt(strings.TrimSpace(v))
	default:
		return 0, true, &ArgumentError{Name: name, Reason: fmt.Sprintf("expected integer, got %T", v)}
	}
	if err != nil {
		return 0, true, &ArgumentError{Name: name, Reason: err.Error()}
	}
	return n, true, nil
}

func parseInt(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("not an integer")
	}
	return wholeFloat(f)
}

func wholeFloat(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, errors.New("not an integer")
	}
	return int64(f), nil
}

// RequiredString is String for arguments without a default.
func (a Arguments) RequiredString(name string) (string, error) {
	s, ok, err := a.String(name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &ArgumentError{Name: name, Reason: "required"}
	}
	return s, nil
}

func (a Arguments) RequiredFloat(name string) (float64, error) {
	f, ok, err := a.Float(name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &ArgumentError{Name: name, Reason: "required"}
	}
	return f, nil
}

func (a Arguments) RequiredInt64(name string) (int64, error) {
	n, ok, err := a.Int64(name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &ArgumentError{Name: name, Reason: "required"}
	}
	return n, nil
}

// OptionalString returns the argument or "" when it was not supplied.
func (a Arguments) OptionalString(name string) (string, error) {
	s, _, err := a.String(name)
	return s, err
}

// StringPtr returns nil when the argument was not supplied.
func (a Arguments) StringPtr(name string) (*string, error) {
	s, ok, err := a.String(name)
	if err != nil || !ok {
		return nil, err
	}
	return &s, nil
}

func (a Arguments) FloatPtr(name string) (*float64, error) {
	f, ok, err := a.Float(name)
	if err != nil || !ok {
		return nil, err
	}
	return &f, nil
}
