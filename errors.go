package directedinputs

import (
	"fmt"
	"strings"
)

// CoercionError reports a value that could not be converted to the requested
// target type. The original parse error, when one exists, is available via
// Unwrap.
type CoercionError struct {
	Key    string
	Value  any
	Target string
	Err    error
}

// Error implements the error interface.
func (e *CoercionError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("cannot coerce %v to %s: %v", e.Value, e.Target, e.Err)
	}
	return fmt.Sprintf("input %s: cannot coerce %v to %s: %v", e.Key, e.Value, e.Target, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *CoercionError) Unwrap() error { return e.Err }

// DecodeError reports a base64, JSON, or YAML decode failure. Format names the
// stage that failed.
type DecodeError struct {
	Key    string
	Format string
	Err    error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s decode: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("input %s: %s decode: %v", e.Key, e.Format, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *DecodeError) Unwrap() error { return e.Err }

// MissingInputError reports a required parameter that had no value from any
// source. Keys lists every lookup key that was tried, in order.
type MissingInputError struct {
	Param string
	Keys  []string
	State string
}

// Error implements the error interface.
func (e *MissingInputError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "required input %s not found", e.Param)
	if len(e.Keys) > 0 {
		fmt.Fprintf(&b, " (tried %s)", strings.Join(e.Keys, ", "))
	}
	if e.State != "" {
		b.WriteString("; available inputs:\n")
		b.WriteString(e.State)
	}
	return b.String()
}

// InputError reports a structural problem: a stdin payload that is not a JSON
// mapping, a thaw with no prior freeze, or a parameter configured to decode
// both JSON and YAML.
type InputError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *InputError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *InputError) Unwrap() error { return e.Err }
