package directedinputs

import (
	"errors"
	"fmt"
)

// Param declares how one bound parameter is resolved from the input context.
// The zero value of everything but Name means: look up the parameter under its
// own name, optional, no decoding, zero-value fallback.
type Param struct {
	// Name identifies the target parameter. Required, unique per method.
	Name string

	// Source is an alternate lookup key. Defaults to Name.
	Source string

	// Aliases are additional lookup keys tried, in order, after Source.
	Aliases []string

	// Required makes resolution fail with a MissingInputError when no source
	// provides a value.
	Required bool

	// Default is used when no source provides a value and Required is false.
	Default any

	// DecodeBase64 base64-decodes the raw value before any JSON/YAML parsing.
	DecodeBase64 bool

	// DecodeJSON parses the raw value as JSON. Mutually exclusive with
	// DecodeYAML.
	DecodeJSON bool

	// DecodeYAML parses the raw value as YAML. Mutually exclusive with
	// DecodeJSON.
	DecodeYAML bool
}

func (p Param) validate() error {
	if p.Name == "" {
		return &InputError{Op: "bind", Err: errors.New("parameter name must not be empty")}
	}
	if p.DecodeJSON && p.DecodeYAML {
		return &InputError{Op: "bind " + p.Name, Err: errors.New("JSON and YAML decoding are mutually exclusive")}
	}
	return nil
}

// keys returns the ordered lookup keys for the parameter.
func (p Param) keys() []string {
	primary := p.Source
	if primary == "" {
		primary = p.Name
	}
	return append([]string{primary}, p.Aliases...)
}

func (p Param) String() string {
	return fmt.Sprintf("Param(%s)", p.Name)
}
