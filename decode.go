package directedinputs

import (
	"encoding/base64"
	"encoding/json"
	"errors"

	"gopkg.in/yaml.v3"
)

// DecodeValue applies the requested decode stages to raw. Base64 decoding, when
// requested, always runs first and yields a text string; then at most one of
// JSON or YAML parsing is applied. Requesting both JSON and YAML is an
// *InputError. Non-string values pass through untouched: they were supplied
// already decoded by the caller or an earlier stage.
func DecodeValue(raw any, fromBase64, fromJSON, fromYAML bool) (any, error) {
	if fromJSON && fromYAML {
		return nil, &InputError{Op: "decode", Err: errors.New("JSON and YAML decoding are mutually exclusive")}
	}
	text, ok := raw.(string)
	if !ok {
		return raw, nil
	}

	if fromBase64 {
		decoded, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, &DecodeError{Format: "base64", Err: err}
		}
		text = string(decoded)
	}

	switch {
	case fromJSON:
		var out any
		if err := json.Unmarshal([]byte(text), &out); err != nil {
			return nil, &DecodeError{Format: "json", Err: err}
		}
		return out, nil
	case fromYAML:
		var out any
		if err := yaml.Unmarshal([]byte(text), &out); err != nil {
			return nil, &DecodeError{Format: "yaml", Err: err}
		}
		return out, nil
	default:
		return text, nil
	}
}
