package directedinputs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// overrideStdinKey disables stdin consumption when set to a truthy value in
// the process environment, so wrapped entry points can run interactively
// without blocking on a stream nobody is feeding.
const overrideStdinKey = "OVERRIDE_STDIN"

// Inputs holds the resolved input state for one owner. It merges an
// environment snapshot (optionally prefix-filtered), explicit values supplied
// at construction, and a lazily-read stdin JSON payload into one
// case-insensitive mapping.
//
// An Inputs is not safe for concurrent use; callers sharing one across
// goroutines must serialize externally.
type Inputs struct {
	cfg           config
	values        *mapping
	frozen        *mapping
	explicitKeys  map[string]struct{}
	stdinConsumed bool
}

// New builds an input context. The environment is captured and filtered here;
// stdin is not touched until the first lookup that needs it.
func New(opts ...Option) *Inputs {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	in := &Inputs{
		cfg:          cfg,
		values:       newMapping(),
		explicitKeys: make(map[string]struct{}),
	}
	if cfg.fromEnvironment {
		for key, value := range filteredEnvironment(cfg.environ(), cfg.envPrefix, cfg.stripEnvPrefix) {
			in.values.set(key, value)
		}
	}
	for key, value := range cfg.values {
		in.values.set(key, deepCopyValue(value))
		in.explicitKeys[foldKey(key)] = struct{}{}
	}
	return in
}

// filteredEnvironment turns KEY=VALUE pairs into a map, keeping only keys that
// start with prefix. The prefix match is case-sensitive on the raw key; the
// stored keys land in a case-insensitive mapping afterwards.
func filteredEnvironment(environ []string, prefix string, strip bool) map[string]string {
	out := make(map[string]string, len(environ))
	for _, pair := range environ {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			continue
		}
		if prefix != "" {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			if strip {
				key = strings.TrimPrefix(key, prefix)
			}
		}
		out[key] = value
	}
	return out
}

// readStdinOnce consumes the configured stdin stream if it has not been read
// yet. The consumed flag is set up front: reading stdin is destructive, so a
// failed parse is never retried.
func (in *Inputs) readStdinOnce() error {
	if !in.cfg.fromStdin || in.stdinConsumed {
		return nil
	}
	in.stdinConsumed = true

	if in.stdinOverridden() {
		return nil
	}

	payload, err := io.ReadAll(in.cfg.stdin)
	if err != nil {
		return &InputError{Op: "stdin", Err: err}
	}
	if strings.TrimSpace(string(payload)) == "" {
		return nil
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return &InputError{Op: "stdin", Err: fmt.Errorf("payload is not valid JSON: %w", err)}
	}
	fields, ok := doc.(map[string]any)
	if !ok {
		return &InputError{Op: "stdin", Err: fmt.Errorf("payload must be a JSON mapping, got %T", doc)}
	}

	// Stdin overwrites environment-derived values but never the explicit
	// construction-time inputs.
	for key, value := range fields {
		if _, explicit := in.explicitKeys[foldKey(key)]; explicit {
			continue
		}
		in.values.set(key, value)
	}
	return nil
}

func (in *Inputs) stdinOverridden() bool {
	for _, pair := range in.cfg.environ() {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key != overrideStdinKey {
			continue
		}
		enabled, err := ParseBool(value)
		return err == nil && enabled
	}
	return false
}

// Get looks up key (then any configured aliases) case-insensitively and
// returns the first hit, coerced per the options. Empty and missing values
// fall back to the configured default; a Required lookup with no value fails
// with a MissingInputError. Decode options are rejected with an InputError:
// base64/JSON/YAML handling belongs to Decode.
func (in *Inputs) Get(key string, opts ...GetOption) (any, error) {
	gc := applyGetOptions(opts)
	if gc.fromBase64 || gc.fromJSON || gc.fromYAML {
		return nil, &InputError{Op: "get " + key, Err: errors.New("decode options are only honored by Decode")}
	}
	value, _, err := in.lookup(key, gc)
	if err != nil {
		return nil, err
	}
	coerced, err := Coerce(value, gc.kind)
	if err != nil {
		var cerr *CoercionError
		if errors.As(err, &cerr) && cerr.Key == "" {
			cerr.Key = key
		}
		return nil, err
	}
	return coerced, nil
}

// Decode looks up key like Get, then applies the requested base64/JSON/YAML
// decoding. A missing key returns the default without decoding; a decode
// failure is surfaced as a DecodeError, never silently replaced by the raw
// value.
func (in *Inputs) Decode(key string, opts ...GetOption) (any, error) {
	gc := applyGetOptions(opts)
	if gc.fromJSON && gc.fromYAML {
		return nil, &InputError{Op: "decode " + key, Err: errors.New("JSON and YAML decoding are mutually exclusive")}
	}
	value, fromDefault, err := in.lookup(key, gc)
	if err != nil {
		return nil, err
	}
	// The default is returned as the caller supplied it, never decoded.
	if fromDefault || isNothing(value) {
		return value, nil
	}
	decoded, err := DecodeValue(value, gc.fromBase64, gc.fromJSON, gc.fromYAML)
	if err != nil {
		var derr *DecodeError
		if errors.As(err, &derr) && derr.Key == "" {
			derr.Key = key
		}
		return nil, err
	}
	if decoded == nil && gc.defaultIfNil {
		return gc.def, nil
	}
	return decoded, nil
}

// lookup resolves the raw value for key, triggering the one-shot stdin read,
// walking aliases in order, and applying default/required handling.
func (in *Inputs) lookup(key string, gc getConfig) (value any, fromDefault bool, err error) {
	if err := in.readStdinOnce(); err != nil {
		return nil, false, err
	}
	keys := append([]string{key}, gc.aliases...)
	found := false
	for _, candidate := range keys {
		if v, ok := in.values.get(candidate); ok {
			value = v
			found = true
			break
		}
	}
	if !found || isNothing(value) {
		value = gc.def
		fromDefault = true
	}
	if isNothing(value) && gc.required {
		return nil, false, &MissingInputError{Param: key, Keys: keys, State: in.Dump()}
	}
	return value, fromDefault, nil
}

// isNothing reports whether a value is absent for resolution purposes: nil or
// an empty string. Environment variables set to "" count as unset.
func isNothing(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

// Has reports whether key resolves to a stored entry, without touching stdin.
func (in *Inputs) Has(key string) bool {
	return in.values.has(key)
}

// Values returns a deep copy of the current input state.
func (in *Inputs) Values() map[string]any {
	return in.values.deepClone().asMap()
}

// Freeze stores a deep snapshot of the current input state and returns an
// independent copy of it. The live state keeps evolving; mutating the returned
// copy never affects it.
func (in *Inputs) Freeze() map[string]any {
	in.frozen = in.values.deepClone()
	return in.frozen.deepClone().asMap()
}

// Thaw restores the input state from the last snapshot taken by Freeze. The
// snapshot is retained, so repeated thaws restore the same state. Thawing
// without a prior freeze is an InputError.
func (in *Inputs) Thaw() (map[string]any, error) {
	if in.frozen == nil {
		return nil, &InputError{Op: "thaw", Err: errors.New("no snapshot taken")}
	}
	in.values = in.frozen.deepClone()
	return in.values.deepClone().asMap(), nil
}

// Shift freezes when no snapshot exists and thaws otherwise.
func (in *Inputs) Shift() (map[string]any, error) {
	if in.frozen == nil {
		return in.Freeze(), nil
	}
	return in.Thaw()
}

// Merge deep-merges payload into the current input state. Keys whose values
// are mappings on both sides merge recursively with payload's leaves winning;
// any other conflict is replaced by payload's value outright.
func (in *Inputs) Merge(payload map[string]any) {
	for key, value := range payload {
		if existing, ok := in.values.get(key); ok {
			in.values.set(key, mergeValue(existing, value))
		} else {
			in.values.set(key, deepCopyValue(value))
		}
	}
}

// Dump renders the current input state for diagnostics.
func (in *Inputs) Dump() string {
	return spew.Sdump(in.values.asMap())
}
