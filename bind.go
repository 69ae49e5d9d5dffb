package directedinputs

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"reflect"
	"runtime"
	"strings"
)

// Binder carries the input configuration shared by every owner it produces:
// which sources to read, how to filter the environment, where stdin comes
// from. One Binder typically exists per wrapped type.
type Binder struct {
	opts []Option
}

// NewBinder builds a Binder from the given context options.
func NewBinder(opts ...Option) *Binder {
	return &Binder{opts: opts}
}

// Instance produces the per-owner resolution state. Extra options override the
// Binder's configuration for this owner only. The underlying input context is
// built lazily on first use, so an owner that never resolves anything never
// blocks on stdin.
func (b *Binder) Instance(opts ...Option) *Instance {
	merged := make([]Option, 0, len(b.opts)+len(opts))
	merged = append(merged, b.opts...)
	merged = append(merged, opts...)
	return &Instance{opts: merged}
}

// Instance is the resolution state for one owner: its (lazily built) input
// context and the methods bound against it. Not safe for concurrent use.
type Instance struct {
	opts   []Option
	inputs *Inputs
}

// Inputs returns the owner's input context, constructing it on first call.
func (s *Instance) Inputs() *Inputs {
	if s.inputs == nil {
		s.inputs = New(s.opts...)
	}
	return s.inputs
}

// Refresh discards the cached input context and applies additional options, so
// the next resolution rebuilds state from the current environment.
func (s *Instance) Refresh(opts ...Option) {
	s.opts = append(s.opts, opts...)
	s.inputs = nil
}

func (s *Instance) logger() *slog.Logger {
	cfg := defaultConfig()
	for _, opt := range s.opts {
		opt(&cfg)
	}
	return cfg.logger
}

// boundParam pairs a parameter's declared reflect type with its resolution
// config. The table is computed once when the method is bound, not per call.
type boundParam struct {
	cfg Param
	typ reflect.Type
}

// Method is a function bound to an Instance. Every Call routes missing
// parameters through the input context before the function body executes.
type Method struct {
	inst   *Instance
	name   string
	fn     reflect.Value
	params []boundParam
}

// Method binds fn to the instance. params names fn's parameters in declaration
// order, one entry per parameter; the declared types are taken from fn's
// signature. Binding fails when the shapes disagree or a Param is
// self-contradictory, so misconfiguration surfaces at setup time rather than
// on some later call.
func (s *Instance) Method(fn any, params ...Param) (*Method, error) {
	fnValue := reflect.ValueOf(fn)
	if !fnValue.IsValid() || fnValue.Kind() != reflect.Func {
		return nil, &InputError{Op: "bind", Err: errors.New("target must be a function")}
	}
	fnType := fnValue.Type()
	if fnType.IsVariadic() {
		return nil, &InputError{Op: "bind", Err: errors.New("variadic functions are not supported")}
	}
	if fnType.NumIn() != len(params) {
		return nil, &InputError{Op: "bind", Err: fmt.Errorf("function takes %d parameters, %d configured", fnType.NumIn(), len(params))}
	}

	seen := make(map[string]bool, len(params))
	bound := make([]boundParam, len(params))
	for i, p := range params {
		if err := p.validate(); err != nil {
			return nil, err
		}
		if seen[p.Name] {
			return nil, &InputError{Op: "bind", Err: fmt.Errorf("duplicate parameter %s", p.Name)}
		}
		seen[p.Name] = true
		bound[i] = boundParam{cfg: p, typ: fnType.In(i)}
	}

	return &Method{
		inst:   s,
		name:   funcName(fnValue),
		fn:     fnValue,
		params: bound,
	}, nil
}

// MustMethod is Method, panicking on a bind error. Intended for package-level
// setup where a bad binding is a programming mistake.
func (s *Instance) MustMethod(fn any, params ...Param) *Method {
	m, err := s.Method(fn, params...)
	if err != nil {
		panic(err)
	}
	return m
}

// Call invokes the bound function with the leading parameters supplied
// positionally and everything else resolved from the input context. The
// function's own return values come back as a slice; the error return carries
// resolution failures only.
func (m *Method) Call(args ...any) ([]any, error) {
	return m.CallNamed(nil, args...)
}

// CallNamed invokes the bound function with positional arguments plus named
// call-site values. A named value, like a positional one, wins outright over
// every input source and is never decoded or string-parsed.
func (m *Method) CallNamed(named map[string]any, args ...any) ([]any, error) {
	in, err := m.resolve(args, named)
	if err != nil {
		return nil, err
	}
	out := m.fn.Call(in)
	results := make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, nil
}

// Resolve computes the final argument values without invoking the function,
// keyed by parameter name.
func (m *Method) Resolve(named map[string]any, args ...any) (map[string]any, error) {
	in, err := m.resolve(args, named)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(in))
	for i, v := range in {
		out[m.params[i].cfg.Name] = v.Interface()
	}
	return out, nil
}

func (m *Method) resolve(positional []any, named map[string]any) ([]reflect.Value, error) {
	if len(positional) > len(m.params) {
		return nil, &InputError{Op: "call " + m.name, Err: fmt.Errorf("%d positional arguments for %d parameters", len(positional), len(m.params))}
	}
	logger := m.inst.logger()

	values := make([]reflect.Value, len(m.params))
	for i, p := range m.params {
		// A call-site value wins outright and skips decoding and coercion.
		if i < len(positional) {
			v, err := callSiteValue(positional[i], p)
			if err != nil {
				return nil, err
			}
			values[i] = v
			continue
		}
		if supplied, ok := named[p.cfg.Name]; ok {
			v, err := callSiteValue(supplied, p)
			if err != nil {
				return nil, err
			}
			values[i] = v
			continue
		}

		v, err := m.resolveFromContext(p)
		if err != nil {
			return nil, err
		}
		values[i] = v
		if logger != nil {
			logger.Debug("resolved parameter from inputs",
				"method", m.name,
				"param", p.cfg.Name,
				"keys", p.cfg.keys(),
			)
		}
	}
	return values, nil
}

func (m *Method) resolveFromContext(p boundParam) (reflect.Value, error) {
	opts := []GetOption{Aliases(p.cfg.Aliases...)}
	if p.cfg.Required {
		opts = append(opts, Required())
	}
	if p.cfg.Default != nil {
		opts = append(opts, Default(p.cfg.Default))
	}
	if p.cfg.DecodeBase64 {
		opts = append(opts, FromBase64())
	}
	if p.cfg.DecodeJSON {
		opts = append(opts, FromJSON())
	}
	if p.cfg.DecodeYAML {
		opts = append(opts, FromYAML())
	}

	primary := p.cfg.Source
	if primary == "" {
		primary = p.cfg.Name
	}
	raw, err := m.inst.Inputs().Decode(primary, opts...)
	if err != nil {
		var missing *MissingInputError
		if errors.As(err, &missing) {
			missing.Param = p.cfg.Name
		}
		return reflect.Value{}, err
	}

	coerced, err := coerceTo(raw, p.typ)
	if err != nil {
		var cerr *CoercionError
		if errors.As(err, &cerr) && cerr.Key == "" {
			cerr.Key = p.cfg.Name
		}
		return reflect.Value{}, err
	}
	return coerced, nil
}

// callSiteValue admits an explicitly supplied argument. The value is trusted
// as-is; only a direct type conversion is allowed, never parsing.
func callSiteValue(value any, p boundParam) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(p.typ), nil
	}
	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(p.typ):
		return v, nil
	case v.Type().ConvertibleTo(p.typ) && compatibleKinds(v.Kind(), p.typ.Kind()):
		converted, err := convertValue(v, p.typ)
		if err != nil {
			var cerr *CoercionError
			if errors.As(err, &cerr) && cerr.Key == "" {
				cerr.Key = p.cfg.Name
			}
			return reflect.Value{}, err
		}
		return converted, nil
	default:
		return reflect.Value{}, &CoercionError{
			Key:    p.cfg.Name,
			Value:  value,
			Target: p.typ.String(),
			Err:    fmt.Errorf("call-site value of type %T is not assignable", value),
		}
	}
}

// funcName extracts a short name for diagnostics, e.g. "pkg.GetSettings".
func funcName(fn reflect.Value) string {
	rf := runtime.FuncForPC(fn.Pointer())
	if rf == nil {
		return "func"
	}
	name := path.Base(rf.Name())
	return strings.TrimSuffix(name, "-fm")
}
