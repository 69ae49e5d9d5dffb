package directedinputs

import (
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var affirmativeTokens = map[string]bool{"true": true, "1": true, "yes": true, "on": true}
var negativeTokens = map[string]bool{"false": true, "0": true, "no": true, "off": true}

// timeLayouts are tried in order when coercing to a timestamp. RFC 3339 is the
// common case; the bare forms cover date-only and zone-less inputs.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
var timeDurationType = reflect.TypeOf(time.Duration(0))
var timeTimeType = reflect.TypeOf(time.Time{})

// ParseBool converts a string to a boolean using the strict affirmative set
// {"true","1","yes","on"} and negative set {"false","0","no","off"},
// case-insensitively. Anything else is a CoercionError: there is no silent
// truthiness.
func ParseBool(raw string) (bool, error) {
	token := strings.ToLower(strings.TrimSpace(raw))
	if affirmativeTokens[token] {
		return true, nil
	}
	if negativeTokens[token] {
		return false, nil
	}
	return false, &CoercionError{Value: raw, Target: "bool", Err: fmt.Errorf("unrecognized boolean token %q", raw)}
}

// ParseTime parses an ISO-8601 timestamp, accepting RFC 3339 plus date-only
// and zone-less variants.
func ParseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, &CoercionError{Value: raw, Target: "time", Err: fmt.Errorf("not an ISO-8601 timestamp: %q", raw)}
}

// Coerce converts value to the requested kind. A nil value bypasses coercion
// and is returned as nil. KindAny and KindString pass the value through
// unchanged; environment and stdin values are already strings, and values the
// caller supplied directly are trusted. All failures are *CoercionError.
func Coerce(value any, kind Kind) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch kind {
	case KindAny, KindString:
		return value, nil
	case KindBool:
		return coerceBool(value)
	case KindInt:
		return coerceInt(value)
	case KindFloat:
		return coerceFloat(value)
	case KindPath:
		return coercePath(value)
	case KindTime:
		return coerceTime(value)
	case KindDuration:
		return coerceDuration(value)
	case KindMap:
		return coerceMap(value)
	case KindSlice:
		return coerceSlice(value)
	default:
		return nil, &CoercionError{Value: value, Target: kind.String(), Err: fmt.Errorf("unsupported kind %d", int(kind))}
	}
}

func coerceBool(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := ParseBool(v)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, &CoercionError{Value: value, Target: "bool", Err: fmt.Errorf("cannot interpret %T as bool", value)}
	}
}

func coerceInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != float64(int64(v)) {
			return nil, &CoercionError{Value: value, Target: "int", Err: fmt.Errorf("%v has a fractional part", v)}
		}
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, &CoercionError{Value: value, Target: "int", Err: err}
		}
		return n, nil
	default:
		return nil, &CoercionError{Value: value, Target: "int", Err: fmt.Errorf("cannot interpret %T as int", value)}
	}
}

func coerceFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, &CoercionError{Value: value, Target: "float", Err: err}
		}
		return f, nil
	default:
		return nil, &CoercionError{Value: value, Target: "float", Err: fmt.Errorf("cannot interpret %T as float", value)}
	}
}

func coercePath(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, &CoercionError{Value: value, Target: "path", Err: fmt.Errorf("cannot interpret %T as path", value)}
	}
	// Repeated separators collapse, but ".." stays put: resolving it lexically
	// changes meaning under symlinks. Existence is never checked.
	sep := string(filepath.Separator)
	for strings.Contains(s, sep+sep) {
		s = strings.ReplaceAll(s, sep+sep, sep)
	}
	return s, nil
}

func coerceTime(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		ts, err := ParseTime(v)
		if err != nil {
			return nil, err
		}
		return ts, nil
	default:
		return nil, &CoercionError{Value: value, Target: "time", Err: fmt.Errorf("cannot interpret %T as time", value)}
	}
}

func coerceDuration(value any) (any, error) {
	switch v := value.(type) {
	case time.Duration:
		return v, nil
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return nil, &CoercionError{Value: value, Target: "duration", Err: err}
		}
		return d, nil
	case int64:
		return time.Duration(v), nil
	case float64:
		return time.Duration(v), nil
	default:
		return nil, &CoercionError{Value: value, Target: "duration", Err: fmt.Errorf("cannot interpret %T as duration", value)}
	}
}

func coerceMap(value any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		return v, nil
	case string:
		var out map[string]any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, &CoercionError{Value: value, Target: "map", Err: err}
		}
		return out, nil
	default:
		return nil, &CoercionError{Value: value, Target: "map", Err: fmt.Errorf("cannot interpret %T as map", value)}
	}
}

func coerceSlice(value any) (any, error) {
	switch v := value.(type) {
	case []any:
		return v, nil
	case string:
		var out []any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, &CoercionError{Value: value, Target: "slice", Err: err}
		}
		return out, nil
	default:
		return nil, &CoercionError{Value: value, Target: "slice", Err: fmt.Errorf("cannot interpret %T as slice", value)}
	}
}

// coerceTo converts value to the concrete reflect type declared by a bound
// parameter. Pointer targets act as optionals: a nil value yields a nil
// pointer, anything else is coerced to the element type and boxed.
func coerceTo(value any, targetType reflect.Type) (reflect.Value, error) {
	if targetType == nil {
		return reflect.ValueOf(value), nil
	}
	if targetType.Kind() == reflect.Pointer {
		if value == nil {
			return reflect.Zero(targetType), nil
		}
		elem, err := coerceTo(value, targetType.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(targetType.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	}
	if value == nil {
		return reflect.Zero(targetType), nil
	}
	if targetType.Kind() == reflect.Interface {
		return reflect.ValueOf(value), nil
	}

	valueType := reflect.TypeOf(value)
	if valueType == targetType {
		return reflect.ValueOf(value), nil
	}

	raw, isString := value.(string)
	if isString {
		if coerced, ok, err := coerceStringTo(raw, targetType); ok {
			if err != nil {
				return reflect.Value{}, err
			}
			return coerced, nil
		}
	}

	if valueType.AssignableTo(targetType) {
		return reflect.ValueOf(value), nil
	}
	if valueType.ConvertibleTo(targetType) && compatibleKinds(valueType.Kind(), targetType.Kind()) {
		return convertValue(reflect.ValueOf(value), targetType)
	}

	// Structured values (maps and slices from JSON/YAML decodes) are mapped
	// onto struct/map/slice targets through a JSON round-trip.
	switch targetType.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
		encoded, err := json.Marshal(value)
		if err != nil {
			return reflect.Value{}, &CoercionError{Value: value, Target: targetType.String(), Err: err}
		}
		holder := reflect.New(targetType)
		if err := json.Unmarshal(encoded, holder.Interface()); err != nil {
			return reflect.Value{}, &CoercionError{Value: value, Target: targetType.String(), Err: err}
		}
		return holder.Elem(), nil
	}
	return reflect.Value{}, &CoercionError{Value: value, Target: targetType.String(), Err: fmt.Errorf("cannot assign %T", value)}
}

// coerceStringTo parses raw into targetType. The middle return reports whether
// the target type is one this function knows how to produce from a string.
func coerceStringTo(raw string, targetType reflect.Type) (reflect.Value, bool, error) {
	switch {
	case targetType == timeTimeType:
		ts, err := ParseTime(raw)
		if err != nil {
			return reflect.Value{}, true, err
		}
		return reflect.ValueOf(ts), true, nil
	case targetType == timeDurationType:
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return reflect.Value{}, true, &CoercionError{Value: raw, Target: "duration", Err: err}
		}
		return reflect.ValueOf(d), true, nil
	}

	switch targetType.Kind() {
	case reflect.String:
		return reflect.ValueOf(raw).Convert(targetType), true, nil
	case reflect.Bool:
		v, err := ParseBool(raw)
		if err != nil {
			return reflect.Value{}, true, err
		}
		return reflect.ValueOf(v).Convert(targetType), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, targetType.Bits())
		if err != nil {
			return reflect.Value{}, true, &CoercionError{Value: raw, Target: targetType.String(), Err: err}
		}
		return reflect.ValueOf(v).Convert(targetType), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, targetType.Bits())
		if err != nil {
			return reflect.Value{}, true, &CoercionError{Value: raw, Target: targetType.String(), Err: err}
		}
		return reflect.ValueOf(v).Convert(targetType), true, nil
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), targetType.Bits())
		if err != nil {
			return reflect.Value{}, true, &CoercionError{Value: raw, Target: targetType.String(), Err: err}
		}
		return reflect.ValueOf(v).Convert(targetType), true, nil
	case reflect.Struct, reflect.Map, reflect.Array:
		return coerceJSONString(raw, targetType)
	case reflect.Slice:
		if targetType.Elem().Kind() == reflect.Uint8 {
			return reflect.ValueOf([]byte(raw)).Convert(targetType), true, nil
		}
		return coerceJSONString(raw, targetType)
	}

	if reflect.PointerTo(targetType).Implements(textUnmarshalerType) {
		dest := reflect.New(targetType)
		if err := dest.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
			return reflect.Value{}, true, &CoercionError{Value: raw, Target: targetType.String(), Err: err}
		}
		return dest.Elem(), true, nil
	}
	return reflect.Value{}, false, nil
}

func coerceJSONString(raw string, targetType reflect.Type) (reflect.Value, bool, error) {
	holder := reflect.New(targetType)
	if err := json.Unmarshal([]byte(raw), holder.Interface()); err != nil {
		return reflect.Value{}, true, &CoercionError{Value: raw, Target: targetType.String(), Err: err}
	}
	return holder.Elem(), true, nil
}

// convertValue converts an already-typed value to targetType, failing with a
// CoercionError instead of letting reflect.Value.Convert truncate or wrap a
// number the target cannot represent.
func convertValue(v reflect.Value, targetType reflect.Type) (reflect.Value, error) {
	outOfRange := func() (reflect.Value, error) {
		return reflect.Value{}, &CoercionError{
			Value:  v.Interface(),
			Target: targetType.String(),
			Err:    fmt.Errorf("value %v out of range", v.Interface()),
		}
	}
	zero := reflect.Zero(targetType)
	switch targetType.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch v.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if zero.OverflowInt(v.Int()) {
				return outOfRange()
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			if u := v.Uint(); u > math.MaxInt64 || zero.OverflowInt(int64(u)) {
				return outOfRange()
			}
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		switch v.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if n := v.Int(); n < 0 || zero.OverflowUint(uint64(n)) {
				return outOfRange()
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			if zero.OverflowUint(v.Uint()) {
				return outOfRange()
			}
		}
	case reflect.Float32, reflect.Float64:
		switch v.Kind() {
		case reflect.Float32, reflect.Float64:
			if zero.OverflowFloat(v.Float()) {
				return outOfRange()
			}
		}
	}
	return v.Convert(targetType), nil
}

// compatibleKinds limits reflect conversions to same-family numerics and
// strings, so a float is never silently truncated into an int.
func compatibleKinds(from, to reflect.Kind) bool {
	family := func(k reflect.Kind) int {
		switch k {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return 1
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return 2
		case reflect.Float32, reflect.Float64:
			return 3
		case reflect.String:
			return 4
		default:
			return 0
		}
	}
	f, t := family(from), family(to)
	return f != 0 && (f == t || (f <= 2 && t <= 3 && t != 0))
}
