package model

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

const (
	FilterKeySearch = "search"
	FilterKeyStrict = "strict"
)

type (
	// FilterSpec is a sparse attribute-keyed filter. A nil value is the same
	// as a missing key.
	FilterSpec map[string]any

	// Range is an inclusive [Min, Max] pair where either side may be open.
	Range struct {
		Min *float64
		Max *float64
	}
)

func Float(v float64) *float64 {
	return &v
}

func NewRange(minimum, maximum float64) Range {
	return Range{Min: Float(minimum), Max: Float(maximum)}
}

func (r Range) IsEmpty() bool {
	return r.Min == nil && r.Max == nil
}

func IsReservedKey(key string) bool {
	return key == FilterKeySearch || key == FilterKeyStrict
}

// Has reports whether key carries a non-absent value.
func (f FilterSpec) Has(key string) bool {
	value, ok := f[key]

	return ok && !isAbsent(value)
}

// Keys returns the non-reserved keys carrying a value, sorted.
func (f FilterSpec) Keys() []string {
	keys := make([]string, 0, len(f))

	for key, value := range f {
		if IsReservedKey(key) || isAbsent(value) {
			continue
		}

		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}

func (f FilterSpec) Search() (string, bool) {
	value, ok := f[FilterKeySearch]
	if !ok || isAbsent(value) {
		return "", false
	}

	text := strings.TrimSpace(fmt.Sprint(deref(value)))

	return text, text != ""
}

func (f FilterSpec) Strict() bool {
	switch v := deref(f[FilterKeyStrict]).(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1"
	default:
		return false
	}
}

// Strings returns the set value of key as strings, accepting a scalar as a
// single-element set.
func (f FilterSpec) Strings(key string) []string {
	if !f.Has(key) {
		return nil
	}

	values, ok := toAnySlice(f[key])
	if !ok {
		values = []any{f[key]}
	}

	result := make([]string, 0, len(values))

	for _, value := range compact(values) {
		result = append(result, fmt.Sprint(value))
	}

	return result
}

// Without returns a shallow copy minus the given keys.
func (f FilterSpec) Without(keys ...string) FilterSpec {
	result := make(FilterSpec, len(f))

	for key, value := range f {
		if slices.Contains(keys, key) {
			continue
		}

		result[key] = value
	}

	return result
}

// Only returns a shallow copy holding just the given keys.
func (f FilterSpec) Only(keys ...string) FilterSpec {
	result := make(FilterSpec, len(keys))

	for _, key := range keys {
		if value, ok := f[key]; ok {
			result[key] = value
		}
	}

	return result
}

func (f FilterSpec) Clone() FilterSpec {
	return f.Without()
}

func isAbsent(value any) bool {
	if value == nil {
		return true
	}

	rv := reflect.ValueOf(value)

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map:
		return rv.IsNil()
	default:
		return false
	}
}

func deref(value any) any {
	if value == nil {
		return nil
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}

		rv = rv.Elem()
	}

	return rv.Interface()
}

// toAnySlice widens any slice or array except []byte into []any.
func toAnySlice(value any) ([]any, bool) {
	if values, ok := value.([]any); ok {
		return values, true
	}

	rv := reflect.ValueOf(deref(value))
	if !rv.IsValid() {
		return nil, false
	}

	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}

	result := make([]any, rv.Len())
	for i := range rv.Len() {
		result[i] = rv.Index(i).Interface()
	}

	return result, true
}

func compact(values []any) []any {
	result := make([]any, 0, len(values))

	for _, value := range values {
		if isAbsent(value) {
			continue
		}

		result = append(result, deref(value))
	}

	return result
}
