package reference

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/architeacher/logistics/pkg/logger"
)

// Outcome separates a missing input from an input the table cannot map.
type Outcome int

const (
	OutcomeAbsent Outcome = iota
	OutcomeUnknown
	OutcomeFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAbsent:
		return "absent"
	case OutcomeFound:
		return "found"
	default:
		return "unknown"
	}
}

type (
	TranslateOption func(*translateOptions)

	translateOptions struct {
		toExternal bool
		byAlias    bool
	}
)

// ToExternal translates a domain value back to its external id.
func ToExternal() TranslateOption {
	return func(o *translateOptions) {
		o.toExternal = true
	}
}

// ByAlias reads or matches the entry alias instead of its value.
func ByAlias() TranslateOption {
	return func(o *translateOptions) {
		o.byAlias = true
	}
}

type Codec struct {
	catalog *Catalog
	logger  logger.Logger
}

func NewCodec(catalog *Catalog, log logger.Logger) *Codec {
	return &Codec{
		catalog: catalog,
		logger:  log.Component("reference-codec"),
	}
}

func (c *Codec) Catalog() *Catalog {
	return c.catalog
}

// Translate maps value through the named table. By default value is an
// external id and the entry value is returned.
func (c *Codec) Translate(table TableKey, value any, opts ...TranslateOption) (string, Outcome) {
	if isAbsent(value) {
		return "", OutcomeAbsent
	}

	idx, ok := c.catalog.lookup(table)
	if !ok {
		return "", OutcomeUnknown
	}

	options := translateOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	code := stringify(value)

	if options.toExternal {
		return fromDomain(idx, code, options.byAlias)
	}

	position, found := idx.byID[code]
	if !found {
		return "", OutcomeUnknown
	}

	entry := idx.entries[position]

	if options.byAlias {
		if !entry.Alias.IsSet() {
			return "", OutcomeUnknown
		}

		return entry.Alias.String(), OutcomeFound
	}

	if entry.Value == "" {
		return "", OutcomeUnknown
	}

	return entry.Value, OutcomeFound
}

func fromDomain(idx *index, value string, byAlias bool) (string, Outcome) {
	if !byAlias {
		if position, found := idx.byValue[value]; found {
			return idx.entries[position].ID, OutcomeFound
		}

		return "", OutcomeUnknown
	}

	if idx.numericAliases {
		target, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return "", OutcomeUnknown
		}

		for _, entry := range idx.entries {
			if alias, ok := entry.Alias.Float(); ok && alias == target {
				return entry.ID, OutcomeFound
			}
		}

		return "", OutcomeUnknown
	}

	if position, found := idx.byAlias[value]; found {
		return idx.entries[position].ID, OutcomeFound
	}

	return "", OutcomeUnknown
}

// CheckAndConvert replaces container[key] with its domain value when it
// still holds a raw external code. It reports whether the value changed and
// is idempotent.
func (c *Codec) CheckAndConvert(container map[string]any, key string, table TableKey) bool {
	value, ok := container[key]
	if !ok || !looksLikeCode(value) {
		return false
	}

	translated, outcome := c.Translate(table, value)
	if outcome != OutcomeFound {
		c.logger.Debug().
			Str("table", string(table)).
			Str("key", key).
			Str("code", stringify(value)).
			Msg("reference code left untranslated")

		return false
	}

	container[key] = translated

	return true
}

// CheckAndConvertArray translates a whole set when at least one element is
// an external id of the table. Elements without a translation keep their
// string form.
func (c *Codec) CheckAndConvertArray(container map[string]any, key string, table TableKey) bool {
	value, ok := container[key]
	if !ok || isAbsent(value) {
		return false
	}

	elements, ok := toSlice(value)
	if !ok || len(elements) == 0 {
		return false
	}

	codes := make([]string, 0, len(elements))
	coded := false

	for _, element := range elements {
		if isAbsent(element) {
			continue
		}

		code := stringify(element)
		codes = append(codes, code)

		if c.catalog.HasID(table, code) {
			coded = true
		}
	}

	if !coded {
		return false
	}

	translated := make([]string, 0, len(codes))

	for _, code := range codes {
		if domain, outcome := c.Translate(table, code); outcome == OutcomeFound {
			translated = append(translated, domain)

			continue
		}

		translated = append(translated, code)
	}

	container[key] = translated

	return true
}

// looksLikeCode reports whether value has the shape of an external id:
// an integer, an integral float or a string of digits.
func looksLikeCode(value any) bool {
	switch v := deref(value).(type) {
	case nil:
		return false
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return isIntegral(float64(v))
	case float64:
		return isIntegral(v)
	case json.Number:
		_, err := v.Int64()

		return err == nil
	case string:
		return isDigits(v)
	default:
		return false
	}
}

func isIntegral(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
}

func isDigits(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

func stringify(value any) string {
	switch v := deref(value).(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func isAbsent(value any) bool {
	return deref(value) == nil
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

func toSlice(value any) ([]any, bool) {
	if values, ok := value.([]any); ok {
		return values, true
	}

	rv := reflect.ValueOf(deref(value))
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	result := make([]any, rv.Len())
	for i := range rv.Len() {
		result[i] = rv.Index(i).Interface()
	}

	return result, true
}
