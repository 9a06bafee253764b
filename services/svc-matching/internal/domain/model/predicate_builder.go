package model

import (
	"fmt"
	"maps"
	"strings"

	"github.com/architeacher/logistics/pkg/logger"
	"github.com/google/uuid"
)

type (
	Conjunction string

	// Method names the builder method FromFilter applies to scalar entries.
	Method string

	BuilderOption func(*Builder)

	// Builder accumulates one term per attribute and combines them under a
	// single conjunction. The first term recorded for a key wins.
	Builder struct {
		conjunction Conjunction
		keys        []string
		terms       map[string]Term
		attributes  map[string]struct{}
		bounds      Bounds
		logger      logger.Logger
		debug       bool
	}
)

const (
	ConjunctionNone Conjunction = ""
	ConjunctionAnd  Conjunction = "and"
	ConjunctionOr   Conjunction = "or"

	MethodEq          Method = "eq"
	MethodNotEq       Method = "neq"
	MethodLike        Method = "like"
	MethodILike       Method = "ilike"
	MethodLikeOrNull  Method = "like_or_null"
	MethodILikeOrNull Method = "ilike_or_null"
	MethodNullOrEq    Method = "null_or_eq"
	MethodLte         Method = "lte"
	MethodGte         Method = "gte"
	MethodLteOrNull   Method = "lte_or_null"
	MethodGteOrNull   Method = "gte_or_null"
)

var scalarMethods = map[Method]func(*Builder, string, any) *Builder{
	MethodEq:          (*Builder).Eq,
	MethodNotEq:       (*Builder).NotEq,
	MethodLike:        (*Builder).Like,
	MethodILike:       (*Builder).ILike,
	MethodLikeOrNull:  (*Builder).LikeOrNull,
	MethodILikeOrNull: (*Builder).ILikeOrNull,
	MethodNullOrEq:    (*Builder).NullOrEq,
	MethodLte:         (*Builder).Lte,
	MethodGte:         (*Builder).Gte,
	MethodLteOrNull:   (*Builder).LteOrNull,
	MethodGteOrNull:   (*Builder).GteOrNull,
}

func WithLogger(log logger.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = log.Component("predicate-builder")
	}
}

// WithDebug logs every recorded term at debug level.
func WithDebug(log logger.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = log.Component("predicate-builder")
		b.debug = true
	}
}

// WithAttributes restricts the builder to the declared attributes of the
// target entity.
func WithAttributes(names ...string) BuilderOption {
	return func(b *Builder) {
		b.attributes = make(map[string]struct{}, len(names))

		for _, name := range names {
			b.attributes[name] = struct{}{}
		}
	}
}

func WithBounds(bounds Bounds) BuilderOption {
	return func(b *Builder) {
		b.bounds = bounds
	}
}

func NewBuilder(conjunction Conjunction, opts ...BuilderOption) *Builder {
	b := &Builder{
		conjunction: conjunction,
		terms:       make(map[string]Term),
		bounds:      DefaultBounds,
		logger:      logger.Default().Component("predicate-builder"),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

func (b *Builder) Conjunction() Conjunction {
	return b.conjunction
}

func (b *Builder) Eq(key string, value any) *Builder {
	return b.scalar(key, value, KindEq)
}

func (b *Builder) NotEq(key string, value any) *Builder {
	return b.scalar(key, value, KindNotEq)
}

func (b *Builder) NullOrEq(key string, value any) *Builder {
	return b.scalar(key, value, KindNullOrEq)
}

func (b *Builder) NotNullAndEq(key string, value any) *Builder {
	return b.scalar(key, value, KindNotNullAndEq)
}

func (b *Builder) Lt(key string, value any) *Builder {
	return b.scalar(key, value, KindLt)
}

func (b *Builder) Lte(key string, value any) *Builder {
	return b.scalar(key, value, KindLte)
}

func (b *Builder) Gt(key string, value any) *Builder {
	return b.scalar(key, value, KindGt)
}

func (b *Builder) Gte(key string, value any) *Builder {
	return b.scalar(key, value, KindGte)
}

func (b *Builder) LteOrNull(key string, value any) *Builder {
	return b.scalar(key, value, KindLteOrNull)
}

func (b *Builder) GteOrNull(key string, value any) *Builder {
	return b.scalar(key, value, KindGteOrNull)
}

func (b *Builder) Like(key string, value any) *Builder {
	return b.pattern(key, value, KindLike, false)
}

func (b *Builder) ILike(key string, value any) *Builder {
	return b.pattern(key, value, KindLikeOrNull, true)
}

func (b *Builder) LikeOrNull(key string, value any) *Builder {
	return b.pattern(key, value, KindLikeOrNull, false)
}

func (b *Builder) ILikeOrNull(key string, value any) *Builder {
	return b.pattern(key, value, KindLikeOrNull, true)
}

// NotNull requires the attribute to be set, but only when condition holds.
func (b *Builder) NotNull(key string, condition bool) *Builder {
	if !condition {
		return b
	}

	return b.add(key, func() (Term, error) {
		return Term{Kind: KindNotNull}, nil
	})
}

// Between records a closed range. A missing side falls back to the
// builder bounds; both missing is a no-op.
func (b *Builder) Between(key string, minimum, maximum *float64) *Builder {
	r := Range{Min: minimum, Max: maximum}
	if r.IsEmpty() {
		return b
	}

	return b.add(key, func() (Term, error) {
		return Term{Kind: KindBetween, Operand: b.bounds.Resolve(r)}, nil
	})
}

func (b *Builder) In(key string, values []any) *Builder {
	return b.set(key, values, func(present []any) (Term, error) {
		return Term{Kind: KindIn, Operand: present}, nil
	})
}

func (b *Builder) ArrayContains(key string, values []any) *Builder {
	return b.set(key, values, func(present []any) (Term, error) {
		return Term{Kind: KindArrayContains, Operand: present}, nil
	})
}

func (b *Builder) AnyOf(key string, values []any) *Builder {
	return b.set(key, values, func(present []any) (Term, error) {
		return anyOfTerm(present, false)
	})
}

// InArray matches identifier sets exactly and text sets by pattern. The set
// is treated as identifiers only when every element is a UUID.
func (b *Builder) InArray(key string, values []any, ignoreCase bool) *Builder {
	return b.set(key, values, func(present []any) (Term, error) {
		ids := make([]any, 0, len(present))

		for _, value := range present {
			id, err := uuid.Parse(fmt.Sprint(value))
			if err != nil {
				return anyOfTerm(present, ignoreCase)
			}

			ids = append(ids, id.String())
		}

		return Term{Kind: KindIn, Operand: ids}, nil
	})
}

// FromFilter records a term per entry of spec in sorted key order. Sets go
// through InArray, ranges through Between and scalars through method. A
// spec without present, non-reserved keys clears the conjunction.
func (b *Builder) FromFilter(spec FilterSpec, method Method) *Builder {
	if len(spec.Keys()) == 0 {
		b.conjunction = ConjunctionNone

		return b
	}

	if method == "" {
		method = MethodEq
	}

	apply, known := scalarMethods[method]
	fold := method == MethodILike || method == MethodILikeOrNull

	for _, key := range spec.Keys() {
		value := deref(spec[key])

		switch v := value.(type) {
		case Range:
			b.Between(key, v.Min, v.Max)

			continue
		case Bounds:
			b.Between(key, Float(v.Min), Float(v.Max))

			continue
		}

		if values, ok := toAnySlice(value); ok {
			b.InArray(key, values, fold)

			continue
		}

		if !known {
			b.add(key, func() (Term, error) {
				return Term{}, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
			})

			continue
		}

		apply(b, key, value)
	}

	return b
}

// Query combines the recorded terms. A builder without conjunction and
// without terms yields nil, meaning no filtering.
func (b *Builder) Query() Predicate {
	nodes := make([]Predicate, 0, len(b.keys))
	for _, key := range b.keys {
		nodes = append(nodes, b.terms[key])
	}

	switch b.conjunction {
	case ConjunctionOr:
		return Any(nodes...)
	case ConjunctionAnd:
		return All(nodes...)
	default:
		if len(nodes) == 0 {
			return nil
		}

		return All(nodes...)
	}
}

func (b *Builder) Terms() map[string]Term {
	return maps.Clone(b.terms)
}

// Keys returns the attributes in the order their terms were recorded.
func (b *Builder) Keys() []string {
	return append([]string(nil), b.keys...)
}

func (b *Builder) IsPassThrough() bool {
	return b.conjunction == ConjunctionNone && len(b.keys) == 0
}

func (b *Builder) scalar(key string, value any, kind Kind) *Builder {
	if isAbsent(value) {
		return b
	}

	return b.add(key, func() (Term, error) {
		return Term{Kind: kind, Operand: deref(value)}, nil
	})
}

func (b *Builder) pattern(key string, value any, kind Kind, fold bool) *Builder {
	if isAbsent(value) {
		return b
	}

	return b.add(key, func() (Term, error) {
		text, err := scalarText(value)
		if err != nil {
			return Term{}, err
		}

		return Term{Kind: kind, Operand: Pattern(text), Fold: fold}, nil
	})
}

func (b *Builder) set(key string, values []any, build func([]any) (Term, error)) *Builder {
	present := compact(values)
	if len(present) == 0 {
		return b
	}

	return b.add(key, func() (Term, error) {
		return build(present)
	})
}

func (b *Builder) add(key string, build func() (Term, error)) *Builder {
	if _, exists := b.terms[key]; exists {
		return b
	}

	if b.attributes != nil {
		if _, declared := b.attributes[key]; !declared {
			b.logger.Warn().Err(ErrUnknownAttribute).Str("attribute", key).Msg("skipping filter term")

			return b
		}
	}

	term, err := build()
	if err != nil {
		b.logger.Warn().Err(err).Str("attribute", key).Msg("skipping filter term")

		return b
	}

	term.Attribute = key

	b.keys = append(b.keys, key)
	b.terms[key] = term

	if b.debug {
		b.logger.Debug().
			Str("attribute", key).
			Str("kind", string(term.Kind)).
			Interface("operand", term.Operand).
			Bool("fold", term.Fold).
			Msg("term recorded")
	}

	return b
}

// Pattern wraps text in % wildcards after escaping LIKE metacharacters.
func Pattern(text string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(text)

	return "%" + escaped + "%"
}

func anyOfTerm(values []any, fold bool) (Term, error) {
	patterns := make([]string, 0, len(values))

	for _, value := range values {
		text, err := scalarText(value)
		if err != nil {
			return Term{}, err
		}

		patterns = append(patterns, Pattern(text))
	}

	return Term{Kind: KindAnyOf, Operand: patterns, Fold: fold}, nil
}

func scalarText(value any) (string, error) {
	switch v := deref(value).(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrNonScalarOperand, value)
	}
}
