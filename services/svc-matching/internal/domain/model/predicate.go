package model

// Kind names a predicate node. Leaf kinds carry an attribute and an operand,
// composite kinds carry children.
type Kind string

const (
	KindEq            Kind = "eq"
	KindNotEq         Kind = "neq"
	KindIn            Kind = "in"
	KindLike          Kind = "like"
	KindLikeOrNull    Kind = "like_or_null"
	KindNullOrEq      Kind = "null_or_eq"
	KindNotNullAndEq  Kind = "not_null_and_eq"
	KindNotNull       Kind = "not_null"
	KindBetween       Kind = "between"
	KindLt            Kind = "lt"
	KindLte           Kind = "lte"
	KindGt            Kind = "gt"
	KindGte           Kind = "gte"
	KindLteOrNull     Kind = "lte_or_null"
	KindGteOrNull     Kind = "gte_or_null"
	KindArrayContains Kind = "array_contains"
	KindAnyOf         Kind = "any_of"

	KindAll Kind = "all"
	KindAny Kind = "any"
	KindNot Kind = "not"
)

func (k Kind) IsComposite() bool {
	return k == KindAll || k == KindAny || k == KindNot
}

// NullTolerant reports whether rows with a NULL attribute satisfy the term.
func (k Kind) NullTolerant() bool {
	switch k {
	case KindLikeOrNull, KindNullOrEq, KindLteOrNull, KindGteOrNull:
		return true
	default:
		return false
	}
}

type Predicate interface {
	Must(other Predicate) Predicate
	Should(other Predicate) Predicate
	MustNot() Predicate
	IsComposite() bool
	Children() []Predicate
	Operator() Kind
	Field() string
	Value() any
	Folded() bool
}

// Term is a single attribute-scoped comparison.
//
// Operand shapes per kind: scalars for comparisons, []any for in and
// array_contains, a %pattern% string for like kinds, []string patterns for
// any_of, Bounds for between and nil for not_null.
type Term struct {
	Kind      Kind
	Attribute string
	Operand   any
	Fold      bool
}

func NewTerm(kind Kind, attribute string, operand any) Term {
	return Term{Kind: kind, Attribute: attribute, Operand: operand}
}

func (t Term) Must(other Predicate) Predicate   { return All(t, other) }
func (t Term) Should(other Predicate) Predicate { return Any(t, other) }
func (t Term) MustNot() Predicate               { return Not(t) }
func (t Term) IsComposite() bool                { return false }
func (t Term) Children() []Predicate            { return nil }
func (t Term) Operator() Kind                   { return t.Kind }
func (t Term) Field() string                    { return t.Attribute }
func (t Term) Value() any                       { return t.Operand }
func (t Term) Folded() bool                     { return t.Fold }

type Composite struct {
	Op    Kind
	Nodes []Predicate
}

func All(predicates ...Predicate) Predicate {
	return &Composite{Op: KindAll, Nodes: predicates}
}

func Any(predicates ...Predicate) Predicate {
	return &Composite{Op: KindAny, Nodes: predicates}
}

func Not(predicate Predicate) Predicate {
	return &Composite{Op: KindNot, Nodes: []Predicate{predicate}}
}

func (c *Composite) Must(other Predicate) Predicate {
	if c.Op == KindAll {
		return All(append(append([]Predicate(nil), c.Nodes...), other)...)
	}

	return All(c, other)
}

func (c *Composite) Should(other Predicate) Predicate {
	if c.Op == KindAny {
		return Any(append(append([]Predicate(nil), c.Nodes...), other)...)
	}

	return Any(c, other)
}

func (c *Composite) MustNot() Predicate {
	if c.Op == KindNot && len(c.Nodes) == 1 {
		return c.Nodes[0]
	}

	return Not(c)
}

func (c *Composite) IsComposite() bool     { return true }
func (c *Composite) Children() []Predicate { return c.Nodes }
func (c *Composite) Operator() Kind        { return c.Op }
func (c *Composite) Field() string         { return "" }
func (c *Composite) Value() any            { return nil }
func (c *Composite) Folded() bool          { return false }

// Walk visits every node depth first and stops descending when fn returns false.
func Walk(p Predicate, fn func(Predicate) bool) {
	if p == nil || !fn(p) {
		return
	}

	for _, child := range p.Children() {
		Walk(child, fn)
	}
}
