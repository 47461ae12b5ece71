// Package interest implements the Constraint predicate language and the
// ObjectInterest conjunction that hooks use to declare which events they
// want to see (spec §4.1).
package interest

import (
	"path"
	"strconv"

	"wireplumber/props"
)

// Subject names what a Constraint's key is looked up against.
type Subject int

const (
	// SubjectProperty looks the key up in the target's Properties.
	SubjectProperty Subject = iota
	// SubjectGlobal looks the key up in a separate "global" properties
	// bag supplied alongside the target, e.g. daemon-wide settings.
	SubjectGlobal
)

// Operator is the comparison a Constraint performs.
type Operator int

const (
	Equals Operator = iota
	NotEquals
	InList
	MatchesGlob
	Present
	Absent
	Less
	LessOrEqual
	Greater
	GreaterOrEqual
)

// Constraint is a predicate over a Properties bag: does the value at
// Key, interpreted under Subject, satisfy Op against Operand (or
// Operands, for InList)?
//
// Evaluating the same Constraint against the same Properties bag twice
// always yields the same result.
type Constraint struct {
	Subject  Subject
	Key      string
	Op       Operator
	Operand  string
	Operands []string // used only by InList
}

// Evaluate runs the constraint against props (the target's own bag) and
// global (the daemon-wide bag, consulted when Subject is SubjectGlobal;
// may be nil if the caller has no global bag).
//
// A constraint whose key is missing is false for every operator except
// Absent, which is true.
func (c *Constraint) Evaluate(p, global *props.Properties) bool {
	bag := p
	if c.Subject == SubjectGlobal {
		bag = global
	}

	var (
		value string
		have  bool
	)
	if bag != nil {
		value, have = bag.Get(c.Key)
	}

	if c.Op == Absent {
		return !have
	}
	if !have {
		return false
	}

	switch c.Op {
	case Present:
		return true
	case Equals:
		return value == c.Operand
	case NotEquals:
		return value != c.Operand
	case InList:
		for _, o := range c.Operands {
			if value == o {
				return true
			}
		}
		return false
	case MatchesGlob:
		ok, err := path.Match(c.Operand, value)
		return err == nil && ok
	case Less, LessOrEqual, Greater, GreaterOrEqual:
		return compareRange(c.Op, value, c.Operand)
	default:
		return false
	}
}

// compareRange implements the range operators: numeric comparison when
// both sides parse as numbers, lexicographic comparison otherwise.
func compareRange(op Operator, a, b string) bool {
	af, aerr := strconv.ParseFloat(a, 64)
	bf, berr := strconv.ParseFloat(b, 64)

	var cmp int
	if aerr == nil && berr == nil {
		switch {
		case af < bf:
			cmp = -1
		case af > bf:
			cmp = 1
		default:
			cmp = 0
		}
	} else {
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		default:
			cmp = 0
		}
	}

	switch op {
	case Less:
		return cmp < 0
	case LessOrEqual:
		return cmp <= 0
	case Greater:
		return cmp > 0
	case GreaterOrEqual:
		return cmp >= 0
	default:
		return false
	}
}

// ObjectInterest is a tagged conjunction: a target-type tag plus an
// ordered sequence of Constraints. It matches a target iff the target's
// runtime type tag satisfies TypeTag and every constraint holds.
//
// An ObjectInterest is immutable after Build.
type ObjectInterest struct {
	typeTag     string
	constraints []*Constraint
}

// TypeTag returns the target-type tag this interest requires.
func (oi *ObjectInterest) TypeTag() string {
	return oi.typeTag
}

// Matches reports whether typeTag equals this interest's required type
// tag and every constraint holds against p (and global, for
// SubjectGlobal constraints). Evaluation short-circuits in insertion
// order.
func (oi *ObjectInterest) Matches(typeTag string, p, global *props.Properties) bool {
	if typeTag != oi.typeTag {
		return false
	}
	for _, c := range oi.constraints {
		if !c.Evaluate(p, global) {
			return false
		}
	}
	return true
}

// Builder incrementally assembles an ObjectInterest.
type Builder struct {
	typeTag     string
	constraints []*Constraint
}

// NewBuilder starts a Builder for interests matching targets tagged
// targetTypeTag.
func NewBuilder(targetTypeTag string) *Builder {
	return &Builder{typeTag: targetTypeTag}
}

// AddConstraint appends a constraint over SubjectProperty with a single
// operand (Equals, NotEquals, MatchesGlob, the range operators) or no
// operand (Present, Absent). Use AddListConstraint for InList and
// AddGlobalConstraint for SubjectGlobal.
func (b *Builder) AddConstraint(key string, op Operator, operand string) *Builder {
	b.constraints = append(b.constraints, &Constraint{Subject: SubjectProperty, Key: key, Op: op, Operand: operand})
	return b
}

// AddListConstraint appends an InList constraint over SubjectProperty.
func (b *Builder) AddListConstraint(key string, operands []string) *Builder {
	b.constraints = append(b.constraints, &Constraint{Subject: SubjectProperty, Key: key, Op: InList, Operands: operands})
	return b
}

// AddGlobalConstraint appends a constraint evaluated against the global
// properties bag rather than the target's own.
func (b *Builder) AddGlobalConstraint(key string, op Operator, operand string) *Builder {
	b.constraints = append(b.constraints, &Constraint{Subject: SubjectGlobal, Key: key, Op: op, Operand: operand})
	return b
}

// Build finalizes the ObjectInterest. The Builder may be reused
// afterward; the constraints already added remain in the built value,
// since Build copies them.
func (b *Builder) Build() *ObjectInterest {
	cs := make([]*Constraint, len(b.constraints))
	copy(cs, b.constraints)
	return &ObjectInterest{typeTag: b.typeTag, constraints: cs}
}
