package cache

import (
	"fmt"
	"slices"
	"strings"
)

// Record is a dataset element that can be matched by field name.
//
// Fields must not depend on the receiver's contents: Filter calls it on the
// zero value to validate criteria, including against an empty dataset.
type Record interface {
	// Fields lists the field names predicates may reference.
	Fields() []string
	// Field returns the string form of a named field.
	Field(name string) string
}

// Op is a predicate comparison.
type Op int

const (
	// OpEquals matches the exact value.
	OpEquals Op = iota
	// OpFold matches the value ignoring case.
	OpFold
	// OpContains matches when the field contains the value, ignoring case.
	OpContains
)

func (o Op) String() string {
	switch o {
	case OpEquals:
		return "eq"
	case OpFold:
		return "fold"
	case OpContains:
		return "contains"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Predicate compares one field of a record against a value.
type Predicate struct {
	Field string
	Op    Op
	Value string
}

// Eq matches records whose field equals value.
func Eq(field, value string) Predicate {
	return Predicate{Field: field, Op: OpEquals, Value: value}
}

// Fold matches records whose field equals value ignoring case.
func Fold(field, value string) Predicate {
	return Predicate{Field: field, Op: OpFold, Value: value}
}

// Contains matches records whose field contains value ignoring case.
func Contains(field, value string) Predicate {
	return Predicate{Field: field, Op: OpContains, Value: value}
}

func (p Predicate) match(r Record) bool {
	v := r.Field(p.Field)
	switch p.Op {
	case OpFold:
		return strings.EqualFold(v, p.Value)
	case OpContains:
		return strings.Contains(strings.ToLower(v), strings.ToLower(p.Value))
	default:
		return v == p.Value
	}
}

// Criteria is a conjunction of predicates. An empty Criteria matches every record.
type Criteria []Predicate

// Filter returns the records matching every predicate in c, in their
// original order. The input slice is never modified.
//
// Returns an error with CodeInvalidFilter if a predicate names a field the
// record type does not have, even when records is empty.
func Filter[T Record](records []T, c Criteria) ([]T, error) {
	var zero T
	known := zero.Fields()
	for _, p := range c {
		if !slices.Contains(known, p.Field) {
			return nil, newInvalidFilterError(p.Field, fmt.Sprintf("%T", zero))
		}
	}

	out := make([]T, 0, len(records))
	for _, r := range records {
		if c.matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c Criteria) matches(r Record) bool {
	for _, p := range c {
		if !p.match(r) {
			return false
		}
	}
	return true
}
