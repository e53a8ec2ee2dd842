package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationRule is a closed sum over the rule variants declared in this
// file. The unexported marker keeps other packages from adding variants, so
// validators can switch over the set exhaustively.
type ValidationRule interface {
	Describe() string
	rule()
}

// Lookup is the read-only view of a form tree handed to Custom predicates.
type Lookup interface {
	Get(path string) (any, bool)
	// Match returns every concrete leaf whose pattern equals pattern, in tree
	// order.
	Match(pattern string) []PathValue
}

// PathValue pairs a concrete path with its current value.
type PathValue struct {
	Path  string
	Value any
}

// Predicate checks value at path. Returning a non-nil error fails the field
// with err.Error() as the message.
type Predicate func(path string, value any, tree Lookup) error

// NonEmpty fails blank values.
type NonEmpty struct{}

// NumericRange accepts numbers within [Min, Max].
type NumericRange struct {
	Min float64
	Max float64
}

// OneOf accepts values from a fixed set.
type OneOf struct {
	Values []string
}

// Custom wraps a named predicate. Like every rule it is skipped for blank
// optional values unless EvaluateBlank is set, which cross-field rules such
// as "one of these two is required" need.
type Custom struct {
	Name          string
	Predicate     Predicate
	EvaluateBlank bool
}

// All applies each rule in order and stops at the first failure.
type All struct {
	Rules []ValidationRule
}

func (NonEmpty) rule()     {}
func (NumericRange) rule() {}
func (OneOf) rule()        {}
func (Custom) rule()       {}
func (All) rule()          {}

func (NonEmpty) Describe() string { return "nonEmpty" }

func (r NumericRange) Describe() string {
	return fmt.Sprintf("range(%s..%s)", formatFloat(r.Min), formatFloat(r.Max))
}

func (r OneOf) Describe() string {
	return "oneOf(" + strings.Join(r.Values, "|") + ")"
}

func (r Custom) Describe() string {
	if r.Name == "" {
		return "custom"
	}
	return r.Name
}

func (r All) Describe() string {
	names := make([]string, 0, len(r.Rules))
	for _, nested := range r.Rules {
		if nested == nil {
			continue
		}
		names = append(names, nested.Describe())
	}
	return strings.Join(names, "+")
}

// EvaluatesBlank reports whether rule, or any rule nested in it, wants to
// see blank values.
func EvaluatesBlank(rule ValidationRule) bool {
	switch r := rule.(type) {
	case Custom:
		return r.EvaluateBlank
	case All:
		for _, nested := range r.Rules {
			if EvaluatesBlank(nested) {
				return true
			}
		}
	}
	return false
}

// Rules combines rules into an All, flattening nils and single elements.
func Rules(rules ...ValidationRule) ValidationRule {
	out := make([]ValidationRule, 0, len(rules))
	for _, r := range rules {
		if r != nil {
			out = append(out, r)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return All{Rules: out}
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
