package screening

import (
	"strings"
)

// Operator names a comparison between an answer and a rule value.
type Operator string

const (
	OpEquals             Operator = "equals"
	OpNotEquals          Operator = "not_equals"
	OpContains           Operator = "contains"
	OpNotContains        Operator = "not_contains"
	OpGreaterThan        Operator = "greater_than"
	OpLessThan           Operator = "less_than"
	OpGreaterThanOrEqual Operator = "greater_than_or_equal"
	OpLessThanOrEqual    Operator = "less_than_or_equal"
	OpIn                 Operator = "in"
	OpNotIn              Operator = "not_in"
	OpIsEmpty            Operator = "is_empty"
	OpIsNotEmpty         Operator = "is_not_empty"
)

type predicate func(answer, ruleValue Value) bool

var predicates = map[Operator]predicate{
	OpEquals:             equals,
	OpNotEquals:          notEquals,
	OpContains:           contains,
	OpNotContains:        notContains,
	OpGreaterThan:        compareWith(func(a, b float64) bool { return a > b }),
	OpLessThan:           compareWith(func(a, b float64) bool { return a < b }),
	OpGreaterThanOrEqual: compareWith(func(a, b float64) bool { return a >= b }),
	OpLessThanOrEqual:    compareWith(func(a, b float64) bool { return a <= b }),
	OpIn:                 in,
	OpNotIn:              notIn,
	OpIsEmpty:            func(answer, _ Value) bool { return answer.IsEmpty() },
	OpIsNotEmpty:         func(answer, _ Value) bool { return !answer.IsEmpty() },
}

// Known reports whether the engine can evaluate op.
func (op Operator) Known() bool {
	_, ok := predicates[op]
	return ok
}

func (op Operator) numeric() bool {
	switch op {
	case OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual:
		return true
	}
	return false
}

// evaluate never panics and never fails: a pair it cannot compare is a miss.
// Callers reject unknown operators before evaluation.
func (op Operator) evaluate(answer, ruleValue Value) bool {
	p, ok := predicates[op]
	if !ok {
		return false
	}
	return p(answer, ruleValue)
}

// scalarCompare compares two scalars. Numeric strings compare as numbers and
// "true"/"false" strings compare with booleans. defined is false when the pair
// has no common reading, e.g. a boolean against a number.
func scalarCompare(a, b Value) (equal, defined bool) {
	if a.kind == KindStringList || b.kind == KindStringList || a.IsNull() || b.IsNull() {
		return false, false
	}

	an, aNum := a.Number()
	bn, bNum := b.Number()
	if aNum && bNum {
		return an == bn, true
	}

	if a.kind == KindBool || b.kind == KindBool {
		ab, aok := boolOf(a)
		bb, bok := boolOf(b)
		if !aok || !bok {
			return false, false
		}
		return ab == bb, true
	}

	if a.kind == KindString && b.kind == KindString {
		return a.str == b.str, true
	}

	return false, false
}

func scalarEqual(a, b Value) bool {
	equal, defined := scalarCompare(a, b)
	return defined && equal
}

func boolOf(v Value) (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindString:
		switch strings.ToLower(strings.TrimSpace(v.str)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// equality returns the equals outcome and whether it is defined for the pair.
func equality(answer, ruleValue Value) (equal, defined bool) {
	if answer.IsNull() || ruleValue.IsNull() {
		return false, false
	}
	answerList := answer.kind == KindStringList
	ruleList := ruleValue.kind == KindStringList
	switch {
	case answerList && ruleList:
		return sameMembers(answer.list, ruleValue.list), true
	case answerList || ruleList:
		return false, false
	default:
		return scalarCompare(answer, ruleValue)
	}
}

func equals(answer, ruleValue Value) bool {
	equal, defined := equality(answer, ruleValue)
	return defined && equal
}

func notEquals(answer, ruleValue Value) bool {
	equal, defined := equality(answer, ruleValue)
	return defined && !equal
}

// sameMembers treats both lists as sets.
func sameMembers(a, b []string) bool {
	for _, item := range a {
		if !member(String(item), b) {
			return false
		}
	}
	for _, item := range b {
		if !member(String(item), a) {
			return false
		}
	}
	return true
}

func member(v Value, list []string) bool {
	for _, item := range list {
		if scalarEqual(v, String(item)) {
			return true
		}
	}
	return false
}

func memberFold(v Value, list []string) bool {
	for _, item := range list {
		if scalarEqual(v, String(item)) || strings.EqualFold(v.text(), item) {
			return true
		}
	}
	return false
}

// containable reports whether contains/not_contains have a defined outcome.
func containable(answer, ruleValue Value) bool {
	switch ruleValue.kind {
	case KindString, KindNumber:
	default:
		return false
	}
	switch answer.kind {
	case KindString, KindStringList:
		return true
	}
	return false
}

// contains ignores case for both answer shapes: a substring test on text, a
// membership test on lists.
func contains(answer, ruleValue Value) bool {
	if !containable(answer, ruleValue) {
		return false
	}
	if answer.kind == KindStringList {
		return memberFold(ruleValue, answer.list)
	}
	return strings.Contains(strings.ToLower(answer.str), strings.ToLower(ruleValue.text()))
}

func notContains(answer, ruleValue Value) bool {
	if !containable(answer, ruleValue) {
		return false
	}
	return !contains(answer, ruleValue)
}

func compareWith(cmp func(a, b float64) bool) predicate {
	return func(answer, ruleValue Value) bool {
		a, ok := answer.Number()
		if !ok {
			return false
		}
		b, ok := ruleValue.Number()
		if !ok {
			return false
		}
		return cmp(a, b)
	}
}

// inList reports membership of the answer in the rule list. For a list answer
// every selected item must be a member. The second result is false when the
// pair cannot be compared.
func inList(answer, ruleValue Value) (bool, bool) {
	if ruleValue.kind != KindStringList || answer.IsEmpty() {
		return false, false
	}
	switch answer.kind {
	case KindString, KindNumber, KindBool:
		return member(answer, ruleValue.list), true
	case KindStringList:
		for _, item := range answer.list {
			if !member(String(item), ruleValue.list) {
				return false, true
			}
		}
		return true, true
	}
	return false, false
}

func in(answer, ruleValue Value) bool {
	ok, defined := inList(answer, ruleValue)
	return defined && ok
}

// notIn holds when no part of the answer is listed.
func notIn(answer, ruleValue Value) bool {
	if ruleValue.kind != KindStringList || answer.IsEmpty() {
		return false
	}
	switch answer.kind {
	case KindString, KindNumber, KindBool:
		return !member(answer, ruleValue.list)
	case KindStringList:
		for _, item := range answer.list {
			if member(String(item), ruleValue.list) {
				return false
			}
		}
		return true
	}
	return false
}
