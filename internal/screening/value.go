package screening

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind discriminates the shape held by a Value.
type Kind int

const (
	// KindNull is the zero Kind and stands for a missing answer or rule value.
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindStringList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindStringList:
		return "string_list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is an answer or a rule operand: a string, a number, a boolean or a
// list of strings. The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []string
}

func Null() Value { return Value{} }

func String(s string) Value { return Value{kind: KindString, str: s} }

func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// StringList copies items so the Value never aliases caller memory.
func StringList(items ...string) Value {
	list := make([]string, len(items))
	copy(list, items)
	return Value{kind: KindStringList, list: list}
}

// ValueOf converts a loosely typed value, as produced by encoding/json or a
// config decoder, into a Value. List elements that are numbers or booleans are
// kept in their canonical string form.
func ValueOf(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return Value{}, fmt.Errorf("number %v is not finite", val)
		}
		return Number(val), nil
	case float32:
		return ValueOf(float64(val))
	case int:
		return Number(float64(val)), nil
	case int32:
		return Number(float64(val)), nil
	case int64:
		return Number(float64(val)), nil
	case uint:
		return Number(float64(val)), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("parse number %q: %w", val.String(), err)
		}
		return Number(f), nil
	case []string:
		return StringList(val...), nil
	case []any:
		items := make([]string, 0, len(val))
		for i, item := range val {
			elem, err := ValueOf(item)
			if err != nil {
				return Value{}, fmt.Errorf("list item %d: %w", i, err)
			}
			switch elem.kind {
			case KindString, KindNumber, KindBool:
				items = append(items, elem.text())
			default:
				return Value{}, fmt.Errorf("list item %d: unsupported %s element", i, elem.kind)
			}
		}
		return Value{kind: KindStringList, list: items}, nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", v)
	}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Strings returns a copy of the list items, or nil for non-list values.
func (v Value) Strings() []string {
	if v.kind != KindStringList {
		return nil
	}
	out := make([]string, len(v.list))
	copy(out, v.list)
	return out
}

// IsEmpty reports whether the value counts as "no answer": null, a blank
// string or an empty list. false and 0 are answers.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return strings.TrimSpace(v.str) == ""
	case KindStringList:
		return len(v.list) == 0
	default:
		return false
	}
}

// Number returns the numeric reading of the value. Numeric strings are
// parsed; booleans, lists and null are not numbers.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		return parseNumber(v.str)
	default:
		return 0, false
	}
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// text is the canonical string form of a scalar.
func (v Value) text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindStringList:
		return strings.Join(v.list, ", ")
	default:
		return ""
	}
}

func (v Value) String() string {
	if v.kind == KindStringList {
		return "[" + v.text() + "]"
	}
	return v.text()
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindStringList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
