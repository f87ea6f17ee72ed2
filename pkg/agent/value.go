package agent

import (
	"strconv"
	"strings"
)

// Kind tags a Value with its scalar type.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindNull
)

// String returns the kind name for error messages.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	default:
		return "string"
	}
}

// Value is a tagged scalar argument: exactly one of int, float, bool,
// null, or string. Tools pattern-match on Kind when binding parameters
// instead of relying on dynamic typing.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
}

func IntValue(i int64) Value      { return Value{kind: KindInt, i: i} }
func FloatValue(f float64) Value  { return Value{kind: KindFloat, f: f} }
func BoolValue(b bool) Value      { return Value{kind: KindBool, b: b} }
func NullValue() Value            { return Value{kind: KindNull} }
func StringValue(s string) Value  { return Value{kind: KindString, s: s} }

// Kind returns the scalar type tag.
func (v Value) Kind() Kind { return v.kind }

// Int returns the integer payload; ok is false for other kinds.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

// Float returns the float payload; ok is false for other kinds.
func (v Value) Float() (float64, bool) { return v.f, v.kind == KindFloat }

// Bool returns the boolean payload; ok is false for other kinds.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Text returns the string payload; ok is false for other kinds.
func (v Value) Text() (string, bool) { return v.s, v.kind == KindString }

// IsNull reports whether the value is the null sentinel.
func (v Value) IsNull() bool { return v.kind == KindNull }

// String renders the value for observations and logs.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNull:
		return "null"
	default:
		return v.s
	}
}

// CoerceScalar converts one argument token through the fixed-order literal
// grammar: integer, then decimal, then boolean, then the null sentinel,
// then quote-stripped string, then the literal token text.
func CoerceScalar(token string) Value {
	if isAllDigits(token) {
		if n, err := strconv.ParseInt(token, 10, 64); err == nil {
			return IntValue(n)
		}
		// Digit run too long for int64, keep it numeric.
		if f, err := strconv.ParseFloat(token, 64); err == nil {
			return FloatValue(f)
		}
	}
	if isDecimal(token) {
		if f, err := strconv.ParseFloat(token, 64); err == nil {
			return FloatValue(f)
		}
	}
	switch strings.ToLower(token) {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	case "none", "null":
		return NullValue()
	}
	if len(token) >= 2 {
		first, last := token[0], token[len(token)-1]
		if first == last && (first == '\'' || first == '"') {
			return StringValue(token[1 : len(token)-1])
		}
	}
	return StringValue(token)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isDecimal accepts a digit run containing exactly one dot, including
// leading- and trailing-dot forms (".5", "5.").
func isDecimal(s string) bool {
	if strings.Count(s, ".") != 1 {
		return false
	}
	return isAllDigits(strings.Replace(s, ".", "", 1))
}
