// value.go — the tagged-variant runtime value model.
//
// A Value is a small copyable struct: the tag selects which payload field is
// meaningful. Object values (including functions) hold a *Object handle;
// object identity is pointer identity. All ES abstract operations that the
// interpreter needs live here: ToBoolean / ToNumber / ToString / ToInt32 /
// ToUint32, abstract and strict equality, and the string/number formatting
// rules ("shortest round-trip" numbers, 1e21 / 1e-6 exponent thresholds).
//
// Strings are stored as Go UTF-8 strings but expose UTF-16 semantics
// (length, charAt, slice) through the u16* helpers at the bottom; the ASCII
// fast path keeps the common case O(1).
package jssandbox

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
)

// ValueTag enumerates the runtime kinds a Value may hold.
type ValueTag uint8

const (
	TagUndefined ValueTag = iota
	TagNull
	TagBool
	TagNumber
	TagString
	TagObject // includes functions (Object with ClassFunction)
)

func (t ValueTag) String() string {
	switch t {
	case TagUndefined:
		return "UNDEFINED"
	case TagNull:
		return "NULL"
	case TagBool:
		return "BOOLEAN"
	case TagNumber:
		return "NUMBER"
	case TagString:
		return "STRING"
	default:
		return "OBJECT"
	}
}

// Value is the universal runtime carrier. The zero Value is `undefined`.
type Value struct {
	Tag ValueTag
	B   bool
	Num float64
	Str string
	Obj *Object
}

// Constructors.

var (
	Undefined = Value{Tag: TagUndefined}
	Null      = Value{Tag: TagNull}
	True      = Value{Tag: TagBool, B: true}
	False     = Value{Tag: TagBool, B: false}
)

func BoolVal(b bool) Value {
	if b {
		return True
	}
	return False
}

func NumberVal(f float64) Value { return Value{Tag: TagNumber, Num: f} }

func IntVal(n int64) Value { return Value{Tag: TagNumber, Num: float64(n)} }

func StringVal(s string) Value { return Value{Tag: TagString, Str: s} }

func ObjVal(o *Object) Value { return Value{Tag: TagObject, Obj: o} }

// Predicates.

func (v Value) IsUndefined() bool { return v.Tag == TagUndefined }
func (v Value) IsNull() bool      { return v.Tag == TagNull }
func (v Value) IsNullish() bool   { return v.Tag == TagUndefined || v.Tag == TagNull }
func (v Value) IsNumber() bool    { return v.Tag == TagNumber }
func (v Value) IsString() bool    { return v.Tag == TagString }
func (v Value) IsObject() bool    { return v.Tag == TagObject }

func (v Value) IsFunction() bool {
	return v.Tag == TagObject && v.Obj.Class == ClassFunction
}

// TypeOf implements the `typeof` operator.
func (v Value) TypeOf() string {
	switch v.Tag {
	case TagUndefined:
		return "undefined"
	case TagNull:
		return "object"
	case TagBool:
		return "boolean"
	case TagNumber:
		return "number"
	case TagString:
		return "string"
	default:
		if v.Obj.Class == ClassFunction {
			return "function"
		}
		return "object"
	}
}

////////////////////////////////////////////////////////////////////////////////
//                                 COERCIONS
////////////////////////////////////////////////////////////////////////////////

// ToBoolean implements ES ToBoolean.
func (v Value) ToBoolean() bool {
	switch v.Tag {
	case TagUndefined, TagNull:
		return false
	case TagBool:
		return v.B
	case TagNumber:
		return v.Num != 0 && !math.IsNaN(v.Num)
	case TagString:
		return v.Str != ""
	default:
		return true
	}
}

// ToNumber implements ES ToNumber. Objects coerce through their primitive
// form (number hint).
func (v Value) ToNumber() float64 {
	switch v.Tag {
	case TagUndefined:
		return math.NaN()
	case TagNull:
		return 0
	case TagBool:
		if v.B {
			return 1
		}
		return 0
	case TagNumber:
		return v.Num
	case TagString:
		return stringToNumber(v.Str)
	default:
		return v.Obj.toPrimitive(hintNumber).ToNumber()
	}
}

// ToString implements ES ToString. The caller is responsible for charging
// the resulting bytes against the memory budget when the string becomes a
// script value.
func (v Value) ToString() string {
	switch v.Tag {
	case TagUndefined:
		return "undefined"
	case TagNull:
		return "null"
	case TagBool:
		if v.B {
			return "true"
		}
		return "false"
	case TagNumber:
		return numberToString(v.Num)
	case TagString:
		return v.Str
	default:
		return v.Obj.toPrimitive(hintString).ToString()
	}
}

// ToInt32 implements ES ToInt32 (modulo 2^32, signed).
func (v Value) ToInt32() int32 {
	f := v.ToNumber()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(uint32(int64(math.Trunc(f))))
}

// ToUint32 implements ES ToUint32.
func (v Value) ToUint32() uint32 {
	f := v.ToNumber()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return uint32(int64(math.Trunc(f)))
}

// toPropertyKey converts an arbitrary index value into a property key.
func toPropertyKey(v Value) string {
	return v.ToString()
}

////////////////////////////////////////////////////////////////////////////////
//                                  EQUALITY
////////////////////////////////////////////////////////////////////////////////

// StrictEquals implements `===`.
func StrictEquals(a, b Value) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case TagUndefined, TagNull:
		return true
	case TagBool:
		return a.B == b.B
	case TagNumber:
		return a.Num == b.Num // NaN != NaN, -0 == 0
	case TagString:
		return a.Str == b.Str
	default:
		return a.Obj == b.Obj
	}
}

// SameValueZero is StrictEquals except NaN equals NaN (Array.includes).
func SameValueZero(a, b Value) bool {
	if a.Tag == TagNumber && b.Tag == TagNumber &&
		math.IsNaN(a.Num) && math.IsNaN(b.Num) {
		return true
	}
	return StrictEquals(a, b)
}

// LooseEquals implements abstract `==`.
func LooseEquals(a, b Value) bool {
	if a.Tag == b.Tag {
		return StrictEquals(a, b)
	}
	switch {
	case a.IsNullish() && b.IsNullish():
		return true
	case a.Tag == TagNumber && b.Tag == TagString:
		return a.Num == stringToNumber(b.Str)
	case a.Tag == TagString && b.Tag == TagNumber:
		return stringToNumber(a.Str) == b.Num
	case a.Tag == TagBool:
		return LooseEquals(NumberVal(a.ToNumber()), b)
	case b.Tag == TagBool:
		return LooseEquals(a, NumberVal(b.ToNumber()))
	case a.Tag == TagObject && (b.Tag == TagNumber || b.Tag == TagString):
		return LooseEquals(a.Obj.toPrimitive(hintDefault), b)
	case b.Tag == TagObject && (a.Tag == TagNumber || a.Tag == TagString):
		return LooseEquals(a, b.Obj.toPrimitive(hintDefault))
	}
	return false
}

////////////////////////////////////////////////////////////////////////////////
//                            NUMBER <-> STRING RULES
////////////////////////////////////////////////////////////////////////////////

// numberToString renders a float64 per ES Number::toString rules.
func numberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0" // covers -0
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		return fixExponent(strconv.FormatFloat(f, 'e', -1, 64))
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// fixExponent rewrites Go's "1.5e-08" into the ES "1.5e-8" form.
func fixExponent(s string) string {
	i := strings.IndexByte(s, 'e')
	if i < 0 {
		return s
	}
	mant, exp := s[:i], s[i+1:]
	sign := "+"
	if exp != "" && (exp[0] == '+' || exp[0] == '-') {
		if exp[0] == '-' {
			sign = "-"
		}
		exp = exp[1:]
	}
	exp = strings.TrimLeft(exp, "0")
	if exp == "" {
		exp = "0"
	}
	return mant + "e" + sign + exp
}

// stringToNumber implements ES ToNumber on strings. Go's ParseFloat is more
// permissive (hex floats, "inf", "nan"), so the literal shape is validated
// first.
func stringToNumber(s string) float64 {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0
	}
	neg := false
	body := t
	if body[0] == '+' || body[0] == '-' {
		neg = body[0] == '-'
		body = body[1:]
	}
	if body == "Infinity" {
		if neg {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	if len(body) > 2 && body[0] == '0' {
		base := 0
		switch body[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			if neg || t[0] == '+' {
				return math.NaN() // signed radix literals are not valid
			}
			n, err := strconv.ParseUint(body[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	if !isDecimalLiteral(body) {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// isDecimalLiteral accepts the ES StrDecimalLiteral shape (digits, one dot,
// one exponent with optional sign).
func isDecimalLiteral(s string) bool {
	sawDigit, sawDot, sawExp := false, false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			sawDigit = true
		case c == '.':
			if sawDot || sawExp {
				return false
			}
			sawDot = true
		case c == 'e' || c == 'E':
			if sawExp || !sawDigit {
				return false
			}
			sawExp = true
			if i+1 < len(s) && (s[i+1] == '+' || s[i+1] == '-') {
				i++
			}
			if i+1 >= len(s) {
				return false
			}
		default:
			return false
		}
	}
	return sawDigit
}

////////////////////////////////////////////////////////////////////////////////
//                          UTF-16 STRING SEMANTICS
////////////////////////////////////////////////////////////////////////////////

// u16Len returns the length of s in UTF-16 code units.
func u16Len(s string) int {
	if isASCII(s) {
		return len(s)
	}
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// u16Slice returns s[start:end] counted in UTF-16 code units. Bounds must be
// pre-clamped to [0, u16Len(s)].
func u16Slice(s string, start, end int) string {
	if start >= end {
		return ""
	}
	if isASCII(s) {
		return s[start:end]
	}
	units := utf16.Encode([]rune(s))
	if start > len(units) {
		start = len(units)
	}
	if end > len(units) {
		end = len(units)
	}
	return string(utf16.Decode(units[start:end]))
}

// u16CodeUnitAt returns the UTF-16 code unit at index i, or -1 out of range.
func u16CodeUnitAt(s string, i int) int {
	if i < 0 {
		return -1
	}
	if isASCII(s) {
		if i >= len(s) {
			return -1
		}
		return int(s[i])
	}
	units := utf16.Encode([]rune(s))
	if i >= len(units) {
		return -1
	}
	return int(units[i])
}
